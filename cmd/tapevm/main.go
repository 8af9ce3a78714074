// Tapevm CLI - compiles tape-language source files and runs them.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/tapevm/manifest"
	"github.com/chazu/tapevm/pkg/bytecode"
	"github.com/chazu/tapevm/pkg/progstore"
)

var log = commonlog.GetLogger("tapevm")

func main() {
	verbose := flag.Bool("v", false, "Verbose output")
	strategyName := flag.String("strategy", "", "Dispatch strategy: switch, table, or closure")
	tapeSize := flag.Int("tape", 0, "Tape size in cells")
	trace := flag.Bool("trace", false, "Print each instruction as it executes")
	disasm := flag.Bool("disasm", false, "Print the compiled program instead of running it")
	noCache := flag.Bool("no-cache", false, "Skip the compiled-program cache")
	configDir := flag.String("config", "", "Directory containing tapevm.toml (default: search upward from cwd)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tapevm [options] file...\n\n")
		fmt.Fprintf(os.Stderr, "Compiles each source file and runs it on a fresh engine.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  tapevm hello.b                   # Compile and run\n")
		fmt.Fprintf(os.Stderr, "  tapevm -strategy closure bench.b # Run with subroutine-threaded dispatch\n")
		fmt.Fprintf(os.Stderr, "  tapevm -disasm hello.b           # Show the compiled program\n")
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)

	files := flag.Args()
	if len(files) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	m, err := loadManifest(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Flags override the manifest.
	if *strategyName != "" {
		m.Engine.Strategy = *strategyName
	}
	if *tapeSize > 0 {
		m.Engine.TapeSize = *tapeSize
	}
	if *trace {
		m.Engine.Trace = true
	}

	strategy, err := bytecode.ParseStrategy(m.Engine.Strategy)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var cache *progstore.Store
	if m.Cache.Enabled && !*noCache {
		cache, err = progstore.Open(m.CachePath())
		if err != nil {
			log.Errorf("cannot open program cache: %s", err.Error())
		} else {
			defer cache.Close()
		}
	}

	for _, path := range files {
		if err := runFile(path, m, strategy, cache, *disasm); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", path, err)
			os.Exit(1)
		}
	}
}

// loadManifest loads configuration from the given directory, or searches
// upward from the working directory. Absence of a manifest is fine.
func loadManifest(dir string) (*manifest.Manifest, error) {
	if dir != "" {
		return manifest.Load(dir)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	m, err := manifest.FindAndLoad(cwd)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return manifest.Default(), nil
	}
	log.Infof("using %s", m.Dir)
	return m, nil
}

// runFile compiles (or fetches from cache) and executes one source file
// on a fresh engine, per the one-engine-per-execution rule.
func runFile(path string, m *manifest.Manifest, strategy bytecode.Strategy, cache *progstore.Store, disasm bool) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	prog, err := loadProgram(string(source), cache)
	if err != nil {
		return err
	}

	if disasm {
		fmt.Print(prog.DisassembleWithName(path))
		return nil
	}

	log.Infof("executing %s (%d slots, %s dispatch)", path, prog.Len(), strategy)

	e := bytecode.NewEngine(prog)
	e.SetStrategy(strategy)
	e.SetInput(os.Stdin)
	e.SetOutput(os.Stdout)
	e.Trace = m.Engine.Trace
	if err := e.SetTapeSize(m.Engine.TapeSize); err != nil {
		return err
	}

	return e.Run()
}

// loadProgram returns the cached program for the source when available,
// compiling and caching on a miss. Cache failures fall back to a plain
// compile; the cache is never load-bearing.
func loadProgram(source string, cache *progstore.Store) (*bytecode.Program, error) {
	if cache != nil {
		prog, err := cache.Get(source)
		if err == nil {
			log.Debugf("program cache hit")
			return prog, nil
		}
		if !errors.Is(err, progstore.ErrNotCached) {
			log.Debugf("program cache miss: %s", err.Error())
		}
	}

	prog, err := bytecode.CompileString(source)
	if err != nil {
		return nil, err
	}

	if cache != nil {
		if err := cache.Put(source, prog); err != nil {
			log.Debugf("program cache store failed: %s", err.Error())
		}
	}
	return prog, nil
}
