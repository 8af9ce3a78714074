package bytecode

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// openBracket records an OPEN whose forward jump is not yet resolved.
type openBracket struct {
	slot   int // Index of the placeholder operand slot
	offset int // Byte offset of the '[' in the source, for error reporting
}

// Compiler translates a character stream into a resolved program in a
// single forward pass. Loop targets are resolved as each ']' is seen, so
// the engine never needs a separate bracket-matching pass.
type Compiler struct {
	prog   *Program
	open   []openBracket // Currently unmatched '[' positions
	offset int           // Current byte offset in the source
}

// Compile reads source characters from r and produces a resolved program.
// Characters outside the eight-symbol alphabet are skipped; they are the
// only accepted form of comment.
func Compile(r io.Reader) (*Program, error) {
	c := &Compiler{prog: NewProgram()}

	br := bufio.NewReader(r)
	for {
		ch, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading source: %w", err)
		}
		if err := c.plant(ch); err != nil {
			return nil, err
		}
		c.offset++
	}

	return c.finish()
}

// CompileString compiles source held in a string.
func CompileString(src string) (*Program, error) {
	return Compile(strings.NewReader(src))
}

// plant appends the instruction for one source character, resolving loop
// targets as brackets close.
func (c *Compiler) plant(ch byte) error {
	op, ok := opcodeForChar[ch]
	if !ok {
		return nil
	}

	switch op {
	case OpOpen:
		c.prog.Emit(OpOpen)
		slot := c.prog.EmitUnresolved()
		c.open = append(c.open, openBracket{slot: slot, offset: c.offset})

	case OpClose:
		if len(c.open) == 0 {
			return &MalformedProgramError{Bracket: ']', Offset: c.offset}
		}
		start := c.open[len(c.open)-1].slot
		c.open = c.open[:len(c.open)-1]

		end := c.prog.Emit(OpClose)
		// OPEN skips past the loop: one slot beyond CLOSE's operand.
		c.prog.Resolve(start, end+2)
		// CLOSE returns to just after the loop header.
		c.prog.EmitTarget(start + 1)

	default:
		c.prog.Emit(op)
	}
	return nil
}

// finish terminates the program with OpHalt and checks that compilation
// left no unresolved state behind.
func (c *Compiler) finish() (*Program, error) {
	if len(c.open) > 0 {
		last := c.open[len(c.open)-1]
		return nil, &MalformedProgramError{Bracket: '[', Offset: last.offset}
	}

	c.prog.Emit(OpHalt)

	if err := c.prog.Validate(); err != nil {
		return nil, fmt.Errorf("compiler produced invalid program: %w", err)
	}
	return c.prog, nil
}
