package bytecode

import (
	"bufio"
	"fmt"
	"io"
)

// DefaultTapeSize is the conventional tape capacity for this instruction
// language: 30,000 byte cells.
const DefaultTapeSize = 30000

// Engine executes a compiled program against a fixed-size byte tape.
//
// An Engine is single-threaded and not safe for concurrent use; run
// independent programs on independent engines. There is no cancellation
// primitive: a program runs until it halts or faults.
type Engine struct {
	prog   *Program
	pc     int    // Program counter: index of the next slot to fetch
	tape   []byte // Cell storage, all zero at start of run
	cursor int    // Current cell index

	input    *bufio.Reader // Byte source for GET; nil reads as exhausted
	output   io.Writer     // Byte sink for PUT
	strategy Strategy

	reads uint64  // Input bytes consumed, for equivalence checking
	obuf  [1]byte // Scratch buffer for single-byte writes

	// Trace prints each fetched instruction during execution.
	Trace bool
}

// NewEngine creates an engine for the given program with a default-size
// tape, no input, and discarded output.
func NewEngine(prog *Program) *Engine {
	return &Engine{
		prog:   prog,
		tape:   make([]byte, DefaultTapeSize),
		output: io.Discard,
	}
}

// SetInput sets the input source for GET instructions. A nil reader is
// treated as already exhausted.
func (e *Engine) SetInput(r io.Reader) {
	if r == nil {
		e.input = nil
		return
	}
	e.input = bufio.NewReader(r)
}

// SetOutput sets the output sink for PUT instructions.
func (e *Engine) SetOutput(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	e.output = w
}

// SetStrategy selects the dispatch strategy for subsequent runs. All
// strategies are observationally equivalent; this is a performance knob.
func (e *Engine) SetStrategy(s Strategy) {
	e.strategy = s
}

// SetTapeSize replaces the tape with a fresh zeroed tape of n cells.
func (e *Engine) SetTapeSize(n int) error {
	if n <= 0 {
		return fmt.Errorf("tape size must be positive, got %d", n)
	}
	e.tape = make([]byte, n)
	e.cursor = 0
	return nil
}

// Reset returns the engine to its initial state: zeroed tape, cursor and
// program counter at zero. Input and output collaborators are kept.
func (e *Engine) Reset() {
	e.pc = 0
	e.cursor = 0
	e.reads = 0
	clear(e.tape)
}

// Cursor returns the current tape cursor position.
func (e *Engine) Cursor() int {
	return e.cursor
}

// Cell returns the value of the tape cell at index i.
func (e *Engine) Cell(i int) byte {
	return e.tape[i]
}

// TapeSize returns the tape capacity in cells.
func (e *Engine) TapeSize() int {
	return len(e.tape)
}

// InputReads returns the number of input bytes consumed so far.
func (e *Engine) InputReads() uint64 {
	return e.reads
}

// Run executes the program to completion using the selected dispatch
// strategy. It returns nil on a normal halt, or the fault that aborted
// the run. A faulted engine can be reused after Reset.
func (e *Engine) Run() error {
	if e.prog == nil || len(e.prog.Code) == 0 {
		return fmt.Errorf("no program loaded")
	}

	switch e.strategy {
	case StrategySwitch:
		return e.runSwitch()
	case StrategyTable:
		return e.runTable()
	case StrategyClosure:
		return e.runClosure()
	default:
		return fmt.Errorf("unknown dispatch strategy %d", e.strategy)
	}
}

// runSwitch is the baseline dispatch loop: fetch, advance, branch on the
// opcode discriminant.
func (e *Engine) runSwitch() error {
	code := e.prog.Code
	for {
		op := Opcode(code[e.pc])
		e.pc++

		if e.Trace {
			e.trace(op)
		}

		switch op {
		case OpIncr:
			e.tape[e.cursor]++

		case OpDecr:
			e.tape[e.cursor]--

		case OpRight:
			if err := e.moveRight(); err != nil {
				return err
			}

		case OpLeft:
			if err := e.moveLeft(); err != nil {
				return err
			}

		case OpPut:
			if err := e.put(); err != nil {
				return err
			}

		case OpGet:
			if err := e.get(); err != nil {
				return err
			}

		case OpOpen:
			target := int(code[e.pc])
			e.pc++
			if e.tape[e.cursor] == 0 {
				e.pc = target
			}

		case OpClose:
			target := int(code[e.pc])
			e.pc++
			if e.tape[e.cursor] != 0 {
				e.pc = target
			}

		case OpHalt:
			return nil

		default:
			return fmt.Errorf("unknown opcode 0x%02X at slot %d", byte(op), e.pc-1)
		}
	}
}

// Instruction effects shared by all dispatch strategies. Keeping them in
// one place is what makes the strategies observationally equivalent.

func (e *Engine) moveRight() error {
	if e.cursor+1 >= len(e.tape) {
		return &TapeFaultError{Cursor: e.cursor + 1, Size: len(e.tape)}
	}
	e.cursor++
	return nil
}

func (e *Engine) moveLeft() error {
	if e.cursor == 0 {
		return &TapeFaultError{Cursor: -1, Size: len(e.tape)}
	}
	e.cursor--
	return nil
}

func (e *Engine) put() error {
	e.obuf[0] = e.tape[e.cursor]
	if _, err := e.output.Write(e.obuf[:]); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

// get reads one input byte into the current cell. End-of-input leaves the
// cell unchanged; it is not an error.
func (e *Engine) get() error {
	if e.input == nil {
		return nil
	}
	b, err := e.input.ReadByte()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	e.tape[e.cursor] = b
	e.reads++
	return nil
}

func (e *Engine) trace(op Opcode) {
	fmt.Printf("[%04d] %-5s cursor=%d cell=%d\n", e.pc-1, op, e.cursor, e.tape[e.cursor])
}
