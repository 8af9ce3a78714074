package bytecode

import "fmt"

// Strategy selects how the engine maps an opcode to its effect. Every
// strategy produces byte-identical output, identical final tape contents,
// and identical input consumption for the same program and input stream;
// the choice is purely a performance experiment.
type Strategy int

const (
	// StrategySwitch dispatches through a bounded switch over the opcode
	// discriminant. This is the baseline.
	StrategySwitch Strategy = iota

	// StrategyTable dispatches through an opcode-indexed handler table,
	// the portable analogue of computed-goto threading.
	StrategyTable

	// StrategyClosure binds each instruction to a closure before the run
	// starts, the analogue of subroutine threading.
	StrategyClosure
)

// Strategies lists every supported dispatch strategy, in a fixed order.
var Strategies = []Strategy{StrategySwitch, StrategyTable, StrategyClosure}

// String returns the name a strategy is configured by.
func (s Strategy) String() string {
	switch s {
	case StrategySwitch:
		return "switch"
	case StrategyTable:
		return "table"
	case StrategyClosure:
		return "closure"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy returns the strategy named by s, as used in tapevm.toml
// and the -strategy flag.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "switch":
		return StrategySwitch, nil
	case "table":
		return StrategyTable, nil
	case "closure":
		return StrategyClosure, nil
	default:
		return 0, fmt.Errorf("unknown dispatch strategy %q (want switch, table, or closure)", name)
	}
}

// opHandler executes one instruction's effect. Handlers advance e.pc past
// any operand slot themselves; the dispatch loop only advances past the
// opcode slot.
type opHandler func(e *Engine) error

// opHandlers is the handler table for StrategyTable. Indexed by opcode.
var opHandlers = [OpHalt + 1]opHandler{
	OpIncr: func(e *Engine) error {
		e.tape[e.cursor]++
		return nil
	},
	OpDecr: func(e *Engine) error {
		e.tape[e.cursor]--
		return nil
	},
	OpLeft:  (*Engine).moveLeft,
	OpRight: (*Engine).moveRight,
	OpPut:   (*Engine).put,
	OpGet:   (*Engine).get,
	OpOpen: func(e *Engine) error {
		target := int(e.prog.Code[e.pc])
		e.pc++
		if e.tape[e.cursor] == 0 {
			e.pc = target
		}
		return nil
	},
	OpClose: func(e *Engine) error {
		target := int(e.prog.Code[e.pc])
		e.pc++
		if e.tape[e.cursor] != 0 {
			e.pc = target
		}
		return nil
	},
	OpHalt: func(e *Engine) error {
		return errHalt
	},
}

// runTable is the handler-table dispatch loop: fetch the opcode, index
// into the table, invoke.
func (e *Engine) runTable() error {
	code := e.prog.Code
	for {
		op := Opcode(code[e.pc])
		e.pc++

		if e.Trace {
			e.trace(op)
		}

		if int(op) >= len(opHandlers) || opHandlers[op] == nil {
			return fmt.Errorf("unknown opcode 0x%02X at slot %d", byte(op), e.pc-1)
		}
		if err := opHandlers[op](e); err != nil {
			if err == errHalt {
				return nil
			}
			return err
		}
	}
}

// runClosure is the subroutine-threaded dispatch loop: every instruction
// slot is bound to a closure up front, with bracket targets captured at
// bind time, so the loop body is a bare indirect call.
func (e *Engine) runClosure() error {
	thread, err := e.bindThread()
	if err != nil {
		return err
	}

	code := e.prog.Code
	for {
		fn := thread[e.pc]
		e.pc++

		if e.Trace {
			e.trace(Opcode(code[e.pc-1]))
		}

		if err := fn(e); err != nil {
			if err == errHalt {
				return nil
			}
			return err
		}
	}
}

// bindThread builds the closure sequence for the loaded program. Operand
// slots get no closure; the bracket closures that own them skip past them
// or jump through their captured targets, so execution never fetches one.
func (e *Engine) bindThread() ([]opHandler, error) {
	code := e.prog.Code
	thread := make([]opHandler, len(code))

	i := 0
	for i < len(code) {
		op := Opcode(code[i])
		switch op {
		case OpOpen:
			target := int(code[i+1])
			thread[i] = func(e *Engine) error {
				e.pc++
				if e.tape[e.cursor] == 0 {
					e.pc = target
				}
				return nil
			}
			i += 2

		case OpClose:
			target := int(code[i+1])
			thread[i] = func(e *Engine) error {
				e.pc++
				if e.tape[e.cursor] != 0 {
					e.pc = target
				}
				return nil
			}
			i += 2

		default:
			if int(op) >= len(opHandlers) || opHandlers[op] == nil {
				return nil, fmt.Errorf("unknown opcode 0x%02X at slot %d", byte(code[i]), i)
			}
			thread[i] = opHandlers[op]
			i++
		}
	}

	return thread, nil
}
