// Package bytecode implements a minimal virtual machine for the classic
// eight-instruction tape language: a single-pass compiler that turns a
// character stream into a resolved instruction sequence, and an execution
// engine that runs that sequence against a fixed-size byte tape.
//
// # Compiled form
//
// A compiled Program is a flat sequence of Word slots. Most slots hold an
// opcode; each OPEN and CLOSE is immediately followed by one operand slot
// holding the absolute index to jump to. Bracket targets are resolved
// during the single compilation pass using a stack of open positions, so
// the engine never performs bracket matching at run time. Every program
// ends with exactly one HALT.
//
// # Dispatch strategies
//
// The fetch-decode loop is the one place where implementation strategy
// varies, and it exists in three interchangeable forms: a bounded switch
// over the opcode (the baseline), an opcode-indexed handler table, and
// per-instruction closures bound before the run starts. All three are
// required to be observationally equivalent — same output bytes, same
// final tape, same input consumption — which the test suite checks
// against the switch baseline. The strategies exist for benchmarking
// dispatch overhead, nothing else.
//
// # Faults
//
// Compilation fails with MalformedProgramError on an unbalanced bracket.
// At run time, moving the cursor off either end of the tape surfaces
// TapeFaultError instead of touching memory out of range; the faulted
// engine can be reused after Reset. End-of-input is not a fault: a GET
// at exhausted input leaves the current cell unchanged.
package bytecode
