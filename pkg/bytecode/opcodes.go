package bytecode

import "fmt"

// Opcode identifies one of the nine instruction effects the engine can
// execute. The first eight correspond to the source characters; OpHalt is
// appended by the compiler and never appears in source text.
type Opcode byte

const (
	OpIncr  Opcode = iota // '+' increment current cell (wraps mod 256)
	OpDecr                // '-' decrement current cell (wraps mod 256)
	OpLeft                // '<' move cursor one cell left
	OpRight               // '>' move cursor one cell right
	OpOpen                // '[' jump forward past the loop if cell is zero
	OpClose               // ']' jump back into the loop if cell is nonzero
	OpPut                 // '.' write current cell to the output sink
	OpGet                 // ',' read one byte from the input source
	OpHalt                // end of program, appended by the compiler
)

// OpcodeInfo provides metadata about each opcode for disassembly and
// program validation.
type OpcodeInfo struct {
	Name      string // Human-readable mnemonic
	Char      byte   // Source character, 0 for OpHalt
	HasTarget bool   // Followed by a jump-target slot in compiled code
}

// opcodeInfoTable maps opcodes to their metadata.
var opcodeInfoTable = map[Opcode]OpcodeInfo{
	OpIncr:  {"INCR", '+', false},
	OpDecr:  {"DECR", '-', false},
	OpLeft:  {"LEFT", '<', false},
	OpRight: {"RIGHT", '>', false},
	OpOpen:  {"OPEN", '[', true},
	OpClose: {"CLOSE", ']', true},
	OpPut:   {"PUT", '.', false},
	OpGet:   {"GET", ',', false},
	OpHalt:  {"HALT", 0, false},
}

// opcodeForChar is the fixed character-to-opcode mapping. It is pure
// constant data, initialized once for the whole process; any character
// not in this table is a comment and is skipped by the compiler.
var opcodeForChar = map[byte]Opcode{
	'+': OpIncr,
	'-': OpDecr,
	'<': OpLeft,
	'>': OpRight,
	'[': OpOpen,
	']': OpClose,
	'.': OpPut,
	',': OpGet,
}

// OpcodeForChar returns the opcode for a source character, if any.
func OpcodeForChar(ch byte) (Opcode, bool) {
	op, ok := opcodeForChar[ch]
	return op, ok
}

// GetOpcodeInfo returns metadata for an opcode.
// Returns a zero OpcodeInfo with name "UNKNOWN" if the opcode is not recognized.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", byte(op))}
}

// String returns the human-readable mnemonic of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// HasTarget returns true if the opcode is followed by a jump-target slot.
func (op Opcode) HasTarget() bool {
	return GetOpcodeInfo(op).HasTarget
}

// IsBracket returns true for the two loop opcodes.
func (op Opcode) IsBracket() bool {
	return op == OpOpen || op == OpClose
}

// AllOpcodes returns a slice of all defined opcodes.
// Useful for testing that all opcodes have metadata.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		opcodes = append(opcodes, op)
	}
	return opcodes
}

// OpcodeCount returns the number of defined opcodes.
func OpcodeCount() int {
	return len(opcodeInfoTable)
}
