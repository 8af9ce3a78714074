package bytecode

import (
	"encoding/binary"
	"fmt"
)

// ProgramVersion is the current compiled-program format version.
// Increment when making incompatible changes to the format.
const ProgramVersion uint16 = 1

// Magic bytes for serialized programs: "TVBC" (TapeVm ByteCode)
var ProgramMagic = []byte{'T', 'V', 'B', 'C'}

// Word is a single slot of compiled code. A slot holds either an opcode
// or, in the slot immediately following OpOpen/OpClose, the absolute
// index to jump to. Operand slots are only ever read as jump targets, so
// the two interpretations never collide.
type Word int32

// unresolvedTarget is the placeholder stored in a bracket's operand slot
// until its matching bracket is seen. It is never a valid slot index and
// must not survive into a finished program.
const unresolvedTarget Word = -1

// Program is a fully resolved instruction sequence, terminated by exactly
// one trailing OpHalt. It is immutable once compilation finishes; the
// engine only ever reads it.
type Program struct {
	Code []Word
}

// NewProgram creates a new empty program.
func NewProgram() *Program {
	return &Program{Code: make([]Word, 0, 64)}
}

// Emit appends an opcode slot and returns its index.
func (p *Program) Emit(op Opcode) int {
	slot := len(p.Code)
	p.Code = append(p.Code, Word(op))
	return slot
}

// EmitUnresolved appends a placeholder operand slot and returns its index.
// The slot must be overwritten via Resolve before the program is finished.
func (p *Program) EmitUnresolved() int {
	slot := len(p.Code)
	p.Code = append(p.Code, unresolvedTarget)
	return slot
}

// EmitTarget appends an operand slot holding the given jump target.
func (p *Program) EmitTarget(target int) int {
	slot := len(p.Code)
	p.Code = append(p.Code, Word(target))
	return slot
}

// Resolve overwrites the placeholder at the given slot with a jump target.
// Panics if the slot does not hold the unresolved placeholder: a resolved
// operand is never written twice.
func (p *Program) Resolve(slot, target int) {
	if p.Code[slot] != unresolvedTarget {
		panic(fmt.Sprintf("bytecode: slot %d already resolved to %d", slot, p.Code[slot]))
	}
	p.Code[slot] = Word(target)
}

// Len returns the number of slots in the program.
func (p *Program) Len() int {
	return len(p.Code)
}

// Validate checks the structural invariants of a finished program: every
// slot decodes, every bracket operand is a resolved in-range target, and
// the single OpHalt sits in the final slot.
func (p *Program) Validate() error {
	if len(p.Code) == 0 {
		return fmt.Errorf("empty program: missing halt")
	}

	i := 0
	for i < len(p.Code) {
		op := Opcode(p.Code[i])
		if _, ok := opcodeInfoTable[op]; !ok {
			return fmt.Errorf("invalid opcode 0x%02X at slot %d", byte(p.Code[i]), i)
		}

		if op == OpHalt {
			if i != len(p.Code)-1 {
				return fmt.Errorf("halt at slot %d before end of program", i)
			}
			return nil
		}

		if op.HasTarget() {
			if i+1 >= len(p.Code) {
				return fmt.Errorf("%s at slot %d is missing its operand", op, i)
			}
			target := p.Code[i+1]
			if target == unresolvedTarget {
				return fmt.Errorf("unresolved jump target at slot %d", i+1)
			}
			if target < 0 || int(target) >= len(p.Code) {
				return fmt.Errorf("jump target %d at slot %d is out of range", target, i+1)
			}
			i += 2
			continue
		}
		i++
	}

	return fmt.Errorf("program does not end with halt")
}

// Serialize encodes the program to bytes for storage/transport.
// Format:
//
//	[magic:4] [version:2] [slot_count:4] [slots:4 each, big-endian]
//
// Recompiling from source is always possible; this format exists so
// compiled programs can be cached and inspected offline.
func (p *Program) Serialize() ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("refusing to serialize invalid program: %w", err)
	}

	buf := make([]byte, 0, 10+len(p.Code)*4)
	buf = append(buf, ProgramMagic...)
	buf = binary.BigEndian.AppendUint16(buf, ProgramVersion)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(p.Code)))
	for _, w := range p.Code {
		buf = binary.BigEndian.AppendUint32(buf, uint32(w))
	}
	return buf, nil
}

// Deserialize decodes a program from bytes and validates it.
func Deserialize(data []byte) (*Program, error) {
	if len(data) < 10 {
		return nil, fmt.Errorf("program too short: need at least 10 bytes, got %d", len(data))
	}

	if string(data[0:4]) != string(ProgramMagic) {
		return nil, fmt.Errorf("invalid program magic: expected %q, got %q", ProgramMagic, data[0:4])
	}

	version := binary.BigEndian.Uint16(data[4:6])
	if version > ProgramVersion {
		return nil, fmt.Errorf("program version %d is newer than supported version %d", version, ProgramVersion)
	}

	count := binary.BigEndian.Uint32(data[6:10])
	if len(data) < 10+int(count)*4 {
		return nil, fmt.Errorf("unexpected end of program: need %d slots, have %d bytes", count, len(data)-10)
	}

	p := &Program{Code: make([]Word, count)}
	pos := 10
	for i := range p.Code {
		p.Code[i] = Word(binary.BigEndian.Uint32(data[pos:]))
		pos += 4
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("deserialized program is invalid: %w", err)
	}
	return p, nil
}
