package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of the program.
func (p *Program) Disassemble() string {
	return p.DisassembleWithName("")
}

// DisassembleWithName returns a human-readable listing with a name header.
func (p *Program) DisassembleWithName(name string) string {
	var sb strings.Builder

	if name != "" {
		sb.WriteString(fmt.Sprintf("; === %s ===\n", name))
	}
	sb.WriteString(fmt.Sprintf("; tapevm program v%d, %d slots\n", ProgramVersion, len(p.Code)))

	i := 0
	for i < len(p.Code) {
		op := Opcode(p.Code[i])
		info := GetOpcodeInfo(op)

		if info.HasTarget && i+1 < len(p.Code) {
			target := p.Code[i+1]
			if target == unresolvedTarget {
				sb.WriteString(fmt.Sprintf("%04d  %-5s -> ????\n", i, info.Name))
			} else {
				sb.WriteString(fmt.Sprintf("%04d  %-5s -> %04d\n", i, info.Name, target))
			}
			i += 2
			continue
		}

		sb.WriteString(fmt.Sprintf("%04d  %s\n", i, info.Name))
		i++
	}

	return sb.String()
}
