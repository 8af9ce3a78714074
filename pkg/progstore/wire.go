package progstore

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/tapevm/pkg/bytecode"
)

// cborEncMode holds CBOR encoding options with canonical mode for
// deterministic encoding: identical programs always produce identical
// rows, so cache hits are byte-comparable.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("progstore: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// programRecord is the stored form of a compiled program.
type programRecord struct {
	Version uint16          `cbor:"1,keyasint"`
	Code    []bytecode.Word `cbor:"2,keyasint"`
}

// marshalProgram serializes a program to CBOR bytes.
func marshalProgram(p *bytecode.Program) ([]byte, error) {
	return cborEncMode.Marshal(&programRecord{
		Version: bytecode.ProgramVersion,
		Code:    p.Code,
	})
}

// unmarshalProgram deserializes a program from CBOR bytes and validates
// it before handing it to an engine.
func unmarshalProgram(data []byte) (*bytecode.Program, error) {
	var rec programRecord
	if err := cbor.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("progstore: unmarshal program: %w", err)
	}
	if rec.Version > bytecode.ProgramVersion {
		return nil, fmt.Errorf("progstore: program version %d is newer than supported version %d",
			rec.Version, bytecode.ProgramVersion)
	}

	p := &bytecode.Program{Code: rec.Code}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("progstore: stored program is invalid: %w", err)
	}
	return p, nil
}
