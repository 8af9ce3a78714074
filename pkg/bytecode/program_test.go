package bytecode

import (
	"testing"
)

func TestEmitAndResolve(t *testing.T) {
	p := NewProgram()
	if slot := p.Emit(OpOpen); slot != 0 {
		t.Errorf("Expected slot 0, got %d", slot)
	}
	ph := p.EmitUnresolved()
	if ph != 1 {
		t.Errorf("Expected placeholder at slot 1, got %d", ph)
	}
	if p.Code[ph] != unresolvedTarget {
		t.Errorf("Expected unresolved sentinel, got %d", p.Code[ph])
	}

	p.Emit(OpClose)
	p.EmitTarget(2)
	p.Resolve(ph, 4)
	p.Emit(OpHalt)

	if p.Code[ph] != 4 {
		t.Errorf("Expected resolved target 4, got %d", p.Code[ph])
	}
	if err := p.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestResolveTwicePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected panic on double resolve")
		}
	}()

	p := NewProgram()
	slot := p.EmitUnresolved()
	p.Resolve(slot, 1)
	p.Resolve(slot, 2)
}

func TestValidateRejectsEmptyProgram(t *testing.T) {
	p := NewProgram()
	if err := p.Validate(); err == nil {
		t.Error("Expected error for empty program")
	}
}

func TestValidateRejectsMissingHalt(t *testing.T) {
	p := &Program{Code: []Word{Word(OpIncr), Word(OpIncr)}}
	if err := p.Validate(); err == nil {
		t.Error("Expected error for program without halt")
	}
}

func TestValidateRejectsInteriorHalt(t *testing.T) {
	p := &Program{Code: []Word{Word(OpHalt), Word(OpIncr), Word(OpHalt)}}
	if err := p.Validate(); err == nil {
		t.Error("Expected error for halt before end of program")
	}
}

func TestValidateRejectsUnresolvedTarget(t *testing.T) {
	p := &Program{Code: []Word{Word(OpOpen), unresolvedTarget, Word(OpHalt)}}
	if err := p.Validate(); err == nil {
		t.Error("Expected error for unresolved jump target")
	}
}

func TestValidateRejectsOutOfRangeTarget(t *testing.T) {
	p := &Program{Code: []Word{Word(OpOpen), 99, Word(OpHalt)}}
	if err := p.Validate(); err == nil {
		t.Error("Expected error for out-of-range jump target")
	}
}

func TestValidateRejectsInvalidOpcode(t *testing.T) {
	p := &Program{Code: []Word{Word(0xEE), Word(OpHalt)}}
	if err := p.Validate(); err == nil {
		t.Error("Expected error for invalid opcode")
	}
}

func TestValidateRejectsBracketMissingOperand(t *testing.T) {
	p := &Program{Code: []Word{Word(OpOpen)}}
	if err := p.Validate(); err == nil {
		t.Error("Expected error for bracket without operand")
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	prog := mustCompile(t, "+[->+<]>.")

	data, err := prog.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	got, err := Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}
	if got.Len() != prog.Len() {
		t.Fatalf("Expected %d slots, got %d", prog.Len(), got.Len())
	}
	for i := range prog.Code {
		if got.Code[i] != prog.Code[i] {
			t.Errorf("Slot %d: expected %d, got %d", i, prog.Code[i], got.Code[i])
		}
	}
}

func TestSerializeRefusesInvalidProgram(t *testing.T) {
	p := &Program{Code: []Word{Word(OpOpen), unresolvedTarget, Word(OpHalt)}}
	if _, err := p.Serialize(); err == nil {
		t.Error("Expected error serializing invalid program")
	}
}

func TestDeserializeRejectsBadMagic(t *testing.T) {
	data := []byte("XXBC\x00\x01\x00\x00\x00\x01")
	if _, err := Deserialize(data); err == nil {
		t.Error("Expected error for bad magic")
	}
}

func TestDeserializeRejectsShortData(t *testing.T) {
	if _, err := Deserialize([]byte("TVB")); err == nil {
		t.Error("Expected error for truncated header")
	}
}

func TestDeserializeRejectsTruncatedSlots(t *testing.T) {
	prog := mustCompile(t, "+[-]")
	data, err := prog.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	if _, err := Deserialize(data[:len(data)-2]); err == nil {
		t.Error("Expected error for truncated slot data")
	}
}

func TestDeserializeRejectsFutureVersion(t *testing.T) {
	prog := mustCompile(t, "+")
	data, err := prog.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	data[4] = 0xFF // Bump the version field far past anything supported

	if _, err := Deserialize(data); err == nil {
		t.Error("Expected error for future version")
	}
}

func TestDeserializedProgramRuns(t *testing.T) {
	prog := mustCompile(t, "+++.")
	data, err := prog.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	got, err := Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}

	e := NewEngine(got)
	var out []byte
	e.SetOutput(writerFunc(func(p []byte) (int, error) {
		out = append(out, p...)
		return len(p), nil
	}))
	if err := e.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(out) != 1 || out[0] != 3 {
		t.Errorf("Expected output [3], got %v", out)
	}
}

// writerFunc adapts a function to io.Writer.
type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
