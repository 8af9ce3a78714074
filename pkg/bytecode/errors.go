package bytecode

import (
	"errors"
	"fmt"
)

// MalformedProgramError reports an unbalanced bracket found during
// compilation. Compilation stops at the first such bracket; no partially
// resolved program is ever returned.
type MalformedProgramError struct {
	Bracket byte // The unmatched bracket, '[' or ']'
	Offset  int  // Byte offset of the bracket in the source stream
}

func (e *MalformedProgramError) Error() string {
	return fmt.Sprintf("malformed program: unmatched %q at offset %d", e.Bracket, e.Offset)
}

// IsMalformedProgram checks if an error is a malformed-program error.
func IsMalformedProgram(err error) bool {
	var m *MalformedProgramError
	return errors.As(err, &m)
}

// TapeFaultError reports a cursor move outside the tape. The run that
// faulted is aborted; the engine itself stays usable after a Reset.
type TapeFaultError struct {
	Cursor int // The out-of-range position the move would have reached
	Size   int // Tape capacity in cells
}

func (e *TapeFaultError) Error() string {
	return fmt.Sprintf("tape cursor out of bounds: %d (tape size %d)", e.Cursor, e.Size)
}

// IsTapeFault checks if an error is a tape bounds fault.
func IsTapeFault(err error) bool {
	var t *TapeFaultError
	return errors.As(err, &t)
}

// errHalt is the internal signal the table and closure dispatch loops use
// to stop on OpHalt. It never escapes a Run call.
var errHalt = errors.New("halt")
