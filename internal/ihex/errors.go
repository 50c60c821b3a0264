// Copyright 2026 The Stupedama Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ihex

import "fmt"

// A RecordError describes a structurally invalid record: a missing start
// code, bad hex digits, a byte count that disagrees with the record length,
// or a field check specific to the record type.
type RecordError struct {
	Line int // 1-based input line
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// A ChecksumError reports a record whose stored checksum does not match the
// one computed from its contents.
type ChecksumError struct {
	Line int    // 1-based input line
	Addr uint16 // address field of the offending record
	Want byte   // checksum computed from the record bytes
	Got  byte   // checksum stored in the record
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("line %d: checksum mismatch at address 0x%04X (computed %02X, stored %02X)",
		e.Line, e.Addr, e.Want, e.Got)
}
