// Copyright 2026 The Stupedama Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ihex

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"slices"

	"github.com/busserull/Stupedama/internal/memory"
)

// maxLineLen is the largest payload a single data record can carry, fixed
// by the one-byte count field.
const maxLineLen = 255

// Encode writes im to w as Intel HEX records with at most lineLen payload
// bytes per data record. Ranges are emitted in address order, an extended
// linear address record precedes any data record whose upper 16 address
// bits differ from the ones in effect, and the output ends with an
// end-of-file record. Gaps between ranges are preserved, not filled.
//
// With LittleEndian order every range must hold a whole number of 32-bit
// words; their bytes are reversed on the way out.
func Encode(w io.Writer, im *memory.Image, order WordOrder, lineLen int) error {
	if lineLen < 1 || lineLen > maxLineLen {
		return fmt.Errorf("record length %d out of range 1..%d", lineLen, maxLineLen)
	}
	if order == LittleEndian {
		for r := range im.Ranges() {
			if len(r.Data)%wordSize != 0 {
				return fmt.Errorf("little-endian word order: range at 0x%08X holds %d bytes, not a multiple of %d", r.Start, len(r.Data), wordSize)
			}
		}
	}
	e := encoder{w: bufio.NewWriter(w), lineLen: lineLen}
	for r := range im.Ranges() {
		data := r.Data
		if order == LittleEndian {
			data = swapped(data)
		}
		if err := e.writeRange(r.Start, data); err != nil {
			return err
		}
	}
	if err := e.writeRecord(recEOF, 0, nil); err != nil {
		return err
	}
	return e.w.Flush()
}

type encoder struct {
	w       *bufio.Writer
	lineLen int
	base    uint16 // upper address bits announced by the last extended linear record
}

// writeRange emits the data records for one contiguous range, splitting at
// lineLen and at 64 KiB boundaries so the 16-bit record address never
// wraps.
func (e *encoder) writeRange(start uint32, data []byte) error {
	addr := uint64(start)
	for len(data) > 0 {
		if base := uint16(addr >> 16); base != e.base {
			var ext [2]byte
			binary.BigEndian.PutUint16(ext[:], base)
			if err := e.writeRecord(recExtLinear, 0, ext[:]); err != nil {
				return err
			}
			e.base = base
		}
		n := e.lineLen
		if room := 0x10000 - int(addr&0xFFFF); n > room {
			n = room
		}
		if n > len(data) {
			n = len(data)
		}
		if err := e.writeRecord(recData, uint16(addr), data[:n]); err != nil {
			return err
		}
		addr += uint64(n)
		data = data[n:]
	}
	return nil
}

func (e *encoder) writeRecord(typ byte, addr uint16, data []byte) error {
	rec := make([]byte, 0, len(data)+5)
	rec = append(rec, byte(len(data)))
	rec = binary.BigEndian.AppendUint16(rec, addr)
	rec = append(rec, typ)
	rec = append(rec, data...)
	rec = append(rec, checksum(rec))
	_, err := fmt.Fprintf(e.w, ":%X\n", rec)
	return err
}

// swapped returns a copy of data with the bytes of every 32-bit word
// reversed.
func swapped(data []byte) []byte {
	out := slices.Clone(data)
	for i := 0; i+wordSize <= len(out); i += wordSize {
		slices.Reverse(out[i : i+wordSize])
	}
	return out
}
