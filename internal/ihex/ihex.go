// Copyright 2026 The Stupedama Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ihex decodes and encodes the Intel HEX record format.
//
// Each record is one ASCII line: a ':' start code followed by hex digit
// pairs for the byte count, a 16-bit address, the record type, the payload
// and a two's-complement checksum of everything since the start code. The
// codec understands data records (00), the end-of-file record (01) and the
// extended segment (02) and extended linear (04) address records that
// relocate subsequent data records; other record types are checksummed and
// skipped.
//
// The surrounding tooling treats images as sequences of 32-bit words. A
// WordOrder tells the codec whether the file stores those words least
// significant byte first (the common case for the targets this tool
// serves) or in plain memory order.
package ihex

import (
	"bufio"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/busserull/Stupedama/internal/memory"
)

// Record types acted upon by the codec.
const (
	recData       = 0x00
	recEOF        = 0x01
	recExtSegment = 0x02
	recExtLinear  = 0x04
)

// wordSize is the byte width of the words a WordOrder applies to.
const wordSize = 4

// A WordOrder selects the byte order of the 32-bit words stored in a HEX
// file relative to the in-memory image.
type WordOrder int

const (
	// LittleEndian files store each word least significant byte first.
	// Decoding regroups the bytes into memory order and requires every
	// decoded range to be a whole number of words.
	LittleEndian WordOrder = iota
	// BigEndian files store bytes exactly as they appear in memory.
	BigEndian
)

// checksum returns the Intel HEX checksum of p: the two's complement of
// the sum of its bytes.
func checksum(p []byte) byte {
	var sum byte
	for _, b := range p {
		sum += b
	}
	return -sum
}

// decoder accumulates the state of one Decode call. The extended address
// bases start at zero and persist from the record that set them to the end
// of the input.
type decoder struct {
	im         *memory.Image
	extSegment uint32 // extended segment base, applied times 16
	extLinear  uint32 // extended linear base, applied shifted left 16
	line       int
	eof        bool
}

// Decode parses newline-delimited Intel HEX records from r into a fresh
// image. Decoding stops at the first end-of-file record and fails if the
// input ends without one. Blank lines are skipped. Addresses of data
// records are offset by the extended segment and extended linear bases in
// effect when the record appears.
func Decode(r io.Reader, order WordOrder) (*memory.Image, error) {
	d := decoder{im: memory.NewImage()}
	sc := bufio.NewScanner(r)
	for !d.eof && sc.Scan() {
		d.line++
		if err := d.record(sc.Text()); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if !d.eof {
		return nil, &RecordError{d.line, errors.New("missing end-of-file record")}
	}
	if order == LittleEndian {
		if err := d.im.SwapWordBytes(wordSize); err != nil {
			return nil, fmt.Errorf("little-endian word order: %w", err)
		}
	}
	return d.im, nil
}

// record parses and applies a single line.
func (d *decoder) record(line string) error {
	if line == "" {
		return nil
	}
	if line[0] != ':' {
		return &RecordError{d.line, errors.New("missing ':' start code")}
	}
	rec, err := hex.DecodeString(line[1:])
	if err != nil {
		return &RecordError{d.line, err}
	}
	if len(rec) < 5 {
		return &RecordError{d.line, errors.New("record shorter than the minimum 5 bytes")}
	}
	count := int(rec[0])
	addr := binary.BigEndian.Uint16(rec[1:3])
	typ := rec[3]
	if want, got := checksum(rec[:len(rec)-1]), rec[len(rec)-1]; want != got {
		return &ChecksumError{Line: d.line, Addr: addr, Want: want, Got: got}
	}
	if count+5 != len(rec) {
		return &RecordError{d.line, fmt.Errorf("declared %d data bytes, record carries %d", count, len(rec)-5)}
	}
	data := rec[4 : 4+count]

	switch typ {
	case recData:
		abs := uint64(d.extLinear)<<16 + uint64(d.extSegment)*16 + uint64(addr)
		if abs+uint64(count) > 1<<32 {
			return &RecordError{d.line, fmt.Errorf("data at 0x%X exceeds the 32-bit address space", abs)}
		}
		if err := d.im.Insert(uint32(abs), data); err != nil {
			return &RecordError{d.line, err}
		}
	case recEOF:
		if count != 0 || addr != 0 {
			return &RecordError{d.line, errors.New("end-of-file record with nonzero count or address")}
		}
		d.eof = true
	case recExtSegment:
		if count != 2 {
			return &RecordError{d.line, errors.New("extended segment address record must carry 2 bytes")}
		}
		d.extSegment = uint32(binary.BigEndian.Uint16(data))
	case recExtLinear:
		if count != 2 {
			return &RecordError{d.line, errors.New("extended linear address record must carry 2 bytes")}
		}
		d.extLinear = uint32(binary.BigEndian.Uint16(data))
	}
	return nil
}
