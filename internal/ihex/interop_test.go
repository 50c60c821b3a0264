// Copyright 2026 The Stupedama Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ihex

import (
	"bytes"
	"testing"

	"github.com/busserull/Stupedama/internal/memory"
	"github.com/marcinbor85/gohex"
)

// Cross-checks against the gohex codec keep this package within the HEX
// dialect the surrounding firmware tooling already accepts.

func TestGohexParsesEncoderOutput(t *testing.T) {
	low := []byte{0x02, 0x33, 0x7A}
	high := make([]byte, 16)
	for i := range high {
		high[i] = byte(0xE0 + i)
	}
	im := memory.NewImage()
	if err := im.Insert(0x30, low); err != nil {
		t.Fatal(err)
	}
	if err := im.Insert(0x0001_FFF8, high); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, im, BigEndian, 16); err != nil {
		t.Fatal(err)
	}

	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(&buf); err != nil {
		t.Fatalf("gohex rejected encoder output: %v", err)
	}
	segs := mem.GetDataSegments()
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2", len(segs))
	}
	if segs[0].Address != 0x30 || !bytes.Equal(segs[0].Data, low) {
		t.Errorf("segment 0: got 0x%08X % X", segs[0].Address, segs[0].Data)
	}
	if segs[1].Address != 0x0001_FFF8 || !bytes.Equal(segs[1].Data, high) {
		t.Errorf("segment 1: got 0x%08X % X", segs[1].Address, segs[1].Data)
	}
}

func TestDecodeParsesGohexOutput(t *testing.T) {
	low := bytes.Repeat([]byte{0xC3}, 32)
	high := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	mem := gohex.NewMemory()
	if err := mem.AddBinary(0x100, low); err != nil {
		t.Fatal(err)
	}
	if err := mem.AddBinary(0x0002_0000, high); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := mem.DumpIntelHex(&buf, 16); err != nil {
		t.Fatal(err)
	}

	im, err := Decode(&buf, BigEndian)
	if err != nil {
		t.Fatalf("gohex output rejected: %v", err)
	}
	checkRanges(t, im, []memory.Range{
		{Start: 0x100, Data: low},
		{Start: 0x0002_0000, Data: high},
	})
}
