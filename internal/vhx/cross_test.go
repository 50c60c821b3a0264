// Copyright 2026 The Stupedama Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vhx

import (
	"bytes"
	"testing"

	"github.com/busserull/Stupedama/internal/ihex"
	"github.com/busserull/Stupedama/internal/memory"
)

// A VHX trip may map more bytes than the image it started from (gap fill
// and tail padding), but never fewer and never different ones. The tests
// below pass the same images through this codec and the Intel HEX codec
// and require the trips to agree on every byte the original maps.

const crossFill = 0xEE

func vhxTrip(t *testing.T, im *memory.Image, chunkBits int) *memory.Image {
	t.Helper()
	first, _, ok := im.Extent()
	if !ok {
		t.Fatal("empty image")
	}
	var buf bytes.Buffer
	if err := Encode(&buf, im, chunkBits, crossFill); err != nil {
		t.Fatal(err)
	}
	back, err := Decode(&buf, first, chunkBits)
	if err != nil {
		t.Fatal(err)
	}
	return back
}

func hexTrip(t *testing.T, im *memory.Image) *memory.Image {
	t.Helper()
	var buf bytes.Buffer
	if err := ihex.Encode(&buf, im, ihex.BigEndian, 16); err != nil {
		t.Fatal(err)
	}
	back, err := ihex.Decode(&buf, ihex.BigEndian)
	if err != nil {
		t.Fatal(err)
	}
	return back
}

// checkMappedBytes requires every byte mapped by want to be mapped by got
// with the same value.
func checkMappedBytes(t *testing.T, want, got *memory.Image) {
	t.Helper()
	for r := range want.Ranges() {
		for i, w := range r.Data {
			addr := r.Start + uint32(i)
			g, ok := got.Byte(addr)
			if !ok {
				t.Fatalf("address %#x is no longer mapped", addr)
			}
			if g != w {
				t.Errorf("address %#x: got %#02x, want %#02x", addr, g, w)
			}
		}
	}
}

func TestCodecsAgreeOnAlignedImage(t *testing.T) {
	im := memory.NewImage()
	if err := im.Insert(0x1000, bytes.Repeat([]byte{0xA5, 0x01, 0x7F, 0x3C}, 8)); err != nil {
		t.Fatal(err)
	}

	viaVhx := vhxTrip(t, im, 128)
	viaHex := hexTrip(t, im)
	// A dense, chunk-aligned image has nothing to pad, so both trips must
	// reproduce it exactly.
	checkMappedBytes(t, im, viaVhx)
	checkMappedBytes(t, viaVhx, im)
	checkMappedBytes(t, im, viaHex)
	checkMappedBytes(t, viaHex, im)
}

func TestCodecsAgreeOnRaggedImage(t *testing.T) {
	im := memory.NewImage()
	if err := im.Insert(0x30, []byte{0x02, 0x33, 0x7A}); err != nil {
		t.Fatal(err)
	}

	viaVhx := vhxTrip(t, im, 64)
	checkMappedBytes(t, im, viaVhx)
	checkMappedBytes(t, im, hexTrip(t, im))

	r := singleRange(t, viaVhx)
	want := []byte{0x02, 0x33, 0x7A, crossFill, crossFill, crossFill, crossFill, crossFill}
	if r.Start != 0x30 || !bytes.Equal(r.Data, want) {
		t.Errorf("got 0x%08X % x, want 0x30 % x", r.Start, r.Data, want)
	}
}

func TestCodecsAgreeAcrossGap(t *testing.T) {
	im := memory.NewImage()
	if err := im.Insert(0x00, bytes.Repeat([]byte{0x11}, 8)); err != nil {
		t.Fatal(err)
	}
	if err := im.Insert(0x20, bytes.Repeat([]byte{0x22}, 8)); err != nil {
		t.Fatal(err)
	}

	viaVhx := vhxTrip(t, im, 64)
	viaHex := hexTrip(t, im)
	checkMappedBytes(t, im, viaVhx)
	checkMappedBytes(t, im, viaHex)
	// Only the VHX trip fills the gap; the HEX trip must keep it unmapped.
	if b, ok := viaVhx.Byte(0x10); !ok || b != crossFill {
		t.Errorf("gap byte after VHX trip: %#x, %v; want fill %#x", b, ok, crossFill)
	}
	if _, ok := viaHex.Byte(0x10); ok {
		t.Errorf("HEX trip mapped a byte inside the gap")
	}
}
