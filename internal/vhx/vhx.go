// Copyright 2026 The Stupedama Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vhx decodes and encodes the VHX memory-image format.
//
// A VHX file is a bare stream of ASCII hex digits carrying no addresses
// and no checksums. The digits describe 32-bit words, each written as 8
// digits most significant byte first, grouped into chunks of 64 or 128
// bits. Within a chunk the words appear in reverse memory order, the way
// a memory row reads when printed most significant word first. ASCII
// whitespace may appear anywhere and is ignored.
//
// Because the format has no addresses, a decoded file is one contiguous
// range whose base address the caller supplies, and an image is flattened
// with a fill byte before encoding.
package vhx

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/busserull/Stupedama/internal/memory"
)

// wordSize is the byte width of one VHX word.
const wordSize = 4

// A FormatError reports a byte of input that can be neither a hex digit
// nor whitespace.
type FormatError struct {
	Off int // byte offset in the input
	Err error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("input byte %d: %v", e.Off, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// chunkLen converts a chunk size in bits to bytes. Only the two chunk
// sizes seen in the wild are accepted.
func chunkLen(chunkBits int) (int, error) {
	switch chunkBits {
	case 64, 128:
		return chunkBits / 8, nil
	}
	return 0, fmt.Errorf("chunk size must be 64 or 128 bits, not %d", chunkBits)
}

// Decode parses a stream of VHX chunks from r into an image holding one
// range based at base. An empty input decodes to an empty image.
func Decode(r io.Reader, base uint32, chunkBits int) (*memory.Image, error) {
	chunk, err := chunkLen(chunkBits)
	if err != nil {
		return nil, err
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	digits := make([]byte, 0, len(raw))
	for i, c := range raw {
		switch {
		case '0' <= c && c <= '9', 'a' <= c && c <= 'f', 'A' <= c && c <= 'F':
			digits = append(digits, c)
		case c == ' ', c == '\t', c == '\r', c == '\n', c == '\v', c == '\f':
		default:
			return nil, &FormatError{i, fmt.Errorf("%q is not a hex digit", c)}
		}
	}
	if len(digits)%2 != 0 {
		return nil, errors.New("odd number of hex digits")
	}
	data := make([]byte, hex.DecodedLen(len(digits)))
	if _, err := hex.Decode(data, digits); err != nil {
		return nil, err
	}
	if len(data)%chunk != 0 {
		return nil, fmt.Errorf("%d data bytes do not form whole %d-bit chunks", len(data), chunkBits)
	}

	// Undo the word reversal chunk by chunk.
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i += chunk {
		for off := i + chunk - wordSize; off >= i; off -= wordSize {
			out = append(out, data[off:off+wordSize]...)
		}
	}

	im := memory.NewImage()
	if err := im.Insert(base, out); err != nil {
		return nil, err
	}
	return im, nil
}

// Encode flattens im with fill, pads the tail with fill up to a whole
// chunk and writes one chunk of lowercase hex digits per line, words
// reversed. An empty image writes nothing.
func Encode(w io.Writer, im *memory.Image, chunkBits int, fill byte) error {
	chunk, err := chunkLen(chunkBits)
	if err != nil {
		return err
	}
	_, data := im.Flatten(fill)
	if len(data) == 0 {
		return nil
	}
	if rem := len(data) % chunk; rem != 0 {
		data = append(data, bytes.Repeat([]byte{fill}, chunk-rem)...)
	}

	bw := bufio.NewWriter(w)
	line := make([]byte, 0, 2*chunk+1)
	for i := 0; i < len(data); i += chunk {
		line = line[:0]
		for off := i + chunk - wordSize; off >= i; off -= wordSize {
			line = hex.AppendEncode(line, data[off:off+wordSize])
		}
		line = append(line, '\n')
		if _, err := bw.Write(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}
