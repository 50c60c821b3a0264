// Copyright 2026 The Stupedama Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package inspect renders a memory image as an address-annotated hex dump.
package inspect

import (
	"bufio"
	"fmt"
	"io"

	"github.com/busserull/Stupedama/internal/memory"
)

// bytesPerLine is the width of one dump line.
const bytesPerLine = 16

// Dump writes im to w as one line per 16 bytes of address space, from the
// aligned line holding the first mapped byte through the line holding the
// last. Each line shows the address and the line's bytes grouped into
// wordSize-byte cells; unmapped bytes print as "--", so lines falling
// inside a gap show up as all placeholders rather than being skipped. An
// empty image produces no output.
//
// wordSize must divide the line width.
func Dump(w io.Writer, im *memory.Image, wordSize int) error {
	if wordSize < 1 || bytesPerLine%wordSize != 0 {
		return fmt.Errorf("word size %d does not divide a %d-byte line", wordSize, bytesPerLine)
	}
	first, last, ok := im.Extent()
	if !ok {
		return nil
	}
	bw := bufio.NewWriter(w)
	for row := uint64(first &^ (bytesPerLine - 1)); row <= uint64(last); row += bytesPerLine {
		fmt.Fprintf(bw, "%08x:", row)
		for col := 0; col < bytesPerLine; col++ {
			if col%wordSize == 0 {
				bw.WriteByte(' ')
			}
			if b, ok := im.Byte(uint32(row) + uint32(col)); ok {
				fmt.Fprintf(bw, "%02x", b)
			} else {
				bw.WriteString("--")
			}
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
