// Copyright 2026 The Stupedama Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Stupedama converts memory images between the Intel HEX and VHX file
// formats.
//
// Usage:
//
//	stupedama [OPTIONS] INPUT [OUTPUT]
//
// The format of each file is inferred from its extension: .hex is Intel
// HEX, .vhx and .vhx128 are VHX. With an OUTPUT file the decoded input is
// re-encoded there; without one an address-annotated dump of the image is
// printed to stdout. Every failure class exits with its own code so
// scripts can tell an unreadable file from a corrupt one.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/busserull/Stupedama/internal/ihex"
	"github.com/busserull/Stupedama/internal/inspect"
	"github.com/busserull/Stupedama/internal/memory"
	"github.com/busserull/Stupedama/internal/vhx"
)

const (
	wordSize   = 4  // inspection dump cell width
	hexLineLen = 16 // payload bytes per emitted HEX record
)

// Exit codes, one per failure class.
const (
	exitOK = iota
	exitIO
	exitUsage
	exitMalformed
	exitChecksum
	exitOverlap
	exitExtension
)

type format int

const (
	formatHex format = iota
	formatVhx
)

var formats = map[string]format{
	".hex":    formatHex,
	".vhx":    formatVhx,
	".vhx128": formatVhx,
}

type extensionError string

func (e extensionError) Error() string {
	exts := slices.Sorted(maps.Keys(formats))
	return fmt.Sprintf("unsupported file extension %q, expected one of: %s",
		string(e), strings.Join(exts, " "))
}

func fileFormat(path string) (format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	f, ok := formats[ext]
	if !ok {
		return 0, extensionError(ext)
	}
	return f, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("stupedama", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprint(stderr, "Usage:\n  stupedama [OPTIONS] INPUT [OUTPUT]\n\n",
			"Convert memory images between Intel HEX (.hex) and VHX (.vhx, .vhx128).\n",
			"With no OUTPUT, print an address-annotated dump of INPUT to stdout.\n\n",
			"Options:\n")
		flags.PrintDefaults()
	}
	chunk := flags.Uint("c", 128, "VHX chunk size in `bits`, 64 or 128")
	order := flags.String("e", "little", "HEX word byte `order`, little or big")
	fill := flags.Uint("f", 0xff, "fill `byte` for unmapped gaps")
	base := flags.Uint64("s", 0, "base `address` of VHX input")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if flags.NArg() < 1 || flags.NArg() > 2 {
		flags.Usage()
		return exitUsage
	}
	var wordOrder ihex.WordOrder
	switch *order {
	case "little":
		wordOrder = ihex.LittleEndian
	case "big":
		wordOrder = ihex.BigEndian
	default:
		fmt.Fprintf(stderr, "-e must be little or big, not %q\n", *order)
		return exitUsage
	}
	if *chunk != 64 && *chunk != 128 {
		fmt.Fprintf(stderr, "-c must be 64 or 128, not %d\n", *chunk)
		return exitUsage
	}
	if *fill > 0xFF {
		fmt.Fprintf(stderr, "-f must fit in a byte, not %#x\n", *fill)
		return exitUsage
	}
	if *base > math.MaxUint32 {
		fmt.Fprintf(stderr, "-s must fit in 32 bits, not %#x\n", *base)
		return exitUsage
	}

	input := flags.Arg(0)
	inFormat, err := fileFormat(input)
	if err != nil {
		return fail(stderr, err)
	}
	output := flags.Arg(1)
	var outFormat format
	if output != "" {
		if outFormat, err = fileFormat(output); err != nil {
			return fail(stderr, err)
		}
	}

	raw, err := os.ReadFile(input)
	if err != nil {
		return fail(stderr, err)
	}
	var im *memory.Image
	switch inFormat {
	case formatHex:
		im, err = ihex.Decode(bytes.NewReader(raw), wordOrder)
	case formatVhx:
		im, err = vhx.Decode(bytes.NewReader(raw), uint32(*base), int(*chunk))
	}
	if err != nil {
		return fail(stderr, fmt.Errorf("%s: %w", input, err))
	}

	if output == "" {
		if err := inspect.Dump(stdout, im, wordSize); err != nil {
			return fail(stderr, err)
		}
		return exitOK
	}

	// Encode fully in memory so a failed conversion leaves no partial file.
	var buf bytes.Buffer
	switch outFormat {
	case formatHex:
		err = ihex.Encode(&buf, im, wordOrder, hexLineLen)
	case formatVhx:
		err = vhx.Encode(&buf, im, int(*chunk), byte(*fill))
	}
	if err != nil {
		return fail(stderr, fmt.Errorf("%s: %w", output, err))
	}
	if err := os.WriteFile(output, buf.Bytes(), 0666); err != nil {
		return fail(stderr, err)
	}
	return exitOK
}

// fail prints err to stderr and picks the exit code for its class.
func fail(stderr io.Writer, err error) int {
	fmt.Fprintln(stderr, err)
	var (
		xerr extensionError
		perr *fs.PathError
		cerr *ihex.ChecksumError
		oerr *memory.OverlapError
	)
	switch {
	case errors.As(err, &xerr):
		return exitExtension
	case errors.As(err, &perr):
		return exitIO
	case errors.As(err, &cerr):
		return exitChecksum
	case errors.As(err, &oerr):
		return exitOverlap
	}
	return exitMalformed
}
