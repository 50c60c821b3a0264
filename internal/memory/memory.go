// Copyright 2026 The Stupedama Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package memory holds the sparse, address-indexed image that both file
// formats decode into and encode from. An image is an ordered set of
// disjoint byte ranges; the gaps between ranges are unmapped memory with
// no defined value.
package memory

import (
	"bytes"
	"cmp"
	"fmt"
	"iter"
	"slices"
	"sort"
)

// A Range is a contiguous run of mapped addresses.
type Range struct {
	Start uint32
	Data  []byte
}

// End returns the address one past the last byte of the range. The result
// is 64-bit because a range may end exactly at the top of the 32-bit
// address space.
func (r Range) End() uint64 {
	return uint64(r.Start) + uint64(len(r.Data))
}

// An OverlapError reports an attempt to map addresses that are already
// mapped. It carries both the attempted and the existing range.
type OverlapError struct {
	New Range // the range that could not be inserted
	Old Range // the previously mapped range it collides with
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("range 0x%08X..0x%08X overlaps mapped range 0x%08X..0x%08X",
		e.New.Start, e.New.End()-1, e.Old.Start, e.Old.End()-1)
}

// An Image is a sparse memory image. The zero value is empty and ready to
// use; decoders populate it range by range and must not mutate it after
// handing it over.
type Image struct {
	ranges []*Range
}

// NewImage returns an empty image.
func NewImage() *Image {
	return new(Image)
}

// Insert maps data starting at start. Byte-adjacent ranges are merged, so
// contiguous inserts in any order end up as one range. The data is copied;
// inserting zero bytes is a no-op. Insert returns an *OverlapError if any
// of the addresses are already mapped, or a plain error if the range would
// extend past the 32-bit address space.
func (im *Image) Insert(start uint32, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	end := uint64(start) + uint64(len(data))
	if end > 1<<32 {
		return fmt.Errorf("range 0x%X..0x%X exceeds the 32-bit address space", start, end-1)
	}
	var before, after *Range
	afterIdx := -1
	for i, r := range im.ranges {
		if uint64(start) < r.End() && end > uint64(r.Start) {
			return &OverlapError{New: Range{start, data}, Old: *r}
		}
		if uint64(start) == r.End() {
			before = r
		}
		if end == uint64(r.Start) {
			after, afterIdx = r, i
		}
	}
	switch {
	case before != nil && after != nil:
		before.Data = append(before.Data, data...)
		before.Data = append(before.Data, after.Data...)
		im.ranges = slices.Delete(im.ranges, afterIdx, afterIdx+1)
	case before != nil:
		before.Data = append(before.Data, data...)
	case after != nil:
		after.Start = start
		after.Data = append(slices.Clone(data), after.Data...)
	default:
		im.ranges = append(im.ranges, &Range{start, slices.Clone(data)})
		slices.SortFunc(im.ranges, func(a, b *Range) int {
			return cmp.Compare(a.Start, b.Start)
		})
	}
	return nil
}

// Ranges iterates over the ranges in ascending address order. The yielded
// Range values share their Data with the image.
func (im *Image) Ranges() iter.Seq[Range] {
	return func(yield func(Range) bool) {
		for _, r := range im.ranges {
			if !yield(*r) {
				return
			}
		}
	}
}

// Byte returns the byte mapped at addr. The second result reports whether
// the address is mapped at all; no value is ever fabricated for a gap.
func (im *Image) Byte(addr uint32) (byte, bool) {
	i := sort.Search(len(im.ranges), func(i int) bool {
		return uint64(addr) < im.ranges[i].End()
	})
	if i == len(im.ranges) || addr < im.ranges[i].Start {
		return 0, false
	}
	r := im.ranges[i]
	return r.Data[addr-r.Start], true
}

// Extent returns the first and the last mapped address. ok is false for an
// empty image.
func (im *Image) Extent() (first, last uint32, ok bool) {
	if len(im.ranges) == 0 {
		return 0, 0, false
	}
	first = im.ranges[0].Start
	last = uint32(im.ranges[len(im.ranges)-1].End() - 1)
	return first, last, true
}

// Flatten returns a dense copy of the image spanning the first through the
// last mapped address, with the gaps filled by fill. The start result is
// the first mapped address. An empty image flattens to nil.
func (im *Image) Flatten(fill byte) (start uint32, data []byte) {
	first, last, ok := im.Extent()
	if !ok {
		return 0, nil
	}
	data = bytes.Repeat([]byte{fill}, int(uint64(last)-uint64(first)+1))
	for _, r := range im.ranges {
		copy(data[r.Start-first:], r.Data)
	}
	return first, data
}

// SwapWordBytes reverses the byte order of every size-byte word in the
// image, words counted from the start of each range. The image is left
// untouched if any range is not a whole number of words.
func (im *Image) SwapWordBytes(size int) error {
	if size < 1 {
		panic("memory: word size must be positive")
	}
	for _, r := range im.ranges {
		if len(r.Data)%size != 0 {
			return fmt.Errorf("range 0x%X..0x%X is not a whole number of %d-byte words",
				r.Start, r.End()-1, size)
		}
	}
	for _, r := range im.ranges {
		for i := 0; i < len(r.Data); i += size {
			slices.Reverse(r.Data[i : i+size])
		}
	}
	return nil
}
