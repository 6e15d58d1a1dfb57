// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bson

// provenance records how a Buffer came to hold its backing memory.
type provenance uint8

const (
	provenanceOwned provenance = iota
	provenanceBorrowed
)

// Buffer holds one encoded BSON document. The first four bytes are the
// little-endian total length of the document, including themselves and the
// single zero terminator byte at the end.
//
// A Buffer either owns its backing memory or borrows it from a collaborator
// that handed it to us. Owned buffers release their memory exactly once via
// Release. Borrowed buffers never release it and must not outlive the call
// that produced them; use Copy to keep the contents longer.
type Buffer struct {
	data     []byte
	prov     provenance
	released bool
}

// NewBuffer allocates a fresh owned buffer holding an empty document.
func NewBuffer() *Buffer {
	return &Buffer{data: []byte{0x05, 0x00, 0x00, 0x00, 0x00}}
}

// OwnedBuffer wraps data in a Buffer that takes ownership of it. The declared
// length prefix must match len(data) and the final byte must be the zero
// terminator.
func OwnedBuffer(data []byte) (*Buffer, error) {
	if err := validateFrame(data); err != nil {
		return nil, err
	}
	return &Buffer{data: data}, nil
}

// BorrowedBuffer wraps data in a Buffer without copying and without taking
// ownership. The same framing validation as OwnedBuffer applies.
func BorrowedBuffer(data []byte) (*Buffer, error) {
	if err := validateFrame(data); err != nil {
		return nil, err
	}
	return &Buffer{data: data, prov: provenanceBorrowed}, nil
}

// validateFrame checks the length prefix and the terminator byte. It does not
// walk the elements; the decoder does that.
func validateFrame(data []byte) error {
	if len(data) < 5 {
		return NewErrTooSmall()
	}
	if length := readi32(data[0:4]); length < 0 || int(length) != len(data) {
		return ErrInvalidLength
	}
	if data[len(data)-1] != 0x00 {
		return ErrMissingTerminator
	}
	return nil
}

// Bytes returns a view of the encoded document. The view must not outlive
// the Buffer. It panics if the Buffer has been released.
func (b *Buffer) Bytes() []byte {
	if b.released {
		panic(ErrBufferReleased)
	}
	return b.data
}

// Len returns the encoded length of the document.
func (b *Buffer) Len() int {
	if b.released {
		return 0
	}
	return len(b.data)
}

// Owned reports whether this Buffer owns its backing memory.
func (b *Buffer) Owned() bool { return b.prov == provenanceOwned }

// Copy returns a new owned Buffer with a copy of the contents. This is the
// way to keep the contents of a borrowed buffer beyond the call that
// produced it.
func (b *Buffer) Copy() *Buffer {
	data := make([]byte, len(b.Bytes()))
	copy(data, b.data)
	return &Buffer{data: data}
}

// Release frees the backing memory of an owned Buffer. Releasing an owned
// Buffer twice is a bug in the caller and panics. Releasing a borrowed
// Buffer is a no-op; the memory belongs to whoever lent it.
func (b *Buffer) Release() {
	if b.prov == provenanceBorrowed {
		return
	}
	if b.released {
		panic(ErrBufferReleased)
	}
	b.data = nil
	b.released = true
}

// readi32 is a helper function for reading an int32 from a slice of bytes.
func readi32(b []byte) int32 {
	_ = b[3] // bounds check hint to compiler; see golang.org/issue/14808
	return int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16 | int32(b[3])<<24
}
