// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bson

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-stack/stack"
)

// ErrEmptyKey indicates that no key was provided to a Lookup method.
var ErrEmptyKey = errors.New("empty key provided")

// ErrNilDocument indicates that an operation was attempted on a nil *bson.Document.
var ErrNilDocument = errors.New("document is nil")

// ErrInvalidKey indicates that the BSON representation of a key is missing a null terminator.
var ErrInvalidKey = errors.New("invalid document key")

// ErrInvalidLength indicates that a length in a binary representation of a BSON document is invalid.
var ErrInvalidLength = errors.New("document length is invalid")

// ErrMissingTerminator indicates that an encoded document does not end with a null byte.
var ErrMissingTerminator = errors.New("document missing null terminator")

// ErrInvalidUTF8 indicates that a string field contained bytes that are not
// valid UTF-8. It is only returned by the strict decoder; the lossy decoder
// substitutes the Unicode replacement character instead.
var ErrInvalidUTF8 = errors.New("string contains invalid UTF-8")

// ErrInvalidString indicates that a BSON string value had an incorrect length.
var ErrInvalidString = errors.New("invalid string value")

// ErrInvalidBooleanType indicates that a BSON boolean value had an incorrect byte.
var ErrInvalidBooleanType = errors.New("invalid value for BSON Boolean Type")

// ErrElementNotFound indicates that an Element matching a certain condition does not exist.
var ErrElementNotFound = errors.New("element not found")

// ErrOutOfBounds indicates that an index provided to access something was invalid.
var ErrOutOfBounds = errors.New("out of bounds")

// ErrBufferReleased indicates that the bytes of a Buffer were requested after
// the Buffer released them.
var ErrBufferReleased = errors.New("buffer has been released")

// ErrTooSmall indicates that a slice provided to write into is not large enough to fit the data.
type ErrTooSmall struct {
	Stack stack.CallStack
}

// NewErrTooSmall creates a new ErrTooSmall with the current stack.
func NewErrTooSmall() ErrTooSmall {
	return ErrTooSmall{Stack: stack.Trace().TrimRuntime()}
}

// Error implements the error interface.
func (e ErrTooSmall) Error() string {
	return "too small"
}

// ErrorStack returns a string representing the stack at the point where the error occurred.
func (e ErrTooSmall) ErrorStack() string {
	s := bytes.NewBufferString("too small: [")

	for i, call := range e.Stack {
		if i != 0 {
			s.WriteString(", ")
		}

		// go vet doesn't like %k even though it's part of stack's API, so we move the format
		// string so it doesn't complain.
		callFormat := "%k.%n %v"

		s.WriteString(fmt.Sprintf(callFormat, call, call, call))
	}

	s.WriteRune(']')

	return s.String()
}

// Equals checks that err2 also is an ErrTooSmall.
func (e ErrTooSmall) Equals(err2 error) bool {
	switch err2.(type) {
	case ErrTooSmall:
		return true
	default:
		return false
	}
}

// EncodingError indicates that a Document could not be serialized. A complete
// buffer is never produced alongside an EncodingError.
type EncodingError struct {
	Key     string
	Message string
}

// Error implements the error interface.
func (ee EncodingError) Error() string {
	if ee.Key == "" {
		return "encoding failed: " + ee.Message
	}
	return fmt.Sprintf("encoding failed at key %q: %s", ee.Key, ee.Message)
}

// UnsupportedTypeError indicates that the decoder encountered a type tag it
// does not handle. The whole decode fails rather than silently dropping the
// field.
type UnsupportedTypeError struct {
	Type Type
}

// Error implements the error interface.
func (ute UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported BSON type tag 0x%02X", byte(ute.Type))
}

// DecodingError wraps an error encountered while decoding an encoded document,
// retaining the key being read when the failure occurred.
type DecodingError struct {
	Key string
	Err error
}

// Error implements the error interface.
func (de DecodingError) Error() string {
	if de.Key == "" {
		return "decoding failed: " + de.Err.Error()
	}
	return fmt.Sprintf("decoding failed at key %q: %s", de.Key, de.Err.Error())
}

// Unwrap returns the underlying cause of the decoding failure.
func (de DecodingError) Unwrap() error { return de.Err }

// ElementTypeError specifies that a method to obtain a BSON value of one type
// was called on a bson.Value of another type.
type ElementTypeError struct {
	Method string
	Type   Type
}

// Error implements the error interface.
func (ete ElementTypeError) Error() string {
	return "Call of " + ete.Method + " on " + ete.Type.String() + " type"
}
