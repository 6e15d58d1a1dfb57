// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package core

import (
	"errors"
	"fmt"
)

// ErrInvalidParams indicates that a call was rejected before reaching the
// driver because its parameters were invalid.
var ErrInvalidParams = errors.New("invalid params supplied")

// ErrNotInitialized indicates that the driver subsystem has not been
// initialized with Init.
var ErrNotInitialized = errors.New("driver subsystem is not initialized")

// ErrCursorClosed indicates that an operation was attempted on a closed
// cursor.
var ErrCursorClosed = errors.New("cursor is closed")

// ErrInvalidBatchEnvelope indicates that a command reply could not be read as
// a cursor batch: the envelope was missing, carried an unexpected shape, or
// named a live cursor without providing a batch.
var ErrInvalidBatchEnvelope = errors.New("invalid cursor batch in command reply")

// ErrInvalidReply indicates that a command reply was missing the fields every
// server reply carries.
var ErrInvalidReply = errors.New("invalid command reply")

// ErrorDomain identifies the driver subsystem an Error originated in. The
// values mirror what the wrapped driver reports and are passed through
// unmodified.
type ErrorDomain uint32

// Error domains reported by the driver.
const (
	DomainBlank ErrorDomain = iota
	DomainClient
	DomainStream
	DomainProtocol
	DomainCursor
	DomainQuery
	DomainInsert
	DomainSASL
	DomainBSON
	DomainMatcher
	DomainNamespace
	DomainCommand
	DomainCollection
	DomainGridFS
	DomainSCRAM
)

func (d ErrorDomain) String() string {
	switch d {
	case DomainBlank:
		return "blank"
	case DomainClient:
		return "client"
	case DomainStream:
		return "stream"
	case DomainProtocol:
		return "protocol"
	case DomainCursor:
		return "cursor"
	case DomainQuery:
		return "query"
	case DomainInsert:
		return "insert"
	case DomainSASL:
		return "sasl"
	case DomainBSON:
		return "bson"
	case DomainMatcher:
		return "matcher"
	case DomainNamespace:
		return "namespace"
	case DomainCommand:
		return "command"
	case DomainCollection:
		return "collection"
	case DomainGridFS:
		return "gridfs"
	case DomainSCRAM:
		return "scram"
	default:
		return "unknown"
	}
}

// Error is an error surfaced by the driver collaborator. The domain, code and
// message are passed through unmodified.
type Error struct {
	Domain  ErrorDomain
	Code    uint32
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s error (code %d): %s", e.Domain, e.Code, e.Message)
}

// IsEmpty returns true if no error was reported.
func (e *Error) IsEmpty() bool {
	return e == nil || (e.Domain == DomainBlank && e.Code == 0)
}
