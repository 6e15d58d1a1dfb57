// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package core

import (
	"context"
	"time"

	"github.com/appsignal/mongo-go-driver/bson"
)

type cursorState uint8

const (
	stateFresh cursorState = iota
	stateActive
	stateExhausted
	stateErrored
)

// DocumentSource yields decoded documents one at a time. Cursor is the
// primary implementation; BatchCursor consumes one to read command replies.
type DocumentSource interface {
	Next(ctx context.Context) bool
	Current() *bson.Document
	Err() error
	Close(ctx context.Context) error
}

// Cursor iterates a stream of documents produced by a driver-side cursor
// resource. Cursors are not safe for concurrent use; each cursor belongs to
// the goroutine that created it.
//
// A typical usage:
//
//	cursor := core.NewCursor(handle)
//	defer cursor.Close(ctx)
//	for cursor.Next(ctx) {
//	        fmt.Println(cursor.Current())
//	}
//	err := cursor.Err()
type Cursor struct {
	handle       CursorHandle
	tailing      bool
	waitDuration time.Duration

	state   cursorState
	current *bson.Document
	err     error
	closed  bool

	// owner keeps the resource this cursor was created from reachable for
	// the cursor's lifetime. It is never inspected.
	owner interface{}
}

// NewCursor creates a Cursor over the given driver handle.
func NewCursor(handle CursorHandle) *Cursor {
	if handle == nil {
		panic(ErrInvalidParams)
	}
	return &Cursor{handle: handle}
}

// NewTailingCursor creates a Cursor that, instead of terminating at the end
// of the stream, waits the given duration and polls for newly appended
// documents for as long as the driver reports the cursor alive.
func NewTailingCursor(handle CursorHandle, waitDuration time.Duration) *Cursor {
	c := NewCursor(handle)
	c.tailing = true
	c.waitDuration = waitDuration
	return c
}

// SetOwner attaches an opaque value that is kept reachable for the lifetime
// of the cursor. It exists so a cursor can keep the client, database or
// collection it came from alive.
func (c *Cursor) SetOwner(owner interface{}) { c.owner = owner }

// Tailing reports whether this cursor polls for new data at the end of the
// stream.
func (c *Cursor) Tailing() bool { return c.tailing }

// Next advances the cursor. It returns true if a document is available via
// Current. It returns false at the end of a non-tailing stream, when the
// driver reports an error, or when a document fails to decode. A decode
// failure is not terminal: Err reports it once and the caller may call Next
// again to continue with the following document.
//
// For tailing cursors the call blocks, sleeping waitDuration between polls,
// until a document arrives, the cursor dies, or ctx is cancelled. This is
// the only blocking point in the protocol.
func (c *Cursor) Next(ctx context.Context) bool {
	if c.closed {
		c.err = ErrCursorClosed
		return false
	}
	switch c.state {
	case stateExhausted, stateErrored:
		return false
	}
	// A previous decode failure was surfaced; clear it and move on.
	c.err = nil
	c.state = stateActive

	for {
		if !c.handle.More() && !c.tailing {
			c.state = stateExhausted
			return false
		}

		raw, ok := c.handle.Next()
		if !ok {
			driverErr := c.handle.Err()
			if driverErr.IsEmpty() {
				if c.tailing && c.handle.Alive() {
					if !c.wait(ctx) {
						c.err = ctx.Err()
						return false
					}
					continue
				}
				// No result, no error and the cursor is not
				// tailing, so this is the end of the stream.
				c.state = stateExhausted
				return false
			}
			c.state = stateErrored
			c.err = driverErr
			return false
		}

		doc, err := raw.Decode()
		if err != nil {
			c.err = err
			return false
		}
		c.current = doc
		return true
	}
}

// wait blocks for the configured wait duration or until ctx is cancelled.
// It returns false on cancellation.
func (c *Cursor) wait(ctx context.Context) bool {
	timer := time.NewTimer(c.waitDuration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Current returns the document read by the last successful call to Next.
func (c *Cursor) Current() *bson.Document { return c.current }

// Err returns the error, if any, from the last call to Next.
func (c *Cursor) Err() error { return c.err }

// Close releases the driver-side cursor resource. It is safe to call in any
// state and more than once; the resource is destroyed exactly once.
func (c *Cursor) Close(context.Context) error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.handle.Destroy()
	return nil
}
