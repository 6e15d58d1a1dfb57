// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package drivertest provides scripted in-memory implementations of the core
// driver collaborator interfaces for use in tests. Handles and connections
// replay a fixed script of results, record what was asked of them, and track
// resource lifecycles so tests can assert cursors are destroyed exactly once.
package drivertest

import (
	"context"
	"fmt"

	"github.com/appsignal/mongo-go-driver/bson"
	"github.com/appsignal/mongo-go-driver/core"
	"github.com/appsignal/mongo-go-driver/readpref"
)

type step struct {
	buf   *bson.Buffer
	pause bool
	fail  *core.Error
}

// CursorHandle is a scripted core.CursorHandle. Each call to Next consumes
// the next step of the script: a document, a pause (no result yet, cursor
// still alive) or a failure.
type CursorHandle struct {
	steps []step
	pos   int
	err   *core.Error

	// Destroyed counts Destroy calls.
	Destroyed int
}

var _ core.CursorHandle = (*CursorHandle)(nil)

// NewCursorHandle builds a handle that yields the given documents in order
// and then reports the end of the stream.
func NewCursorHandle(docs ...*bson.Document) *CursorHandle {
	h := &CursorHandle{}
	for _, doc := range docs {
		h.AppendDoc(doc)
	}
	return h
}

// AppendDoc appends a document step. It panics if the document does not
// encode; scripts are fixtures and must be well formed.
func (h *CursorHandle) AppendDoc(doc *bson.Document) *CursorHandle {
	buf, err := doc.MarshalBuffer()
	if err != nil {
		panic(fmt.Sprintf("drivertest: cannot encode scripted document: %v", err))
	}
	h.steps = append(h.steps, step{buf: buf})
	return h
}

// AppendRaw appends a step yielding the given raw frame untouched, for
// scripting replies that decode with errors. The frame must still carry a
// valid length prefix and terminator.
func (h *CursorHandle) AppendRaw(raw []byte) *CursorHandle {
	buf, err := bson.BorrowedBuffer(raw)
	if err != nil {
		panic(fmt.Sprintf("drivertest: invalid scripted frame: %v", err))
	}
	h.steps = append(h.steps, step{buf: buf})
	return h
}

// AppendPause appends a step where no result is available yet but the cursor
// remains alive. Tailing cursors wait and retry on such steps.
func (h *CursorHandle) AppendPause() *CursorHandle {
	h.steps = append(h.steps, step{pause: true})
	return h
}

// AppendError appends a terminal failure step.
func (h *CursorHandle) AppendError(fail *core.Error) *CursorHandle {
	h.steps = append(h.steps, step{fail: fail})
	return h
}

// Next consumes the next scripted step.
func (h *CursorHandle) Next() (*bson.Buffer, bool) {
	if h.pos >= len(h.steps) {
		return nil, false
	}
	s := h.steps[h.pos]
	h.pos++
	switch {
	case s.fail != nil:
		h.err = s.fail
		return nil, false
	case s.pause:
		return nil, false
	default:
		return s.buf, true
	}
}

// More reports whether scripted steps remain.
func (h *CursorHandle) More() bool { return h.pos < len(h.steps) }

// Alive reports whether the script has not ended or failed.
func (h *CursorHandle) Alive() bool { return h.err.IsEmpty() && h.pos < len(h.steps) }

// Err returns the scripted failure, if one was consumed.
func (h *CursorHandle) Err() *core.Error { return h.err }

// Destroy records the destruction of the handle.
func (h *CursorHandle) Destroy() { h.Destroyed++ }

// Reply is one scripted RunCommand outcome.
type Reply struct {
	Doc *bson.Document
	Err error
}

// Conn is a scripted core.Connection. RunCommand pops replies from Replies
// and Query pops handles from Handles, in order; both record the commands
// and queries they received as decoded documents.
type Conn struct {
	Replies []Reply
	Handles []*CursorHandle

	// Commands holds every command passed to RunCommand, decoded.
	Commands []*bson.Document
	// Queries holds every query passed to Query, decoded.
	Queries []*bson.Document
	// Flags holds the flags of each Query call.
	Flags []core.QueryFlag

	Closed int
}

var _ core.Connection = (*Conn)(nil)

// PushReply appends a successful RunCommand reply to the script.
func (c *Conn) PushReply(doc *bson.Document) *Conn {
	c.Replies = append(c.Replies, Reply{Doc: doc})
	return c
}

// PushError appends a failing RunCommand outcome to the script.
func (c *Conn) PushError(err error) *Conn {
	c.Replies = append(c.Replies, Reply{Err: err})
	return c
}

// PushHandle appends a cursor handle for the next Query call.
func (c *Conn) PushHandle(h *CursorHandle) *Conn {
	c.Handles = append(c.Handles, h)
	return c
}

// RunCommand records the command and pops the next scripted reply. The reply
// buffer is borrowed, as a real driver reply would be.
func (c *Conn) RunCommand(ctx context.Context, db string, cmd *bson.Buffer, pref *readpref.ReadPref) (*bson.Buffer, error) {
	decoded, err := cmd.Decode()
	if err != nil {
		return nil, err
	}
	c.Commands = append(c.Commands, decoded)
	if len(c.Replies) == 0 {
		return nil, fmt.Errorf("drivertest: unexpected command against %s: %s", db, decoded)
	}
	reply := c.Replies[0]
	c.Replies = c.Replies[1:]
	if reply.Err != nil {
		return nil, reply.Err
	}
	raw, err := bson.Marshal(reply.Doc)
	if err != nil {
		return nil, err
	}
	return bson.BorrowedBuffer(raw)
}

// Query records the query and pops the next scripted handle.
func (c *Conn) Query(ctx context.Context, ns core.Namespace, query *bson.Buffer, flags core.QueryFlag) (core.CursorHandle, error) {
	decoded, err := query.Decode()
	if err != nil {
		return nil, err
	}
	c.Queries = append(c.Queries, decoded)
	c.Flags = append(c.Flags, flags)
	if len(c.Handles) == 0 {
		return nil, fmt.Errorf("drivertest: unexpected query against %s: %s", ns.FullName(), decoded)
	}
	h := c.Handles[0]
	c.Handles = c.Handles[1:]
	return h, nil
}

// Close records the connection being returned.
func (c *Conn) Close() error {
	c.Closed++
	return nil
}

// Connector hands out a fixed connection and records the URIs it was asked
// to connect to.
type Connector struct {
	Conn *Conn
	URIs []string
	Err  error
}

var _ core.Connector = (*Connector)(nil)

func (c *Connector) Connect(ctx context.Context, uri string) (core.Connection, error) {
	c.URIs = append(c.URIs, uri)
	if c.Err != nil {
		return nil, c.Err
	}
	return c.Conn, nil
}

// Pool hands out a fixed connection and counts checkouts.
type Pool struct {
	Conn      *Conn
	Checkouts int
	Err       error
}

var _ core.Pool = (*Pool)(nil)

func (p *Pool) Checkout(ctx context.Context) (core.Connection, error) {
	p.Checkouts++
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Conn, nil
}
