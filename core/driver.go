// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package core implements the document codec bridge and the cursor protocols
// on top of an abstract driver collaborator. The collaborator owns all
// networking: transport, handshake, authentication, topology and pooling. A
// handle obtained from it must only ever be used from one goroutine at a
// time.
package core

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/appsignal/mongo-go-driver/bson"
	"github.com/appsignal/mongo-go-driver/readpref"
)

// QueryFlag is a bitmask of wire-level query options passed through to the
// driver when a query cursor is created.
type QueryFlag uint32

// Query flags understood by the driver.
const (
	TailableCursor  QueryFlag = 1 << 1
	SecondaryOK     QueryFlag = 1 << 2
	NoCursorTimeout QueryFlag = 1 << 4
	AwaitData       QueryFlag = 1 << 5
	Exhaust         QueryFlag = 1 << 6
	Partial         QueryFlag = 1 << 7
)

// Connector establishes new connections. It is implemented by the driver
// collaborator.
type Connector interface {
	Connect(ctx context.Context, uri string) (Connection, error)
}

// Pool hands out connections, blocking until one is available. Connections
// are returned by closing them.
type Pool interface {
	Checkout(ctx context.Context) (Connection, error)
}

// Connection is a checked-out driver connection. A Connection must not be
// shared between goroutines.
type Connection interface {
	// RunCommand executes the encoded command against the given database and
	// returns the reply. The reply buffer is borrowed from the driver and
	// must not be retained beyond the decode that consumes it.
	RunCommand(ctx context.Context, db string, cmd *bson.Buffer, pref *readpref.ReadPref) (*bson.Buffer, error)

	// Query starts a query and returns the driver-side cursor resource.
	Query(ctx context.Context, ns Namespace, query *bson.Buffer, flags QueryFlag) (CursorHandle, error)

	// Close returns the connection to its pool or tears it down.
	Close() error
}

// CursorHandle is the driver-side cursor resource consumed by Cursor. The
// buffer returned from Next is borrowed driver memory, valid only until the
// next call on the handle.
type CursorHandle interface {
	Next() (*bson.Buffer, bool)
	More() bool
	Alive() bool
	Err() *Error
	Destroy()
}

var (
	initMu      sync.Mutex
	initialized bool
)

// Init marks the process-wide driver subsystem as initialized. It must be
// called before any connection is established; connections and pools refuse
// to operate before that. Calling Init more than once is a no-op.
func Init() {
	initMu.Lock()
	defer initMu.Unlock()
	initialized = true
}

// Shutdown marks the driver subsystem as torn down. It is idempotent. All
// connections and cursors must have been closed before calling it.
func Shutdown() {
	initMu.Lock()
	defer initMu.Unlock()
	initialized = false
}

// Initialized reports whether Init has been called without a matching
// Shutdown.
func Initialized() bool {
	initMu.Lock()
	defer initMu.Unlock()
	return initialized
}

// Connect establishes a connection through the given Connector, refusing if
// the subsystem has not been initialized.
func Connect(ctx context.Context, c Connector, uri string) (Connection, error) {
	if c == nil {
		return nil, ErrInvalidParams
	}
	if !Initialized() {
		return nil, ErrNotInitialized
	}
	conn, err := c.Connect(ctx, uri)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to connect to %s", uri)
	}
	return conn, nil
}

// Checkout obtains a connection from the given Pool, refusing if the
// subsystem has not been initialized.
func Checkout(ctx context.Context, p Pool) (Connection, error) {
	if p == nil {
		return nil, ErrInvalidParams
	}
	if !Initialized() {
		return nil, ErrNotInitialized
	}
	conn, err := p.Checkout(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "unable to check out connection")
	}
	return conn, nil
}
