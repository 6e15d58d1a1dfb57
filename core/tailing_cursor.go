// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package core

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/appsignal/mongo-go-driver/bson"
	"github.com/appsignal/mongo-go-driver/bson/primitive"
)

const (
	// DefaultTailWaitDuration is how long a tailing cursor sleeps before
	// polling for new documents.
	DefaultTailWaitDuration = 500 * time.Millisecond

	// DefaultTailMaxRetries bounds consecutive reopen attempts after the
	// server kills a tailing cursor.
	DefaultTailMaxRetries = 5
)

// TailOptions configures a TailingCursor.
type TailOptions struct {
	// WaitDuration is the sleep between polls at the end of the stream.
	// Zero means DefaultTailWaitDuration.
	WaitDuration time.Duration

	// MaxRetries bounds consecutive failed reopen attempts. Zero means
	// DefaultTailMaxRetries.
	MaxRetries int

	// Logger receives reopen and failure events. Nil means the standard
	// logger.
	Logger logrus.FieldLogger
}

func (o TailOptions) withDefaults() TailOptions {
	if o.WaitDuration == 0 {
		o.WaitDuration = DefaultTailWaitDuration
	}
	if o.MaxRetries == 0 {
		o.MaxRetries = DefaultTailMaxRetries
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	return o
}

// FindFunc opens a tailable cursor for the given query. TailingCursor calls
// it to open the initial cursor and again each time the underlying cursor
// dies and has to be reopened.
type FindFunc func(ctx context.Context, query *bson.Document) (*Cursor, error)

// TailingCursor follows a capped collection indefinitely. When the server
// kills the underlying tailable cursor, it reopens one with the query
// narrowed to documents after the last one seen, so the stream resumes
// without duplicates. Documents are expected to carry monotonically
// increasing ObjectID _id values.
type TailingCursor struct {
	find  FindFunc
	query *bson.Document
	opts  TailOptions
	log   logrus.FieldLogger

	cursor     *Cursor
	lastSeen   primitive.ObjectID
	hasSeen    bool
	retryCount int
	err        error
}

// Tail starts tailing with the given query. The query document is retained
// and mutated during resume; callers must not reuse it.
func Tail(ctx context.Context, find FindFunc, query *bson.Document, opts TailOptions) (*TailingCursor, error) {
	if find == nil || query == nil {
		return nil, ErrInvalidParams
	}
	opts = opts.withDefaults()
	t := &TailingCursor{
		find:  find,
		query: query,
		opts:  opts,
		log:   opts.Logger.WithField("component", "tailing_cursor"),
	}
	cursor, err := find(ctx, query)
	if err != nil {
		return nil, err
	}
	t.cursor = cursor
	return t, nil
}

// Next advances to the next document, blocking until one arrives. It returns
// false when ctx is cancelled or when reopening the cursor has failed
// MaxRetries times in a row.
func (t *TailingCursor) Next(ctx context.Context) bool {
	for {
		if ctx.Err() != nil {
			t.err = ctx.Err()
			return false
		}
		if t.cursor == nil {
			if !t.reopen(ctx) {
				return false
			}
		}
		if t.cursor.Next(ctx) {
			t.retryCount = 0
			t.recordLastSeen(t.cursor.Current())
			return true
		}
		if err := t.cursor.Err(); err != nil && err == ctx.Err() {
			t.err = err
			return false
		}
		// The cursor died, either cleanly or with a server error.
		// Drop it and resume from the last seen document. The error is
		// kept so it can be surfaced if the retry budget runs out.
		if err := t.cursor.Err(); err != nil {
			t.err = err
			t.log.WithError(err).Error("tailable cursor died, reopening")
		} else {
			t.log.Debug("tailable cursor exhausted, reopening")
		}
		t.cursor.Close(ctx)
		t.cursor = nil
	}
}

// reopen builds a resume query and opens a fresh cursor, counting
// consecutive failures against MaxRetries.
func (t *TailingCursor) reopen(ctx context.Context) bool {
	if t.retryCount > t.opts.MaxRetries {
		if t.err == nil {
			t.err = ErrCursorClosed
		}
		return false
	}
	t.retryCount++
	if t.hasSeen {
		t.query.Set("_id", bson.Embed(
			bson.NewDocument(bson.EC("$gt", bson.ObjectID(t.lastSeen))),
		))
	}
	cursor, err := t.find(ctx, t.query)
	if err != nil {
		t.err = err
		t.log.WithError(err).Error("cannot reopen tailable cursor")
		// The failure that lands beyond MaxRetries is surfaced rather
		// than retried.
		return t.retryCount <= t.opts.MaxRetries
	}
	t.cursor = cursor
	t.err = nil
	return true
}

func (t *TailingCursor) recordLastSeen(doc *bson.Document) {
	if doc == nil {
		return
	}
	val, err := doc.Lookup("_id")
	if err != nil {
		return
	}
	if oid, ok := val.ObjectIDOK(); ok {
		t.lastSeen = oid
		t.hasSeen = true
	}
}

// Current returns the document read by the last successful call to Next.
func (t *TailingCursor) Current() *bson.Document {
	if t.cursor == nil {
		return nil
	}
	return t.cursor.Current()
}

// Err returns the error that terminated iteration, if any.
func (t *TailingCursor) Err() error { return t.err }

// Close releases the underlying cursor.
func (t *TailingCursor) Close(ctx context.Context) error {
	if t.cursor == nil {
		return nil
	}
	err := t.cursor.Close(ctx)
	t.cursor = nil
	return err
}
