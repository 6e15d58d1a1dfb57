// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package core

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/appsignal/mongo-go-driver/bson"
	"github.com/appsignal/mongo-go-driver/readpref"
)

// BatchCursor implements the command-reply cursor protocol. Command replies
// carry documents in embedded batches:
//
//	{"cursor": {"id": <int64>, "firstBatch": [...], "ns": "db.coll"}, "ok": 1}
//
// BatchCursor drains the current batch and, while the server-side cursor id
// is nonzero, issues getMore commands to fetch the next one. A zero id marks
// the final batch.
type BatchCursor struct {
	src  DocumentSource
	conn Connection
	ns   Namespace
	log  logrus.FieldLogger

	id      int64
	batch   []*bson.Document
	current *bson.Document
	err     error
	done    bool
	closed  bool
}

// NewBatchCursor reads cursor envelopes from src and pages through the
// server-side cursor they describe over conn.
func NewBatchCursor(src DocumentSource, conn Connection, ns Namespace) (*BatchCursor, error) {
	if src == nil || conn == nil {
		return nil, ErrInvalidParams
	}
	return &BatchCursor{
		src:  src,
		conn: conn,
		ns:   ns,
		log:  logrus.WithField("component", "batch_cursor"),
	}, nil
}

// SetLogger replaces the logger failure events are reported to.
func (bc *BatchCursor) SetLogger(log logrus.FieldLogger) {
	if log != nil {
		bc.log = log
	}
}

// Next advances to the next document, fetching the next batch from the
// server when the current one is drained.
func (bc *BatchCursor) Next(ctx context.Context) bool {
	if bc.err != nil || bc.closed {
		return false
	}
	for {
		if len(bc.batch) > 0 {
			bc.current = bc.batch[0]
			bc.batch = bc.batch[1:]
			return true
		}
		if bc.done {
			return false
		}
		if !bc.fetch(ctx) {
			return false
		}
	}
}

// fetch loads the next envelope, from the source until it is drained and via
// getMore afterwards. It returns false when the stream ended or failed.
func (bc *BatchCursor) fetch(ctx context.Context) bool {
	var envelope *bson.Document
	if bc.src != nil {
		if bc.src.Next(ctx) {
			envelope = bc.src.Current()
		} else {
			if err := bc.src.Err(); err != nil {
				bc.err = err
				return false
			}
			bc.src.Close(ctx)
			bc.src = nil
		}
	}
	if envelope == nil {
		if bc.id == 0 {
			bc.done = true
			return false
		}
		var err error
		envelope, err = bc.getMore(ctx)
		if err != nil {
			bc.err = err
			return false
		}
	}
	if err := bc.readBatch(envelope); err != nil {
		bc.log.WithError(err).Error("cannot read batch from db")
		bc.err = err
		return false
	}
	return true
}

// readBatch parses a cursor envelope, replacing the batch queue and the
// server-side cursor id.
func (bc *BatchCursor) readBatch(envelope *bson.Document) error {
	cursorVal, err := envelope.Lookup("cursor")
	if err != nil {
		return ErrInvalidBatchEnvelope
	}
	cursorDoc, ok := cursorVal.DocumentOK()
	if !ok {
		return ErrInvalidBatchEnvelope
	}

	idVal, err := cursorDoc.Lookup("id")
	if err != nil {
		return ErrInvalidBatchEnvelope
	}
	id, ok := idVal.Int64OK()
	if !ok {
		return ErrInvalidBatchEnvelope
	}

	var arr *bson.Array
	for _, key := range []string{"firstBatch", "nextBatch"} {
		if val, err := cursorDoc.Lookup(key); err == nil {
			a, ok := val.ArrayOK()
			if !ok {
				return ErrInvalidBatchEnvelope
			}
			arr = a
			break
		}
	}
	if arr == nil {
		// A nonzero id promises more batches; a reply that carries
		// neither batch array cannot be paged.
		if id != 0 {
			return ErrInvalidBatchEnvelope
		}
		bc.id = 0
		bc.done = true
		return nil
	}

	bc.batch = bc.batch[:0]
	for _, val := range arr.Values() {
		doc, ok := val.DocumentOK()
		if !ok {
			return ErrInvalidBatchEnvelope
		}
		bc.batch = append(bc.batch, doc)
	}
	bc.id = id
	if id == 0 && bc.src == nil {
		bc.done = true
	}
	return nil
}

// getMore asks the server for the next batch of the cursor.
func (bc *BatchCursor) getMore(ctx context.Context) (*bson.Document, error) {
	cmd := bson.NewDocument(
		bson.EC("getMore", bson.Int64(bc.id)),
		bson.EC("collection", bson.String(bc.ns.Collection)),
	)
	buf, err := cmd.MarshalBuffer()
	if err != nil {
		return nil, err
	}
	defer buf.Release()
	reply, err := bc.conn.RunCommand(ctx, bc.ns.DB, buf, readpref.Primary())
	if err != nil {
		return nil, err
	}
	defer reply.Release()
	return reply.Decode()
}

// Current returns the document read by the last successful call to Next.
func (bc *BatchCursor) Current() *bson.Document { return bc.current }

// Err returns the error that terminated iteration, if any.
func (bc *BatchCursor) Err() error { return bc.err }

// ID returns the server-side cursor id from the last envelope read.
func (bc *BatchCursor) ID() int64 { return bc.id }

// Close kills the server-side cursor if it is still open and releases the
// envelope source. It is idempotent.
func (bc *BatchCursor) Close(ctx context.Context) error {
	if bc.closed {
		return nil
	}
	bc.closed = true
	var srcErr error
	if bc.src != nil {
		srcErr = bc.src.Close(ctx)
		bc.src = nil
	}
	if bc.id != 0 {
		if err := bc.killCursor(ctx); err != nil {
			bc.log.WithError(err).Error("cannot kill server-side cursor")
		}
		bc.id = 0
	}
	return srcErr
}

func (bc *BatchCursor) killCursor(ctx context.Context) error {
	cmd := bson.NewDocument(
		bson.EC("killCursors", bson.String(bc.ns.Collection)),
		bson.EC("cursors", bson.Embed(bson.NewArray(bson.Int64(bc.id)))),
	)
	buf, err := cmd.MarshalBuffer()
	if err != nil {
		return err
	}
	defer buf.Release()
	reply, err := bc.conn.RunCommand(ctx, bc.ns.DB, buf, readpref.Primary())
	if err != nil {
		return err
	}
	reply.Release()
	return nil
}
