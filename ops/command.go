// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package ops provides the driver operations built on core connections:
// running commands and the find, insert, update, remove, count and tail
// operations built on top of them.
package ops

import (
	"context"

	"github.com/pkg/errors"

	"github.com/appsignal/mongo-go-driver/bson"
	"github.com/appsignal/mongo-go-driver/core"
	"github.com/appsignal/mongo-go-driver/readpref"
)

// Run executes the given command against a database and returns the decoded
// reply. A reply with ok != 1 is returned as a *core.Error carrying the
// server's error code and message.
func Run(ctx context.Context, conn core.Connection, db string, cmd *bson.Document, pref *readpref.ReadPref) (*bson.Document, error) {
	if conn == nil || cmd == nil {
		return nil, core.ErrInvalidParams
	}
	if pref == nil {
		pref = readpref.Primary()
	}
	if pref.Mode() != readpref.PrimaryMode {
		cmd = cmd.Copy()
		cmd.Set("$readPreference", bson.Embed(pref.Document()))
	}
	buf, err := cmd.MarshalBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode command")
	}
	defer buf.Release()

	replyBuf, err := conn.RunCommand(ctx, db, buf, pref)
	if err != nil {
		return nil, err
	}
	defer replyBuf.Release()

	reply, err := replyBuf.Decode()
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode command reply")
	}
	if err := commandError(reply); err != nil {
		return nil, err
	}
	return reply, nil
}

// commandError extracts a server error from a command reply. It returns nil
// when the reply reports success.
func commandError(reply *bson.Document) error {
	okVal, err := reply.Lookup("ok")
	if err != nil {
		return core.ErrInvalidReply
	}
	if numberOK(okVal) {
		return nil
	}
	svrErr := &core.Error{Domain: core.DomainCommand}
	if val, err := reply.Lookup("code"); err == nil {
		if code, ok := val.Int32OK(); ok {
			svrErr.Code = uint32(code)
		}
	}
	if val, err := reply.Lookup("errmsg"); err == nil {
		if msg, ok := val.StringValueOK(); ok {
			svrErr.Message = msg
		}
	}
	return svrErr
}

// replyCount reads an integer counter from a command reply, tolerating the
// numeric type the server chose. An absent or non-integer field reads as
// zero.
func replyCount(reply *bson.Document, key string) int64 {
	val, err := reply.Lookup(key)
	if err != nil {
		return 0
	}
	if n, ok := val.Int32OK(); ok {
		return int64(n)
	}
	if n, ok := val.Int64OK(); ok {
		return n
	}
	return 0
}

// numberOK reports whether a reply's ok field holds a truthy number.
func numberOK(val bson.Value) bool {
	switch val.Type() {
	case bson.TypeDouble:
		return val.Double() == 1
	case bson.TypeInt32:
		return val.Int32() == 1
	case bson.TypeInt64:
		return val.Int64() == 1
	case bson.TypeBoolean:
		return val.Boolean()
	}
	return false
}
