// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package ops

import (
	"context"

	"github.com/appsignal/mongo-go-driver/bson"
	"github.com/appsignal/mongo-go-driver/bson/primitive"
	"github.com/appsignal/mongo-go-driver/core"
	"github.com/appsignal/mongo-go-driver/readpref"
)

// InsertResult reports the outcome of an Insert.
type InsertResult struct {
	// InsertedIDs holds the _id of each inserted document, in input order.
	InsertedIDs []primitive.ObjectID

	// N is the number of documents the server reports inserted.
	N int64
}

// Insert writes the given documents to the namespace. Documents without an
// _id field are assigned a fresh ObjectID in place before encoding.
func Insert(ctx context.Context, conn core.Connection, ns core.Namespace, docs ...*bson.Document) (*InsertResult, error) {
	if err := ns.Validate(); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, core.ErrInvalidParams
	}

	result := &InsertResult{InsertedIDs: make([]primitive.ObjectID, 0, len(docs))}
	arr := bson.NewArray()
	for _, doc := range docs {
		if doc == nil {
			return nil, core.ErrInvalidParams
		}
		id := ensureID(doc)
		result.InsertedIDs = append(result.InsertedIDs, id)
		arr.Append(bson.Embed(doc))
	}

	cmd := bson.NewDocument(
		bson.EC("insert", bson.String(ns.Collection)),
		bson.EC("documents", bson.Embed(arr)),
	)
	reply, err := Run(ctx, conn, ns.DB, cmd, readpref.Primary())
	if err != nil {
		return nil, err
	}
	if err := writeErrors(reply, core.DomainInsert); err != nil {
		return nil, err
	}
	result.N = replyCount(reply, "n")
	return result, nil
}

// ensureID returns the document's _id, assigning a fresh ObjectID when the
// field is absent. Non-ObjectID ids are left alone and reported as zero.
func ensureID(doc *bson.Document) primitive.ObjectID {
	if val, err := doc.Lookup("_id"); err == nil {
		oid, _ := val.ObjectIDOK()
		return oid
	}
	oid := primitive.NewObjectID()
	doc.Append("_id", bson.ObjectID(oid))
	return oid
}

// writeErrors surfaces the first entry of a reply's writeErrors array, if
// any, as a *core.Error in the given domain.
func writeErrors(reply *bson.Document, domain core.ErrorDomain) error {
	val, err := reply.Lookup("writeErrors")
	if err != nil {
		return nil
	}
	arr, ok := val.ArrayOK()
	if !ok || arr.Len() == 0 {
		return nil
	}
	first, ok := arr.Lookup(0).DocumentOK()
	if !ok {
		return nil
	}
	werr := &core.Error{Domain: domain}
	if v, err := first.Lookup("code"); err == nil {
		if code, ok := v.Int32OK(); ok {
			werr.Code = uint32(code)
		}
	}
	if v, err := first.Lookup("errmsg"); err == nil {
		if msg, ok := v.StringValueOK(); ok {
			werr.Message = msg
		}
	}
	return werr
}
