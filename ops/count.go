// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package ops

import (
	"context"

	"github.com/pkg/errors"

	"github.com/appsignal/mongo-go-driver/bson"
	"github.com/appsignal/mongo-go-driver/core"
	"github.com/appsignal/mongo-go-driver/readpref"
)

// Count runs a count command against the namespace and returns the number of
// documents matching the filter. A nil filter counts the whole collection.
func Count(ctx context.Context, conn core.Connection, ns core.Namespace, filter *bson.Document, pref *readpref.ReadPref) (int64, error) {
	if err := ns.Validate(); err != nil {
		return 0, err
	}
	cmd := bson.NewDocument(bson.EC("count", bson.String(ns.Collection)))
	if filter != nil {
		cmd.Append("query", bson.Embed(filter))
	}
	reply, err := Run(ctx, conn, ns.DB, cmd, pref)
	if err != nil {
		return 0, err
	}
	val, err := reply.Lookup("n")
	if err != nil {
		return 0, errors.New("count reply missing n")
	}
	switch val.Type() {
	case bson.TypeInt32:
		return int64(val.Int32()), nil
	case bson.TypeInt64:
		return val.Int64(), nil
	case bson.TypeDouble:
		return int64(val.Double()), nil
	}
	return 0, errors.Errorf("count reply has non-numeric n (%s)", val.Type())
}
