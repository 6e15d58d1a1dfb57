// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package bson is a library for reading and writing BSON documents.
//
// The central type is Document, a mutable ordered map from string keys to
// Values. Values are a tagged union over the supported BSON types and are
// created with the constructor functions in this package (Double, String,
// Int32, Embed, etc...). A Document round-trips through the wire encoding
// without losing key order or value fidelity.
//
// The Buffer type holds one encoded document and tracks whether the backing
// memory is owned by this package or borrowed from a native collaborator.
// Borrowed buffers must not outlive the call that produced them; owned
// buffers release their memory exactly once.
package bson
