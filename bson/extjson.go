// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bson

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strconv"
)

// ExtJSON renders the document as relaxed MongoDB extended JSON. It is
// intended for logging and debugging, not as a lossless interchange format.
func (d *Document) ExtJSON() string {
	var buf bytes.Buffer
	writeDocumentJSON(&buf, d)
	return buf.String()
}

// ExtJSON renders the array as relaxed MongoDB extended JSON.
func (a *Array) ExtJSON() string {
	var buf bytes.Buffer
	writeArrayJSON(&buf, a)
	return buf.String()
}

func writeDocumentJSON(buf *bytes.Buffer, d *Document) {
	buf.WriteByte('{')
	for idx, elem := range d.elems {
		if idx > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(elem.Key))
		buf.WriteByte(':')
		writeValueJSON(buf, elem.Value)
	}
	buf.WriteByte('}')
}

func writeArrayJSON(buf *bytes.Buffer, a *Array) {
	buf.WriteByte('[')
	for idx, elem := range a.doc.elems {
		if idx > 0 {
			buf.WriteByte(',')
		}
		writeValueJSON(buf, elem.Value)
	}
	buf.WriteByte(']')
}

func writeValueJSON(buf *bytes.Buffer, v Value) {
	switch v.Type() {
	case TypeDouble:
		buf.WriteString(strconv.FormatFloat(v.Double(), 'g', -1, 64))
	case TypeString:
		buf.WriteString(strconv.Quote(v.StringValue()))
	case TypeEmbeddedDocument:
		writeDocumentJSON(buf, v.Document())
	case TypeArray:
		writeArrayJSON(buf, v.Array())
	case TypeBinary:
		bin := v.Binary()
		fmt.Fprintf(buf, `{"$binary":{"base64":%s,"subType":"%02x"}}`,
			strconv.Quote(base64.StdEncoding.EncodeToString(bin.Data)), bin.Subtype)
	case TypeUndefined:
		buf.WriteString(`{"$undefined":true}`)
	case TypeObjectID:
		fmt.Fprintf(buf, `{"$oid":"%s"}`, v.ObjectID().Hex())
	case TypeBoolean:
		buf.WriteString(strconv.FormatBool(v.Boolean()))
	case TypeDateTime:
		fmt.Fprintf(buf, `{"$date":{"$numberLong":"%d"}}`, v.DateTime())
	case TypeNull:
		buf.WriteString("null")
	case TypeRegex:
		regex := v.Regex()
		fmt.Fprintf(buf, `{"$regularExpression":{"pattern":%s,"options":%s}}`,
			strconv.Quote(regex.Pattern), strconv.Quote(regex.Options))
	case TypeInt32:
		buf.WriteString(strconv.FormatInt(int64(v.Int32()), 10))
	case TypeTimestamp:
		ts := v.Timestamp()
		fmt.Fprintf(buf, `{"$timestamp":{"t":%d,"i":%d}}`, ts.T, ts.I)
	case TypeInt64:
		buf.WriteString(strconv.FormatInt(v.Int64(), 10))
	case TypeMinKey:
		buf.WriteString(`{"$minKey":1}`)
	case TypeMaxKey:
		buf.WriteString(`{"$maxKey":1}`)
	default:
		buf.WriteString("null")
	}
}
