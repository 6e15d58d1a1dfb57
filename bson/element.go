// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package bson

import "fmt"

// Element represents a BSON element, i.e. a key-value pair of a BSON
// document.
type Element struct {
	Key   string
	Value Value
}

// EC is a convenience constructor for Element.
func EC(key string, val Value) Element {
	return Element{Key: key, Value: val}
}

// Equal compares e and e2 and returns true if they are equal.
func (e Element) Equal(e2 Element) bool {
	if e.Key != e2.Key {
		return false
	}
	return e.Value.Equal(e2.Value)
}

func (e Element) String() string {
	return fmt.Sprintf(`bson.Element{"%s": %v}`, e.Key, e.Value)
}
