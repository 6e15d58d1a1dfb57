// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseNamespace(t *testing.T) {
	testCases := []struct {
		name     string
		expected Namespace
		wantErr  bool
	}{
		{"a.b", Namespace{DB: "a", Collection: "b"}, false},
		{"db.coll.with.dots", Namespace{DB: "db", Collection: "coll.with.dots"}, false},
		{"nodot", Namespace{}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ns, err := ParseNamespace(tc.name)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expected, ns)
			require.Equal(t, tc.name, ns.FullName())
		})
	}
}

func TestNamespaceValidate(t *testing.T) {
	require.NoError(t, NewNamespace("db", "coll").Validate())
	require.NoError(t, NewNamespace("db", "coll.sub").Validate())
	require.Error(t, NewNamespace("", "coll").Validate())
	require.Error(t, NewNamespace("db", "").Validate())
	require.Error(t, NewNamespace("bad db", "coll").Validate())
	require.Error(t, NewNamespace("bad.db", "coll").Validate())
}
