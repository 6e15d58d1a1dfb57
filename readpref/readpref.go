// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package readpref defines read preferences for replica set reads.
package readpref

import (
	"fmt"
	"strings"
	"time"

	"github.com/appsignal/mongo-go-driver/bson"
)

// Mode indicates the server type a read should be routed to.
type Mode uint8

const (
	_ Mode = iota
	// PrimaryMode indicates that only a primary is considered for reading.
	PrimaryMode
	// PrimaryPreferredMode indicates that if a primary is available, use it;
	// otherwise, eligible secondaries will be considered.
	PrimaryPreferredMode
	// SecondaryMode indicates that only secondaries should be considered.
	SecondaryMode
	// SecondaryPreferredMode indicates that only secondaries should be
	// considered when one is available; otherwise a primary is used.
	SecondaryPreferredMode
	// NearestMode indicates that all primaries and secondaries will be
	// considered.
	NearestMode
)

func (m Mode) String() string {
	switch m {
	case PrimaryMode:
		return "primary"
	case PrimaryPreferredMode:
		return "primaryPreferred"
	case SecondaryMode:
		return "secondary"
	case SecondaryPreferredMode:
		return "secondaryPreferred"
	case NearestMode:
		return "nearest"
	}
	return "unknown"
}

// ModeFromString parses a case-insensitive mode name.
func ModeFromString(mode string) (Mode, error) {
	switch strings.ToLower(mode) {
	case "primary":
		return PrimaryMode, nil
	case "primarypreferred":
		return PrimaryPreferredMode, nil
	case "secondary":
		return SecondaryMode, nil
	case "secondarypreferred":
		return SecondaryPreferredMode, nil
	case "nearest":
		return NearestMode, nil
	}
	return Mode(0), fmt.Errorf("unknown read preference %q", mode)
}

// ReadPref determines which servers are considered suitable for reads.
type ReadPref struct {
	mode            Mode
	maxStaleness    time.Duration
	maxStalenessSet bool
}

// Primary constructs a read preference that routes to the primary only.
func Primary() *ReadPref {
	return &ReadPref{mode: PrimaryMode}
}

// PrimaryPreferred constructs a read preference that prefers the primary.
func PrimaryPreferred(opts ...Option) *ReadPref {
	return newReadPref(PrimaryPreferredMode, opts...)
}

// Secondary constructs a read preference that routes to secondaries only.
func Secondary(opts ...Option) *ReadPref {
	return newReadPref(SecondaryMode, opts...)
}

// SecondaryPreferred constructs a read preference that prefers secondaries.
func SecondaryPreferred(opts ...Option) *ReadPref {
	return newReadPref(SecondaryPreferredMode, opts...)
}

// Nearest constructs a read preference that routes to the lowest-latency
// member.
func Nearest(opts ...Option) *ReadPref {
	return newReadPref(NearestMode, opts...)
}

// New creates a read preference with the given mode.
func New(mode Mode, opts ...Option) (*ReadPref, error) {
	if mode < PrimaryMode || mode > NearestMode {
		return nil, fmt.Errorf("unknown read preference mode %d", mode)
	}
	if mode == PrimaryMode && len(opts) != 0 {
		return nil, fmt.Errorf("can't specify options for primary mode")
	}
	return newReadPref(mode, opts...), nil
}

func newReadPref(mode Mode, opts ...Option) *ReadPref {
	rp := &ReadPref{mode: mode}
	for _, opt := range opts {
		opt(rp)
	}
	return rp
}

// Option configures a read preference.
type Option func(*ReadPref)

// WithMaxStaleness sets the maximum amount of time a secondary's replication
// may lag before it is excluded from selection.
func WithMaxStaleness(d time.Duration) Option {
	return func(rp *ReadPref) {
		rp.maxStaleness = d
		rp.maxStalenessSet = true
	}
}

// Mode returns the read preference mode.
func (rp *ReadPref) Mode() Mode { return rp.mode }

// MaxStaleness returns the maximum staleness and whether one was set.
func (rp *ReadPref) MaxStaleness() (time.Duration, bool) {
	return rp.maxStaleness, rp.maxStalenessSet
}

// Document renders the read preference in command form, e.g.
// {"mode": "secondaryPreferred"}.
func (rp *ReadPref) Document() *bson.Document {
	doc := bson.NewDocument(bson.EC("mode", bson.String(rp.mode.String())))
	if rp.maxStalenessSet {
		doc.Append("maxStalenessSeconds", bson.Int32(int32(rp.maxStaleness/time.Second)))
	}
	return doc
}
