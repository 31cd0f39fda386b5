// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package variant

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

// Tag names one of the error categories a BCF2 writer can raise. Tests match
// on Tag via Is instead of string-sniffing error messages.
type Tag string

const (
	// HeaderShape is raised on a dictionary lookup miss, a duplicate header
	// id, or an unknown INFO/FORMAT/FILTER key on a record (outside
	// permissive mode).
	HeaderShape Tag = "HeaderShape"
	// RecordShape is raised on a malformed record: negative counts, empty
	// alleles, end < start.
	RecordShape Tag = "RecordShape"
	// UnsupportedShape is raised when a record exceeds a fixed BCF2 limit,
	// notably the 15-allele cap in GT.
	UnsupportedShape Tag = "UnsupportedShape"
	// Ordering is raised on a sort-buffer contract violation.
	Ordering Tag = "Ordering"
	// LifecycleError is raised for add-before-header, add-after-close, or
	// double writeHeader.
	LifecycleError Tag = "LifecycleError"
	// Io wraps an underlying byte-sink failure.
	Io Tag = "Io"
	// IndexerUnavailable is raised when the index builder fails to finalize
	// at Close; that failure is fatal. A failed Observe raises no error: the
	// index is abandoned and the writer continues.
	IndexerUnavailable Tag = "IndexerUnavailable"
)

// kindOf maps each Tag to the base/errors.Kind that best matches its
// retry/recovery semantics (see SPEC_FULL.md AM1).
var kindOf = map[Tag]errors.Kind{
	HeaderShape:        errors.Invalid,
	RecordShape:        errors.Invalid,
	UnsupportedShape:   errors.NotSupported,
	Ordering:           errors.Precondition,
	LifecycleError:     errors.Precondition,
	Io:                 errors.Other,
	IndexerUnavailable: errors.Unavailable,
}

// contigPos is attached to an error's message when the failing operation
// names a specific genomic location.
type contigPos struct {
	contig string
	start  int64
	has    bool
}

// Errorf constructs a tagged *errors.Error whose message is format and args
// rendered by fmt.Sprintf. It attaches no genomic location (see ErrorfAt)
// and no cause (see Wrap).
func Errorf(tag Tag, format string, args ...interface{}) error {
	return wrap(tag, contigPos{}, fmt.Sprintf(format, args...), nil)
}

// ErrorfAt is Errorf with a contig/start attached to the message, per the
// "human-readable context including contig and start where applicable"
// requirement of spec.md §7.
func ErrorfAt(tag Tag, contig string, start int64, format string, args ...interface{}) error {
	return wrap(tag, contigPos{contig, start, true}, fmt.Sprintf(format, args...), nil)
}

// Wrap attaches tag to cause, preserving cause as the chained error.
func Wrap(tag Tag, cause error, format string, args ...interface{}) error {
	return wrap(tag, contigPos{}, fmt.Sprintf(format, args...), cause)
}

func wrap(tag Tag, pos contigPos, msg string, cause error) error {
	full := string(tag) + ": " + msg
	if pos.has {
		full = fmt.Sprintf("%s (contig=%s start=%d)", full, pos.contig, pos.start)
	}
	kind := kindOf[tag]
	if cause != nil {
		return errors.E(kind, full, cause)
	}
	return errors.E(kind, full)
}

// Is reports whether err was constructed with Errorf/ErrorfAt/Wrap using
// tag. It matches on the "Tag: " message prefix, mirroring the way
// base/errors.Is matches on Kind when no richer discriminator is carried.
func Is(tag Tag, err error) bool {
	if err == nil {
		return false
	}
	e, ok := err.(*errors.Error)
	if !ok {
		return false
	}
	prefix := string(tag) + ": "
	return len(e.Message) >= len(prefix) && e.Message[:len(prefix)] == prefix
}
