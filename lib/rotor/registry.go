// Copyright 2026 The Logring Authors
// SPDX-License-Identifier: Apache-2.0

package rotor

import "strings"

// dummyMarkerSuffix is appended to a stream base to form the
// self-synthesized settle marker name (e.g. "ipstrc.dummy.bak"). The
// rotator treats a sealed-segment event carrying this name as a
// shift-only request: no bytes are ingested and the marker file is
// deleted after the shift.
const dummyMarkerSuffix = ".dummy.bak"

// bakSuffix marks a sealed segment produced by the logger.
const bakSuffix = ".bak"

// classification is the outcome of filename classification. Exactly
// one applies to any basename.
type classification int

const (
	// classIgnored: not a .bak name, or a .bak name matching no
	// registered stream.
	classIgnored classification = iota

	// classDerivative: contains ".bak." — an artifact of an external
	// rotation tool (e.g. "ipstrc.bak.1", "ipstrc.bak.1.gz"). Never
	// touched.
	classDerivative

	// classSelfStaged: exactly "<base>.bak" for a registered base.
	// Reserved as the engine's own staging name; never ingested.
	classSelfStaged

	// classSealed: a producer-sealed segment for a registered stream.
	// Dispatched to the rotator.
	classSealed
)

// Registry is the fixed, ordered table of known stream base names.
// Classification matches by substring containment in registry order,
// so when one base name is a substring of another the earlier entry
// wins. The registry is immutable after construction and safe for
// concurrent use.
type Registry struct {
	bases []string
}

// NewRegistry builds a registry from an ordered list of base names.
// The slice is copied.
func NewRegistry(bases []string) *Registry {
	return &Registry{bases: append([]string(nil), bases...)}
}

// Len returns the number of registered streams.
func (r *Registry) Len() int { return len(r.bases) }

// Base returns the base name of the stream at index i.
func (r *Registry) Base(i int) string { return r.bases[i] }

// Classify maps a basename to a stream and classification. The stream
// index is -1 unless a registered base matched (classSelfStaged and
// classSealed). Classification is purely lexical; the filesystem is
// never consulted.
func (r *Registry) Classify(name string) (int, classification) {
	if !strings.Contains(name, bakSuffix) {
		return -1, classIgnored
	}
	if strings.Contains(name, bakSuffix+".") {
		return -1, classDerivative
	}
	for i, base := range r.bases {
		if !strings.Contains(name, base) {
			continue
		}
		if name == base+bakSuffix {
			return i, classSelfStaged
		}
		return i, classSealed
	}
	return -1, classIgnored
}

// isDummyMarker reports whether name is the settle marker for the
// stream at index i.
func (r *Registry) isDummyMarker(i int, name string) bool {
	return name == r.bases[i]+dummyMarkerSuffix
}
