// Copyright 2026 The Logring Authors
// SPDX-License-Identifier: Apache-2.0

package rotor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus instruments, all labelled by
// stream base name.
type Metrics struct {
	// SegmentsIngested counts sealed segments renamed into generation
	// slot 0.
	SegmentsIngested *prometheus.CounterVec

	// SegmentsAppended counts sealed segments absorbed by appending
	// onto an existing generation 0: while a compression is active, or
	// at rest when a generation 0 was left behind.
	SegmentsAppended *prometheus.CounterVec

	// Shifts counts generation ring shifts (Step B executions).
	Shifts *prometheus.CounterVec

	// ArchivesCreated counts successfully produced archives.
	ArchivesCreated *prometheus.CounterVec

	// ArchiveFailures counts compression attempts that did not
	// produce an archive.
	ArchiveFailures *prometheus.CounterVec
}

// NewMetrics constructs the engine instruments against the given
// registerer. A nil registerer yields working but unregistered
// instruments, which is what tests and metric-less deployments want.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	streamLabel := []string{"stream"}

	return &Metrics{
		SegmentsIngested: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "logring_segments_ingested_total",
			Help: "Sealed segments renamed into generation 0, by stream.",
		}, streamLabel),
		SegmentsAppended: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "logring_segments_appended_total",
			Help: "Sealed segments appended onto an existing generation 0, by stream.",
		}, streamLabel),
		Shifts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "logring_generation_shifts_total",
			Help: "Generation ring shifts performed, by stream.",
		}, streamLabel),
		ArchivesCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "logring_archives_created_total",
			Help: "Archives successfully produced, by stream.",
		}, streamLabel),
		ArchiveFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "logring_archive_failures_total",
			Help: "Compression attempts that failed to produce an archive, by stream.",
		}, streamLabel),
	}
}
