// Package datasource implements the data-access layer of the toolbox: a
// uniform way to obtain individual datapoints or batches from heterogeneous
// backends (directories, object stores, databases, cameras, synthetic
// generators) with a prepare/fetch/unprepare lifecycle, observable state
// transitions, and an optional background acquisition loop.
package datasource

import (
	"context"

	"github.com/dlscope/dlscope/internal/notify"
)

// Change kinds published by every Source.
const (
	StateChanged    notify.Kind = "state_changed"
	MetadataChanged notify.Kind = "metadata_changed"
	DataChanged     notify.Kind = "data_changed"
	BatchChanged    notify.Kind = "batch_changed"
	LabelsChanged   notify.Kind = "labels_changed"
)

// Datapoint is a single data item produced by a backend. The payload is
// opaque to the core; backends decide what the bytes mean and may attach a
// shape for array-valued data.
type Datapoint struct {
	Bytes []byte
	Shape []int
	Name  string
}

// Backend is the minimal contract every concrete source implements. The
// fetch strategies a backend supports are expressed through the optional
// capability interfaces below and discovered by type assertion.
type Backend interface {
	// Kind returns a short backend kind name, e.g. "directory" or "webcam".
	Kind() string

	// PrepareData allocates whatever resources the backend needs. It is
	// only called when the source is not yet prepared.
	PrepareData(ctx context.Context) error

	// UnprepareData releases the resources allocated by PrepareData.
	UnprepareData() error
}

// IndexedBackend provides array-like access to a fixed number of elements.
type IndexedBackend interface {
	Backend

	// Len returns the number of elements. Only valid once prepared.
	Len() int

	// FetchIndex fetches the element at index. The core guarantees
	// 0 <= index < Len().
	FetchIndex(ctx context.Context, index int) (Datapoint, error)
}

// RandomBackend fetches a uniformly random element. Backends that are
// indexed get random access for free and do not need to implement this.
type RandomBackend interface {
	Backend
	FetchRandom(ctx context.Context) (Datapoint, error)
}

// SnapshotBackend reads the current state of an external, continuously
// changing source. FetchSnapshot may apply extra freshness logic (such as
// draining stale buffered frames) that routine polling should not pay for.
type SnapshotBackend interface {
	Backend
	FetchSnapshot(ctx context.Context) (Datapoint, error)
}

// DefaultBackend overrides the default fetch strategy. Without it the core
// infers a default from the backend's capabilities: indexed backends advance
// to the next element with wraparound, snapshot backends take a snapshot,
// random backends draw a random element.
type DefaultBackend interface {
	Backend
	FetchDefault(ctx context.Context) (Datapoint, error)
}

// BatchBackend fetches several datapoints at once into the batch slot.
type BatchBackend interface {
	Backend
	FetchBatch(ctx context.Context, size int) ([]Datapoint, error)
}

// LabelBackend adds a label namespace to a backend. PrepareLabels fills the
// given set with the label count and any lookup formats; Label returns the
// numeric label of the most recently fetched datapoint.
type LabelBackend interface {
	Backend
	PrepareLabels(ctx context.Context, set *LabelSet) error
	Label() (int, error)
}

// Drainer is implemented by backends with internal input buffering (frame
// grabbers holding stale frames). The loop worker calls Drain between ticks
// to read and discard one buffered item instead of sleeping.
type Drainer interface {
	Drain() error
}

// FileLoader loads a single datapoint from a file, bypassing the current
// item slot. Optional per-backend capability.
type FileLoader interface {
	LoadDatapointFromFile(path string) (Datapoint, error)
}

// Availability is implemented by backends that can probe their backing
// resource without preparing it.
type Availability interface {
	Available() bool
}

// Capability identifies an optional fetch or label capability of a source.
type Capability string

// Capabilities a Source may report via Supports.
const (
	CapIndexed  Capability = "indexed"
	CapRandom   Capability = "random"
	CapSnapshot Capability = "snapshot"
	CapBatch    Capability = "batch"
	CapLabeled  Capability = "labeled"
)
