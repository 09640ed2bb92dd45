package datasource

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/dlscope/dlscope/internal/notify"
)

// Source wraps a Backend with the datasource lifecycle: preparation state,
// the single current-item slot, fetch dispatch, observable change
// notifications and the optional background acquisition loop.
//
// The slot and all lifecycle state are guarded by one mutex shared between
// the foreground dispatch path and the loop worker, so a fetch never
// exposes a partially updated slot to concurrent readers.
type Source struct {
	id          string
	description string
	backend     Backend
	pub         *notify.Publisher
	rng         func(n int) int

	mx       sync.RWMutex
	prepared bool
	fetched  bool
	current  Datapoint
	meta     *Metadata
	batch    []Datapoint
	index    int // last indexed position, -1 before any indexed fetch

	labels         *LabelSet
	labelsPrepared bool

	loop loopState
}

// Option configures a Source at construction time.
type Option func(*Source)

// WithID sets an explicit source id instead of a registry-assigned one.
func WithID(id string) Option {
	return func(s *Source) { s.id = id }
}

// WithDescription sets the human-facing description.
func WithDescription(desc string) Option {
	return func(s *Source) { s.description = desc }
}

// WithLoopInterval sets the background loop fetch interval.
func WithLoopInterval(d time.Duration) Option {
	return func(s *Source) { s.loop.interval = d }
}

// WithRand overrides the random index generator. Used by tests that need
// deterministic draws.
func WithRand(fn func(n int) int) Option {
	return func(s *Source) { s.rng = fn }
}

// New creates a Source around the given backend. The source is not
// registered and not prepared; see Registry.Add and Prepare.
func New(backend Backend, opts ...Option) *Source {
	s := &Source{
		backend: backend,
		rng:     rand.IntN,
		index:   -1,
	}
	s.loop.interval = defaultLoopInterval
	for _, opt := range opts {
		opt(s)
	}
	if s.description == "" {
		s.description = backend.Kind()
	}
	name := s.id
	if name == "" {
		name = backend.Kind()
	}
	s.pub = notify.NewPublisher(name,
		StateChanged, MetadataChanged, DataChanged, BatchChanged, LabelsChanged)
	return s
}

// ID returns the source id. Empty until assigned explicitly or by a
// registry.
func (s *Source) ID() string {
	s.mx.RLock()
	defer s.mx.RUnlock()
	return s.id
}

// Kind returns the backend kind name.
func (s *Source) Kind() string { return s.backend.Kind() }

// Backend returns the wrapped backend.
func (s *Source) Backend() Backend { return s.backend }

func (s *Source) setID(id string) {
	s.mx.Lock()
	s.id = id
	s.mx.Unlock()
	s.pub.SetSource(id)
}

// Subscribe registers an observer for the given change kinds (all kinds
// when none are given).
func (s *Source) Subscribe(o notify.Observer, kinds ...notify.Kind) {
	s.pub.Subscribe(o, kinds...)
}

// Unsubscribe removes a previously registered observer.
func (s *Source) Unsubscribe(o notify.Observer) {
	s.pub.Unsubscribe(o)
}

// Prepared reports whether backend resources are allocated.
func (s *Source) Prepared() bool {
	s.mx.RLock()
	defer s.mx.RUnlock()
	return s.prepared
}

// Fetched reports whether the current item slot is populated.
func (s *Source) Fetched() bool {
	s.mx.RLock()
	defer s.mx.RUnlock()
	return s.fetched
}

// Available reports whether the backend believes its backing resource can
// be prepared. Backends that cannot probe cheaply report true.
func (s *Source) Available() bool {
	if a, ok := s.backend.(Availability); ok {
		return a.Available()
	}
	return true
}

// Supports reports whether the source offers the given capability.
func (s *Source) Supports(cap Capability) bool {
	switch cap {
	case CapIndexed:
		_, ok := s.backend.(IndexedBackend)
		return ok
	case CapRandom:
		if _, ok := s.backend.(RandomBackend); ok {
			return true
		}
		// Indexed backends get random access through index draws.
		_, ok := s.backend.(IndexedBackend)
		return ok
	case CapSnapshot:
		_, ok := s.backend.(SnapshotBackend)
		return ok
	case CapBatch:
		_, ok := s.backend.(BatchBackend)
		return ok
	case CapLabeled:
		_, ok := s.backend.(LabelBackend)
		return ok
	}
	return false
}

// Capabilities lists the capabilities the source supports.
func (s *Source) Capabilities() []Capability {
	all := []Capability{CapIndexed, CapRandom, CapSnapshot, CapBatch, CapLabeled}
	caps := make([]Capability, 0, len(all))
	for _, c := range all {
		if s.Supports(c) {
			caps = append(caps, c)
		}
	}
	return caps
}

// Prepare allocates backend resources, prepares labels when the backend
// has them, and performs one implicit default fetch. Calling Prepare on an
// already prepared source is a no-op. On failure the caller must re-invoke
// Prepare; there is no automatic retry.
func (s *Source) Prepare(ctx context.Context) error {
	var err error
	s.pub.Change(func(c *notify.Changer) {
		s.mx.Lock()
		defer s.mx.Unlock()
		if s.prepared {
			return
		}
		if perr := s.backend.PrepareData(ctx); perr != nil {
			err = &ResourceError{Source: s.name(), Err: perr}
			return
		}
		s.prepared = true
		c.Raise(StateChanged)

		if lb, ok := s.backend.(LabelBackend); ok && !s.labelsPrepared {
			set := NewLabelSet()
			if lerr := lb.PrepareLabels(ctx, set); lerr != nil {
				err = fmt.Errorf("preparing labels for %s: %w", s.name(), lerr)
				return
			}
			s.labels = set
			s.labelsPrepared = true
			c.Raise(LabelsChanged)
		}

		if s.canFetch() {
			err = s.fetchLocked(ctx, Default(), c)
		}
	})
	return err
}

// canFetch reports whether the backend offers any fetch strategy at all.
func (s *Source) canFetch() bool {
	switch s.backend.(type) {
	case DefaultBackend, IndexedBackend, SnapshotBackend, RandomBackend:
		return true
	}
	return false
}

// Unprepare releases backend resources and clears the current item slot.
// A running loop is stopped first. Calling Unprepare on an unprepared
// source is a no-op.
func (s *Source) Unprepare() error {
	s.StopLoop()

	var err error
	s.pub.Change(func(c *notify.Changer) {
		s.mx.Lock()
		defer s.mx.Unlock()
		if !s.prepared {
			return
		}
		if uerr := s.backend.UnprepareData(); uerr != nil {
			err = fmt.Errorf("unpreparing %s: %w", s.name(), uerr)
		}
		s.prepared = false
		s.fetched = false
		s.current = Datapoint{}
		s.meta = nil
		s.batch = nil
		s.index = -1
		c.Raise(StateChanged, DataChanged)

		if s.labelsPrepared {
			s.labels.Invalidate()
			s.labels = nil
			s.labelsPrepared = false
			c.Raise(LabelsChanged)
		}
	})
	return err
}

// Fetch resolves the request to exactly one concrete fetch strategy,
// populates the current item slot and its metadata, and delivers a single
// change notification. It fails when the source is not prepared.
func (s *Source) Fetch(ctx context.Context, req FetchRequest) error {
	var err error
	s.pub.Change(func(c *notify.Changer) {
		s.mx.Lock()
		defer s.mx.Unlock()
		err = s.fetchLocked(ctx, req, c)
	})
	return err
}

// fetchLocked runs one fetch under the instance mutex, raising change kinds
// into the caller's scope so composite operations coalesce.
func (s *Source) fetchLocked(ctx context.Context, req FetchRequest, c *notify.Changer) error {
	if !s.prepared {
		return fmt.Errorf("%s: %w", s.name(), ErrNotPrepared)
	}
	dp, index, err := s.dispatch(ctx, req)
	if err != nil {
		return err
	}
	s.current = dp
	s.meta = newMetadata(s, req, index, dp)
	s.fetched = true
	if index >= 0 {
		s.index = index
	}
	c.Raise(MetadataChanged, DataChanged)
	return nil
}

// dispatch resolves which concrete strategy serves the request. It returns
// the fetched datapoint and the index it landed on (-1 for non-indexed
// strategies).
func (s *Source) dispatch(ctx context.Context, req FetchRequest) (Datapoint, int, error) {
	switch req.Mode {
	case ModeIndex:
		ib, ok := s.backend.(IndexedBackend)
		if !ok {
			return Datapoint{}, -1, s.notImplemented("FetchIndex")
		}
		n := ib.Len()
		if req.Index < 0 || req.Index >= n {
			return Datapoint{}, -1, &RangeError{Index: req.Index, Length: n}
		}
		dp, err := ib.FetchIndex(ctx, req.Index)
		return dp, req.Index, err

	case ModeRandom:
		if rb, ok := s.backend.(RandomBackend); ok {
			dp, err := rb.FetchRandom(ctx)
			return dp, -1, err
		}
		if ib, ok := s.backend.(IndexedBackend); ok {
			n := ib.Len()
			if n <= 0 {
				return Datapoint{}, -1, &RangeError{Index: 0, Length: n}
			}
			i := s.rng(n)
			dp, err := ib.FetchIndex(ctx, i)
			return dp, i, err
		}
		return Datapoint{}, -1, s.notImplemented("FetchRandom")

	case ModeSnapshot:
		sb, ok := s.backend.(SnapshotBackend)
		if !ok {
			return Datapoint{}, -1, s.notImplemented("FetchSnapshot")
		}
		dp, err := sb.FetchSnapshot(ctx)
		return dp, -1, err

	default:
		if db, ok := s.backend.(DefaultBackend); ok {
			dp, err := db.FetchDefault(ctx)
			return dp, -1, err
		}
		if ib, ok := s.backend.(IndexedBackend); ok {
			n := ib.Len()
			if n <= 0 {
				return Datapoint{}, -1, &RangeError{Index: 0, Length: n}
			}
			next := (s.index + 1) % n
			dp, err := ib.FetchIndex(ctx, next)
			return dp, next, err
		}
		if sb, ok := s.backend.(SnapshotBackend); ok {
			dp, err := sb.FetchSnapshot(ctx)
			return dp, -1, err
		}
		if rb, ok := s.backend.(RandomBackend); ok {
			dp, err := rb.FetchRandom(ctx)
			return dp, -1, err
		}
		return Datapoint{}, -1, s.notImplemented("FetchDefault")
	}
}

// FetchDefault performs the source's default fetch strategy.
func (s *Source) FetchDefault(ctx context.Context) error {
	return s.Fetch(ctx, Default())
}

// FetchIndex fetches the element at the given index.
func (s *Source) FetchIndex(ctx context.Context, index int) error {
	return s.Fetch(ctx, ByIndex(index))
}

// FetchRandom fetches a uniformly random element.
func (s *Source) FetchRandom(ctx context.Context) error {
	return s.Fetch(ctx, Random())
}

// FetchSnapshot fetches the current state of the backing source.
func (s *Source) FetchSnapshot(ctx context.Context) error {
	return s.Fetch(ctx, Snapshot())
}

// FetchNext advances to the next index, wrapping to the first element past
// the end.
func (s *Source) FetchNext(ctx context.Context) error {
	n, err := s.Length()
	if err != nil {
		return err
	}
	if n <= 0 {
		return &RangeError{Index: 0, Length: n}
	}
	s.mx.RLock()
	cur := s.index
	s.mx.RUnlock()
	next := 0
	if cur >= 0 {
		next = (cur + 1) % n
	}
	return s.Fetch(ctx, ByIndex(next))
}

// FetchPrev steps back one index, wrapping to the last element before the
// start.
func (s *Source) FetchPrev(ctx context.Context) error {
	n, err := s.Length()
	if err != nil {
		return err
	}
	if n <= 0 {
		return &RangeError{Index: 0, Length: n}
	}
	s.mx.RLock()
	cur := s.index
	s.mx.RUnlock()
	prev := n - 1
	if cur > 0 {
		prev = cur - 1
	}
	return s.Fetch(ctx, ByIndex(prev))
}

// FetchFirst fetches the first element.
func (s *Source) FetchFirst(ctx context.Context) error {
	return s.Fetch(ctx, ByIndex(0))
}

// FetchLast fetches the last element.
func (s *Source) FetchLast(ctx context.Context) error {
	n, err := s.Length()
	if err != nil {
		return err
	}
	return s.Fetch(ctx, ByIndex(n-1))
}

// At synchronously fetches the element at index and returns it. A
// convenience layered over the fetch protocol for array-like use.
func (s *Source) At(ctx context.Context, index int) (Datapoint, error) {
	if err := s.FetchIndex(ctx, index); err != nil {
		return Datapoint{}, err
	}
	return s.Data()
}

// FetchBatch fetches size datapoints into the batch slot.
func (s *Source) FetchBatch(ctx context.Context, size int) error {
	bb, ok := s.backend.(BatchBackend)
	if !ok {
		return s.notImplemented("FetchBatch")
	}
	var err error
	s.pub.Change(func(c *notify.Changer) {
		s.mx.Lock()
		defer s.mx.Unlock()
		if !s.prepared {
			err = fmt.Errorf("%s: %w", s.name(), ErrNotPrepared)
			return
		}
		var batch []Datapoint
		if batch, err = bb.FetchBatch(ctx, size); err != nil {
			return
		}
		s.batch = batch
		c.Raise(BatchChanged)
	})
	return err
}

// Length returns the number of elements of an indexed source. It fails for
// unprepared or non-indexed sources.
func (s *Source) Length() (int, error) {
	ib, ok := s.backend.(IndexedBackend)
	if !ok {
		return 0, s.notImplemented("Len")
	}
	s.mx.RLock()
	defer s.mx.RUnlock()
	if !s.prepared {
		return 0, fmt.Errorf("%s: %w", s.name(), ErrNotPrepared)
	}
	return ib.Len(), nil
}

// Index returns the index of the most recent indexed fetch, -1 when no
// indexed fetch happened yet.
func (s *Source) Index() int {
	s.mx.RLock()
	defer s.mx.RUnlock()
	return s.index
}

// Data returns the current datapoint. It fails until a fetch succeeded.
func (s *Source) Data() (Datapoint, error) {
	s.mx.RLock()
	defer s.mx.RUnlock()
	if !s.fetched {
		return Datapoint{}, fmt.Errorf("%s: %w", s.name(), ErrNotFetched)
	}
	return s.current, nil
}

// BatchData returns the current batch. It fails until FetchBatch succeeded.
func (s *Source) BatchData() ([]Datapoint, error) {
	s.mx.RLock()
	defer s.mx.RUnlock()
	if s.batch == nil {
		return nil, fmt.Errorf("%s: %w", s.name(), ErrNotFetched)
	}
	return s.batch, nil
}

// Metadata returns the description of the most recent fetch. It fails
// until a fetch succeeded.
func (s *Source) Metadata() (*Metadata, error) {
	s.mx.RLock()
	defer s.mx.RUnlock()
	if s.meta == nil {
		return nil, fmt.Errorf("%s: %w", s.name(), ErrNotFetched)
	}
	return s.meta, nil
}

// LoadDatapointFromFile loads a single datapoint from a file without
// touching the current item slot. Only some backends support this.
func (s *Source) LoadDatapointFromFile(path string) (Datapoint, error) {
	fl, ok := s.backend.(FileLoader)
	if !ok {
		return Datapoint{}, s.notImplemented("LoadDatapointFromFile")
	}
	return fl.LoadDatapointFromFile(path)
}

// name returns the best identifier for error messages; mx may be held.
func (s *Source) name() string {
	if s.id != "" {
		return s.id
	}
	return s.backend.Kind()
}

func (s *Source) notImplemented(method string) error {
	return &NotImplementedError{Backend: fmt.Sprintf("%T", s.backend), Method: method}
}
