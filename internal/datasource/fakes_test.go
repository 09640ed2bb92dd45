package datasource

import (
	"context"
	"fmt"
	"sync/atomic"
)

// fakeSeries is a fixed-length indexed in-memory backend with call counters.
type fakeSeries struct {
	items      []Datapoint
	prepares   int
	unprepares int
	prepareErr error
	byIndex    int
}

func newFakeSeries(n int) *fakeSeries {
	items := make([]Datapoint, n)
	for i := range items {
		items[i] = Datapoint{Bytes: []byte{byte(i)}, Name: fmt.Sprintf("item-%d", i)}
	}
	return &fakeSeries{items: items}
}

func (f *fakeSeries) Kind() string { return "series" }

func (f *fakeSeries) PrepareData(context.Context) error {
	f.prepares++
	return f.prepareErr
}

func (f *fakeSeries) UnprepareData() error {
	f.unprepares++
	return nil
}

func (f *fakeSeries) Len() int { return len(f.items) }

func (f *fakeSeries) FetchIndex(_ context.Context, index int) (Datapoint, error) {
	f.byIndex++
	return f.items[index], nil
}

// fakeStream is an unindexed live backend offering default, random, snapshot
// and batch fetches, each with its own counter.
type fakeStream struct {
	deflt    int
	random   int
	snapshot int
	batch    int
	seq      int
}

func (f *fakeStream) Kind() string                 { return "stream" }
func (f *fakeStream) PrepareData(context.Context) error { return nil }
func (f *fakeStream) UnprepareData() error         { return nil }

func (f *fakeStream) next() Datapoint {
	dp := Datapoint{Name: fmt.Sprintf("frame-%d", f.seq)}
	f.seq++
	return dp
}

func (f *fakeStream) FetchDefault(context.Context) (Datapoint, error) {
	f.deflt++
	return f.next(), nil
}

func (f *fakeStream) FetchRandom(context.Context) (Datapoint, error) {
	f.random++
	return f.next(), nil
}

func (f *fakeStream) FetchSnapshot(context.Context) (Datapoint, error) {
	f.snapshot++
	return f.next(), nil
}

func (f *fakeStream) FetchBatch(_ context.Context, size int) ([]Datapoint, error) {
	f.batch++
	out := make([]Datapoint, size)
	for i := range out {
		out[i] = f.next()
	}
	return out, nil
}

// fakeHybrid is indexed but overrides the default fetch strategy.
type fakeHybrid struct {
	*fakeSeries
	deflt int
}

func (f *fakeHybrid) FetchDefault(context.Context) (Datapoint, error) {
	f.deflt++
	return Datapoint{Name: "override"}, nil
}

// fakeSnapshotOnly offers nothing but snapshots.
type fakeSnapshotOnly struct {
	snapshot int
}

func (f *fakeSnapshotOnly) Kind() string                 { return "snapshot-only" }
func (f *fakeSnapshotOnly) PrepareData(context.Context) error { return nil }
func (f *fakeSnapshotOnly) UnprepareData() error         { return nil }

func (f *fakeSnapshotOnly) FetchSnapshot(context.Context) (Datapoint, error) {
	f.snapshot++
	return Datapoint{Name: fmt.Sprintf("snap-%d", f.snapshot)}, nil
}

// fakeBare implements no fetch capability at all.
type fakeBare struct{}

func (fakeBare) Kind() string                 { return "bare" }
func (fakeBare) PrepareData(context.Context) error { return nil }
func (fakeBare) UnprepareData() error         { return nil }

// fakeLabeled extends the indexed series with a label namespace. The label
// of a datapoint is its index modulo the label count.
type fakeLabeled struct {
	*fakeSeries
	labels        []string
	labelPrepares int
	last          int
}

func newFakeLabeled(n int, labels ...string) *fakeLabeled {
	return &fakeLabeled{fakeSeries: newFakeSeries(n), labels: labels}
}

func (f *fakeLabeled) Kind() string { return "labeled" }

func (f *fakeLabeled) FetchIndex(ctx context.Context, index int) (Datapoint, error) {
	f.last = index
	return f.fakeSeries.FetchIndex(ctx, index)
}

func (f *fakeLabeled) PrepareLabels(_ context.Context, set *LabelSet) error {
	f.labelPrepares++
	if err := set.SetCount(len(f.labels)); err != nil {
		return err
	}
	return set.AddFormat("text", f.labels)
}

func (f *fakeLabeled) Label() (int, error) {
	return f.last % len(f.labels), nil
}

// fakeFeed is a live backend safe for use from the loop worker.
type fakeFeed struct {
	fetches  atomic.Int64
	fetchErr error
}

func (f *fakeFeed) Kind() string                 { return "feed" }
func (f *fakeFeed) PrepareData(context.Context) error { return nil }
func (f *fakeFeed) UnprepareData() error         { return nil }

func (f *fakeFeed) FetchDefault(context.Context) (Datapoint, error) {
	n := f.fetches.Add(1)
	if f.fetchErr != nil {
		return Datapoint{}, f.fetchErr
	}
	return Datapoint{Name: fmt.Sprintf("feed-%d", n)}, nil
}

// fakeBufferedFeed buffers input and supports draining between loop ticks.
type fakeBufferedFeed struct {
	fakeFeed
	drains atomic.Int64
}

func (f *fakeBufferedFeed) Drain() error {
	f.drains.Add(1)
	return nil
}
