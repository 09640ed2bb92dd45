package source

import (
	"context"
	"testing"

	"github.com/dlscope/dlscope/internal/datasource"
)

// plainGrabber wraps a SimGrabber without exposing its fifo depth.
type plainGrabber struct {
	g *SimGrabber
}

func (p plainGrabber) Open() error           { return p.g.Open() }
func (p plainGrabber) Read() ([]byte, error) { return p.g.Read() }
func (p plainGrabber) Close() error          { return p.g.Close() }

// TestWebcamDefaultFetch verifies the cheap path reads exactly one frame.
func TestWebcamDefaultFetch(t *testing.T) {
	grabber := NewSimGrabber(8, 8, 5)
	w := NewWebcam(grabber)
	ctx := context.Background()
	if err := w.PrepareData(ctx); err != nil {
		t.Fatalf("PrepareData failed: %v", err)
	}
	defer w.UnprepareData()

	dp, err := w.FetchDefault(ctx)
	if err != nil {
		t.Fatalf("FetchDefault failed: %v", err)
	}
	if seq := FrameSeq(dp.Bytes); seq != 1 {
		t.Errorf("Expected first frame, got sequence %d", seq)
	}
	if grabber.Reads() != 1 {
		t.Errorf("Expected 1 read, got %d", grabber.Reads())
	}
}

// TestWebcamSnapshotDrainsFifo verifies a snapshot discards the reported
// number of stale frames before reading.
func TestWebcamSnapshotDrainsFifo(t *testing.T) {
	grabber := NewSimGrabber(8, 8, 5)
	w := NewWebcam(grabber)
	ctx := context.Background()
	if err := w.PrepareData(ctx); err != nil {
		t.Fatalf("PrepareData failed: %v", err)
	}
	defer w.UnprepareData()

	dp, err := w.FetchSnapshot(ctx)
	if err != nil {
		t.Fatalf("FetchSnapshot failed: %v", err)
	}
	if seq := FrameSeq(dp.Bytes); seq != 6 {
		t.Errorf("Expected 5 discarded frames plus one read, got sequence %d", seq)
	}
	if grabber.Reads() != 6 {
		t.Errorf("Expected 6 reads, got %d", grabber.Reads())
	}
}

// TestWebcamSnapshotFixedDiscard verifies the fallback discard count when
// the grabber cannot report its fifo depth.
func TestWebcamSnapshotFixedDiscard(t *testing.T) {
	grabber := NewSimGrabber(8, 8, 0)
	w := NewWebcam(plainGrabber{g: grabber})
	ctx := context.Background()
	if err := w.PrepareData(ctx); err != nil {
		t.Fatalf("PrepareData failed: %v", err)
	}
	defer w.UnprepareData()

	dp, err := w.FetchSnapshot(ctx)
	if err != nil {
		t.Fatalf("FetchSnapshot failed: %v", err)
	}
	if seq := FrameSeq(dp.Bytes); seq != snapshotDiscard+1 {
		t.Errorf("Expected sequence %d, got %d", snapshotDiscard+1, seq)
	}
}

// TestWebcamDrain verifies draining discards exactly one frame.
func TestWebcamDrain(t *testing.T) {
	grabber := NewSimGrabber(8, 8, 5)
	w := NewWebcam(grabber)
	ctx := context.Background()
	if err := w.PrepareData(ctx); err != nil {
		t.Fatalf("PrepareData failed: %v", err)
	}
	defer w.UnprepareData()

	if err := w.Drain(); err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if grabber.Reads() != 1 {
		t.Errorf("Expected 1 read, got %d", grabber.Reads())
	}
}

// TestWebcamClosedDevice verifies reads fail after the device is released.
func TestWebcamClosedDevice(t *testing.T) {
	w := NewWebcam(NewSimGrabber(8, 8, 0))
	ctx := context.Background()
	if err := w.PrepareData(ctx); err != nil {
		t.Fatalf("PrepareData failed: %v", err)
	}
	if err := w.UnprepareData(); err != nil {
		t.Fatalf("UnprepareData failed: %v", err)
	}
	if _, err := w.FetchDefault(ctx); err == nil {
		t.Error("Expected read on a closed device to fail")
	}
}

// TestWebcamThroughSource verifies capability discovery through the
// datasource layer: default and snapshot fetches, no indexed access.
func TestWebcamThroughSource(t *testing.T) {
	grabber := NewSimGrabber(8, 8, 3)
	src := datasource.New(NewWebcam(grabber), datasource.WithID("cam"))
	ctx := context.Background()
	if err := src.Prepare(ctx); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	defer src.Unprepare()

	if src.Supports(datasource.CapIndexed) {
		t.Error("Webcam must not report indexed access")
	}
	if !src.Supports(datasource.CapSnapshot) {
		t.Error("Webcam must report snapshot access")
	}

	// Prepare's implicit fetch read frame 1; the snapshot flushes the fifo.
	if err := src.FetchSnapshot(ctx); err != nil {
		t.Fatalf("FetchSnapshot failed: %v", err)
	}
	dp, _ := src.Data()
	if seq := FrameSeq(dp.Bytes); seq != 5 {
		t.Errorf("Expected sequence 5 after flush, got %d", seq)
	}
}
