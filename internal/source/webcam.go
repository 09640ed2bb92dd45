package source

import (
	"context"

	"github.com/pkg/errors"

	"github.com/dlscope/dlscope/internal/datasource"
)

// Grabber is the device binding consumed by the webcam backend. Concrete
// bindings (V4L2, GStreamer, a simulator) live outside the core; the
// backend only needs open/read/close.
type Grabber interface {
	Open() error
	Read() ([]byte, error)
	Close() error
}

// BufferedGrabber is a grabber whose driver holds an internal fifo of
// already captured frames. Buffered returns the fifo depth, i.e. how many
// stale frames a reader must discard to reach a fresh one.
type BufferedGrabber interface {
	Grabber
	Buffered() int
}

// snapshotDiscard is the number of stale frames discarded before an
// explicit snapshot when the grabber cannot report its fifo depth.
const snapshotDiscard = 4

// Webcam is a snapshot backend over a frame grabber, meant to be driven by
// the background acquisition loop. Routine polling takes the cheap read
// path; explicit snapshots pay extra reads to drain stale buffered frames
// and guarantee freshness.
type Webcam struct {
	grabber Grabber
	frame   []byte
}

// NewWebcam creates a webcam backend over the given grabber.
func NewWebcam(g Grabber) *Webcam {
	return &Webcam{grabber: g}
}

// Kind implements datasource.Backend.
func (w *Webcam) Kind() string { return "webcam" }

// PrepareData opens the capture device.
func (w *Webcam) PrepareData(ctx context.Context) error {
	if err := w.grabber.Open(); err != nil {
		return errors.Wrap(err, "acquiring video capture")
	}
	return nil
}

// UnprepareData releases the capture device.
func (w *Webcam) UnprepareData() error {
	w.frame = nil
	return w.grabber.Close()
}

// FetchDefault reads the next frame. This is the cheap path used by the
// acquisition loop; it accepts whatever frame the driver hands out.
func (w *Webcam) FetchDefault(ctx context.Context) (datasource.Datapoint, error) {
	frame, err := w.grabber.Read()
	if err != nil {
		return datasource.Datapoint{}, errors.Wrap(err, "reading frame")
	}
	w.frame = frame
	return datasource.Datapoint{Bytes: frame}, nil
}

// FetchSnapshot discards the driver's stale buffered frames and then reads,
// trading latency for a frame that reflects the current state of the world.
func (w *Webcam) FetchSnapshot(ctx context.Context) (datasource.Datapoint, error) {
	discard := snapshotDiscard
	if bg, ok := w.grabber.(BufferedGrabber); ok {
		discard = bg.Buffered()
	}
	for i := 0; i < discard; i++ {
		if _, err := w.grabber.Read(); err != nil {
			return datasource.Datapoint{}, errors.Wrap(err, "flushing stale frame")
		}
	}
	return w.FetchDefault(ctx)
}

// Drain reads and discards one buffered frame. The acquisition loop calls
// this between reporting ticks so the driver fifo never grows stale.
func (w *Webcam) Drain() error {
	_, err := w.grabber.Read()
	return err
}
