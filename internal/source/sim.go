package source

import (
	"fmt"
	"sync"
)

// SimGrabber is an in-process frame grabber that synthesizes frames with a
// monotonically increasing sequence number in the first bytes. It models a
// driver with a small internal fifo, which makes it useful for exercising
// the snapshot flush and loop drain behavior without a device.
type SimGrabber struct {
	mx     sync.Mutex
	open   bool
	width  int
	height int
	fifo   int
	seq    uint32
	reads  int
}

// NewSimGrabber creates a simulated grabber producing width*height byte
// frames and reporting a fifo depth of buffered frames.
func NewSimGrabber(width, height, buffered int) *SimGrabber {
	return &SimGrabber{width: width, height: height, fifo: buffered}
}

// Open implements Grabber.
func (g *SimGrabber) Open() error {
	g.mx.Lock()
	defer g.mx.Unlock()
	if g.open {
		return nil
	}
	g.open = true
	g.seq = 0
	g.reads = 0
	return nil
}

// Read returns the next synthesized frame. The sequence number is encoded
// big-endian in the first four bytes.
func (g *SimGrabber) Read() ([]byte, error) {
	g.mx.Lock()
	defer g.mx.Unlock()
	if !g.open {
		return nil, fmt.Errorf("capture device is not open")
	}
	g.seq++
	g.reads++
	frame := make([]byte, g.width*g.height)
	if len(frame) >= 4 {
		frame[0] = byte(g.seq >> 24)
		frame[1] = byte(g.seq >> 16)
		frame[2] = byte(g.seq >> 8)
		frame[3] = byte(g.seq)
	}
	return frame, nil
}

// Close implements Grabber.
func (g *SimGrabber) Close() error {
	g.mx.Lock()
	defer g.mx.Unlock()
	g.open = false
	return nil
}

// Buffered implements BufferedGrabber.
func (g *SimGrabber) Buffered() int { return g.fifo }

// Reads returns how many frames have been read since Open.
func (g *SimGrabber) Reads() int {
	g.mx.Lock()
	defer g.mx.Unlock()
	return g.reads
}

// FrameSeq decodes the sequence number from a frame produced by Read.
func FrameSeq(frame []byte) uint32 {
	if len(frame) < 4 {
		return 0
	}
	return uint32(frame[0])<<24 | uint32(frame[1])<<16 | uint32(frame[2])<<8 | uint32(frame[3])
}
