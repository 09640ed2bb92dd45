package source

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/dlscope/dlscope/internal/datasource"
)

// Noise is a synthetic backend generating uniformly random datapoints of a
// fixed shape. Useful for exercising tools without any real data around.
type Noise struct {
	shape []int
	size  int
	rng   *rand.Rand
	seq   int
}

// NewNoise creates a noise backend producing datapoints with the given
// shape, e.g. 28, 28 for MNIST-sized grayscale images.
func NewNoise(shape ...int) *Noise {
	size := 1
	for _, dim := range shape {
		size *= dim
	}
	if len(shape) == 0 {
		size = 0
	}
	return &Noise{shape: shape, size: size}
}

// Kind implements datasource.Backend.
func (n *Noise) Kind() string { return "noise" }

// PrepareData seeds the generator.
func (n *Noise) PrepareData(ctx context.Context) error {
	n.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	return nil
}

// UnprepareData drops the generator.
func (n *Noise) UnprepareData() error {
	n.rng = nil
	return nil
}

// FetchRandom generates one random datapoint.
func (n *Noise) FetchRandom(ctx context.Context) (datasource.Datapoint, error) {
	buf := make([]byte, n.size)
	for i := range buf {
		buf[i] = byte(n.rng.UintN(256))
	}
	n.seq++
	return datasource.Datapoint{
		Bytes: buf,
		Shape: n.shape,
		Name:  fmt.Sprintf("noise-%d", n.seq),
	}, nil
}

// FetchBatch generates size random datapoints at once.
func (n *Noise) FetchBatch(ctx context.Context, size int) ([]datasource.Datapoint, error) {
	batch := make([]datasource.Datapoint, size)
	for i := range batch {
		dp, err := n.FetchRandom(ctx)
		if err != nil {
			return nil, err
		}
		batch[i] = dp
	}
	return batch, nil
}
