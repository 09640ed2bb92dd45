package datasource

import "fmt"

// Mode selects the fetch strategy for one fetch call.
type Mode int

// Fetch modes. Exactly one strategy executes per fetch call.
const (
	ModeDefault Mode = iota
	ModeIndex
	ModeRandom
	ModeSnapshot
)

// String returns the mode name as used in metadata.
func (m Mode) String() string {
	switch m {
	case ModeIndex:
		return "index"
	case ModeRandom:
		return "random"
	case ModeSnapshot:
		return "snapshot"
	default:
		return "default"
	}
}

// FetchRequest describes what a fetch call should obtain. The zero value
// requests the source's default strategy.
type FetchRequest struct {
	Mode  Mode
	Index int
}

// Default requests the source's default fetch strategy.
func Default() FetchRequest { return FetchRequest{Mode: ModeDefault} }

// ByIndex requests the element at the given index.
func ByIndex(index int) FetchRequest { return FetchRequest{Mode: ModeIndex, Index: index} }

// Random requests a uniformly random element.
func Random() FetchRequest { return FetchRequest{Mode: ModeRandom} }

// Snapshot requests the current state of the backing source.
func Snapshot() FetchRequest { return FetchRequest{Mode: ModeSnapshot} }

// String renders the request for logs and descriptions.
func (r FetchRequest) String() string {
	if r.Mode == ModeIndex {
		return fmt.Sprintf("index(%d)", r.Index)
	}
	return r.Mode.String()
}
