package datasource

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wI2L/jsondiff"
)

// Metadata describes the most recently fetched datapoint. A fresh value is
// attached to the current item slot on every successful fetch.
type Metadata struct {
	FetchID   string            `json:"fetchId"`
	Source    string            `json:"source"`
	Kind      string            `json:"kind"`
	Mode      string            `json:"mode"`
	Index     int               `json:"index"`
	Name      string            `json:"name,omitempty"`
	Shape     []int             `json:"shape,omitempty"`
	Size      int               `json:"size"`
	Timestamp time.Time         `json:"timestamp"`
	Attrs     map[string]string `json:"attrs,omitempty"`
}

func newMetadata(s *Source, req FetchRequest, index int, dp Datapoint) *Metadata {
	return &Metadata{
		FetchID:   uuid.NewString(),
		Source:    s.id,
		Kind:      s.backend.Kind(),
		Mode:      req.Mode.String(),
		Index:     index,
		Name:      dp.Name,
		Shape:     dp.Shape,
		Size:      len(dp.Bytes),
		Timestamp: time.Now(),
	}
}

// Describe returns a one-line human-readable summary.
func (m *Metadata) Describe() string {
	desc := fmt.Sprintf("%s [%s] %s, %d bytes", m.Source, m.Kind, m.Mode, m.Size)
	if m.Name != "" {
		desc += fmt.Sprintf(", name=%s", m.Name)
	}
	if m.Index >= 0 {
		desc += fmt.Sprintf(", index=%d", m.Index)
	}
	return desc
}

// Diff returns a JSON patch describing what changed between this metadata
// and a later one. Used to surface what moved between consecutive fetches.
func (m *Metadata) Diff(other *Metadata) (string, error) {
	patch, err := jsondiff.Compare(m, other)
	if err != nil {
		return "", fmt.Errorf("diffing metadata: %w", err)
	}
	if patch == nil {
		return "[]", nil
	}
	return patch.String(), nil
}
