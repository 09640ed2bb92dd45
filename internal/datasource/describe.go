package datasource

import "fmt"

// DescribeOpts parameterizes Describe with optional contextual detail.
type DescribeOpts struct {
	// WithIndex appends the current index for indexed sources.
	WithIndex bool

	// WithLabel appends label information for labeled sources.
	WithLabel bool
}

// Describe returns a human-readable description of the source, optionally
// extended with index and label context for the current datapoint.
func (s *Source) Describe(opts DescribeOpts) string {
	s.mx.RLock()
	desc := s.description
	index := s.index
	fetched := s.fetched
	labelsPrepared := s.labelsPrepared
	set := s.labels
	s.mx.RUnlock()

	if opts.WithIndex {
		if _, ok := s.backend.(IndexedBackend); ok && index >= 0 {
			desc += fmt.Sprintf(", index=%d", index)
		}
	}
	if opts.WithLabel {
		if _, ok := s.backend.(LabelBackend); !ok {
			return desc
		}
		if !labelsPrepared {
			return desc + " (without labels)"
		}
		if count, known := set.Count(); known {
			desc += fmt.Sprintf(" (%d labels)", count)
		}
		if fetched {
			if label, err := s.Label(); err == nil {
				desc += fmt.Sprintf(", label=%d", label)
				for _, format := range set.Formats() {
					if v, err := set.Render(label, format); err == nil {
						desc += fmt.Sprintf(", %s=%s", format, v)
					}
				}
			}
		}
	}
	return desc
}

// Description returns the plain description without contextual detail.
func (s *Source) Description() string {
	return s.Describe(DescribeOpts{})
}
