package datasource

import (
	"fmt"
	"sort"
	"sync"
)

// LabelSet holds the label namespace of a labeled source: the number of
// distinct labels and named lookup tables translating the internal numeric
// labels into alternate representations (text, alternate index schemes).
//
// Forward tables are registered explicitly; reverse tables are derived
// lazily on first use and dropped again by Invalidate.
type LabelSet struct {
	mx      sync.RWMutex
	count   int // negative while unknown
	formats map[string][]string
	reverse map[string]map[string]int
}

// NewLabelSet creates an empty label set with an unknown label count.
func NewLabelSet() *LabelSet {
	return &LabelSet{
		count:   -1,
		formats: make(map[string][]string),
		reverse: make(map[string]map[string]int),
	}
}

// SetCount fixes the number of labels. Formats registered afterwards must
// match it exactly.
func (l *LabelSet) SetCount(n int) error {
	if n < 0 {
		return validationf("label count must not be negative, got %d", n)
	}
	l.mx.Lock()
	defer l.mx.Unlock()
	l.count = n
	return nil
}

// Count returns the number of labels and whether it is known.
func (l *LabelSet) Count() (int, bool) {
	l.mx.RLock()
	defer l.mx.RUnlock()
	return l.count, l.count >= 0
}

// AddFormat registers a forward lookup table under the given name. The
// table length must equal the label count; mismatches leave the set
// unchanged.
func (l *LabelSet) AddFormat(name string, table []string) error {
	l.mx.Lock()
	defer l.mx.Unlock()
	if l.count < 0 {
		return validationf("cannot add format %q: label count is unknown", name)
	}
	if len(table) != l.count {
		return validationf("format %q has %d entries, expected %d",
			name, len(table), l.count)
	}
	l.formats[name] = table
	delete(l.reverse, name)
	return nil
}

// Formats lists the registered format names in sorted order.
func (l *LabelSet) Formats() []string {
	l.mx.RLock()
	defer l.mx.RUnlock()
	names := make([]string, 0, len(l.formats))
	for name := range l.formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render translates one internal numeric label into the given format.
func (l *LabelSet) Render(label int, format string) (string, error) {
	l.mx.RLock()
	defer l.mx.RUnlock()
	table, ok := l.formats[format]
	if !ok {
		return "", l.unknownFormat(format)
	}
	if label < 0 || label >= len(table) {
		return "", &RangeError{Index: label, Length: len(table)}
	}
	return table[label], nil
}

// RenderAll translates a batch of internal labels into the given format.
func (l *LabelSet) RenderAll(labels []int, format string) ([]string, error) {
	out := make([]string, len(labels))
	for i, label := range labels {
		v, err := l.Render(label, format)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Resolve maps one representation in the origin format back to the internal
// numeric label, building the reverse table on first use.
func (l *LabelSet) Resolve(value string, origin string) (int, error) {
	rev, err := l.reverseTable(origin)
	if err != nil {
		return 0, err
	}
	label, ok := rev[value]
	if !ok {
		return 0, validationf("value %q is not a label in format %q", value, origin)
	}
	return label, nil
}

// ResolveAll maps a batch of representations back to internal labels.
func (l *LabelSet) ResolveAll(values []string, origin string) ([]int, error) {
	out := make([]int, len(values))
	for i, v := range values {
		label, err := l.Resolve(v, origin)
		if err != nil {
			return nil, err
		}
		out[i] = label
	}
	return out, nil
}

// Convert runs the two-stage translation: values in the origin format are
// resolved to internal labels, then rendered in the target format.
func (l *LabelSet) Convert(values []string, origin, format string) ([]string, error) {
	labels, err := l.ResolveAll(values, origin)
	if err != nil {
		return nil, err
	}
	return l.RenderAll(labels, format)
}

// OneHot builds a dense one-hot encoding, one row per label. It fails while
// the label count is unknown or when a label is out of range.
func (l *LabelSet) OneHot(labels []int) ([][]float32, error) {
	l.mx.RLock()
	count := l.count
	l.mx.RUnlock()
	if count < 0 {
		return nil, validationf("cannot one-hot encode: label count is unknown")
	}
	out := make([][]float32, len(labels))
	for i, label := range labels {
		if label < 0 || label >= count {
			return nil, &RangeError{Index: label, Length: count}
		}
		row := make([]float32, count)
		row[label] = 1
		out[i] = row
	}
	return out, nil
}

// Invalidate drops all cached reverse tables. Called when labels are
// unprepared; forward tables and the count are kept by the caller's choice
// to discard the whole set or not.
func (l *LabelSet) Invalidate() {
	l.mx.Lock()
	defer l.mx.Unlock()
	l.reverse = make(map[string]map[string]int)
}

// reverseTable returns the cached reverse table for a format, deriving it
// with a stable order-preserving inversion on first use. Duplicate entries
// keep the lowest label.
func (l *LabelSet) reverseTable(origin string) (map[string]int, error) {
	l.mx.RLock()
	rev, ok := l.reverse[origin]
	l.mx.RUnlock()
	if ok {
		return rev, nil
	}

	l.mx.Lock()
	defer l.mx.Unlock()
	table, ok := l.formats[origin]
	if !ok {
		return nil, l.unknownFormat(origin)
	}
	if rev, ok := l.reverse[origin]; ok {
		return rev, nil
	}
	rev = make(map[string]int, len(table))
	for i, v := range table {
		if _, exists := rev[v]; !exists {
			rev[v] = i
		}
	}
	l.reverse[origin] = rev
	return rev, nil
}

// unknownFormat builds the validation error for an unregistered format
// name; the caller holds at least a read lock.
func (l *LabelSet) unknownFormat(name string) error {
	names := make([]string, 0, len(l.formats))
	for n := range l.formats {
		names = append(names, n)
	}
	sort.Strings(names)
	return validationf("format %q is not registered, known formats: %v", name, names)
}

// Label-related accessors on Source.

// LabelsPrepared reports whether the label namespace is ready for use.
func (s *Source) LabelsPrepared() bool {
	s.mx.RLock()
	defer s.mx.RUnlock()
	return s.labelsPrepared
}

// Labels returns the label set, nil until labels are prepared.
func (s *Source) Labels() *LabelSet {
	s.mx.RLock()
	defer s.mx.RUnlock()
	return s.labels
}

// NumberOfLabels returns the label count and whether it is known.
func (s *Source) NumberOfLabels() (int, bool) {
	s.mx.RLock()
	set := s.labels
	s.mx.RUnlock()
	if set == nil {
		return 0, false
	}
	return set.Count()
}

// Label returns the numeric label of the current datapoint. It fails when
// labels are not prepared or nothing has been fetched.
func (s *Source) Label() (int, error) {
	lb, ok := s.backend.(LabelBackend)
	if !ok {
		return 0, s.notImplemented("Label")
	}
	s.mx.RLock()
	defer s.mx.RUnlock()
	if !s.labelsPrepared {
		return 0, fmt.Errorf("%s: %w", s.name(), ErrLabelsNotPrepared)
	}
	if !s.fetched {
		return 0, fmt.Errorf("%s: %w", s.name(), ErrNotFetched)
	}
	return lb.Label()
}

// FormattedLabel returns the label of the current datapoint translated into
// the given format.
func (s *Source) FormattedLabel(format string) (string, error) {
	label, err := s.Label()
	if err != nil {
		return "", err
	}
	set := s.Labels()
	return set.Render(label, format)
}

// AddLabelFormat registers a forward lookup table on the source's label
// set. It fails when labels are not prepared.
func (s *Source) AddLabelFormat(name string, table []string) error {
	set := s.Labels()
	if set == nil {
		return fmt.Errorf("%s: %w", s.name(), ErrLabelsNotPrepared)
	}
	return set.AddFormat(name, table)
}
