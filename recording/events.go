package recording

import (
	"fmt"
	"maps"
	"slices"
)

// EventTable maps event codes to condition labels
type EventTable map[int]string

// NewEventTable builds a table from label -> code pairs, the shape used in
// configuration files. Codes must be unique.
func NewEventTable(labels map[string]int) (EventTable, error) {
	table := make(EventTable, len(labels))
	for _, label := range slices.Sorted(maps.Keys(labels)) {
		code := labels[label]
		if existing, dup := table[code]; dup {
			return nil, fmt.Errorf("event code %d assigned to both %q and %q", code, existing, label)
		}
		table[code] = label
	}
	return table, nil
}

// Label returns the label for code
func (t EventTable) Label(code int) (string, bool) {
	label, ok := t[code]
	return label, ok
}

// Codes returns the known codes in ascending order
func (t EventTable) Codes() []int {
	return slices.Sorted(maps.Keys(t))
}
