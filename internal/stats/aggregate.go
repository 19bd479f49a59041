package stats

import (
	"cmp"
	"encoding/json"
	"slices"
)

// Row is one ranked group of a single dimension.
type Row struct {
	Key        string
	Name       string
	Count      int
	Percentage string
	// Attrs carries extra per-group fields (fabric code, style number, ...).
	// They are flattened into the row when serialised.
	Attrs map[string]any
	// Breakdown is an independently ranked nested grouping of the same records.
	Breakdown []Row
}

// MarshalJSON flattens Attrs next to name, count and percentage.
func (r Row) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Attrs)+4)
	for k, v := range r.Attrs {
		out[k] = v
	}
	out["name"] = r.Name
	out["count"] = r.Count
	out["percentage"] = r.Percentage
	if len(r.Breakdown) > 0 {
		out["breakdown"] = r.Breakdown
	}
	return json.Marshal(out)
}

// Label is the human-facing part of a group, captured on first occurrence.
type Label struct {
	Name  string
	Attrs map[string]any
}

// Tally accumulates weighted counts per key in first-seen order.
type Tally struct {
	order []string
	rows  map[string]*Row
	total int
}

// NewTally creates an empty tally.
func NewTally() *Tally {
	return &Tally{rows: make(map[string]*Row)}
}

// Add credits weight to key. label is only evaluated the first time a key is seen.
func (t *Tally) Add(key string, weight int, label func() Label) {
	row, ok := t.rows[key]
	if !ok {
		l := Label{Name: key}
		if label != nil {
			l = label()
		}
		row = &Row{Key: key, Name: l.Name, Attrs: l.Attrs}
		t.rows[key] = row
		t.order = append(t.order, key)
	}
	row.Count += weight
	t.total += weight
}

// Total is the sum of all weights added.
func (t *Tally) Total() int { return t.total }

// Len is the number of distinct keys.
func (t *Tally) Len() int { return len(t.order) }

// Count returns the accumulated weight for key.
func (t *Tally) Count(key string) int {
	if row, ok := t.rows[key]; ok {
		return row.Count
	}
	return 0
}

// Ranked converts the tally into rows sorted by descending count with
// percentages against denominator. Ties keep first-seen order.
func (t *Tally) Ranked(denominator int) []Row {
	rows := make([]Row, 0, len(t.order))
	for _, key := range t.order {
		row := *t.rows[key]
		row.Percentage = Percent(row.Count, denominator)
		rows = append(rows, row)
	}
	slices.SortStableFunc(rows, func(a, b Row) int {
		return cmp.Compare(b.Count, a.Count)
	})
	return rows
}

// Grouping describes one dimension: how to key, weigh and label a record.
type Grouping[T any] struct {
	Key    func(T) string
	Weight func(T) int
	Label  func(T) Label
}

func (g Grouping[T]) weight(item T) int {
	if g.Weight == nil {
		return 1
	}
	return g.Weight(item)
}

func (g Grouping[T]) tally(items []T) *Tally {
	t := NewTally()
	for _, item := range items {
		var label func() Label
		if g.Label != nil {
			label = func() Label { return g.Label(item) }
		}
		t.Add(g.Key(item), g.weight(item), label)
	}
	return t
}

// Aggregate groups items and ranks the groups against their own total.
func Aggregate[T any](items []T, g Grouping[T]) []Row {
	t := g.tally(items)
	return t.Ranked(t.Total())
}

// AggregateAgainst ranks the groups against an external denominator, e.g.
// wash-recipe defects as a share of all defects.
func AggregateAgainst[T any](items []T, g Grouping[T], denominator int) []Row {
	return g.tally(items).Ranked(denominator)
}

// AggregateNested groups items by outer and, within each outer group, applies
// inner to that group's items. Each breakdown is ranked on its own.
func AggregateNested[T any](items []T, outer, inner Grouping[T]) []Row {
	members := make(map[string][]T)
	for _, item := range items {
		k := outer.Key(item)
		members[k] = append(members[k], item)
	}

	rows := Aggregate(items, outer)
	for i := range rows {
		rows[i].Breakdown = Aggregate(members[rows[i].Key], inner)
	}
	return rows
}

// Keyed is one key an item contributes to in a multi-valued dimension.
type Keyed struct {
	Key   string
	Label Label
}

// AggregateMulti handles dimensions where one record maps to several keys
// (the chemicals of all recipes on an order). A record contributes its weight
// once per distinct key. Rows are ranked against denominator; pass a value
// <= 0 to rank against the dimension's own total.
func AggregateMulti[T any](items []T, keys func(T) []Keyed, weight func(T) int, denominator int) []Row {
	t := NewTally()
	for _, item := range items {
		w := 1
		if weight != nil {
			w = weight(item)
		}
		seen := make(map[string]bool)
		for _, k := range keys(item) {
			if seen[k.Key] {
				continue
			}
			seen[k.Key] = true
			l := k.Label
			t.Add(k.Key, w, func() Label { return l })
		}
	}
	if denominator <= 0 {
		denominator = t.Total()
	}
	return t.Ranked(denominator)
}

// SumCounts returns the total weight across rows.
func SumCounts(rows []Row) int {
	total := 0
	for _, r := range rows {
		total += r.Count
	}
	return total
}

// ByDefect builds a grouping over resolved defects weighted by defect count.
func ByDefect(key func(ResolvedDefect) string, label func(ResolvedDefect) Label) Grouping[ResolvedDefect] {
	return Grouping[ResolvedDefect]{
		Key:    key,
		Weight: func(d ResolvedDefect) int { return d.Weight },
		Label:  label,
	}
}

// ByName groups resolved defects on a single string attribute.
func ByName(name func(ResolvedDefect) string) Grouping[ResolvedDefect] {
	return ByDefect(name, func(d ResolvedDefect) Label { return Label{Name: name(d)} })
}
