package snapshot

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"qa-analytics/internal/records"
)

// ErrNotLoaded is returned by reads before the first successful load.
var ErrNotLoaded = errors.New("snapshot not loaded")

// Counts summarises the loaded snapshot.
type Counts struct {
	Defects     int       `json:"defects"`
	Orders      int       `json:"orders"`
	WashRecipes int       `json:"washRecipes"`
	DefectTypes int       `json:"defectTypes"`
	LoadedAt    time.Time `json:"loadedAt"`
}

// Store is a thread-safe, in-memory record provider. It joins the raw
// snapshot once per load and hands out copies on every read.
type Store struct {
	source Source

	mu       sync.RWMutex
	data     Snapshot
	orders   map[string]int
	loaded   bool
	loadedAt time.Time
}

// NewStore creates a store over source. Call Reload before reading.
func NewStore(source Source) *Store {
	return &Store{source: source}
}

// NewStoreFrom creates a store preloaded with s and no backing source.
func NewStoreFrom(s Snapshot) *Store {
	st := &Store{}
	st.Replace(s)
	return st
}

// Reload fetches a fresh snapshot from the source and swaps it in. On failure
// the previous snapshot stays in place.
func (s *Store) Reload(ctx context.Context) error {
	if s.source == nil {
		return fmt.Errorf("snapshot store has no source")
	}
	snap, err := s.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load snapshot from %s: %w", s.source.Describe(), err)
	}
	s.Replace(snap)
	c := s.Counts()
	log.Info().
		Str("source", s.source.Describe()).
		Int("defects", c.Defects).
		Int("orders", c.Orders).
		Int("recipes", c.WashRecipes).
		Msg("Snapshot loaded")
	return nil
}

// Replace swaps in a new snapshot.
func (s *Store) Replace(snap Snapshot) {
	joined, index := join(snap)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = joined
	s.orders = index
	s.loaded = true
	s.loadedAt = time.Now()
}

// Snapshot returns the joined snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Defects:     slices.Clone(s.data.Defects),
		Orders:      slices.Clone(s.data.Orders),
		WashRecipes: slices.Clone(s.data.WashRecipes),
		DefectTypes: slices.Clone(s.data.DefectTypes),
	}
}

// Counts reports the size of the loaded snapshot.
func (s *Store) Counts() Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Counts{
		Defects:     len(s.data.Defects),
		Orders:      len(s.data.Orders),
		WashRecipes: len(s.data.WashRecipes),
		DefectTypes: len(s.data.DefectTypes),
		LoadedAt:    s.loadedAt,
	}
}

func (s *Store) read(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.loaded {
		return ErrNotLoaded
	}
	return nil
}

// Defects returns the defects with their order sub-graph attached.
func (s *Store) Defects(ctx context.Context) ([]records.DefectRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.read(ctx); err != nil {
		return nil, err
	}
	return slices.Clone(s.data.Defects), nil
}

// Orders returns the orders with the given ids in request order.
func (s *Store) Orders(ctx context.Context, ids []string) ([]records.OrderRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.read(ctx); err != nil {
		return nil, err
	}
	out := make([]records.OrderRecord, 0, len(ids))
	for _, id := range ids {
		if i, ok := s.orders[id]; ok {
			out = append(out, s.data.Orders[i])
		}
	}
	return out, nil
}

// WashRecipes returns every recipe, including those only embedded in orders.
func (s *Store) WashRecipes(ctx context.Context) ([]records.WashRecipeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.read(ctx); err != nil {
		return nil, err
	}
	return slices.Clone(s.data.WashRecipes), nil
}

// DefectTypes returns the defect-type lookup.
func (s *Store) DefectTypes(ctx context.Context) ([]records.NamedRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.read(ctx); err != nil {
		return nil, err
	}
	return slices.Clone(s.data.DefectTypes), nil
}

// join links the flat collections of a snapshot:
//  1. orders embedded in defects are promoted into the order list
//  2. recipes are attached to their order by OrderID, and recipes embedded in
//     orders are added to the recipe list
//  3. defects point at the joined order and carry a named defect type
func join(in Snapshot) (Snapshot, map[string]int) {
	out := Snapshot{
		Orders:      slices.Clone(in.Orders),
		WashRecipes: slices.Clone(in.WashRecipes),
		DefectTypes: slices.Clone(in.DefectTypes),
	}

	index := make(map[string]int, len(out.Orders))
	for i, o := range out.Orders {
		if o.ID != "" {
			index[o.ID] = i
		}
	}
	for _, d := range in.Defects {
		if d.Order != nil && d.Order.ID != "" {
			if _, ok := index[d.Order.ID]; !ok {
				index[d.Order.ID] = len(out.Orders)
				out.Orders = append(out.Orders, *d.Order)
			}
		}
	}

	recipeIDs := make(map[string]bool, len(out.WashRecipes))
	byOrder := make(map[string][]records.WashRecipeRecord)
	for _, r := range out.WashRecipes {
		recipeIDs[r.ID] = true
		if r.OrderID != "" {
			byOrder[r.OrderID] = append(byOrder[r.OrderID], r)
		}
	}
	for i := range out.Orders {
		o := &out.Orders[i]
		for _, r := range o.WashRecipes {
			if r.ID != "" && recipeIDs[r.ID] {
				continue
			}
			r.OrderID = o.ID
			recipeIDs[r.ID] = true
			out.WashRecipes = append(out.WashRecipes, r)
		}
		if len(o.WashRecipes) == 0 && o.ID != "" {
			o.WashRecipes = byOrder[o.ID]
		}
	}

	types := make(map[string]records.NamedRef, len(out.DefectTypes))
	for _, t := range out.DefectTypes {
		if t.ID != "" {
			types[t.ID] = t
		}
	}

	out.Defects = make([]records.DefectRecord, len(in.Defects))
	for i, d := range in.Defects {
		if d.OrderID == "" && d.Order != nil {
			d.OrderID = d.Order.ID
		}
		if j, ok := index[d.OrderID]; ok {
			d.Order = &out.Orders[j]
		}
		if d.DefectType != nil && d.DefectType.Name == "" {
			if t, ok := types[d.DefectType.ID]; ok {
				ref := t
				d.DefectType = &ref
			}
		}
		out.Defects[i] = d
	}
	return out, index
}
