// Package order implements the per-table order state machine of the POS.
package order

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/erp-pos/internal/domain/menu"
)

// Store owns the open orders of every table.
//
// Locking: mu guards the tables map only. Each table has its own mutex that is
// held for the whole read-modify-write of an operation. A table removed from
// the map is marked removed under its own lock, so a caller that fetched the
// pointer before removal retries the lookup instead of mutating a dead entry.
type Store struct {
	mu     sync.Mutex
	tables map[string]*table

	sales SaleRecorder
	newID func() string
	now   func() time.Time
}

type table struct {
	mu       sync.Mutex
	lines    []LineItem
	revision uint64
	removed  bool
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator overrides the generator of line and sale ids.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// WithClock overrides the clock used to timestamp completed sales.
func WithClock(fn func() time.Time) Option {
	return func(s *Store) { s.now = fn }
}

// NewStore creates an empty Store that hands completed sales to sales.
func NewStore(sales SaleRecorder, opts ...Option) *Store {
	s := &Store{
		tables: make(map[string]*table),
		sales:  sales,
		newID:  func() string { return uuid.New().String() },
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// acquire returns the locked table entry. With create set, a missing table is
// opened; otherwise nil is returned for it.
func (s *Store) acquire(tableID string, create bool) *table {
	for {
		s.mu.Lock()
		t, ok := s.tables[tableID]
		if !ok {
			if !create {
				s.mu.Unlock()
				return nil
			}
			t = &table{}
			s.tables[tableID] = t
		}
		s.mu.Unlock()

		t.mu.Lock()
		if !t.removed {
			return t
		}
		t.mu.Unlock()
	}
}

// remove drops t from the map. The caller holds t.mu.
func (s *Store) remove(tableID string, t *table) {
	s.mu.Lock()
	if s.tables[tableID] == t {
		delete(s.tables, tableID)
	}
	s.mu.Unlock()
	t.removed = true
}

// AddItem adds one unit of it to the table. An existing new line for the same
// menu item is incremented; otherwise a new line is opened. The resulting
// line is returned.
func (s *Store) AddItem(tableID string, it menu.Item) LineItem {
	t := s.acquire(tableID, true)
	defer t.mu.Unlock()

	t.revision++
	for i := range t.lines {
		l := &t.lines[i]
		if l.MenuItemID == it.ID && l.Status == StatusNew {
			l.Quantity++
			return *l
		}
	}

	l := newLine(s.newID(), it)
	t.lines = append(t.lines, l)
	return l
}

// SetQuantity overwrites the quantity of a line, removing it when quantity is
// zero or negative. Removing the last line frees the table. Unknown tables and
// lines are ignored. Sent lines are frozen and yield *InvalidTransitionError.
func (s *Store) SetQuantity(tableID, lineID string, quantity int) error {
	t := s.acquire(tableID, false)
	if t == nil {
		return nil
	}
	defer t.mu.Unlock()

	i := slices.IndexFunc(t.lines, func(l LineItem) bool { return l.LineID == lineID })
	if i < 0 {
		return nil
	}
	if t.lines[i].Status != StatusNew {
		return &InvalidTransitionError{LineID: lineID, Status: t.lines[i].Status}
	}

	t.revision++
	if quantity <= 0 {
		t.lines = slices.Delete(t.lines, i, i+1)
		if len(t.lines) == 0 {
			s.remove(tableID, t)
		}
		return nil
	}
	t.lines[i].Quantity = quantity
	return nil
}

// MarkSent moves the given lines to StatusSent and returns how many changed.
// Lines that are already sent or do not exist are skipped.
func (s *Store) MarkSent(tableID string, lineIDs []string) int {
	t := s.acquire(tableID, false)
	if t == nil {
		return 0
	}
	defer t.mu.Unlock()

	ids := make(map[string]struct{}, len(lineIDs))
	for _, id := range lineIDs {
		ids[id] = struct{}{}
	}

	changed := 0
	for i := range t.lines {
		if _, ok := ids[t.lines[i].LineID]; ok && t.lines[i].send() {
			changed++
		}
	}
	if changed > 0 {
		t.revision++
	}
	return changed
}

// MarkDispatched moves the dispatched lines to StatusSent at the quantity the
// kitchen received. Units added to such a line after it was dispatched are
// split off into a new line that stays StatusNew. Lines that were removed or
// are already sent are skipped. It returns how many lines were sent.
func (s *Store) MarkDispatched(tableID string, dispatched []LineItem) int {
	t := s.acquire(tableID, false)
	if t == nil {
		return 0
	}
	defer t.mu.Unlock()

	qty := make(map[string]int, len(dispatched))
	for _, l := range dispatched {
		qty[l.LineID] = l.Quantity
	}

	var (
		changed int
		rest    []LineItem
	)
	for i := range t.lines {
		l := &t.lines[i]
		seen, ok := qty[l.LineID]
		if !ok || l.Status != StatusNew {
			continue
		}
		if l.Quantity > seen {
			extra := *l
			extra.LineID = s.newID()
			extra.Quantity = l.Quantity - seen
			rest = append(rest, extra)
			l.Quantity = seen
		}
		l.send()
		changed++
	}
	if changed > 0 {
		t.lines = append(t.lines, rest...)
		t.revision++
	}
	return changed
}

// Order returns a copy of the table's lines in insertion order. It is empty
// for an available table.
func (s *Store) Order(tableID string) []LineItem {
	items, _ := s.Snapshot(tableID)
	return items
}

// Snapshot returns a copy of the table's lines together with the table
// revision. The revision changes on every mutation of the table.
func (s *Store) Snapshot(tableID string) ([]LineItem, uint64) {
	t := s.acquire(tableID, false)
	if t == nil {
		return []LineItem{}, 0
	}
	defer t.mu.Unlock()

	return slices.Clone(t.lines), t.revision
}

// TableStatus derives the floor-plan state of a table.
func (s *Store) TableStatus(tableID string) TableStatus {
	t := s.acquire(tableID, false)
	if t == nil {
		return TableAvailable
	}
	defer t.mu.Unlock()

	if len(t.lines) > 0 && !HasNew(t.lines) {
		return TableBilling
	}
	return TableOccupied
}

// Clear cancels the open order of a table without recording a sale. It
// reports whether the table had an open order.
func (s *Store) Clear(tableID string) bool {
	t := s.acquire(tableID, false)
	if t == nil {
		return false
	}
	defer t.mu.Unlock()

	s.remove(tableID, t)
	return true
}

// CompleteAndClear records a sale built from items and closes the table in a
// single critical section.
func (s *Store) CompleteAndClear(tableID string, items []LineItem, total decimal.Decimal, paymentMethod string) CompletedSale {
	t := s.acquire(tableID, false)
	if t == nil {
		return s.record(tableID, items, total, paymentMethod)
	}
	defer t.mu.Unlock()

	sale := s.record(tableID, items, total, paymentMethod)
	s.remove(tableID, t)
	return sale
}

// CompleteIfUnchanged is CompleteAndClear guarded by the revision obtained from
// Snapshot. Nothing happens and false is returned when the table was modified
// or closed since then.
func (s *Store) CompleteIfUnchanged(
	tableID string,
	revision uint64,
	items []LineItem,
	total decimal.Decimal,
	paymentMethod string,
) (CompletedSale, bool) {
	t := s.acquire(tableID, false)
	if t == nil {
		return CompletedSale{}, false
	}
	defer t.mu.Unlock()

	if t.revision != revision {
		return CompletedSale{}, false
	}

	sale := s.record(tableID, items, total, paymentMethod)
	s.remove(tableID, t)
	return sale, true
}

func (s *Store) record(tableID string, items []LineItem, total decimal.Decimal, paymentMethod string) CompletedSale {
	sale := CompletedSale{
		ID:            s.newID(),
		TableID:       tableID,
		Items:         slices.Clone(items),
		Total:         total,
		PaymentMethod: paymentMethod,
		CompletedAt:   s.now(),
	}
	if s.sales != nil {
		s.sales.Record(sale)
	}
	return sale
}
