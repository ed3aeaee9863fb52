// Package kitchen describes kitchen order tickets (KOT) and the contract of
// the collaborators that deliver them to the kitchen.
package kitchen

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/erp-pos/internal/domain/menu"
	"github.com/xenking/erp-pos/internal/domain/order"
)

// ErrEmptyTicket is returned when a ticket without lines is dispatched.
var ErrEmptyTicket = errors.New("order is empty")

// Ticket is a kitchen order ticket for one table.
type Ticket struct {
	TableID   string
	CreatedAt time.Time
	Sections  []Section
}

// Section groups the ticket lines of one menu category.
type Section struct {
	CategoryID string
	Name       string
	Lines      []Line
}

// Line is a single ticket entry.
type Line struct {
	LineID     string
	MenuItemID string
	Name       string
	Quantity   int
}

// Receipt confirms a delivered ticket.
type Receipt struct {
	// Location identifies where the ticket was persisted, e.g. a file path.
	Location string
	Message  string
}

// Dispatcher delivers tickets to the kitchen. A returned error means the
// kitchen did not receive the ticket.
type Dispatcher interface {
	Dispatch(ctx context.Context, t Ticket) (Receipt, error)
}

// NewTicket groups items by category in catalog display order. Within a
// category, items keep the order they were given in. Categories unknown to
// the catalog come last, in order of first appearance.
func NewTicket(tableID string, items []order.LineItem, catalog *menu.Catalog, at time.Time) Ticket {
	t := Ticket{TableID: tableID, CreatedAt: at}

	byCategory := make(map[string]*Section)
	var unknown []string
	for _, it := range items {
		s, ok := byCategory[it.CategoryID]
		if !ok {
			s = &Section{CategoryID: it.CategoryID, Name: it.CategoryID}
			if c, known := catalog.Category(it.CategoryID); known {
				s.Name = c.Name
			} else {
				unknown = append(unknown, it.CategoryID)
			}
			byCategory[it.CategoryID] = s
		}
		s.Lines = append(s.Lines, Line{
			LineID:     it.LineID,
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			Quantity:   it.Quantity,
		})
	}

	for _, c := range catalog.Categories() {
		if s, ok := byCategory[c.ID]; ok {
			t.Sections = append(t.Sections, *s)
		}
	}
	for _, id := range unknown {
		t.Sections = append(t.Sections, *byCategory[id])
	}
	return t
}

// Empty reports whether the ticket has no lines.
func (t Ticket) Empty() bool {
	for _, s := range t.Sections {
		if len(s.Lines) > 0 {
			return false
		}
	}
	return true
}

// LineIDs returns the order line ids on the ticket in print order.
func (t Ticket) LineIDs() []string {
	var ids []string
	for _, s := range t.Sections {
		for _, l := range s.Lines {
			ids = append(ids, l.LineID)
		}
	}
	return ids
}

const (
	ruleHeavy = "================================"
	ruleLight = "--------------------------------"
)

// Render formats the ticket as the plain text handed to kitchen staff.
func Render(t Ticket) string {
	var b strings.Builder

	b.WriteString(ruleHeavy + "\n")
	b.WriteString("      KITCHEN ORDER TICKET\n")
	b.WriteString(ruleHeavy + "\n\n")
	fmt.Fprintf(&b, "Table: %s\n", t.TableID)
	fmt.Fprintf(&b, "Date: %s\n\n", t.CreatedAt.Format("2006-01-02 15:04:05"))
	b.WriteString(ruleLight + "\n")
	b.WriteString("Qty | Item\n")
	b.WriteString(ruleLight + "\n")

	for _, s := range t.Sections {
		fmt.Fprintf(&b, "[%s]\n", s.Name)
		for _, l := range s.Lines {
			fmt.Fprintf(&b, " %-3d | %s\n", l.Quantity, l.Name)
		}
	}

	b.WriteString(ruleLight + "\n")
	return b.String()
}
