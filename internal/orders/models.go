package orders

import (
	"time"

	"github.com/ariefcatur/go-chat-orders/internal/menu"
)

// ScheduleNow is the normalized marker for "deliver immediately".
const ScheduleNow = "now"

// OrderLine is a committed cart entry. Item is a snapshot, not a catalog reference.
type OrderLine struct {
	Item     menu.Item `json:"item"`
	Option   string    `json:"option"`
	Schedule string    `json:"schedule"`
}

type HistoryEntry struct {
	OrderLine
	Reference   string    `json:"reference,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

// NormalizeSchedule maps the literal "Now" to ScheduleNow, anything else is kept verbatim.
func NormalizeSchedule(s string) string {
	if s == "Now" {
		return ScheduleNow
	}
	return s
}

// Total sums item prices in minor units.
func Total(lines []OrderLine) int64 {
	var total int64
	for _, l := range lines {
		total += l.Item.Price
	}
	return total
}

// Equal compares two lines by value.
func (l OrderLine) Equal(o OrderLine) bool {
	if l.Option != o.Option || l.Schedule != o.Schedule ||
		l.Item.ID != o.Item.ID || l.Item.Name != o.Item.Name || l.Item.Price != o.Item.Price ||
		len(l.Item.Options) != len(o.Item.Options) {
		return false
	}
	for i := range l.Item.Options {
		if l.Item.Options[i] != o.Item.Options[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether lines starts with prefix.
func HasPrefix(lines, prefix []OrderLine) bool {
	if len(prefix) > len(lines) {
		return false
	}
	for i := range prefix {
		if !lines[i].Equal(prefix[i]) {
			return false
		}
	}
	return true
}

// Archive turns paid lines into history entries.
func Archive(lines []OrderLine, reference string, at time.Time) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(lines))
	for _, l := range lines {
		out = append(out, HistoryEntry{OrderLine: l, Reference: reference, CompletedAt: at})
	}
	return out
}
