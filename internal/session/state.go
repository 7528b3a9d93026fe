package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-chat-orders/internal/menu"
	"github.com/ariefcatur/go-chat-orders/internal/orders"
)

// Step is the conversation position of a session.
type Step int

const (
	StepIdle Step = iota
	StepAwaitingItem
	StepAwaitingOption
	StepAwaitingSchedule
)

var stepNames = map[Step]string{
	StepIdle:             "idle",
	StepAwaitingItem:     "awaiting_item",
	StepAwaitingOption:   "awaiting_option",
	StepAwaitingSchedule: "awaiting_schedule",
}

func (s Step) String() string {
	if n, ok := stepNames[s]; ok {
		return n
	}
	return fmt.Sprintf("step(%d)", int(s))
}

func (s Step) MarshalText() ([]byte, error) {
	n, ok := stepNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown step %d", int(s))
	}
	return []byte(n), nil
}

func (s *Step) UnmarshalText(b []byte) error {
	for k, v := range stepNames {
		if v == string(b) {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("unknown step %q", string(b))
}

// Conversation carries exactly the data valid for its step:
// AwaitingOption has an item, AwaitingSchedule has an item and an option.
// Build it with the constructors below.
type Conversation struct {
	Step   Step       `json:"step"`
	Item   *menu.Item `json:"item,omitempty"`
	Option string     `json:"option,omitempty"`
}

func Idle() Conversation         { return Conversation{Step: StepIdle} }
func AwaitingItem() Conversation { return Conversation{Step: StepAwaitingItem} }

func AwaitingOption(item menu.Item) Conversation {
	return Conversation{Step: StepAwaitingOption, Item: &item}
}

func AwaitingSchedule(item menu.Item, option string) Conversation {
	return Conversation{Step: StepAwaitingSchedule, Item: &item, Option: option}
}

var ErrIllegalConversation = errors.New("illegal conversation state")

// Validate rejects combinations the constructors never produce.
func (c Conversation) Validate() error {
	switch c.Step {
	case StepIdle, StepAwaitingItem:
		if c.Item != nil || c.Option != "" {
			return fmt.Errorf("%w: %s carries a selection", ErrIllegalConversation, c.Step)
		}
	case StepAwaitingOption:
		if c.Item == nil || c.Option != "" {
			return fmt.Errorf("%w: %s needs an item and no option", ErrIllegalConversation, c.Step)
		}
	case StepAwaitingSchedule:
		if c.Item == nil || c.Option == "" {
			return fmt.Errorf("%w: %s needs an item and an option", ErrIllegalConversation, c.Step)
		}
	default:
		return fmt.Errorf("%w: %s", ErrIllegalConversation, c.Step)
	}
	return nil
}

const (
	MaxCartLines = 20
	MaxHistory   = 50
)

// State is everything the controller knows about one session.
type State struct {
	Conversation Conversation          `json:"conversation"`
	Cart         []orders.OrderLine    `json:"cart,omitempty"`
	History      []orders.HistoryEntry `json:"history,omitempty"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

func New() State { return State{Conversation: Idle()} }

func (s State) Validate() error { return s.Conversation.Validate() }

func (s State) CartFull() bool { return len(s.Cart) >= MaxCartLines }

// AddHistory appends entries and keeps only the newest MaxHistory.
func (s *State) AddHistory(entries ...orders.HistoryEntry) {
	s.History = append(s.History, entries...)
	if over := len(s.History) - MaxHistory; over > 0 {
		s.History = append([]orders.HistoryEntry(nil), s.History[over:]...)
	}
}

// Clone copies the slices so a caller's edits never leak into a stored state.
func (s State) Clone() State {
	s.Cart = append([]orders.OrderLine(nil), s.Cart...)
	s.History = append([]orders.HistoryEntry(nil), s.History...)
	if s.Conversation.Item != nil {
		it := *s.Conversation.Item
		s.Conversation.Item = &it
	}
	return s
}
