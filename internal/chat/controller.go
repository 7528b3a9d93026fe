package chat

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	kafkax "github.com/ariefcatur/go-chat-orders/internal/kafka"
	"github.com/ariefcatur/go-chat-orders/internal/menu"
	"github.com/ariefcatur/go-chat-orders/internal/orders"
	"github.com/ariefcatur/go-chat-orders/internal/payment"
	"github.com/ariefcatur/go-chat-orders/internal/session"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Options struct {
	ServiceName string
	// CallbackURL is where the provider sends the customer after paying.
	CallbackURL string
	// EmailDomain builds the per-session customer identity user_<id>@<domain>.
	EmailDomain string
}

// Controller turns one message plus the session state into the next state and a reply.
// It owns every ordering decision; storage and locking belong to Service.
type Controller struct {
	catalog *menu.Catalog
	gateway payment.Gateway
	pending payment.PendingStore
	events  emitter
	opts    Options
	log     *logrus.Logger
	newRef  func() string
}

func NewController(catalog *menu.Catalog, gw payment.Gateway, pending payment.PendingStore,
	pub kafkax.Publisher, opts Options, log *logrus.Logger) *Controller {
	if opts.EmailDomain == "" {
		opts.EmailDomain = "example.com"
	}
	return &Controller{
		catalog: catalog,
		gateway: gw,
		pending: pending,
		events:  emitter{pub: pub, producer: opts.ServiceName},
		opts:    opts,
		log:     log,
		newRef:  uuid.NewString,
	}
}

// Handle never mutates st; the returned state is what should be stored.
func (c *Controller) Handle(ctx context.Context, sessionID string, st session.State, message string) (session.State, Reply) {
	st = st.Clone()
	msg := strings.TrimSpace(message)

	// Any non-empty text is a schedule, "0" included.
	if st.Conversation.Step == session.StepAwaitingSchedule {
		return c.schedule(st, msg)
	}
	if msg == strconv.Itoa(cmdCancel) {
		return c.cancel(st)
	}

	n, err := strconv.Atoi(msg)
	if err != nil {
		return st, text("Invalid input. Please enter a number.", mainMenu)
	}

	switch st.Conversation.Step {
	case session.StepAwaitingItem:
		return c.selectItem(st, n)
	case session.StepAwaitingOption:
		return c.selectOption(st, n)
	default:
		return c.command(ctx, sessionID, st, n)
	}
}

func (c *Controller) command(ctx context.Context, sessionID string, st session.State, n int) (session.State, Reply) {
	switch n {
	case cmdPlaceOrder:
		// 1 always starts ordering; item 1 is picked from the listing.
		st.Conversation = session.AwaitingItem()
		return st, text("Please select an item by number:", c.catalog.Listing())
	case cmdCheckout:
		return c.checkout(ctx, sessionID, st)
	case cmdHistory:
		if len(st.History) == 0 {
			return st, text("No order history.", mainMenu)
		}
		return st, text("Order History:", historyListing(st.History), mainMenu)
	case cmdCurrent:
		if len(st.Cart) == 0 {
			return st, text("No current order.", mainMenu)
		}
		return st, text("Current Order:", cartListing(st.Cart), mainMenu)
	}

	if it, ok := c.catalog.Lookup(n); ok {
		return c.presentOptions(st, it)
	}
	return st, text("Invalid option.", mainMenu)
}

func (c *Controller) selectItem(st session.State, id int) (session.State, Reply) {
	it, ok := c.catalog.Lookup(id)
	if !ok {
		return st, text("Invalid item. Try again.", c.catalog.Listing())
	}
	return c.presentOptions(st, it)
}

func (c *Controller) presentOptions(st session.State, it menu.Item) (session.State, Reply) {
	st.Conversation = session.AwaitingOption(it)
	return st, text(
		fmt.Sprintf("Selected %s. Choose an option (e.g., 1 for %s):", it.Name, it.Options[0]),
		optionList(it),
	)
}

func (c *Controller) selectOption(st session.State, n int) (session.State, Reply) {
	it := *st.Conversation.Item
	opt, ok := it.Option(n)
	if !ok {
		return st, text(fmt.Sprintf("Invalid option for %s. Choose 1 to %d:", it.Name, len(it.Options)), optionList(it))
	}
	st.Conversation = session.AwaitingSchedule(it, opt)
	return st, text(fmt.Sprintf("%s (%s) selected. Schedule order? %s", it.Name, opt, scheduleHint))
}

func (c *Controller) schedule(st session.State, msg string) (session.State, Reply) {
	if msg == "" {
		return st, text("Please enter a schedule " + scheduleHint + ".")
	}
	it, opt := *st.Conversation.Item, st.Conversation.Option
	st.Conversation = session.Idle()
	if st.CartFull() {
		return st, text(fmt.Sprintf("Your order is full (%d items). Select 99 to checkout or 0 to cancel.", session.MaxCartLines), mainMenu)
	}

	l := orders.OrderLine{Item: it, Option: opt, Schedule: orders.NormalizeSchedule(msg)}
	st.Cart = append(st.Cart, l)
	return st, text(
		fmt.Sprintf("%s scheduled for %s. Add more items?", describe(l), l.Schedule),
		c.catalog.Listing(),
		mainMenu,
	)
}

func (c *Controller) cancel(st session.State) (session.State, Reply) {
	st.Cart = nil
	st.Conversation = session.Idle()
	return st, text("Order cancelled.", mainMenu)
}
