package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ariefcatur/go-chat-orders/internal/chat"
	"github.com/ariefcatur/go-chat-orders/internal/menu"
	"github.com/ariefcatur/go-chat-orders/internal/orders"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type Messenger interface {
	Message(ctx context.Context, sessionID, message string) (chat.Reply, error)
}

type CallbackHandler interface {
	OnCallback(ctx context.Context, reference string) chat.Redirect
}

type HistoryLister interface {
	ListBySession(ctx context.Context, sessionID string, limit int) ([]orders.ArchivedLine, error)
}

type ChatHandler struct {
	Chat      Messenger
	Callbacks CallbackHandler
	Catalog   *menu.Catalog
	// History is optional; without it GET /history answers 404.
	History     HistoryLister
	RedirectURL string
	// SecureCookie sets Secure on the session cookie; enable behind HTTPS.
	SecureCookie bool
	Log          *logrus.Logger
}

type chatReq struct {
	Message string `json:"message"`
}

func (h *ChatHandler) Register(r chi.Router) {
	r.Get("/menu", h.listMenu)
	r.Get("/payment-callback", h.paymentCallback)
	r.Group(func(r chi.Router) {
		r.Use(withSession(h.SecureCookie))
		r.Post("/chat", h.chat)
		r.Get("/history", h.history)
	})
}

func (h *ChatHandler) chat(w http.ResponseWriter, r *http.Request) {
	var req chatReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	reply, err := h.Chat.Message(r.Context(), sessionID(r), req.Message)
	if err != nil {
		h.Log.WithError(err).WithField("session", sessionID(r)).Error("chat message failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (h *ChatHandler) paymentCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ref := q.Get("reference")
	if ref == "" {
		ref = q.Get("trxref")
	}

	red := h.Callbacks.OnCallback(r.Context(), ref)
	h.Log.WithFields(logrus.Fields{"reference": ref, "outcome": red.Outcome.String()}).Info("payment callback")
	http.Redirect(w, r, h.redirectTo(red.Message), http.StatusFound)
}

func (h *ChatHandler) redirectTo(message string) string {
	u, err := url.Parse(h.RedirectURL)
	if err != nil {
		return "/?message=" + url.QueryEscape(message)
	}
	q := u.Query()
	q.Set("message", message)
	u.RawQuery = q.Encode()
	return u.String()
}

func (h *ChatHandler) listMenu(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Catalog.Items())
}

func (h *ChatHandler) history(w http.ResponseWriter, r *http.Request) {
	if h.History == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "history archive disabled"})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	lines, err := h.History.ListBySession(ctx, sessionID(r), limit)
	if err != nil {
		h.Log.WithError(err).Error("list history")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if lines == nil {
		lines = []orders.ArchivedLine{}
	}
	writeJSON(w, http.StatusOK, lines)
}
