package httpinterface

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/consol-protocol/consold/internal/core/ports"
)

// WebhookHandler manages event webhook subscriptions.
type WebhookHandler struct {
	pubsub ports.SecurePubSub
}

func NewWebhookHandler(pubsub ports.SecurePubSub) *WebhookHandler {
	return &WebhookHandler{pubsub: pubsub}
}

// Router returns the webhook routes, meant to be mounted under
// /v1/webhooks.
func (h *WebhookHandler) Router() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.subscribe)
	r.Delete("/{id}", h.unsubscribe)
	r.Get("/", h.list)

	return r
}

type subscribeRequest struct {
	Topic    string `json:"topic"`
	Endpoint string `json:"endpoint"`
	Secret   string `json:"secret"`
}

func (h *WebhookHandler) subscribe(w http.ResponseWriter, r *http.Request) {
	req := &subscribeRequest{}
	if !decodeJSON(w, r, req) {
		return
	}
	id, err := h.pubsub.Subscribe(req.Topic, req.Endpoint, req.Secret)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *WebhookHandler) unsubscribe(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	if err := h.pubsub.Unsubscribe(topic, chi.URLParam(r, "id")); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *WebhookHandler) list(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	subs := h.pubsub.ListSubscriptionsForTopic(topic)

	out := make([]map[string]interface{}, 0, len(subs))
	for _, sub := range subs {
		out = append(out, map[string]interface{}{
			"id":       sub.Id(),
			"topic":    sub.Topic(),
			"endpoint": sub.NotifyAt(),
			"secured":  sub.IsSecured(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}
