package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"

	"fitsync/internal/observability"
	"fitsync/internal/strava"
)

const (
	signatureHeader = "X-Strava-Signature"
	maxWebhookBody  = 1 << 20
)

// verifySubscription answers the Strava push subscription handshake.
func (h *Handler) verifySubscription(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode, token, challenge := q.Get("hub.mode"), q.Get("hub.verify_token"), q.Get("hub.challenge")
	if challenge == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing hub.challenge")
		return
	}
	if mode != "subscribe" || h.cfg.VerifyToken == "" || !hmac.Equal([]byte(token), []byte(h.cfg.VerifyToken)) {
		writeError(w, http.StatusForbidden, "forbidden", "invalid verification token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"hub.challenge": challenge})
}

// stravaEvent verifies the body signature before decoding anything.
// Activity create and update events are ingested before responding.
func (h *Handler) stravaEvent(w http.ResponseWriter, r *http.Request) {
	log := h.logger.With("delivery_id", uuid.NewString())

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		observability.RecordWebhookEvent("invalid")
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to read body")
		return
	}

	if !validSignature(h.cfg.WebhookSecret, body, r.Header.Get(signatureHeader)) {
		observability.RecordWebhookEvent("rejected")
		log.Warn("webhook signature rejected", "remote", r.RemoteAddr)
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid signature")
		return
	}

	var event strava.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		observability.RecordWebhookEvent("invalid")
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	log = log.With("object_type", event.ObjectType, "aspect_type", event.AspectType, "object_id", event.ObjectID)

	if !event.Ingestible() {
		observability.RecordWebhookEvent("ignored")
		log.Debug("webhook event ignored")
		writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
		return
	}

	res, err := h.svc.Activities.ProcessActivity(r.Context(), event.ObjectID)
	if err != nil {
		observability.RecordWebhookEvent("failed")
		h.writeServiceError(w, r, err)
		return
	}
	observability.RecordWebhookEvent("processed")
	log.Info("webhook event processed", "page_id", res.PageID)
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok", ID: res.ActivityID, PageID: res.PageID})
}

// validSignature checks a hex HMAC-SHA256 of body keyed by secret.
func validSignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
