package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/triestelab/whatsapp-agent/internal/matcher"
	"github.com/triestelab/whatsapp-agent/internal/models"
	"github.com/triestelab/whatsapp-agent/internal/storage"
	"github.com/triestelab/whatsapp-agent/internal/whatsapp"
	"go.uber.org/zap"
)

// Handler serves the Meta webhook endpoints and drives the inbound
// message pipeline: customer upsert, answer selection, delivery,
// interaction log.
type Handler struct {
	storage     storage.Storage
	responder   *matcher.Responder
	sender      whatsapp.TextSender
	verifyToken string
	environment string
	logger      *zap.Logger
}

func NewHandler(store storage.Storage, responder *matcher.Responder, sender whatsapp.TextSender, verifyToken, environment string, logger *zap.Logger) *Handler {
	return &Handler{
		storage:     store,
		responder:   responder,
		sender:      sender,
		verifyToken: verifyToken,
		environment: environment,
		logger:      logger,
	}
}

// Register mounts the webhook and status routes.
func (h *Handler) Register(router *mux.Router) {
	router.HandleFunc("/webhook", h.Verify).Methods(http.MethodGet)
	router.HandleFunc("/webhook", h.Receive).Methods(http.MethodPost)
	router.HandleFunc("/", h.Home).Methods(http.MethodGet)
	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)
}

// Verify answers Meta's handshake: echo the challenge when the token
// matches, 403 otherwise. The expected token is never written back.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	// An unset secret must not verify anything.
	if h.verifyToken == "" || token != h.verifyToken {
		h.logger.Warn("Webhook verification failed")
		http.Error(w, "Unauthorized", http.StatusForbidden)
		return
	}

	h.logger.Info("Webhook verified")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(challenge))
}

// Receive handles a webhook delivery. Every message in the batch is an
// independent unit of work: per-item validation problems are skipped
// silently, a processing failure is logged and reported as a generic 500
// after the rest of the batch has run.
func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(zap.String("request_id", uuid.New().String()))

	var payload Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		// Not a retryable shape: acknowledge so Meta does not resend.
		logger.Warn("Undecodable webhook payload", zap.Error(err))
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	if len(payload.Entries) == 0 {
		logger.Info("Webhook payload without entries, ignoring")
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	var firstErr error
	for _, entry := range payload.Entries {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}
			if err := h.processChange(r.Context(), logger, change.Value); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}

	if firstErr != nil {
		logger.Error("Webhook processing failed", zap.Error(firstErr))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status":  "error",
			"message": "processing failed",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) processChange(ctx context.Context, logger *zap.Logger, value Value) error {
	if len(value.Contacts) == 0 || len(value.Messages) == 0 {
		logger.Info("Change without contacts or messages, skipping")
		return nil
	}

	phone := models.NormalizePhone(value.Contacts[0].WaID)
	name := value.Contacts[0].Profile.Name
	if name == "" {
		name = "Sconosciuto"
	}

	var text string
	if value.Messages[0].Text != nil {
		text = strings.TrimSpace(value.Messages[0].Text.Body)
	}

	if phone == "" || text == "" {
		logger.Info("Missing phone or message text, skipping")
		return nil
	}

	return h.processMessage(ctx, logger, phone, name, text)
}

func (h *Handler) processMessage(ctx context.Context, logger *zap.Logger, phone, name, text string) error {
	logger = logger.With(zap.String("phone", phone))
	logger.Info("Processing inbound message", zap.Int("text_len", len(text)))

	customer, err := h.storage.GetCustomerByPhone(ctx, phone)
	if errors.Is(err, storage.ErrNotFound) {
		customer = &models.Customer{
			Phone:  phone,
			Name:   name,
			Sector: models.SectorGeneric,
		}
		if err := h.storage.CreateCustomer(ctx, customer); err != nil {
			return err
		}
		logger.Info("New customer created", zap.Int64("customer_id", customer.ID))
	} else if err != nil {
		return err
	}

	if err := h.storage.RecordInteraction(ctx, phone, time.Now().UTC()); err != nil {
		return err
	}

	reply, responseType, err := h.responder.Respond(ctx, text, customer)
	if err != nil {
		return err
	}

	// Delivery failure is non-fatal: the log still records what was
	// attempted.
	if err := h.sender.SendText(ctx, phone, reply); err != nil {
		logger.Error("Failed to deliver reply", zap.Error(err))
	}

	return h.storage.SaveInteraction(ctx, &models.Interaction{
		CustomerPhone: phone,
		Inbound:       text,
		Outbound:      reply,
		ResponseType:  responseType,
		CreatedAt:     time.Now().UTC(),
	})
}

// Home reports that the bot is running.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":      "running",
		"environment": h.environment,
	})
}

// Health is the liveness probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
