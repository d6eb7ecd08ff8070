package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// TextSender delivers a text message to a WhatsApp number.
type TextSender interface {
	SendText(ctx context.Context, to, body string) error
}

const sendTimeout = 5 * time.Second

type textMessage struct {
	MessagingProduct string `json:"messaging_product"`
	RecipientType    string `json:"recipient_type"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		PreviewURL bool   `json:"preview_url"`
		Body       string `json:"body"`
	} `json:"text"`
}

// Sender posts messages to the Meta Graph send API. With no token
// configured it degrades to a simulated send so the whole pipeline can
// run disconnected.
type Sender struct {
	apiURL  string
	phoneID string
	token   string
	client  *http.Client
	logger  *zap.Logger
}

func NewSender(apiURL, phoneID, token string, logger *zap.Logger) *Sender {
	return &Sender{
		apiURL:  apiURL,
		phoneID: phoneID,
		token:   token,
		client:  &http.Client{Timeout: sendTimeout},
		logger:  logger,
	}
}

func (s *Sender) SendText(ctx context.Context, to, body string) error {
	if s.token == "" {
		s.logger.Info("WhatsApp token not configured, simulating send",
			zap.String("to", to),
			zap.Int("body_len", len(body)))
		return nil
	}

	msg := textMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
	}
	msg.Text.Body = body

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("error encoding message: %v", err)
	}

	url := fmt.Sprintf("%s/%s/messages", s.apiURL, s.phoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("error creating request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending message: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("send failed with status %d: %s", resp.StatusCode, detail)
	}

	s.logger.Info("Message sent", zap.String("to", to))
	return nil
}
