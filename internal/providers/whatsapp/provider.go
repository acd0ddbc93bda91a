// Package whatsapp sends parent-facing messages through the Meta WhatsApp
// Cloud API. When no credentials are configured a no-op sender is used so the
// rest of the pipeline keeps working in development.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sender delivers one text message and returns the provider's message ID.
type Sender interface {
	SendText(ctx context.Context, to, body string) (string, error)
}

var (
	ErrEmptyRecipient = errors.New("empty_recipient")
	ErrSendFailed     = errors.New("send_failed")
)

type cloudAPI struct {
	baseURL       string
	token         string
	phoneNumberID string
	client        *http.Client
	log           *zap.Logger
}

// NewCloudAPI returns a Sender backed by the Graph API messages endpoint.
func NewCloudAPI(baseURL, token, phoneNumberID string, log *zap.Logger) Sender {
	return &cloudAPI{
		baseURL:       baseURL,
		token:         token,
		phoneNumberID: phoneNumberID,
		client:        &http.Client{Timeout: 15 * time.Second},
		log:           log.Named("whatsapp.cloud"),
	}
}

type sendRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	RecipientType    string   `json:"recipient_type"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             sendText `json:"text"`
}

type sendText struct {
	Body string `json:"body"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func (c *cloudAPI) SendText(ctx context.Context, to, body string) (string, error) {
	if to == "" {
		return "", ErrEmptyRecipient
	}

	payload, err := json.Marshal(sendRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             sendText{Body: body},
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	var parsed sendResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", err
	}
	if resp.StatusCode >= http.StatusBadRequest || parsed.Error != nil {
		c.log.Warn("cloud api rejected message",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", raw),
		)
		return "", ErrSendFailed
	}
	if len(parsed.Messages) == 0 {
		return "", ErrSendFailed
	}
	return parsed.Messages[0].ID, nil
}

type noop struct {
	log *zap.Logger
}

// NewNoop returns a Sender that logs instead of delivering.
func NewNoop(log *zap.Logger) Sender {
	return &noop{log: log.Named("whatsapp.noop")}
}

func (n *noop) SendText(_ context.Context, to, body string) (string, error) {
	if to == "" {
		return "", ErrEmptyRecipient
	}
	id := "noop-" + uuid.NewString()
	n.log.Info("message not sent, provider unconfigured",
		zap.String("to", to),
		zap.Int("body_len", len(body)),
		zap.String("message_id", id),
	)
	return id, nil
}
