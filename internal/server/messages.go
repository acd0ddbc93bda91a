package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	messagingdomain "github.com/shulebooks/shulebooks/internal/messaging/domain"
)

type enqueueMessageRequest struct {
	StudentID string `json:"student_id"`
	Recipient string `json:"recipient"`
	Body      string `json:"body"`
	Kind      string `json:"kind"`
	DedupeKey string `json:"dedupe_key"`
}

func (s *Server) EnqueueMessage(c *gin.Context) {
	var req enqueueMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	kind := strings.TrimSpace(req.Kind)
	if kind == "" {
		kind = messagingdomain.KindBroadcast
	}

	resp, err := s.messagingSvc.Enqueue(c.Request.Context(), messagingdomain.EnqueueRequest{
		StudentID: strings.TrimSpace(req.StudentID),
		Recipient: strings.TrimSpace(req.Recipient),
		Body:      req.Body,
		Kind:      kind,
		DedupeKey: strings.TrimSpace(req.DedupeKey),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.obsMetrics.AddMessagesEnqueued(resp.Kind, 1)

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type broadcastRequest struct {
	ClassName string `json:"class_name"`
	Body      string `json:"body"`
}

func (s *Server) BroadcastToClass(c *gin.Context) {
	var req broadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.messagingSvc.BroadcastToClass(c.Request.Context(), messagingdomain.BroadcastRequest{
		ClassName: strings.TrimSpace(req.ClassName),
		Body:      req.Body,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.obsMetrics.AddMessagesEnqueued(messagingdomain.KindBroadcast, resp.Enqueued)

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetBatchProgress(c *gin.Context) {
	resp, err := s.messagingSvc.BatchProgress(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// VerifyWhatsAppWebhook answers Meta's subscription handshake: echo the
// challenge when the verify token matches, 403 otherwise.
func (s *Server) VerifyWhatsAppWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode != "subscribe" || token == "" || token != s.cfg.WhatsApp.WebhookVerifyToken {
		c.String(http.StatusForbidden, "verification failed")
		return
	}
	c.String(http.StatusOK, challenge)
}

type whatsappWebhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Statuses []struct {
					ID     string `json:"id"`
					Status string `json:"status"`
				} `json:"statuses"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// HandleWhatsAppWebhook applies delivery status callbacks. Unknown message
// ids are ignored so the provider never retries forever, and the response
// is always 200 for the same reason.
func (s *Server) HandleWhatsAppWebhook(c *gin.Context) {
	var payload whatsappWebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, status := range change.Value.Statuses {
				err := s.messagingSvc.HandleDeliveryStatus(c.Request.Context(), messagingdomain.DeliveryStatusUpdate{
					ProviderMessageID: status.ID,
					Status:            status.Status,
				})
				if err != nil && !errors.Is(err, messagingdomain.ErrNotFound) && !errors.Is(err, messagingdomain.ErrInvalidID) {
					AbortWithError(c, err)
					return
				}
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func isMessagingValidationError(err error) bool {
	switch err {
	case messagingdomain.ErrInvalidBranch,
		messagingdomain.ErrInvalidID,
		messagingdomain.ErrInvalidRecipient,
		messagingdomain.ErrInvalidBody,
		messagingdomain.ErrInvalidKind,
		messagingdomain.ErrInvalidClass:
		return true
	default:
		return false
	}
}
