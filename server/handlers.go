package server

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	// Local Packages
	errors "kafka-relay/errors"
	models "kafka-relay/models"

	// External Packages
	"github.com/gin-gonic/gin"
)

// Relay is what the handlers need from services/relay.
type Relay interface {
	Send(ctx context.Context, msg models.OutboundMessage) ([]models.RecordMetadata, error)
	Consume(ctx context.Context, topic string, limit int) ([]models.InboundRecord, error)
	Health() models.Health
	FailedSends(ctx context.Context, n int64) ([]models.FailedSend, bool, error)
}

type handlers struct {
	relay Relay
}

type sendRequest struct {
	Topic string          `json:"topic"`
	Key   *string         `json:"key"`
	Value json.RawMessage `json:"value"`
}

func (h *handlers) send(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		fail(c, errors.InvalidBodyErr(err), "Failed to send message")
		return
	}

	metadata, err := h.relay.Send(c.Request.Context(), models.OutboundMessage{
		Topic: req.Topic,
		Key:   req.Key,
		Value: req.Value,
	})
	if err != nil {
		fail(c, err, "Failed to send message")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "Message sent successfully",
		"metadata": metadata,
	})
}

func (h *handlers) consume(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil {
		fail(c, errors.ErrInvalidLimit, "Failed to consume messages")
		return
	}

	messages, err := h.relay.Consume(c.Request.Context(), c.Query("topic"), limit)
	if err != nil {
		fail(c, err, "Failed to consume messages")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"messages": messages,
		"count":    len(messages),
	})
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, h.relay.Health())
}

func (h *handlers) failedSends(c *gin.Context) {
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)), 10, 64)
	if err != nil || limit <= 0 {
		fail(c, errors.ErrInvalidLimit, "Failed to read failed sends")
		return
	}

	failed, enabled, err := h.relay.FailedSends(c.Request.Context(), limit)
	if !enabled {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Dead-letter queue is disabled",
		})
		return
	}
	if err != nil {
		fail(c, err, "Failed to read failed sends")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"messages": failed,
		"count":    len(failed),
	})
}

// fail writes the failure envelope. Invalid errors are the client's fault
// and carry their own message; anything else is a 500 with the cause in
// details.
func fail(c *gin.Context, err error, summary string) {
	if errors.KindOf(err) == errors.Invalid {
		body := gin.H{"success": false, "error": errors.Message(err)}
		if cause := errors.Cause(err); cause != errors.Message(err) {
			body["details"] = cause
		}
		c.JSON(http.StatusBadRequest, body)
		return
	}

	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   summary,
		"details": errors.Cause(err),
	})
}
