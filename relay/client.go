package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Tutortoise/grocery-detection-service/models"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const successMarker = "success"

var ErrMalformedAck = errors.New("malformed ingestion reply")

// StatusError is returned when the ingestion service answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ingestion service returned %d: %s", e.StatusCode, e.Body)
}

type Stats struct {
	Submitted    int64 `json:"submitted"`
	Acknowledged int64 `json:"acknowledged"`
	Failed       int64 `json:"failed"`
}

type Client struct {
	http     *resty.Client
	endpoint string
	log      *zap.Logger

	submitted    atomic.Int64
	acknowledged atomic.Int64
	failed       atomic.Int64
}

// New returns a client that makes exactly one attempt per record, bounded by timeout.
func New(endpoint string, timeout time.Duration, log *zap.Logger) *Client {
	rc := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		http:     rc,
		endpoint: endpoint,
		log:      log,
	}
}

// Submit posts the record once. Every failure is logged and returned; the
// caller decides whether it matters.
func (c *Client) Submit(ctx context.Context, record models.ClassificationRecord) (*models.RelayAck, error) {
	c.submitted.Add(1)

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(record).
		Post(c.endpoint)
	if err != nil {
		c.failed.Add(1)
		c.log.Warn("failed to send classification", zap.String("endpoint", c.endpoint), zap.Error(err))
		return nil, fmt.Errorf("post classification: %w", err)
	}

	if !resp.IsSuccess() {
		c.failed.Add(1)
		statusErr := &StatusError{StatusCode: resp.StatusCode(), Body: resp.String()}
		c.log.Warn("failed to send classification",
			zap.String("endpoint", c.endpoint),
			zap.Int("status", statusErr.StatusCode),
			zap.String("response", statusErr.Body))
		return nil, statusErr
	}

	ack, err := parseAck(resp.StatusCode(), resp.Body())
	if err != nil {
		c.failed.Add(1)
		c.log.Warn("failed to read ingestion reply",
			zap.Int("status", resp.StatusCode()),
			zap.String("response", resp.String()),
			zap.Error(err))
		return nil, err
	}

	if ack.Acknowledged {
		c.acknowledged.Add(1)
	}
	return ack, nil
}

func (c *Client) Stats() Stats {
	return Stats{
		Submitted:    c.submitted.Load(),
		Acknowledged: c.acknowledged.Load(),
		Failed:       c.failed.Load(),
	}
}

// parseAck accepts a JSON object with a "status" field or a bare JSON string.
// Only "success" in either shape counts as an acknowledgement.
func parseAck(code int, body []byte) (*models.RelayAck, error) {
	ack := &models.RelayAck{StatusCode: code, Body: string(body)}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAck, err)
	}

	switch v := payload.(type) {
	case string:
		ack.Acknowledged = v == successMarker
	case map[string]any:
		status, _ := v["status"].(string)
		ack.Acknowledged = status == successMarker
	}

	return ack, nil
}
