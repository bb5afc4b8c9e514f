package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

const deliveryStatusThreshold = 300

// Deliverer pushes a verification code out to an email/SMS gateway.
// Delivery is fire-and-forget: failure must never fail code issuance.
type Deliverer interface {
	DeliverCode(ctx context.Context, identifier, code string)
}

// HTTPDeliverer posts the code as JSON to a configured gateway URL.
type HTTPDeliverer struct {
	client      *http.Client
	log         *zap.SugaredLogger
	deliveryURL string
}

func NewHTTPDeliverer(log *zap.SugaredLogger, deliveryURL string) *HTTPDeliverer {
	return &HTTPDeliverer{
		client:      &http.Client{},
		log:         log,
		deliveryURL: deliveryURL,
	}
}

func (s *HTTPDeliverer) DeliverCode(ctx context.Context, identifier, code string) {
	// Detach from the request context: the caller's handler returns before
	// delivery completes, and that must not cancel the gateway call.
	ctx = context.WithoutCancel(ctx)

	go func() {
		if s.deliveryURL == "" {
			return
		}

		payload, err := json.Marshal(map[string]string{
			"identifier": identifier,
			"code":       code,
		})
		if err != nil {
			s.log.Errorw("failed to marshal delivery payload", "error", err)
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.deliveryURL, bytes.NewBuffer(payload))
		if err != nil {
			s.log.Errorw("failed to create delivery request", "error", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			s.log.Errorw("failed to deliver verification code", "identifier", identifier, "error", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode >= deliveryStatusThreshold {
			s.log.Warnw("delivery gateway returned non-2xx status", "status", resp.StatusCode)
		}
	}()
}
