package services

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"invoicegen-backend/models"
)

// ChargeRequest is the body the state machine posts to the relay
// endpoint. There is no amount field on purpose: the relay derives the
// amount from the plan.
type ChargeRequest struct {
	PaymentMethodID string      `json:"paymentMethodId"`
	SelectedPlan    models.Plan `json:"selectedPlan"`
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	Phone           string      `json:"phone"`
	Address         string      `json:"address"`
}

type chargeResponse struct {
	Success       bool   `json:"success"`
	PaymentIntent string `json:"paymentIntent"`
	Error         string `json:"error"`
}

// ChargeRelay sends the confirmation request for a tokenized payment
// method through the service's own backend, which holds the gateway
// secret.
type ChargeRelay interface {
	Charge(ctx context.Context, req ChargeRequest) (models.ChargeResult, error)
}

// HTTPChargeRelay posts to the relay endpoint over HTTP.
type HTTPChargeRelay struct {
	url    string
	client *http.Client
}

func NewHTTPChargeRelay(url string) *HTTPChargeRelay {
	return &HTTPChargeRelay{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Charge posts the request and interprets the response. An
// application-level error field wins over the status code, so a card
// decline surfaces its reason; anything else non-2xx or undecodable is a
// plain network error.
func (r *HTTPChargeRelay) Charge(ctx context.Context, req ChargeRequest) (models.ChargeResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return models.ChargeResult{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return models.ChargeResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return models.ChargeResult{}, ErrNetwork
	}
	defer resp.Body.Close()

	var out chargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return models.ChargeResult{}, ErrNetwork
	}
	if out.Error != "" {
		return models.ChargeResult{Success: false, Reason: out.Error}, nil
	}
	if resp.StatusCode != http.StatusOK || !out.Success {
		return models.ChargeResult{}, ErrNetwork
	}
	return models.ChargeResult{Success: true, ConfirmationID: out.PaymentIntent}, nil
}
