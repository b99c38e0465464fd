package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicegen-backend/config"
	"invoicegen-backend/controllers"
	"invoicegen-backend/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeCharger struct {
	mu       sync.Mutex
	intentID string
	err      error
	amounts  []int64
}

func (f *fakeCharger) ConfirmCharge(_ context.Context, _ string, amountCents int64, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.amounts = append(f.amounts, amountCents)
	return f.intentID, f.err
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Currency:            "usd",
		PaidPlanAmountCents: 1000,
		AllowedOrigins:      []string{"http://localhost:3000"},
	}
}

func relayRouter(cfg *config.Config, charger services.Charger) *gin.Engine {
	r := gin.New()
	cc := &controllers.CheckoutController{Gateway: charger, Cfg: cfg}
	r.POST("/checkout", cc.Relay)
	return r
}

func postJSON(t *testing.T, r http.Handler, path string, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func validRelayBody() map[string]any {
	return map[string]any{
		"paymentMethodId": "pm_test",
		"selectedPlan":    "Paid",
		"name":            "Jane Doe",
		"email":           "jane@example.com",
		"phone":           "5551234567",
		"address":         "1 Main St",
	}
}

func TestRelayChargesFixedServerSideAmount(t *testing.T) {
	charger := &fakeCharger{intentID: "pi_123"}
	r := relayRouter(testConfig(t), charger)

	// A client-supplied amount must be ignored outright.
	body := validRelayBody()
	body["amount"] = 1

	rec := postJSON(t, r, "/checkout", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Success       bool   `json:"success"`
		PaymentIntent string `json:"paymentIntent"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.True(t, out.Success)
	assert.Equal(t, "pi_123", out.PaymentIntent)

	require.Len(t, charger.amounts, 1)
	assert.Equal(t, int64(1000), charger.amounts[0])
}

func TestRelayReportsGatewayFailure(t *testing.T) {
	charger := &fakeCharger{err: &services.GatewayError{Reason: "Your card was declined."}}
	r := relayRouter(testConfig(t), charger)

	rec := postJSON(t, r, "/checkout", validRelayBody())
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var out struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "Your card was declined.", out.Error)
}

func TestRelayRejectsPlansWithoutPayment(t *testing.T) {
	charger := &fakeCharger{intentID: "pi_123"}
	r := relayRouter(testConfig(t), charger)

	body := validRelayBody()
	body["selectedPlan"] = "Free"

	rec := postJSON(t, r, "/checkout", body)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, charger.amounts)
}

func TestRelayRequiresContactFields(t *testing.T) {
	charger := &fakeCharger{intentID: "pi_123"}
	r := relayRouter(testConfig(t), charger)

	body := validRelayBody()
	delete(body, "address")

	rec := postJSON(t, r, "/checkout", body)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, charger.amounts)
}
