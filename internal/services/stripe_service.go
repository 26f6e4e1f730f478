package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/swiftrail/reservation-backend/internal/config"
	"github.com/swiftrail/reservation-backend/internal/models"
)

// StripeService is a minimal Stripe client covering the two calls the
// reservation core needs: creating a payment intent and verifying a webhook
// signature. Amounts are always in the smallest currency unit.
type StripeService struct {
	config *config.PaymentConfig
	logger *logrus.Logger
	client *http.Client
}

// PaymentIntent is the subset of Stripe's payment intent object we use
type PaymentIntent struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"client_secret"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Status       string            `json:"status"`
	Metadata     map[string]string `json:"metadata"`
}

// WebhookEvent is a verified settlement event envelope
type WebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// stripeErrorResponse is Stripe's error envelope
type stripeErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// signatureTolerance bounds how old a webhook timestamp may be, limiting
// replay of captured deliveries.
const signatureTolerance = 5 * time.Minute

// NewStripeService creates a new StripeService
func NewStripeService(cfg *config.PaymentConfig, logger *logrus.Logger) *StripeService {
	return &StripeService{
		config: cfg,
		logger: logger,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreatePaymentIntent opens an authorization for the given amount, tagged
// with the booking id and PNR so the settlement webhook can be correlated
// back. No lock is (or may be) held across this call.
func (s *StripeService) CreatePaymentIntent(amount int64, bookingID, pnr string) (*PaymentIntent, error) {
	if s.config.SecretKey == "" {
		return nil, fmt.Errorf("%w: payment gateway not configured", models.ErrExternalService)
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("currency", s.config.Currency)
	form.Set("metadata[booking_id]", bookingID)
	form.Set("metadata[pnr]", pnr)
	form.Set("description", fmt.Sprintf("Booking for PNR: %s", pnr))

	req, err := http.NewRequest(http.MethodPost,
		s.config.APIBaseURL+"/v1/payment_intents",
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build payment intent request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.config.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	s.logger.WithFields(logrus.Fields{
		"booking_id": bookingID,
		"pnr":        pnr,
		"amount":     amount,
		"currency":   s.config.Currency,
	}).Info("creating payment intent")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: payment intent request failed: %v", models.ErrExternalService, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read gateway response: %v", models.ErrExternalService, err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr stripeErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("%w: gateway returned %d: %s",
				models.ErrExternalService, resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("%w: gateway returned %d", models.ErrExternalService, resp.StatusCode)
	}

	var intent PaymentIntent
	if err := json.Unmarshal(body, &intent); err != nil {
		return nil, fmt.Errorf("%w: failed to parse payment intent: %v", models.ErrExternalService, err)
	}

	return &intent, nil
}

// ConstructEvent verifies a webhook delivery against the shared secret and
// returns the parsed event. The Stripe-Signature header carries a unix
// timestamp and one or more HMAC-SHA256 signatures of "<timestamp>.<payload>";
// any valid v1 signature within tolerance accepts the delivery.
//
// Returns models.ErrInvalidSignature on any verification failure; an
// unverified payload is never parsed further.
func (s *StripeService) ConstructEvent(payload []byte, sigHeader string) (*WebhookEvent, error) {
	timestamp, signatures, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return nil, err
	}

	if d := time.Since(time.Unix(timestamp, 0)); d > signatureTolerance || d < -signatureTolerance {
		return nil, fmt.Errorf("%w: timestamp outside tolerance", models.ErrInvalidSignature)
	}

	mac := hmac.New(sha256.New, []byte(s.config.WebhookSecret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	verified := false
	for _, sig := range signatures {
		decoded, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			verified = true
			break
		}
	}
	if !verified {
		return nil, fmt.Errorf("%w: no matching signature", models.ErrInvalidSignature)
	}

	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to parse webhook event: %w", err)
	}

	return &event, nil
}

// parseSignatureHeader splits "t=<unix>,v1=<hex>[,v1=<hex>...]"
func parseSignatureHeader(header string) (int64, []string, error) {
	if header == "" {
		return 0, nil, fmt.Errorf("%w: missing signature header", models.ErrInvalidSignature)
	}

	var timestamp int64
	var signatures []string

	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("%w: malformed timestamp", models.ErrInvalidSignature)
			}
			timestamp = ts
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}

	if timestamp == 0 || len(signatures) == 0 {
		return 0, nil, fmt.Errorf("%w: malformed signature header", models.ErrInvalidSignature)
	}

	return timestamp, signatures, nil
}
