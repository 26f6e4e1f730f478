package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swiftrail/reservation-backend/internal/config"
	"github.com/swiftrail/reservation-backend/internal/database"
	"github.com/swiftrail/reservation-backend/internal/middleware"
	"github.com/swiftrail/reservation-backend/internal/services"
)

const webhookTestSecret = "whsec_test_secret"

func newPaymentHandler(t *testing.T) (*PaymentHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	logger := testLogger()

	gateway := services.NewStripeService(&config.PaymentConfig{
		APIBaseURL:    "http://unused",
		SecretKey:     "sk_test_123",
		WebhookSecret: webhookTestSecret,
		Currency:      "inr",
	}, logger)

	paymentService := services.NewPaymentService(
		database.NewBookingRepository(db),
		database.NewPaymentRepository(db),
		gateway,
		logger,
	)

	return NewPaymentHandler(paymentService, logger), mock
}

func webhookSignature(timestamp int64, payload string) string {
	mac := hmac.New(sha256.New, []byte(webhookTestSecret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write([]byte(payload))
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func webhookRequest(handler gin.HandlerFunc, payload, signature string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/webhook", handler)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(payload))
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandlerCreateOrder(t *testing.T) {
	t.Run("No Authenticated User", func(t *testing.T) {
		handler, _ := newPaymentHandler(t)

		w := performRequest(handler.CreateOrder, http.MethodPost, "/order", "/order", `{"booking_id":"x"}`, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Missing Booking ID", func(t *testing.T) {
		handler, _ := newPaymentHandler(t)
		user := &middleware.UserContext{UserID: uuid.New().String()}

		w := performRequest(handler.CreateOrder, http.MethodPost, "/order", "/order", `{}`, user)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Missing booking_id", responseMessage(t, w))
	})

	t.Run("Booking Not Pending", func(t *testing.T) {
		handler, mock := newPaymentHandler(t)
		userID := uuid.New().String()
		bookingID := uuid.New().String()

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
			WithArgs(bookingID).
			WillReturnRows(bookingRow(bookingID, userID, "CONFIRMED"))

		body := fmt.Sprintf(`{"booking_id":%q}`, bookingID)
		w := performRequest(handler.CreateOrder, http.MethodPost, "/order", "/order", body,
			&middleware.UserContext{UserID: userID})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, responseMessage(t, w), "already CONFIRMED")

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Booking Not Found", func(t *testing.T) {
		handler, mock := newPaymentHandler(t)
		bookingID := uuid.New().String()

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
			WithArgs(bookingID).
			WillReturnError(sql.ErrNoRows)

		body := fmt.Sprintf(`{"booking_id":%q}`, bookingID)
		w := performRequest(handler.CreateOrder, http.MethodPost, "/order", "/order", body,
			&middleware.UserContext{UserID: uuid.New().String()})
		assert.Equal(t, http.StatusNotFound, w.Code)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestHandlerWebhook(t *testing.T) {
	succeededPayload := func(bookingID string) string {
		return fmt.Sprintf(`{
			"id": "evt_1",
			"type": "payment_intent.succeeded",
			"data": {"object": {
				"id": "pi_1",
				"amount": 150000,
				"metadata": {"booking_id": %q}
			}}
		}`, bookingID)
	}

	t.Run("Invalid Signature Rejected", func(t *testing.T) {
		handler, mock := newPaymentHandler(t)
		payload := succeededPayload(uuid.New().String())

		w := webhookRequest(handler.HandleWebhook, payload, "t=1,v1=deadbeef")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Webhook signature verification failed", responseMessage(t, w))

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Missing Signature Rejected", func(t *testing.T) {
		handler, mock := newPaymentHandler(t)

		w := webhookRequest(handler.HandleWebhook, succeededPayload(uuid.New().String()), "")
		assert.Equal(t, http.StatusBadRequest, w.Code)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Settlement Acknowledged", func(t *testing.T) {
		handler, mock := newPaymentHandler(t)
		bookingID := uuid.New().String()
		payload := succeededPayload(bookingID)

		mock.ExpectQuery(`SELECT (.+) FROM payments WHERE transaction_id`).
			WithArgs("pi_1").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
			WithArgs(bookingID).
			WillReturnRows(bookingRow(bookingID, uuid.New().String(), "PENDING"))
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE bookings`).
			WithArgs(bookingID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`INSERT INTO payments`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
		mock.ExpectCommit()

		w := webhookRequest(handler.HandleWebhook, payload,
			webhookSignature(time.Now().Unix(), payload))
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"received": true}`, w.Body.String())

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate Delivery Acknowledged", func(t *testing.T) {
		handler, mock := newPaymentHandler(t)
		bookingID := uuid.New().String()
		payload := succeededPayload(bookingID)

		mock.ExpectQuery(`SELECT (.+) FROM payments WHERE transaction_id`).
			WithArgs("pi_1").
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "booking_id", "transaction_id", "amount", "payment_status", "created_at",
			}).AddRow(uuid.New().String(), bookingID, "pi_1", "1500.00", "SUCCESS", time.Now()))

		w := webhookRequest(handler.HandleWebhook, payload,
			webhookSignature(time.Now().Unix(), payload))
		assert.Equal(t, http.StatusOK, w.Code)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Storage Fault Returns 500 For Redelivery", func(t *testing.T) {
		handler, mock := newPaymentHandler(t)
		payload := succeededPayload(uuid.New().String())

		mock.ExpectQuery(`SELECT (.+) FROM payments WHERE transaction_id`).
			WithArgs("pi_1").
			WillReturnError(fmt.Errorf("database error"))

		w := webhookRequest(handler.HandleWebhook, payload,
			webhookSignature(time.Now().Unix(), payload))
		assert.Equal(t, http.StatusInternalServerError, w.Code)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
