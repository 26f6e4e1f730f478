package services

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/sirupsen/logrus"
	"github.com/swiftrail/reservation-backend/internal/database"
)

// pnrAlphabet is the 36-symbol code alphabet. Six independent uniform draws
// give ~2.2e9 possible codes.
const pnrAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const pnrLength = 6

// PNRGenerator produces unique 6-character reservation codes. Uniqueness is
// pre-checked against existing bookings; the unique constraint on the pnr
// column backstops the race between check and insert.
type PNRGenerator struct {
	bookingRepo *database.BookingRepository
	maxAttempts int
	logger      *logrus.Logger

	// randomCode is swappable in tests to force collisions
	randomCode func() (string, error)
}

// NewPNRGenerator creates a new PNRGenerator
func NewPNRGenerator(bookingRepo *database.BookingRepository, maxAttempts int, logger *logrus.Logger) *PNRGenerator {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &PNRGenerator{
		bookingRepo: bookingRepo,
		maxAttempts: maxAttempts,
		logger:      logger,
		randomCode:  randomPNR,
	}
}

// Generate returns a fresh PNR not assigned to any existing booking. After
// maxAttempts collisions it fails; at this keyspace size that is practically
// unreachable, but it is an error, not a hang.
func (g *PNRGenerator) Generate() (string, error) {
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		code, err := g.randomCode()
		if err != nil {
			return "", fmt.Errorf("failed to generate pnr: %w", err)
		}

		exists, err := g.bookingRepo.PNRExists(code)
		if err != nil {
			return "", fmt.Errorf("failed to check pnr: %w", err)
		}
		if !exists {
			return code, nil
		}

		g.logger.WithFields(logrus.Fields{
			"pnr":     code,
			"attempt": attempt,
		}).Warn("PNR collision, regenerating")
	}

	return "", fmt.Errorf("failed to generate unique pnr after %d attempts", g.maxAttempts)
}

// randomPNR draws each character independently and uniformly from the
// alphabet using crypto/rand.
func randomPNR() (string, error) {
	max := big.NewInt(int64(len(pnrAlphabet)))
	code := make([]byte, pnrLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = pnrAlphabet[n.Int64()]
	}
	return string(code), nil
}
