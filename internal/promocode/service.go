package promocode

import (
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"grabeat/internal/logger"
	"grabeat/internal/models"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	// CodePrefix plus SuffixLength random characters make a full code,
	// e.g. GRABX7K2P9.
	CodePrefix   = "GRAB"
	SuffixLength = 6

	// DiscountPercentage applied by every issued code.
	DiscountPercentage = 5

	// IssueThreshold in euro cents. Issuance requires the order total
	// to be strictly greater.
	IssueThreshold = 5000

	maxGenerateAttempts = 5
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ErrCodeSpaceExhausted is returned when every generation attempt
// collided with an existing code.
var ErrCodeSpaceExhausted = errors.New("could not generate a unique promocode")

type DBLayer interface {
	CreatePromocode(promo *models.Promocode) error
	GetByCode(code string) (*models.Promocode, error)
	MarkUsed(code, orderID string, usedAt time.Time) error
}

type Mailer interface {
	SendPromocodeEmail(to, code string, discount int, validUntil time.Time, qrPNG []byte) error
}

// Engine generates, persists, verifies and consumes discount codes.
type Engine struct {
	DB     DBLayer
	Mail   Mailer
	logger *logger.Logger
}

func NewEngine(db DBLayer, mail Mailer, log *logger.Logger) *Engine {
	return &Engine{DB: db, Mail: mail, logger: log}
}

// MaybeIssue creates a promocode for the order's customer when the
// order total exceeds the threshold. Returns (nil, nil) below it. The
// promocode email is best-effort; a delivery failure never undoes the
// issued code.
func (e *Engine) MaybeIssue(order *models.Order) (*models.Promocode, error) {
	if order.TotalAmount <= IssueThreshold {
		e.logger.Debug("PROMO", fmt.Sprintf("Order %s total %d below threshold, no promocode", order.ID, order.TotalAmount))
		return nil, nil
	}

	code, err := e.generateUniqueCode()
	if err != nil {
		return nil, err
	}

	promo := &models.Promocode{
		ID:                 uuid.NewString(),
		Code:               code,
		UserEmail:          order.CustomerEmail,
		DiscountPercentage: DiscountPercentage,
		ValidUntil:         time.Now().AddDate(0, 1, 0),
		IsUsed:             false,
	}

	if err := e.DB.CreatePromocode(promo); err != nil {
		return nil, fmt.Errorf("failed to persist promocode: %w", err)
	}

	e.logger.Info("PROMO", fmt.Sprintf("Issued promocode %s to %s for order %s", code, order.CustomerEmail, order.ID))

	qrPNG, err := qrcode.Encode(code, qrcode.Medium, 256)
	if err != nil {
		e.logger.Warn("PROMO", fmt.Sprintf("Failed to render QR code for %s: %v", code, err))
		qrPNG = nil
	}

	if err := e.Mail.SendPromocodeEmail(order.CustomerEmail, code, DiscountPercentage, promo.ValidUntil, qrPNG); err != nil {
		e.logger.Warn("PROMO", fmt.Sprintf("Failed to email promocode %s to %s: %v", code, order.CustomerEmail, err))
	}

	return promo, nil
}

// Verify fails closed: any lookup error, ownership mismatch, prior use
// or expiry yields valid=false. It never mutates state.
func (e *Engine) Verify(code, userEmail string) models.PromocodeCheck {
	normalized := strings.ToUpper(strings.TrimSpace(code))

	promo, err := e.DB.GetByCode(normalized)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.PromocodeCheck{Valid: false, Message: "Invalid promocode"}
		}
		e.logger.Error("PROMO", fmt.Sprintf("Error verifying promocode %s: %v", normalized, err))
		return models.PromocodeCheck{Valid: false, Message: "Error verifying promocode"}
	}

	if promo.UserEmail != userEmail {
		return models.PromocodeCheck{Valid: false, Message: "This promocode is not valid for your account"}
	}
	if promo.IsUsed {
		return models.PromocodeCheck{Valid: false, Message: "This promocode has already been used"}
	}
	if time.Now().After(promo.ValidUntil) {
		return models.PromocodeCheck{Valid: false, Message: "This promocode has expired"}
	}

	return models.PromocodeCheck{
		Valid:    true,
		Message:  "Promocode is valid",
		Discount: promo.DiscountPercentage,
	}
}

// MarkUsed flags the code as consumed by the given order. Re-invoking
// rewrites the same fields.
func (e *Engine) MarkUsed(code, orderID string) error {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if err := e.DB.MarkUsed(normalized, orderID, time.Now()); err != nil {
		return fmt.Errorf("failed to mark promocode %s used: %w", normalized, err)
	}
	e.logger.Info("PROMO", fmt.Sprintf("Promocode %s marked used by order %s", normalized, orderID))
	return nil
}

// generateUniqueCode retries on collision; the code column is unique
// and a duplicate insert would otherwise abort issuance.
func (e *Engine) generateUniqueCode() (string, error) {
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		code := generateCode()
		_, err := e.DB.GetByCode(code)
		if errors.Is(err, sql.ErrNoRows) {
			return code, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check promocode uniqueness: %w", err)
		}
		e.logger.Warn("PROMO", fmt.Sprintf("Promocode collision on %s, retrying", code))
	}
	return "", ErrCodeSpaceExhausted
}

func generateCode() string {
	var sb strings.Builder
	sb.WriteString(CodePrefix)
	for i := 0; i < SuffixLength; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			// crypto/rand only fails when the OS entropy source is
			// broken; fall back to a time-derived index.
			n = big.NewInt(time.Now().UnixNano() % int64(len(codeAlphabet)))
		}
		sb.WriteByte(codeAlphabet[n.Int64()])
	}
	return sb.String()
}
