package promocode_test

import (
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"grabeat/internal/logger"
	"grabeat/internal/models"
	"grabeat/internal/promocode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) CreatePromocode(promo *models.Promocode) error {
	args := m.Called(promo)
	return args.Error(0)
}

func (m *MockDBLayer) GetByCode(code string) (*models.Promocode, error) {
	args := m.Called(code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Promocode), args.Error(1)
}

func (m *MockDBLayer) MarkUsed(code, orderID string, usedAt time.Time) error {
	args := m.Called(code, orderID, usedAt)
	return args.Error(0)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendPromocodeEmail(to, code string, discount int, validUntil time.Time, qrPNG []byte) error {
	args := m.Called(to, code, discount, validUntil, qrPNG)
	return args.Error(0)
}

func newEngine() (*promocode.Engine, *MockDBLayer, *MockMailer) {
	mockDB := new(MockDBLayer)
	mockMail := new(MockMailer)
	return promocode.NewEngine(mockDB, mockMail, logger.NewLogger()), mockDB, mockMail
}

var codePattern = regexp.MustCompile(`^GRAB[A-Z0-9]{6}$`)

func TestMaybeIssueBelowThreshold(t *testing.T) {
	engine, mockDB, mockMail := newEngine()

	// Exactly at the threshold does not qualify; issuance requires
	// strictly greater.
	order := &models.Order{ID: "order-1", CustomerEmail: "maria@example.com", TotalAmount: promocode.IssueThreshold}

	promo, err := engine.MaybeIssue(order)

	assert.NoError(t, err)
	assert.Nil(t, promo)
	mockDB.AssertNotCalled(t, "CreatePromocode", mock.Anything)
	mockMail.AssertNotCalled(t, "SendPromocodeEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMaybeIssueAboveThreshold(t *testing.T) {
	engine, mockDB, mockMail := newEngine()

	order := &models.Order{ID: "order-1", CustomerEmail: "maria@example.com", TotalAmount: promocode.IssueThreshold + 1}

	mockDB.On("GetByCode", mock.Anything).Return(nil, sql.ErrNoRows)
	mockDB.On("CreatePromocode", mock.MatchedBy(func(p *models.Promocode) bool {
		return codePattern.MatchString(p.Code) &&
			p.UserEmail == "maria@example.com" &&
			p.DiscountPercentage == promocode.DiscountPercentage &&
			!p.IsUsed
	})).Return(nil)
	mockMail.On("SendPromocodeEmail", "maria@example.com", mock.Anything, promocode.DiscountPercentage, mock.Anything, mock.Anything).Return(nil)

	promo, err := engine.MaybeIssue(order)

	assert.NoError(t, err)
	assert.NotNil(t, promo)
	assert.True(t, codePattern.MatchString(promo.Code))
	assert.WithinDuration(t, time.Now().AddDate(0, 1, 0), promo.ValidUntil, time.Minute)
	mockDB.AssertExpectations(t)
	mockMail.AssertExpectations(t)
}

func TestMaybeIssueEmailFailureIsNotFatal(t *testing.T) {
	engine, mockDB, mockMail := newEngine()

	order := &models.Order{ID: "order-1", CustomerEmail: "maria@example.com", TotalAmount: 9000}

	mockDB.On("GetByCode", mock.Anything).Return(nil, sql.ErrNoRows)
	mockDB.On("CreatePromocode", mock.Anything).Return(nil)
	mockMail.On("SendPromocodeEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("smtp timeout"))

	promo, err := engine.MaybeIssue(order)

	assert.NoError(t, err)
	assert.NotNil(t, promo)
}

func TestMaybeIssueRetriesOnCollision(t *testing.T) {
	engine, mockDB, mockMail := newEngine()

	order := &models.Order{ID: "order-1", CustomerEmail: "maria@example.com", TotalAmount: 9000}

	existing := &models.Promocode{Code: "GRABAAAAAA"}
	mockDB.On("GetByCode", mock.Anything).Return(existing, nil).Once()
	mockDB.On("GetByCode", mock.Anything).Return(nil, sql.ErrNoRows).Once()
	mockDB.On("CreatePromocode", mock.Anything).Return(nil)
	mockMail.On("SendPromocodeEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	promo, err := engine.MaybeIssue(order)

	assert.NoError(t, err)
	assert.NotNil(t, promo)
	mockDB.AssertNumberOfCalls(t, "GetByCode", 2)
}

func TestMaybeIssueGivesUpWhenCodeSpaceExhausted(t *testing.T) {
	engine, mockDB, _ := newEngine()

	order := &models.Order{ID: "order-1", CustomerEmail: "maria@example.com", TotalAmount: 9000}

	existing := &models.Promocode{Code: "GRABAAAAAA"}
	mockDB.On("GetByCode", mock.Anything).Return(existing, nil)

	promo, err := engine.MaybeIssue(order)

	assert.Nil(t, promo)
	assert.ErrorIs(t, err, promocode.ErrCodeSpaceExhausted)
	mockDB.AssertNotCalled(t, "CreatePromocode", mock.Anything)
}

func TestVerify(t *testing.T) {
	engine, mockDB, _ := newEngine()

	valid := &models.Promocode{
		Code:               "GRABAB12CD",
		UserEmail:          "maria@example.com",
		DiscountPercentage: 5,
		ValidUntil:         time.Now().AddDate(0, 1, 0),
	}
	used := &models.Promocode{
		Code:       "GRABUSED99",
		UserEmail:  "maria@example.com",
		IsUsed:     true,
		ValidUntil: time.Now().AddDate(0, 1, 0),
	}
	expired := &models.Promocode{
		Code:       "GRABOLD111",
		UserEmail:  "maria@example.com",
		ValidUntil: time.Now().AddDate(0, -1, 0),
	}

	mockDB.On("GetByCode", "GRABAB12CD").Return(valid, nil)
	mockDB.On("GetByCode", "GRABUSED99").Return(used, nil)
	mockDB.On("GetByCode", "GRABOLD111").Return(expired, nil)
	mockDB.On("GetByCode", "GRABNOPE00").Return(nil, sql.ErrNoRows)
	mockDB.On("GetByCode", "GRABBOOM00").Return(nil, errors.New("connection refused"))

	// Lowercase input with padding is normalized before lookup.
	check := engine.Verify("  grabab12cd ", "maria@example.com")
	assert.True(t, check.Valid)
	assert.Equal(t, "Promocode is valid", check.Message)
	assert.Equal(t, 5, check.Discount)

	check = engine.Verify("GRABAB12CD", "other@example.com")
	assert.False(t, check.Valid)
	assert.Equal(t, "This promocode is not valid for your account", check.Message)

	check = engine.Verify("GRABUSED99", "maria@example.com")
	assert.False(t, check.Valid)
	assert.Equal(t, "This promocode has already been used", check.Message)

	check = engine.Verify("GRABOLD111", "maria@example.com")
	assert.False(t, check.Valid)
	assert.Equal(t, "This promocode has expired", check.Message)

	check = engine.Verify("GRABNOPE00", "maria@example.com")
	assert.False(t, check.Valid)
	assert.Equal(t, "Invalid promocode", check.Message)

	// Lookup failures fail closed.
	check = engine.Verify("GRABBOOM00", "maria@example.com")
	assert.False(t, check.Valid)
	assert.Equal(t, "Error verifying promocode", check.Message)

	// Verify never mutates.
	mockDB.AssertNotCalled(t, "MarkUsed", mock.Anything, mock.Anything, mock.Anything)
}

func TestMarkUsedNormalizesCode(t *testing.T) {
	engine, mockDB, _ := newEngine()

	mockDB.On("MarkUsed", "GRABAB12CD", "order-1", mock.Anything).Return(nil)

	err := engine.MarkUsed(" grabab12cd ", "order-1")

	assert.NoError(t, err)
	mockDB.AssertExpectations(t)
}
