// Package payment authorizes checkout charges.
//
// There is no gateway integration: MockProcessor approves every charge and
// returns an opaque reference, which checkout stores on the order.
package payment

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// ErrPaymentDeclined is returned when a processor refuses the charge.
var ErrPaymentDeclined = errors.New("payment: declined")

// Processor defines the interface for charging a checkout.
type Processor interface {
	// Charge authorizes Amount for the user and returns a reference that
	// identifies the charge.
	Charge(ctx context.Context, params ChargeParams) (*Charge, error)
}

// ChargeParams describes a checkout charge.
type ChargeParams struct {
	UserID string
	Amount decimal.Decimal
}

// Charge is an authorized payment.
type Charge struct {
	Reference string
	Amount    decimal.Decimal
	CreatedAt time.Time
}

// MockProcessor is the default processor. It approves every charge.
type MockProcessor struct {
	// ChargeFunc allows customizing charge behavior in tests.
	ChargeFunc func(ctx context.Context, params ChargeParams) (*Charge, error)

	mu sync.Mutex

	// CallLog tracks method calls for test assertions.
	CallLog []string
}

var _ Processor = (*MockProcessor)(nil)

// NewMockProcessor creates a mock processor.
func NewMockProcessor() *MockProcessor {
	return &MockProcessor{CallLog: []string{}}
}

// Charge returns a charge with a "PM-" reference.
func (m *MockProcessor) Charge(ctx context.Context, params ChargeParams) (*Charge, error) {
	m.mu.Lock()
	m.CallLog = append(m.CallLog, fmt.Sprintf("Charge(%s, %s)", params.UserID, params.Amount.StringFixed(2)))
	m.mu.Unlock()

	if m.ChargeFunc != nil {
		return m.ChargeFunc(ctx, params)
	}

	ref, err := NewReference()
	if err != nil {
		return nil, err
	}
	return &Charge{Reference: ref, Amount: params.Amount, CreatedAt: time.Now().UTC()}, nil
}

// Calls returns a copy of the call log.
func (m *MockProcessor) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.CallLog...)
}

const (
	referencePrefix = "PM-"
	referenceLength = 8
	base36Alphabet  = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// NewReference returns "PM-" followed by 8 random uppercase base-36 characters.
func NewReference() (string, error) {
	var b strings.Builder
	b.Grow(len(referencePrefix) + referenceLength)
	b.WriteString(referencePrefix)

	max := big.NewInt(int64(len(base36Alphabet)))
	for range referenceLength {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate payment reference: %w", err)
		}
		b.WriteByte(base36Alphabet[n.Int64()])
	}
	return b.String(), nil
}
