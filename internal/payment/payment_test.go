package payment

import (
	"context"
	"regexp"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var referencePattern = regexp.MustCompile(`^PM-[0-9A-Z]{8}$`)

func TestNewReference_Format(t *testing.T) {
	seen := make(map[string]bool)
	for range 50 {
		ref, err := NewReference()
		require.NoError(t, err)
		assert.Regexp(t, referencePattern, ref)
		seen[ref] = true
	}
	assert.Greater(t, len(seen), 45, "references should be random")
}

func TestMockProcessor_DefaultApproves(t *testing.T) {
	m := NewMockProcessor()

	charge, err := m.Charge(context.Background(), ChargeParams{UserID: "u1", Amount: decimal.NewFromInt(20)})

	require.NoError(t, err)
	assert.Regexp(t, referencePattern, charge.Reference)
	assert.True(t, charge.Amount.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, []string{"Charge(u1, 20.00)"}, m.Calls())
}

func TestMockProcessor_ChargeFuncOverride(t *testing.T) {
	m := NewMockProcessor()
	m.ChargeFunc = func(ctx context.Context, params ChargeParams) (*Charge, error) {
		return nil, ErrPaymentDeclined
	}

	_, err := m.Charge(context.Background(), ChargeParams{UserID: "u1", Amount: decimal.NewFromInt(1)})

	assert.ErrorIs(t, err, ErrPaymentDeclined)
	assert.Len(t, m.Calls(), 1)
}
