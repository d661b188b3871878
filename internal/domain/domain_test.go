package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthlyPrice(t *testing.T) {
	t.Run("plano individual custa 19.90", func(t *testing.T) {
		price, err := MonthlyPrice(PlanIndividual)
		require.NoError(t, err)
		assert.True(t, price.Equal(decimal.RequireFromString("19.90")), price.String())
	})

	t.Run("plano escola custa 199.00", func(t *testing.T) {
		price, err := MonthlyPrice(PlanSchool)
		require.NoError(t, err)
		assert.True(t, price.Equal(decimal.NewFromInt(199)), price.String())
	})

	t.Run("plano desconhecido é rejeitado", func(t *testing.T) {
		for _, p := range []PlanType{"", "enterprise", "INDIVIDUAL"} {
			_, err := MonthlyPrice(p)
			assert.ErrorIs(t, err, ErrInvalidPlanType, string(p))
		}
	})
}

func TestAddBillingMonth(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"2026-01-15", "2026-02-15"},
		{"2026-01-31", "2026-02-28"},
		{"2028-01-31", "2028-02-29"},
		{"2026-03-31", "2026-04-30"},
		{"2026-12-31", "2027-01-31"},
		{"2026-02-28", "2026-03-28"},
	}
	for _, c := range cases {
		in, _ := time.Parse("2006-01-02", c.in)
		got := AddBillingMonth(in.Add(10 * time.Hour))
		assert.Equal(t, c.want, got.Format("2006-01-02"), c.in)
		assert.Equal(t, 10, got.Hour())
	}
}

func TestSchoolExpiry(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	t.Run("ativo com cobrança futura tem acesso", func(t *testing.T) {
		s := School{Status: PlanStatusActive, NextBillingDate: now.Add(72 * time.Hour)}
		assert.False(t, s.IsExpired(now))
		assert.True(t, s.HasAccess(now))
		assert.Equal(t, 3, s.DaysUntilExpiry(now))
	})

	t.Run("ativo com cobrança vencida está expirado", func(t *testing.T) {
		s := School{Status: PlanStatusActive, NextBillingDate: now.Add(-36 * time.Hour)}
		assert.True(t, s.IsExpired(now))
		assert.False(t, s.HasAccess(now))
		assert.Equal(t, -1, s.DaysUntilExpiry(now))
	})

	t.Run("status expired vale mesmo com data futura", func(t *testing.T) {
		s := School{Status: PlanStatusExpired, NextBillingDate: now.Add(24 * time.Hour)}
		assert.True(t, s.IsExpired(now))
		assert.False(t, s.HasAccess(now))
	})

	t.Run("cancelado ou pendente não tem acesso", func(t *testing.T) {
		for _, st := range []PlanStatus{PlanStatusCancelled, PlanStatusPending} {
			s := School{Status: st, NextBillingDate: now.Add(24 * time.Hour)}
			assert.False(t, s.HasAccess(now), st)
		}
	})
}

func TestReferenceRoundTrip(t *testing.T) {
	now := time.UnixMilli(1760529600123)

	kind, suffix, err := ParseReference(NewOneOffReference(now))
	require.NoError(t, err)
	assert.Equal(t, ReferenceOneOff, kind)
	assert.Equal(t, "1760529600123", suffix)

	kind, suffix, err = ParseReference(NewSubscriptionReference("uid_42"))
	require.NoError(t, err)
	assert.Equal(t, ReferenceSubscription, kind)
	assert.Equal(t, "uid_42", suffix)

	for _, bad := range []string{"", "subscription_", "user_abc", "order_1", "xsubscription_1"} {
		_, _, err := ParseReference(bad)
		assert.ErrorIs(t, err, ErrMalformedReference, bad)
	}
}

func TestPlanStatusTransitions(t *testing.T) {
	assert.Equal(t, PlanStatusActive, PlanStatusAfterPayment(PaymentApproved))
	assert.Equal(t, PlanStatusPending, PlanStatusAfterPayment(PaymentRejected))
	assert.Equal(t, PlanStatusPending, PlanStatusAfterPayment(PaymentPending))
	assert.Equal(t, PlanStatusActive, PlanStatusAfterRenewal(PaymentApproved))
	assert.Equal(t, PlanStatusExpired, PlanStatusAfterRenewal(PaymentRejected))
}
