package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locspot/salon-booking/internal/catalog"
)

func TestStandardQuoter_QuoteIsListPrice(t *testing.T) {
	q := NewStandardQuoter()

	amount, err := q.Quote(context.Background(), &catalog.Service{PriceAmount: 95000}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(95000), amount)
}

func TestStandardQuoter_CancellationFeeTiers(t *testing.T) {
	q := NewStandardQuoter()

	cases := []struct {
		name       string
		untilStart time.Duration
		want       int64
	}{
		{"48h notice is free", 48 * time.Hour, 0},
		{"more than 48h is free", 100 * time.Hour, 0},
		{"24h notice is half", 24 * time.Hour, 500},
		{"just under 48h is half", 47 * time.Hour, 500},
		{"under 24h is full", 2 * time.Hour, 1000},
		{"past start is full", -time.Hour, 1000},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fee, err := q.CancellationFee(context.Background(), 1000, tc.untilStart)
			require.NoError(t, err)
			assert.Equal(t, tc.want, fee)
		})
	}
}
