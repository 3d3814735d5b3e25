package jobs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExpiryMailPayload(t *testing.T) {
	validity := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	p := expiryMailPayload("Q-260801-000042", "Acme Traders", "buyer@example.com", validity)

	require.Equal(t, "buyer@example.com", p.To)
	require.Equal(t, "Quotation Q-260801-000042 has expired", p.Subject)
	require.Contains(t, p.Body, "Acme Traders")
	require.Contains(t, p.Body, "15 Aug 2026")
}
