package sales

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/saral-erp/saral-erp/internal/shared"
)

func TestResolveClientCreatesWithNormalizedKeys(t *testing.T) {
	repo := newMemoryRepo()

	c, err := resolveClient(context.Background(), repo, 1, ClientInput{
		Email:       " Buyer@Example.COM ",
		TaxID:       "24abc",
		CompanyName: " Acme ",
	})
	require.NoError(t, err)
	require.Equal(t, "buyer@example.com", c.Email)
	require.Equal(t, "24ABC", c.TaxID)
	require.Equal(t, "Acme", c.CompanyName)
	require.Equal(t, int64(1), c.OwnerID)
}

func TestResolveClientByIDAppliesOnlyChangedFields(t *testing.T) {
	repo := newMemoryRepo()
	ctx := context.Background()

	created, err := resolveClient(ctx, repo, 1, ClientInput{Email: "a@x.com", CompanyName: "Acme", Phone: "111"})
	require.NoError(t, err)

	resolved, err := resolveClient(ctx, repo, 1, ClientInput{
		ClientID: &created.ID,
		Phone:    "222",
	})
	require.NoError(t, err)
	require.Equal(t, created.ID, resolved.ID)
	require.Equal(t, "222", repo.st.clients[created.ID].Phone)
	require.Equal(t, "a@x.com", repo.st.clients[created.ID].Email)
}

func TestResolveClientByIDUnknown(t *testing.T) {
	repo := newMemoryRepo()
	missing := int64(404)

	_, err := resolveClient(context.Background(), repo, 1, ClientInput{ClientID: &missing})
	require.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestResolveClientIsIdempotent(t *testing.T) {
	repo := newMemoryRepo()
	ctx := context.Background()
	in := ClientInput{Email: "a@x.com", TaxID: "GST1", CompanyName: "Acme"}

	first, err := resolveClient(ctx, repo, 1, in)
	require.NoError(t, err)
	second, err := resolveClient(ctx, repo, 1, in)
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	require.Len(t, repo.st.clients, 1)
}

func TestResolveClientRequiresEmailWithoutID(t *testing.T) {
	repo := newMemoryRepo()

	_, err := resolveClient(context.Background(), repo, 1, ClientInput{CompanyName: "Acme"})
	require.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestResolveClientRequiresCompanyNameOnCreate(t *testing.T) {
	repo := newMemoryRepo()
	ctx := context.Background()

	_, err := resolveClient(ctx, repo, 1, ClientInput{Email: "a@x.com"})
	require.ErrorIs(t, err, shared.ErrInvalidInput)
	require.Empty(t, repo.st.clients)

	// An existing client matched by email keeps its stored name.
	created, err := resolveClient(ctx, repo, 1, ClientInput{Email: "a@x.com", CompanyName: "Acme"})
	require.NoError(t, err)
	resolved, err := resolveClient(ctx, repo, 1, ClientInput{Email: "a@x.com", Phone: "111"})
	require.NoError(t, err)
	require.Equal(t, created.ID, resolved.ID)
	require.Equal(t, "Acme", repo.st.clients[created.ID].CompanyName)
}

func TestResolveClientScopedByOwner(t *testing.T) {
	repo := newMemoryRepo()
	ctx := context.Background()
	in := ClientInput{Email: "a@x.com", TaxID: "GST1", CompanyName: "Acme"}

	first, err := resolveClient(ctx, repo, 1, in)
	require.NoError(t, err)
	second, err := resolveClient(ctx, repo, 2, in)
	require.NoError(t, err)

	// Same identity under different owners yields separate records.
	require.NotEqual(t, first.ID, second.ID)
	require.Len(t, repo.st.clients, 2)
}
