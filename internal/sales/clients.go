package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/saral-erp/saral-erp/internal/shared"
)

// normalizeEmail and normalizeTaxID put identity keys into canonical form
// before any comparison or write. All uniqueness guarantees assume this.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizeTaxID(taxID string) string {
	return strings.ToUpper(strings.TrimSpace(taxID))
}

// resolveClient turns a ClientInput into a persisted client row, reusing an
// existing record wherever one matches. It runs inside the caller's
// transaction. Resolution order:
//
//  1. explicit client id: load it and apply only the fields that changed;
//  2. match on (owner, email): update drifted fields in place;
//  3. otherwise create, provided the tax id is not already taken by a
//     different client of the same owner.
func resolveClient(ctx context.Context, repo Repository, ownerID int64, in ClientInput) (*Client, error) {
	if in.ClientID != nil {
		existing, err := repo.GetClient(ctx, *in.ClientID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, fmt.Errorf("%w: client %d not found", shared.ErrInvalidInput, *in.ClientID)
			}
			return nil, err
		}
		return applyClientUpdates(ctx, repo, existing, in)
	}

	email := normalizeEmail(in.Email)
	taxID := normalizeTaxID(in.TaxID)
	if email == "" {
		return nil, fmt.Errorf("%w: client email is required", shared.ErrInvalidInput)
	}

	existing, err := repo.GetClientByEmail(ctx, ownerID, email)
	if err == nil {
		return applyClientUpdates(ctx, repo, existing, in)
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	if taxID != "" {
		other, err := repo.GetClientByTaxID(ctx, ownerID, taxID)
		if err == nil && other.Email != email {
			return nil, fmt.Errorf("%w: tax id %s already belongs to another client", shared.ErrConflict, taxID)
		}
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}

	// A brand new client needs a name; matched clients keep their stored one.
	if strings.TrimSpace(in.CompanyName) == "" {
		return nil, fmt.Errorf("%w: client company name is required", shared.ErrInvalidInput)
	}

	c := Client{
		OwnerID:     ownerID,
		Email:       email,
		TaxID:       taxID,
		CompanyName: strings.TrimSpace(in.CompanyName),
		ContactName: strings.TrimSpace(in.ContactName),
		Phone:       strings.TrimSpace(in.Phone),
	}
	id, err := repo.CreateClient(ctx, c)
	if err != nil {
		return nil, err
	}
	c.ID = id
	return &c, nil
}

// applyClientUpdates writes only fields that actually differ, so repeated
// submissions of the same payload are no-ops.
func applyClientUpdates(ctx context.Context, repo Repository, existing *Client, in ClientInput) (*Client, error) {
	updates := make(map[string]any)

	if email := normalizeEmail(in.Email); email != "" && email != existing.Email {
		updates["email"] = email
		existing.Email = email
	}
	if taxID := normalizeTaxID(in.TaxID); taxID != "" && taxID != existing.TaxID {
		updates["tax_id"] = taxID
		existing.TaxID = taxID
	}
	if name := strings.TrimSpace(in.CompanyName); name != "" && name != existing.CompanyName {
		updates["company_name"] = name
		existing.CompanyName = name
	}
	if name := strings.TrimSpace(in.ContactName); name != "" && name != existing.ContactName {
		updates["contact_name"] = name
		existing.ContactName = name
	}
	if phone := strings.TrimSpace(in.Phone); phone != "" && phone != existing.Phone {
		updates["phone"] = phone
		existing.Phone = phone
	}

	if len(updates) == 0 {
		return existing, nil
	}
	if err := repo.UpdateClient(ctx, existing.ID, updates); err != nil {
		return nil, err
	}
	return existing, nil
}
