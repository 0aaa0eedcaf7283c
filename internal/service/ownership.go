package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/and161185/goods-ledger/internal/errs"
	"github.com/and161185/goods-ledger/internal/ledger"
	"github.com/and161185/goods-ledger/internal/model"
)

// AccountIs fails with errs.ErrUnauthorized unless caller is accountID.
func AccountIs(caller, accountID string) error {
	if caller == "" || caller != accountID {
		return fmt.Errorf("caller is not account %q: %w", accountID, errs.ErrUnauthorized)
	}
	return nil
}

// ManufacturerOwnedBy fails with errs.ErrUnauthorized unless manufacturerKey is the manufacturer of caller.
func (r *Registry) ManufacturerOwnedBy(ctx context.Context, caller, manufacturerKey string) error {
	m, err := first[model.Manufacturer](ctx, r.ledger, ledger.QueryManufacturerByAccountID, caller)
	if errors.Is(err, errs.ErrNotFound) {
		return fmt.Errorf("caller owns no manufacturer: %w", errs.ErrUnauthorized)
	}
	if err != nil {
		return err
	}
	if m.Key != manufacturerKey {
		return fmt.Errorf("manufacturer %q belongs to another account: %w", manufacturerKey, errs.ErrUnauthorized)
	}
	return nil
}

// ProductOwnedBy fails with errs.ErrUnauthorized unless caller currently owns the product.
// A missing product is errs.ErrNotFound.
func (r *Registry) ProductOwnedBy(ctx context.Context, caller, productKey string) error {
	p, err := first[model.Product](ctx, r.ledger, ledger.QueryProductByCode, productKey)
	if err != nil {
		return err
	}
	if p.ProductOwnerAccountID != caller {
		return fmt.Errorf("product %q belongs to another account: %w", productKey, errs.ErrUnauthorized)
	}
	return nil
}
