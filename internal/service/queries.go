package service

import (
	"context"

	"github.com/and161185/goods-ledger/internal/ledger"
	"github.com/and161185/goods-ledger/internal/model"
)

// AccountByToken verifies token before looking it up.
func (r *Registry) AccountByToken(ctx context.Context, token string) (model.AccountView, error) {
	if _, err := r.tokens.Verify(token); err != nil {
		return model.AccountView{}, err
	}
	return r.account(ctx, ledger.QueryAccountByToken, token)
}

func (r *Registry) AccountByEmail(ctx context.Context, email string) (model.AccountView, error) {
	return r.account(ctx, ledger.QueryAccountByEmail, email)
}

func (r *Registry) AccountByUsername(ctx context.Context, username string) (model.AccountView, error) {
	return r.account(ctx, ledger.QueryAccountByUsername, username)
}

func (r *Registry) account(ctx context.Context, name, value string) (model.AccountView, error) {
	a, err := first[model.Account](ctx, r.ledger, name, value)
	if err != nil {
		return model.AccountView{}, err
	}
	return a.View(), nil
}

func (r *Registry) ManufacturerByAccountID(ctx context.Context, accountID string) (model.ManufacturerView, error) {
	return r.manufacturer(ctx, ledger.QueryManufacturerByAccountID, accountID)
}

func (r *Registry) ManufacturerByTradeLicenceID(ctx context.Context, licence string) (model.ManufacturerView, error) {
	return r.manufacturer(ctx, ledger.QueryManufacturerByTradeLicence, licence)
}

func (r *Registry) manufacturer(ctx context.Context, name, value string) (model.ManufacturerView, error) {
	m, err := first[model.Manufacturer](ctx, r.ledger, name, value)
	if err != nil {
		return model.ManufacturerView{}, err
	}
	return m.View(), nil
}

func (r *Registry) FactoriesByManufacturerID(ctx context.Context, manufacturerID string) ([]model.FactoryView, error) {
	return r.factories(ctx, ledger.QueryFactoryByManufacturerID, manufacturerID)
}

func (r *Registry) FactoriesByID(ctx context.Context, factoryID string) ([]model.FactoryView, error) {
	return r.factories(ctx, ledger.QueryFactoryByID, factoryID)
}

func (r *Registry) factories(ctx context.Context, name, value string) ([]model.FactoryView, error) {
	fs, err := query[model.Factory](ctx, r.ledger, name, value)
	if err != nil {
		return nil, err
	}
	return model.FactoryViews(fs), nil
}

func (r *Registry) ProductsByID(ctx context.Context, productID string) ([]model.ProductView, error) {
	return r.products(ctx, ledger.QueryProductByID, productID)
}

// ProductsByCode looks products up by record key.
func (r *Registry) ProductsByCode(ctx context.Context, code string) ([]model.ProductView, error) {
	return r.products(ctx, ledger.QueryProductByCode, code)
}

func (r *Registry) ProductsByOwnerAccountID(ctx context.Context, ownerID string) ([]model.ProductView, error) {
	return r.products(ctx, ledger.QueryProductByOwnerAccountID, ownerID)
}

func (r *Registry) ProductsByManufacturerID(ctx context.Context, manufacturerID string) ([]model.ProductView, error) {
	return r.products(ctx, ledger.QueryProductByManufacturerID, manufacturerID)
}

func (r *Registry) ProductsByFactoryID(ctx context.Context, factoryID string) ([]model.ProductView, error) {
	return r.products(ctx, ledger.QueryProductByFactoryID, factoryID)
}

func (r *Registry) products(ctx context.Context, name, value string) ([]model.ProductView, error) {
	ps, err := query[model.Product](ctx, r.ledger, name, value)
	if err != nil {
		return nil, err
	}
	return model.ProductViews(ps), nil
}
