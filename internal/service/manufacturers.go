package service

import (
	"context"
	"fmt"

	pkgcrypto "github.com/and161185/goods-ledger/internal/crypto"
	"github.com/and161185/goods-ledger/internal/errs"
	"github.com/and161185/goods-ledger/internal/ledger"
	"github.com/and161185/goods-ledger/internal/model"
	"github.com/and161185/goods-ledger/internal/repository"
)

// AddManufacturer creates a manufacturer and links it to its owning account in one ledger transaction.
// An account owns at most one manufacturer.
func (r *Registry) AddManufacturer(ctx context.Context, in model.ManufacturerInput) (model.ManufacturerView, error) {
	if err := in.Validate(); err != nil {
		return model.ManufacturerView{}, err
	}

	taken, err := exists[model.Manufacturer](ctx, r.ledger, ledger.QueryManufacturerByTradeLicence, in.TradeLicenceID)
	if err != nil {
		return model.ManufacturerView{}, err
	}
	if taken {
		return model.ManufacturerView{}, fmt.Errorf("trade licence %q: %w", in.TradeLicenceID, errs.ErrConflict)
	}
	owned, err := exists[model.Manufacturer](ctx, r.ledger, ledger.QueryManufacturerByAccountID, in.AccountID)
	if err != nil {
		return model.ManufacturerView{}, err
	}
	if owned {
		return model.ManufacturerView{}, fmt.Errorf("account %q already owns a manufacturer: %w", in.AccountID, errs.ErrConflict)
	}

	m := model.Manufacturer{
		Key:                        pkgcrypto.ManufacturerKey(in.AccountID, in.Name, in.TradeLicenceID),
		ManufacturerAccountID:      in.AccountID,
		ManufacturerName:           in.Name,
		ManufacturerTradeLicenceID: in.TradeLicenceID,
		ManufacturerLocation:       in.Location,
		ManufacturerFoundingDate:   in.FoundingDate,
		DocType:                    model.DocTypeManufacturer,
	}
	created, err := r.claims.Claim(ctx, repository.KindTradeLicence, in.TradeLicenceID, m.Key)
	if err != nil {
		return model.ManufacturerView{}, err
	}
	_, err = r.ledger.Submit(ctx, ledger.TxAddManufacturer,
		m.Key, m.ManufacturerAccountID, m.ManufacturerName, m.ManufacturerTradeLicenceID,
		m.ManufacturerLocation, m.ManufacturerFoundingDate, m.DocType)
	if err != nil {
		if created {
			r.release(ctx, repository.KindTradeLicence, in.TradeLicenceID, m.Key)
		}
		return model.ManufacturerView{}, err
	}
	return m.View(), nil
}

// UpdateManufacturer changes location and founding date.
func (r *Registry) UpdateManufacturer(ctx context.Context, in model.ManufacturerUpdate) (model.ManufacturerUpdate, error) {
	if err := in.Validate(); err != nil {
		return model.ManufacturerUpdate{}, err
	}
	if _, err := r.ledger.Submit(ctx, ledger.TxUpdateManufacturer, in.Key, in.Location, in.FoundingDate); err != nil {
		return model.ManufacturerUpdate{}, err
	}
	return in, nil
}
