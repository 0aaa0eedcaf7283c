package service

import (
	"context"

	pkgcrypto "github.com/and161185/goods-ledger/internal/crypto"
	"github.com/and161185/goods-ledger/internal/ledger"
	"github.com/and161185/goods-ledger/internal/model"
)

// AddFactory creates a factory. An existing record under the derived key is a conflict.
func (r *Registry) AddFactory(ctx context.Context, in model.FactoryInput) (model.FactoryView, error) {
	if err := in.Validate(); err != nil {
		return model.FactoryView{}, err
	}
	f := model.Factory{
		Key:                   pkgcrypto.FactoryKey(in.ManufacturerID, in.FactoryID, in.Name),
		FactoryManufacturerID: in.ManufacturerID,
		FactoryID:             in.FactoryID,
		FactoryName:           in.Name,
		FactoryLocation:       in.Location,
		DocType:               model.DocTypeFactory,
	}
	_, err := r.ledger.Submit(ctx, ledger.TxAddFactory,
		f.Key, f.FactoryManufacturerID, f.FactoryID, f.FactoryName, f.FactoryLocation, f.DocType)
	if err != nil {
		return model.FactoryView{}, err
	}
	return f.View(), nil
}

// UpdateFactory changes the factory location.
func (r *Registry) UpdateFactory(ctx context.Context, in model.FactoryUpdate) (model.FactoryUpdate, error) {
	if err := in.Validate(); err != nil {
		return model.FactoryUpdate{}, err
	}
	if _, err := r.ledger.Submit(ctx, ledger.TxUpdateFactory, in.Key, in.Location); err != nil {
		return model.FactoryUpdate{}, err
	}
	return in, nil
}

// AddProduct creates a product record.
func (r *Registry) AddProduct(ctx context.Context, in model.ProductInput) (model.ProductView, error) {
	if err := in.Validate(); err != nil {
		return model.ProductView{}, err
	}
	p := model.Product{
		Key:                          pkgcrypto.ProductKey(in.ManufacturerID, in.FactoryID, in.Batch, in.ProductID, in.SerialInBatch),
		ProductOwnerAccountID:        in.OwnerAccountID,
		ProductManufacturerID:        in.ManufacturerID,
		ProductManufacturerName:      in.ManufacturerName,
		ProductFactoryID:             in.FactoryID,
		ProductID:                    in.ProductID,
		ProductName:                  in.Name,
		ProductType:                  in.Type,
		ProductBatch:                 in.Batch,
		ProductSerialinBatch:         in.SerialInBatch,
		ProductManufacturingLocation: in.ManufacturingLocation,
		ProductManufacturingDate:     in.ManufacturingDate,
		ProductExpiryDate:            in.ExpiryDate,
		DocType:                      model.DocTypeProduct,
	}
	_, err := r.ledger.Submit(ctx, ledger.TxAddProduct,
		p.Key, p.ProductOwnerAccountID, p.ProductManufacturerID, p.ProductManufacturerName,
		p.ProductFactoryID, p.ProductID, p.ProductName, p.ProductType, p.ProductBatch,
		p.ProductSerialinBatch, p.ProductManufacturingLocation, p.ProductManufacturingDate,
		p.ProductExpiryDate, p.DocType)
	if err != nil {
		return model.ProductView{}, err
	}
	return p.View(), nil
}

// UpdateProductOwner transfers a product; nothing else on the record changes.
func (r *Registry) UpdateProductOwner(ctx context.Context, in model.ProductOwnerUpdate) (model.ProductOwnerUpdate, error) {
	if err := in.Validate(); err != nil {
		return model.ProductOwnerUpdate{}, err
	}
	if _, err := r.ledger.Submit(ctx, ledger.TxUpdateProductOwner, in.Key, in.OwnerAccountID); err != nil {
		return model.ProductOwnerUpdate{}, err
	}
	return in, nil
}

// UpdateProduct changes the product fields that are not part of its key.
func (r *Registry) UpdateProduct(ctx context.Context, in model.ProductUpdate) (model.ProductUpdate, error) {
	if err := in.Validate(); err != nil {
		return model.ProductUpdate{}, err
	}
	_, err := r.ledger.Submit(ctx, ledger.TxUpdateProduct,
		in.Key, in.OwnerAccountID, in.Name, in.Type,
		in.ManufacturingLocation, in.ManufacturingDate, in.ExpiryDate)
	if err != nil {
		return model.ProductUpdate{}, err
	}
	return in, nil
}
