package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/and161185/goods-ledger/internal/errs"
	"github.com/and161185/goods-ledger/internal/model"
)

// Memory is an in-process Ledger that mirrors the contract's transactions.
// Unlike the deployed contract it rejects writes that break username, email
// or trade licence uniqueness, and updates of records that do not exist.
type Memory struct {
	mu            sync.RWMutex
	accounts      map[string]model.Account
	manufacturers map[string]model.Manufacturer
	factories     map[string]model.Factory
	products      map[string]model.Product
}

// NewMemory returns an empty ledger.
func NewMemory() *Memory {
	return &Memory{
		accounts:      make(map[string]model.Account),
		manufacturers: make(map[string]model.Manufacturer),
		factories:     make(map[string]model.Factory),
		products:      make(map[string]model.Product),
	}
}

var _ Ledger = (*Memory)(nil)

// Evaluate runs a query transaction.
func (m *Memory) Evaluate(ctx context.Context, name string, args ...string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", name, errs.ErrLedger, err)
	}
	if err := arity(name, args, 1); err != nil {
		return nil, err
	}
	v := args[0]

	m.mu.RLock()
	defer m.mu.RUnlock()

	switch name {
	case QueryAccountByToken:
		return encode(where(m.accounts, func(a model.Account) bool { return a.AccountToken == v }))
	case QueryAccountByEmail:
		return encode(where(m.accounts, func(a model.Account) bool { return a.AccountEmail == v }))
	case QueryAccountByUsername:
		return encode(where(m.accounts, func(a model.Account) bool { return a.AccountUsername == v }))
	case QueryManufacturerByAccountID:
		return encode(where(m.manufacturers, func(r model.Manufacturer) bool { return r.ManufacturerAccountID == v }))
	case QueryManufacturerByTradeLicence:
		return encode(where(m.manufacturers, func(r model.Manufacturer) bool { return r.ManufacturerTradeLicenceID == v }))
	case QueryFactoryByID:
		return encode(where(m.factories, func(f model.Factory) bool { return f.FactoryID == v }))
	case QueryFactoryByManufacturerID:
		return encode(where(m.factories, func(f model.Factory) bool { return f.FactoryManufacturerID == v }))
	case QueryProductByID:
		return encode(where(m.products, func(p model.Product) bool { return p.ProductID == v }))
	case QueryProductByCode:
		return encode(where(m.products, func(p model.Product) bool { return p.Key == v }))
	case QueryProductByOwnerAccountID:
		return encode(where(m.products, func(p model.Product) bool { return p.ProductOwnerAccountID == v }))
	case QueryProductByManufacturerID:
		return encode(where(m.products, func(p model.Product) bool { return p.ProductManufacturerID == v }))
	case QueryProductByFactoryID:
		return encode(where(m.products, func(p model.Product) bool { return p.ProductFactoryID == v }))
	}
	return nil, fmt.Errorf("unknown query %q: %w", name, errs.ErrLedger)
}

// Submit runs a write transaction atomically.
func (m *Memory) Submit(ctx context.Context, name string, args ...string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", name, errs.ErrLedger, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	switch name {
	case TxRegisterAccount:
		return nil, m.registerAccount(args)
	case TxAddManufacturer:
		return nil, m.addManufacturer(args)
	case TxAddFactory:
		return nil, m.addFactory(args)
	case TxAddProduct:
		return nil, m.addProduct(args)
	case TxUpdateAccountToken:
		return nil, m.updateAccount(name, args, 2, func(a *model.Account) error {
			a.AccountToken = args[1]
			return nil
		})
	case TxUpdateAccount:
		return nil, m.updateAccount(name, args, 5, func(a *model.Account) error {
			if len(where(m.accounts, func(o model.Account) bool {
				return o.AccountEmail == args[3] && o.Key != a.Key
			})) > 0 {
				return fmt.Errorf("the email %s already exists: %w", args[3], errs.ErrConflict)
			}
			a.AccountToken, a.AccountName, a.AccountEmail, a.AccountPhoneNumber = args[1], args[2], args[3], args[4]
			return nil
		})
	case TxUpdateManufacturer:
		if err := arity(name, args, 3); err != nil {
			return nil, err
		}
		r, ok := m.manufacturers[args[0]]
		if !ok {
			return nil, missing("manufacturer", args[0])
		}
		r.ManufacturerLocation, r.ManufacturerFoundingDate = args[1], args[2]
		m.manufacturers[r.Key] = r
		return nil, nil
	case TxUpdateFactory:
		if err := arity(name, args, 2); err != nil {
			return nil, err
		}
		f, ok := m.factories[args[0]]
		if !ok {
			return nil, missing("factory", args[0])
		}
		f.FactoryLocation = args[1]
		m.factories[f.Key] = f
		return nil, nil
	case TxUpdateProductOwner:
		return nil, m.updateProduct(name, args, 2, func(p *model.Product) {
			p.ProductOwnerAccountID = args[1]
		})
	case TxUpdateProduct:
		return nil, m.updateProduct(name, args, 7, func(p *model.Product) {
			p.ProductOwnerAccountID = args[1]
			p.ProductName, p.ProductType = args[2], args[3]
			p.ProductManufacturingLocation, p.ProductManufacturingDate, p.ProductExpiryDate = args[4], args[5], args[6]
		})
	}
	return nil, fmt.Errorf("unknown transaction %q: %w", name, errs.ErrLedger)
}

func (m *Memory) registerAccount(args []string) error {
	if err := arity(TxRegisterAccount, args, 9); err != nil {
		return err
	}
	key, username, email := args[0], args[4], args[5]
	if err := m.unused(key); err != nil {
		return err
	}
	for _, a := range m.accounts {
		if a.AccountUsername == username {
			return fmt.Errorf("the username %s already exists: %w", username, errs.ErrConflict)
		}
		if a.AccountEmail == email {
			return fmt.Errorf("the email %s already exists: %w", email, errs.ErrConflict)
		}
	}
	m.accounts[key] = model.Account{
		Key:                        key,
		AccountToken:               args[1],
		AccountType:                args[2],
		AccountName:                args[3],
		AccountUsername:            username,
		AccountEmail:               email,
		AccountPassword:            args[6],
		AccountOwnerManufacturerID: args[7],
		DocType:                    args[8],
	}
	return nil
}

func (m *Memory) addManufacturer(args []string) error {
	if err := arity(TxAddManufacturer, args, 7); err != nil {
		return err
	}
	key, accountID, licence := args[0], args[1], args[3]
	if err := m.unused(key); err != nil {
		return err
	}
	acc, ok := m.accounts[accountID]
	if !ok {
		return missing("account", accountID)
	}
	for _, r := range m.manufacturers {
		if r.ManufacturerTradeLicenceID == licence {
			return fmt.Errorf("the trade licence %s already exists: %w", licence, errs.ErrConflict)
		}
		// an account owns at most one manufacturer; its link field holds a single key
		if r.ManufacturerAccountID == accountID {
			return fmt.Errorf("the account %s already owns manufacturer %s: %w", accountID, r.Key, errs.ErrConflict)
		}
	}
	m.manufacturers[key] = model.Manufacturer{
		Key:                        key,
		ManufacturerAccountID:      accountID,
		ManufacturerName:           args[2],
		ManufacturerTradeLicenceID: licence,
		ManufacturerLocation:       args[4],
		ManufacturerFoundingDate:   args[5],
		DocType:                    args[6],
	}
	acc.AccountOwnerManufacturerID = key
	m.accounts[accountID] = acc
	return nil
}

func (m *Memory) addFactory(args []string) error {
	if err := arity(TxAddFactory, args, 6); err != nil {
		return err
	}
	if err := m.unused(args[0]); err != nil {
		return err
	}
	m.factories[args[0]] = model.Factory{
		Key:                   args[0],
		FactoryManufacturerID: args[1],
		FactoryID:             args[2],
		FactoryName:           args[3],
		FactoryLocation:       args[4],
		DocType:               args[5],
	}
	return nil
}

func (m *Memory) addProduct(args []string) error {
	if err := arity(TxAddProduct, args, 14); err != nil {
		return err
	}
	if err := m.unused(args[0]); err != nil {
		return err
	}
	m.products[args[0]] = model.Product{
		Key:                          args[0],
		ProductOwnerAccountID:        args[1],
		ProductManufacturerID:        args[2],
		ProductManufacturerName:      args[3],
		ProductFactoryID:             args[4],
		ProductID:                    args[5],
		ProductName:                  args[6],
		ProductType:                  args[7],
		ProductBatch:                 args[8],
		ProductSerialinBatch:         args[9],
		ProductManufacturingLocation: args[10],
		ProductManufacturingDate:     args[11],
		ProductExpiryDate:            args[12],
		DocType:                      args[13],
	}
	return nil
}

func (m *Memory) updateAccount(name string, args []string, n int, apply func(*model.Account) error) error {
	if err := arity(name, args, n); err != nil {
		return err
	}
	a, ok := m.accounts[args[0]]
	if !ok {
		return missing("account", args[0])
	}
	if err := apply(&a); err != nil {
		return err
	}
	m.accounts[a.Key] = a
	return nil
}

func (m *Memory) updateProduct(name string, args []string, n int, apply func(*model.Product)) error {
	if err := arity(name, args, n); err != nil {
		return err
	}
	p, ok := m.products[args[0]]
	if !ok {
		return missing("product", args[0])
	}
	apply(&p)
	m.products[p.Key] = p
	return nil
}

// unused reports a collision when key names any record. All record types share one key space.
func (m *Memory) unused(key string) error {
	_, a := m.accounts[key]
	_, b := m.manufacturers[key]
	_, c := m.factories[key]
	_, d := m.products[key]
	if a || b || c || d {
		return fmt.Errorf("the record %s already exists: %w", key, errs.ErrConflict)
	}
	return nil
}

func arity(name string, args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("%s: incorrect number of arguments, expecting %d got %d: %w", name, n, len(args), errs.ErrLedger)
	}
	return nil
}

func missing(kind, key string) error {
	return fmt.Errorf("the %s %s does not exist: %w", kind, key, errs.ErrNotFound)
}

// where returns matching records in key order.
func where[T any](recs map[string]T, match func(T) bool) []T {
	out := make([]T, 0)
	for _, k := range slices.Sorted(maps.Keys(recs)) {
		if r := recs[k]; match(r) {
			out = append(out, r)
		}
	}
	return out
}

func encode[T any](recs []T) ([]byte, error) {
	b, err := json.Marshal(recs)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w: %w", errs.ErrLedger, err)
	}
	return b, nil
}
