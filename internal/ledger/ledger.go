// Package ledger talks to the distributed ledger that stores registry records.
package ledger

import "context"

// Ledger runs named transactions. Evaluate reads without committing; Submit endorses and commits.
// Both return the raw transaction result. Errors wrap errs.ErrConflict when the ledger
// reports a key or uniqueness collision, errs.ErrNotFound when an updated record is missing,
// and errs.ErrLedger otherwise.
//
// The chaincode behind a Ledger must follow the contract Memory implements:
// stored records carry their Key field; TxUpdateManufacturer takes
// (key, location, foundingDate) and TxUpdateFactory takes (key, location);
// TxAddManufacturer sets AccountOwnerManufacturerID on the owning account and
// rejects a second manufacturer for that account; collisions and missing records
// are reported with "already exists" and "does not exist" messages.
type Ledger interface {
	Evaluate(ctx context.Context, name string, args ...string) ([]byte, error)
	Submit(ctx context.Context, name string, args ...string) ([]byte, error)
}
