package crypto

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// keyLabel separates record keys from any other SHA-256 use of the same attributes.
const keyLabel = "goods-ledger/record-key/v1"

// DeriveKey returns a deterministic 64-char hex key for an ordered attribute tuple.
// Every attribute is length-prefixed, so ("ab","c") and ("a","bc") never collide.
func DeriveKey(attrs ...string) string {
	h := sha256.New()
	h.Write([]byte(keyLabel))
	var n [8]byte
	for _, a := range attrs {
		binary.BigEndian.PutUint64(n[:], uint64(len(a)))
		h.Write(n[:])
		h.Write([]byte(a))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// AccountKey derives an account key from (type, email, username).
func AccountKey(accountType, email, username string) string {
	return DeriveKey(accountType, email, username)
}

// ManufacturerKey derives a manufacturer key from (account id, name, trade licence id).
func ManufacturerKey(accountID, name, tradeLicenceID string) string {
	return DeriveKey(accountID, name, tradeLicenceID)
}

// FactoryKey derives a factory key from (manufacturer id, factory id, name).
func FactoryKey(manufacturerID, factoryID, name string) string {
	return DeriveKey(manufacturerID, factoryID, name)
}

// ProductKey derives a product key from (manufacturer id, factory id, batch, product id, serial in batch).
func ProductKey(manufacturerID, factoryID, batch, productID, serialInBatch string) string {
	return DeriveKey(manufacturerID, factoryID, batch, productID, serialInBatch)
}
