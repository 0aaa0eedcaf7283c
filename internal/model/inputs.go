package model

import (
	"fmt"
	"strings"

	"github.com/and161185/goods-ledger/internal/errs"
)

// LoginInput authenticates an account by username and password.
type LoginInput struct {
	Username string `json:"accountUsername"`
	Password string `json:"accountPassword"`
}

// RegisterAccountInput creates a new account.
type RegisterAccountInput struct {
	Type                string `json:"accountType"`
	Name                string `json:"accountName"`
	Username            string `json:"accountUsername"`
	Email               string `json:"accountEmail"`
	Password            string `json:"accountPassword"`
	ConfirmedPassword   string `json:"accountConfirmedPassword"`
	OwnerManufacturerID string `json:"accountOwnerManufacturerID"`
}

// AccountUpdate changes the mutable account fields. It is echoed back on success.
type AccountUpdate struct {
	Key         string `json:"accountKey"`
	Token       string `json:"accountToken"`
	Name        string `json:"accountName"`
	Email       string `json:"accountEmail"`
	PhoneNumber string `json:"accountPhoneNumber"`
}

// AccountTokenUpdate rotates the stored account token.
type AccountTokenUpdate struct {
	Key   string `json:"accountKey"`
	Token string `json:"accountToken"`
}

// ManufacturerInput creates a manufacturer owned by AccountID.
type ManufacturerInput struct {
	AccountID      string `json:"manufacturerAccountID"`
	Name           string `json:"manufacturerName"`
	TradeLicenceID string `json:"manufacturerTradeLicenceID"`
	Location       string `json:"manufacturerLocation"`
	FoundingDate   string `json:"manufacturerFoundingDate"`
}

// ManufacturerUpdate carries the fields that do not take part in the manufacturer key.
type ManufacturerUpdate struct {
	Key          string `json:"manufacturerKey"`
	Location     string `json:"manufacturerLocation"`
	FoundingDate string `json:"manufacturerFoundingDate"`
}

// FactoryInput creates a factory.
type FactoryInput struct {
	ManufacturerID string `json:"factoryManufacturerID"`
	FactoryID      string `json:"factoryID"`
	Name           string `json:"factoryName"`
	Location       string `json:"factoryLocation"`
}

// FactoryUpdate carries the only factory field outside the key.
type FactoryUpdate struct {
	Key      string `json:"factoryKey"`
	Location string `json:"factoryLocation"`
}

// ProductInput creates a product.
type ProductInput struct {
	OwnerAccountID        string `json:"productOwnerAccountID"`
	ManufacturerID        string `json:"productManufacturerID"`
	ManufacturerName      string `json:"productManufacturerName"`
	FactoryID             string `json:"productFactoryID"`
	ProductID             string `json:"productID"`
	Name                  string `json:"productName"`
	Type                  string `json:"productType"`
	Batch                 string `json:"productBatch"`
	SerialInBatch         string `json:"productSerialinBatch"`
	ManufacturingLocation string `json:"productManufacturingLocation"`
	ManufacturingDate     string `json:"productManufacturingDate"`
	ExpiryDate            string `json:"productExpiryDate"`
}

// ProductOwnerUpdate transfers a product to another account.
type ProductOwnerUpdate struct {
	Key            string `json:"productKey"`
	OwnerAccountID string `json:"productOwnerAccountID"`
}

// ProductUpdate carries the product fields outside the key.
// Manufacturer, factory, batch, product id and serial are fixed at creation.
type ProductUpdate struct {
	Key                   string `json:"productKey"`
	OwnerAccountID        string `json:"productOwnerAccountID"`
	Name                  string `json:"productName"`
	Type                  string `json:"productType"`
	ManufacturingLocation string `json:"productManufacturingLocation"`
	ManufacturingDate     string `json:"productManufacturingDate"`
	ExpiryDate            string `json:"productExpiryDate"`
}

// Validate checks required fields.
func (in LoginInput) Validate() error {
	return require("accountUsername", in.Username, "accountPassword", in.Password)
}

// Validate checks required fields.
func (in RegisterAccountInput) Validate() error {
	return require(
		"accountType", in.Type,
		"accountUsername", in.Username,
		"accountEmail", in.Email,
		"accountPassword", in.Password,
	)
}

// Validate checks required fields.
func (in AccountUpdate) Validate() error {
	return require("accountKey", in.Key, "accountToken", in.Token, "accountEmail", in.Email)
}

// Validate checks required fields.
func (in AccountTokenUpdate) Validate() error {
	return require("accountKey", in.Key, "accountToken", in.Token)
}

// Validate checks required fields.
func (in ManufacturerInput) Validate() error {
	return require(
		"manufacturerAccountID", in.AccountID,
		"manufacturerName", in.Name,
		"manufacturerTradeLicenceID", in.TradeLicenceID,
	)
}

// Validate checks required fields.
func (in ManufacturerUpdate) Validate() error { return require("manufacturerKey", in.Key) }

// Validate checks required fields.
func (in FactoryInput) Validate() error {
	return require(
		"factoryManufacturerID", in.ManufacturerID,
		"factoryID", in.FactoryID,
		"factoryName", in.Name,
	)
}

// Validate checks required fields.
func (in FactoryUpdate) Validate() error { return require("factoryKey", in.Key) }

// Validate checks required fields.
func (in ProductInput) Validate() error {
	return require(
		"productOwnerAccountID", in.OwnerAccountID,
		"productManufacturerID", in.ManufacturerID,
		"productFactoryID", in.FactoryID,
		"productID", in.ProductID,
		"productBatch", in.Batch,
		"productSerialinBatch", in.SerialInBatch,
	)
}

// Validate checks required fields.
func (in ProductOwnerUpdate) Validate() error {
	return require("productKey", in.Key, "productOwnerAccountID", in.OwnerAccountID)
}

// Validate checks required fields.
func (in ProductUpdate) Validate() error { return require("productKey", in.Key) }

// require takes name/value pairs and reports every empty value.
func require(pairs ...string) error {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			missing = append(missing, pairs[i])
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", errs.ErrInvalidArgument, strings.Join(missing, ", "))
	}
	return nil
}
