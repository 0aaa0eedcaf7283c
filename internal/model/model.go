// Package model defines ledger records, operation inputs and response projections.
package model

// Document type discriminators stored in every ledger record.
const (
	DocTypeAccount      = "account"
	DocTypeManufacturer = "manufacturer"
	DocTypeFactory      = "factory"
	DocTypeProduct      = "product"
)

// Account is the ledger record of a registry user. AccountPassword holds a bcrypt hash.
type Account struct {
	Key                        string `json:"Key"`
	AccountToken               string `json:"AccountToken"`
	AccountType                string `json:"AccountType"`
	AccountName                string `json:"AccountName"`
	AccountUsername            string `json:"AccountUsername"`
	AccountEmail               string `json:"AccountEmail"`
	AccountPhoneNumber         string `json:"AccountPhoneNumber"`
	AccountPassword            string `json:"AccountPassword"`
	AccountOwnerManufacturerID string `json:"AccountOwnerManufacturerID"`
	DocType                    string `json:"DocType"`
}

// Manufacturer is owned by exactly one account.
type Manufacturer struct {
	Key                        string `json:"Key"`
	ManufacturerAccountID      string `json:"ManufacturerAccountID"`
	ManufacturerName           string `json:"ManufacturerName"`
	ManufacturerTradeLicenceID string `json:"ManufacturerTradeLicenceID"`
	ManufacturerLocation       string `json:"ManufacturerLocation"`
	ManufacturerFoundingDate   string `json:"ManufacturerFoundingDate"`
	DocType                    string `json:"DocType"`
}

// Factory belongs to a manufacturer.
type Factory struct {
	Key                   string `json:"Key"`
	FactoryManufacturerID string `json:"FactoryManufacturerID"`
	FactoryID             string `json:"FactoryID"`
	FactoryName           string `json:"FactoryName"`
	FactoryLocation       string `json:"FactoryLocation"`
	DocType               string `json:"DocType"`
}

// Product is a single serialized item; ProductOwnerAccountID is transferable.
type Product struct {
	Key                          string `json:"Key"`
	ProductOwnerAccountID        string `json:"ProductOwnerAccountID"`
	ProductManufacturerID        string `json:"ProductManufacturerID"`
	ProductManufacturerName      string `json:"ProductManufacturerName"`
	ProductFactoryID             string `json:"ProductFactoryID"`
	ProductID                    string `json:"ProductID"`
	ProductName                  string `json:"ProductName"`
	ProductType                  string `json:"ProductType"`
	ProductBatch                 string `json:"ProductBatch"`
	ProductSerialinBatch         string `json:"ProductSerialinBatch"`
	ProductManufacturingLocation string `json:"ProductManufacturingLocation"`
	ProductManufacturingDate     string `json:"ProductManufacturingDate"`
	ProductExpiryDate            string `json:"ProductExpiryDate"`
	DocType                      string `json:"DocType"`
}
