package model

// AccountView is the only account shape returned to callers. It has no password field.
type AccountView struct {
	Key                 string `json:"accountKey"`
	Token               string `json:"accountToken"`
	Type                string `json:"accountType"`
	Name                string `json:"accountName"`
	Username            string `json:"accountUsername"`
	Email               string `json:"accountEmail"`
	PhoneNumber         string `json:"accountPhoneNumber"`
	OwnerManufacturerID string `json:"accountOwnerManufacturerID"`
	DocType             string `json:"docType"`
}

// ManufacturerView is the response shape of a manufacturer record.
type ManufacturerView struct {
	Key            string `json:"manufacturerKey"`
	AccountID      string `json:"manufacturerAccountID"`
	Name           string `json:"manufacturerName"`
	TradeLicenceID string `json:"manufacturerTradeLicenceID"`
	Location       string `json:"manufacturerLocation"`
	FoundingDate   string `json:"manufacturerFoundingDate"`
	DocType        string `json:"docType"`
}

// FactoryView is the response shape of a factory record.
type FactoryView struct {
	Key            string `json:"factoryKey"`
	ManufacturerID string `json:"factoryManufacturerID"`
	FactoryID      string `json:"factoryID"`
	Name           string `json:"factoryName"`
	Location       string `json:"factoryLocation"`
	DocType        string `json:"docType"`
}

// ProductView is the response shape of a product record.
type ProductView struct {
	Key                   string `json:"productKey"`
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
	DocType               string `json:"docType"`
}

// View projects an account record, dropping the password hash.
func (a Account) View() AccountView {
	return AccountView{
		Key:                 a.Key,
		Token:               a.AccountToken,
		Type:                a.AccountType,
		Name:                a.AccountName,
		Username:            a.AccountUsername,
		Email:               a.AccountEmail,
		PhoneNumber:         a.AccountPhoneNumber,
		OwnerManufacturerID: a.AccountOwnerManufacturerID,
		DocType:             a.DocType,
	}
}

// View projects a manufacturer record.
func (m Manufacturer) View() ManufacturerView {
	return ManufacturerView{
		Key:            m.Key,
		AccountID:      m.ManufacturerAccountID,
		Name:           m.ManufacturerName,
		TradeLicenceID: m.ManufacturerTradeLicenceID,
		Location:       m.ManufacturerLocation,
		FoundingDate:   m.ManufacturerFoundingDate,
		DocType:        m.DocType,
	}
}

// View projects a factory record.
func (f Factory) View() FactoryView {
	return FactoryView{
		Key:            f.Key,
		ManufacturerID: f.FactoryManufacturerID,
		FactoryID:      f.FactoryID,
		Name:           f.FactoryName,
		Location:       f.FactoryLocation,
		DocType:        f.DocType,
	}
}

// View projects a product record.
func (p Product) View() ProductView {
	return ProductView{
		Key:                   p.Key,
		OwnerAccountID:        p.ProductOwnerAccountID,
		ManufacturerID:        p.ProductManufacturerID,
		ManufacturerName:      p.ProductManufacturerName,
		FactoryID:             p.ProductFactoryID,
		ProductID:             p.ProductID,
		Name:                  p.ProductName,
		Type:                  p.ProductType,
		Batch:                 p.ProductBatch,
		SerialInBatch:         p.ProductSerialinBatch,
		ManufacturingLocation: p.ProductManufacturingLocation,
		ManufacturingDate:     p.ProductManufacturingDate,
		ExpiryDate:            p.ProductExpiryDate,
		DocType:               p.DocType,
	}
}

// FactoryViews projects a slice of factories; the result is never nil.
func FactoryViews(fs []Factory) []FactoryView {
	out := make([]FactoryView, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.View())
	}
	return out
}

// ProductViews projects a slice of products; the result is never nil.
func ProductViews(ps []Product) []ProductView {
	out := make([]ProductView, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.View())
	}
	return out
}
