package ledger

// Transaction names exposed by the goods-ledger contract.
// Argument order is listed beside each write.
const (
	// key, token, type, name, username, email, passwordHash, ownerManufacturerID, docType
	TxRegisterAccount = "RegisterAccount"
	// key, accountID, name, tradeLicenceID, location, foundingDate, docType.
	// Also links the account to the new manufacturer.
	TxAddManufacturer = "AddManufacturer"
	// key, manufacturerID, factoryID, name, location, docType
	TxAddFactory = "AddFactory"
	// key, owner, manufacturerID, manufacturerName, factoryID, productID, name, type,
	// batch, serial, mfgLocation, mfgDate, expiryDate, docType
	TxAddProduct = "AddProduct"

	TxUpdateProductOwner = "UpdateProductOwner" // key, ownerAccountID
	TxUpdateAccountToken = "UpdateAccountToken" // key, token
	TxUpdateAccount      = "UpdateAccount"      // key, token, name, email, phone
	TxUpdateManufacturer = "UpdateManufacturer" // key, location, foundingDate
	TxUpdateFactory      = "UpdateFactory"      // key, location
	// key, owner, name, type, mfgLocation, mfgDate, expiryDate
	TxUpdateProduct = "UpdateProduct"
)

// Queries take one argument and return a JSON array of records.
const (
	QueryAccountByToken             = "QueryAccountbyToken"
	QueryAccountByEmail             = "QueryAccountbyEmail"
	QueryAccountByUsername          = "QueryAccountbyUsername"
	QueryManufacturerByAccountID    = "QueryManufacturerbyAccountID"
	QueryManufacturerByTradeLicence = "QueryManufacturerbyTradeLicenceID"
	QueryFactoryByID                = "QueryFactorybyID"
	QueryFactoryByManufacturerID    = "QueryFactorybyManufacturerID"
	QueryProductByID                = "QueryProductbyID"
	QueryProductByCode              = "QueryProductbyCode"
	QueryProductByOwnerAccountID    = "QueryProductbyOwnerAccountID"
	QueryProductByManufacturerID    = "QueryProductbyManufacturerID"
	QueryProductByFactoryID         = "QueryProductbyFactoryID"
)
