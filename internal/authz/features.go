package authz

// User account features.
const (
	CreateUser         = "create:user"
	ReadUser           = "read:user"
	ReadUserSelf       = "read:user:self"
	ReadUserOthers     = "read:user:others"
	UpdateUser         = "update:user"
	UpdateUserOthers   = "update:user:others"
	UpdateUserFeatures = "update:user:features"
)

// Activation and session features.
const (
	ReadActivationToken = "read:activation_token"

	CreateSession = "create:session"
	ReadSession   = "read:session"
)

// Device features.
const (
	CreateDevices       = "create:devices"
	ReadDevices         = "read:devices"
	UpdateDevices       = "update:devices"
	UpdateDevicesStatus = "update:devices:status"
	DeleteDevices       = "delete:devices"
)

// Financial expense features.
const (
	CreateExpenses = "create:financialexpenses"
	ReadExpenses   = "read:financialexpenses"
	UpdateExpenses = "update:financialexpenses"
	DeleteExpenses = "delete:financialexpenses"
)

// Customer order features.
const (
	CreateOrders          = "create:orders"
	CreateOrdersOthers    = "create:orders:others"
	CreateOrdersStatus    = "create:orders:status"
	ReadOrders            = "read:orders"
	ReadOrdersSelf        = "read:orders:self"
	UpdateOrders          = "update:orders"
	UpdateOrdersOthers    = "update:orders:others"
	UpdateOrdersSelf      = "update:orders:self"
	UpdateOrdersStatus    = "update:orders:status"
	DeleteOrders          = "delete:orders"
	DeleteOrdersCompleted = "delete:orders:completed"
)

// CatalogTokens lists every feature known to the platform.
func CatalogTokens() []string {
	return []string{
		CreateUser,
		ReadUser,
		ReadUserSelf,
		ReadUserOthers,
		UpdateUser,
		UpdateUserOthers,
		UpdateUserFeatures,

		ReadActivationToken,

		CreateSession,
		ReadSession,

		CreateDevices,
		ReadDevices,
		UpdateDevices,
		UpdateDevicesStatus,
		DeleteDevices,

		CreateExpenses,
		ReadExpenses,
		UpdateExpenses,
		DeleteExpenses,

		CreateOrders,
		CreateOrdersOthers,
		CreateOrdersStatus,
		ReadOrders,
		ReadOrdersSelf,
		UpdateOrders,
		UpdateOrdersOthers,
		UpdateOrdersSelf,
		UpdateOrdersStatus,
		DeleteOrders,
		DeleteOrdersCompleted,
	}
}

// DefaultCatalog builds the platform catalog.
func DefaultCatalog() (*Catalog, error) {
	return NewCatalog(CatalogTokens()...)
}
