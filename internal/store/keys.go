package store

// Global reference-data keys
const (
	CachedCustomersKey = "cached_customers"
	CachedBranchesKey  = "cached_branches"
)

// ManualCustomersKey holds customers added on the device by user
func ManualCustomersKey(userID string) string {
	return "manual_customers_" + userID
}

// CollectionsKey holds collections submitted from this device by user
func CollectionsKey(userID string) string {
	return "collections_" + userID
}

// CachedCollectionsKey holds the last reconciled collection list for user
func CachedCollectionsKey(userID string) string {
	return "cached_collections_" + userID
}

// PaymentMethodsKey holds the collection id -> payment method side-table
func PaymentMethodsKey(userID string) string {
	return "collection_payment_methods_" + userID
}
