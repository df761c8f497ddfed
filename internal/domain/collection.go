package domain

// Collection names a source landing table observed through change events.
type Collection string

const (
	CollectionCustomers    Collection = "customers_raw"
	CollectionAccounts     Collection = "accounts_raw"
	CollectionTransactions Collection = "transactions_raw"
	CollectionAgreements   Collection = "agreements_raw"
)

// Channel is the Postgres notification channel the collection's trigger
// publishes on.
func (c Collection) Channel() string {
	switch c {
	case CollectionCustomers:
		return "customers_changed"
	case CollectionAccounts:
		return "accounts_changed"
	case CollectionTransactions:
		return "transactions_changed"
	case CollectionAgreements:
		return "agreements_changed"
	default:
		return ""
	}
}

// WatchedCollections are the collections the change listener subscribes to in
// the account/transaction variant.
var WatchedCollections = []Collection{
	CollectionCustomers,
	CollectionAccounts,
	CollectionTransactions,
}
