/*
store.go - Persistence interface for the key-value state

PURPOSE:
  Defines the interface between the ledger core and whatever holds its
  state. Everything the book persists is a JSON document under a string
  key, so a Store is a plain key-value store.

KEY SPACE:
  workers               []string
  rates                 legacy {name: {s, d}} map (mirrored on every save)
  worker_rates          []WorkerRate
  accounts              {name: {bill, cost, nasta}}
  histories             {boardWork, userWork, nasta, loan: []Entry}
  company_reports       []Report
  storageVersion        int
  adminSelectedWorkers  []string
  admin_credentials     AdminCredentials
  users                 []User

NO TRANSACTIONS:
  A ledger command performs two sequential Set calls (history, then
  accounts). Stores are not asked for atomicity across keys; a crash
  between the two writes leaves the accounts behind the history.

IMPLEMENTATIONS:
  - hisab/store/memory.go: In-memory for tests and dev runs
  - store/sqlite/sqlite.go: SQLite kv table

SEE ALSO:
  - storage.go: The tolerant accessor every component reads through
*/
package hisab

import "context"

// Persisted keys.
const (
	KeyWorkers          = "workers"
	KeyLegacyRates      = "rates"
	KeyWorkerRates      = "worker_rates"
	KeyAccounts         = "accounts"
	KeyHistories        = "histories"
	KeyCompanyReports   = "company_reports"
	KeyStorageVersion   = "storageVersion"
	KeySelectedWorkers  = "adminSelectedWorkers"
	KeyAdminCredentials = "admin_credentials"
	KeyUsers            = "users"

	// keyLegacyAccounts is where accounts lived before storage version 1.
	keyLegacyAccounts = "worker_accounts"
)

// =============================================================================
// STORE - Interface for key-value persistence
// =============================================================================

// Store holds raw JSON documents by key.
type Store interface {
	// Get returns the stored bytes. Returns ErrNotFound if the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}
