/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Money travels as
  decimal strings ("12.50") so clients never lose cents to float64.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done by the hisab package, not in DTOs. DTOs are pure
  data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - hisab/types.go: Domain types
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/warp/smart-hisab/hisab"
)

// =============================================================================
// WORKERS AND RATES
// =============================================================================

// CreateWorkerRequest adds a worker with starting rates.
type CreateWorkerRequest struct {
	Name       string          `json:"name"`
	RateSingle decimal.Decimal `json:"rateSingle"`
	RateDouble decimal.Decimal `json:"rateDouble"`
}

// SetRateRequest changes an unlocked worker's rates.
type SetRateRequest struct {
	RateSingle decimal.Decimal `json:"rateSingle"`
	RateDouble decimal.Decimal `json:"rateDouble"`
}

// SelectionRequest replaces the admin's worker selection.
type SelectionRequest struct {
	Names []string `json:"names"`
}

// =============================================================================
// ACCOUNTS
// =============================================================================

// AccountDTO is one worker's account with its derived balance.
type AccountDTO struct {
	Name    string          `json:"name"`
	Bill    decimal.Decimal `json:"bill"`
	Cost    decimal.Decimal `json:"cost"`
	Nasta   decimal.Decimal `json:"nasta"`
	Balance decimal.Decimal `json:"balance"`
}

func toAccountDTO(name string, a hisab.Account) AccountDTO {
	return AccountDTO{
		Name:    name,
		Bill:    a.Bill,
		Cost:    a.Cost,
		Nasta:   a.Nasta,
		Balance: a.Balance(),
	}
}

// StatementLineDTO is one entry on a worker statement.
type StatementLineDTO struct {
	Entry hisab.Entry     `json:"entry"`
	Share decimal.Decimal `json:"share"`
}

// StatementDTO is the worker-facing account view.
type StatementDTO struct {
	AccountDTO
	Lines []StatementLineDTO `json:"lines"`
}

// =============================================================================
// HISTORIES
// =============================================================================

// CreateEntryRequest is the body for every history kind. Fields a kind
// does not use are ignored.
type CreateEntryRequest struct {
	Date       string          `json:"date"`
	Names      []string        `json:"names"`
	Single     decimal.Decimal `json:"s"`
	Double     decimal.Decimal `json:"d"`
	RateSingle decimal.Decimal `json:"rateSingle"`
	RateDouble decimal.Decimal `json:"rateDouble"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note"`
}

// =============================================================================
// REPORTS
// =============================================================================

// CreateReportRequest records money the owner drew.
type CreateReportRequest struct {
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note"`
}

// SummaryDTO compares earnings with drawings.
type SummaryDTO struct {
	TotalEarned decimal.Decimal `json:"totalEarned"`
	TotalDrawn  decimal.Decimal `json:"totalDrawn"`
	Remaining   decimal.Decimal `json:"remaining"`
	Reports     int             `json:"reports"`
}

// =============================================================================
// LOGIN
// =============================================================================

// AdminLoginRequest checks the admin credentials.
type AdminLoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// WorkerLoginRequest checks a worker login. Register creates it first.
type WorkerLoginRequest struct {
	Name     string `json:"name"`
	Mobile   string `json:"mobile"`
	Password string `json:"password"`
	Register bool   `json:"register,omitempty"`
}

// LoginDTO is returned on a successful login.
type LoginDTO struct {
	Role string `json:"role"`
	Name string `json:"name,omitempty"`
}

// =============================================================================
// CHANGES
// =============================================================================

// RevisionDTO lets a dashboard poll for store changes.
type RevisionDTO struct {
	Revision int64  `json:"revision"`
	LastKey  string `json:"lastKey,omitempty"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}
