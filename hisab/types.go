/*
Package hisab is the bookkeeping core of Smart Hisab.

PURPOSE:
  Tracks what each worker earned (bill) and what was deducted from them
  (cost) through four dated histories: board-work production, user-work
  wages, nasta (snack) splits and loans/payments. Every entry applies its
  effect to the worker accounts when it is created and the exact inverse
  when it is deleted.

KEY CONCEPTS IN THIS FILE (types.go):
  - Entry: One dated history record, canonical across all four kinds
  - Account: Per-worker {bill, cost} aggregate
  - WorkerRate: Per-worker single/double unit price
  - Report: Money the owner drew against total worker earnings

DESIGN PRINCIPLES:
  1. Reversal uses stored shares: Deleting never recomputes from current rates
  2. Precision: decimal.Decimal so apply-then-reverse restores exact values
  3. Tolerant reads: Legacy shapes are normalized at decode time

SEE ALSO:
  - ledger.go: Account transitions per entry kind
  - history.go: Create/delete commands
  - migrate.go: Storage schema versions
*/
package hisab

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// KIND - Which history an entry belongs to
// =============================================================================

type Kind string

const (
	KindBoardWork Kind = "boardWork" // Company-rate production log, no ledger effect
	KindUserWork  Kind = "userWork"  // Per-worker wages, adds to bill
	KindNasta     Kind = "nasta"     // Snack expense split, adds to cost
	KindLoan      Kind = "loan"      // Loan or payment split, adds to cost
)

// Kinds lists every history in storage order.
var Kinds = []Kind{KindBoardWork, KindUserWork, KindNasta, KindLoan}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", ErrUnknownKind
}

// =============================================================================
// ENTRY - One history record
// =============================================================================

// Entry is the canonical shape of every history record. Fields that a kind
// does not use stay zero.
type Entry struct {
	ID    int64    `json:"id"`
	Kind  Kind     `json:"kind"`
	Date  string   `json:"date"`
	Names []string `json:"names"`

	// Quantities (board-work and user-work).
	Single decimal.Decimal `json:"s"`
	Double decimal.Decimal `json:"d"`

	// Company rates used by board-work.
	RateSingle decimal.Decimal `json:"rateSingle"`
	RateDouble decimal.Decimal `json:"rateDouble"`

	Amount decimal.Decimal `json:"amount"`
	Total  decimal.Decimal `json:"total"`

	// PerHead is nil on entries written before shares were stored.
	PerHead *decimal.Decimal `json:"perHead,omitempty"`

	// Shares holds each worker's bill share for user-work.
	Shares map[string]decimal.Decimal `json:"shares,omitempty"`

	Note string `json:"note,omitempty"`

	// Extra holds stored fields this type does not model. They are written
	// back unchanged so older data survives a rewrite.
	Extra map[string]json.RawMessage `json:"-"`
}

// entryJSONKeys are the fields Entry owns, including the legacy name
// fields folded into Names.
var entryJSONKeys = map[string]bool{
	"id": true, "kind": true, "date": true, "names": true,
	"s": true, "d": true, "rateSingle": true, "rateDouble": true,
	"amount": true, "total": true, "perHead": true, "shares": true, "note": true,
	"name": true, "worker": true, "workerNames": true,
}

// MarshalJSON writes the canonical fields plus any preserved extras.
func (e Entry) MarshalJSON() ([]byte, error) {
	type plain Entry
	data, err := json.Marshal(plain(e))
	if err != nil {
		return nil, err
	}
	return withExtra(data, e.Extra)
}

// UnmarshalJSON accepts the legacy name fields ("name", "workerNames",
// "worker") and string ids, producing a canonical Entry.
func (e *Entry) UnmarshalJSON(data []byte) error {
	type plain Entry
	var aux struct {
		plain
		ID          json.RawMessage `json:"id"`
		Name        string          `json:"name"`
		Worker      string          `json:"worker"`
		WorkerNames []string        `json:"workerNames"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*e = Entry(aux.plain)
	id, err := parseID(aux.ID)
	if err != nil {
		return err
	}
	e.ID = id

	names := aux.Names
	if len(names) == 0 {
		switch {
		case len(aux.WorkerNames) > 0:
			names = aux.WorkerNames
		case aux.Name != "":
			names = []string{aux.Name}
		case aux.Worker != "":
			names = []string{aux.Worker}
		}
	}
	e.Names = cleanNames(names)

	extra, err := extraFields(data, entryJSONKeys)
	if err != nil {
		return err
	}
	e.Extra = extra
	return nil
}

// extraFields returns the members of the JSON object data not named in
// known, or nil if there are none.
func extraFields(data []byte, known map[string]bool) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	var extra map[string]json.RawMessage
	for k, v := range fields {
		if known[k] {
			continue
		}
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		extra[k] = v
	}
	return extra, nil
}

// withExtra adds extra members to the encoded object base. Members base
// already has win.
func withExtra(base []byte, extra map[string]json.RawMessage) ([]byte, error) {
	if len(extra) == 0 {
		return base, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, ok := fields[k]; !ok {
			fields[k] = v
		}
	}
	return json.Marshal(fields)
}

func parseID(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}
	var n json.Number
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		n = json.Number(s)
	} else if err := json.Unmarshal(raw, &n); err != nil {
		return 0, err
	}
	if id, err := n.Int64(); err == nil {
		return id, nil
	}
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

// cleanNames trims names and drops blanks and duplicates, keeping order.
func cleanNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// HasName reports whether name participates in the entry.
func (e Entry) HasName(name string) bool {
	for _, n := range e.Names {
		if n == name {
			return true
		}
	}
	return false
}

// =============================================================================
// ACCOUNT - Per-worker aggregate
// =============================================================================

// Account is what one worker earned and what was deducted. Nasta is the
// snack part of Cost, kept for the worker statement.
type Account struct {
	Bill  decimal.Decimal `json:"bill"`
	Cost  decimal.Decimal `json:"cost"`
	Nasta decimal.Decimal `json:"nasta"`
}

// Balance is bill minus cost. Never stored.
func (a Account) Balance() decimal.Decimal {
	return a.Bill.Sub(a.Cost)
}

// Accounts maps worker name to account. Missing names read as zero.
type Accounts map[string]Account

// =============================================================================
// WORKER RATE
// =============================================================================

type WorkerRate struct {
	Name       string          `json:"name"`
	RateSingle decimal.Decimal `json:"rateSingle"`
	RateDouble decimal.Decimal `json:"rateDouble"`
	Locked     bool            `json:"locked"`
}

// legacyRate is the value shape of the old {name: {s, d}} map.
type legacyRate struct {
	S decimal.Decimal `json:"s"`
	D decimal.Decimal `json:"d"`
}

// =============================================================================
// COMPANY REPORT
// =============================================================================

// ReportPayment is the only report type written today. Older data used
// "taken" for the same thing.
const (
	ReportPayment     = "payment"
	reportLegacyTaken = "taken"
)

// Report is money the owner drew against total worker earnings. It does
// not touch worker accounts.
type Report struct {
	ID        int64           `json:"id"`
	Date      string          `json:"date"`
	Amount    decimal.Decimal `json:"amount"`
	Note      string          `json:"note,omitempty"`
	Timestamp int64           `json:"timestamp"`
	Type      string          `json:"type"`

	// Extra holds stored fields this type does not model.
	Extra map[string]json.RawMessage `json:"-"`
}

var reportJSONKeys = map[string]bool{
	"id": true, "date": true, "amount": true, "note": true, "timestamp": true, "type": true,
}

func (r Report) MarshalJSON() ([]byte, error) {
	type plain Report
	data, err := json.Marshal(plain(r))
	if err != nil {
		return nil, err
	}
	return withExtra(data, r.Extra)
}

func (r *Report) UnmarshalJSON(data []byte) error {
	type plain Report
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := extraFields(data, reportJSONKeys)
	if err != nil {
		return err
	}
	*r = Report(p)
	r.Extra = extra
	return nil
}
