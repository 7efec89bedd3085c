/*
history.go - Create and delete commands for the four histories

PURPOSE:
  Each history (boardWork, userWork, nasta, loan) is a list of entries
  stored newest first under one "histories" document. Creating an entry
  prepends it and applies its ledger effect; deleting it reverses the
  effect using the share stored on the entry, then removes it.

REQUEST FLOW:
  1. Validate input (nothing is written on failure)
  2. Compute totals and shares
  3. Write the history
  4. Apply/reverse on accounts and write them

  Steps 3 and 4 are two separate writes with no rollback.

IDENTITY:
  id is the creation time in milliseconds and also the sort key. When two
  entries land in the same millisecond the later one gets id+1 so ids
  stay unique within a history.

SEE ALSO:
  - ledger.go: What Apply/Reverse do per kind
  - money.go: EqualSplit and PerHeadAmount
*/
package hisab

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

// =============================================================================
// INPUTS
// =============================================================================

// BoardWorkInput records production quantities at company rates.
type BoardWorkInput struct {
	Date       string
	Names      []string
	Single     decimal.Decimal
	Double     decimal.Decimal
	RateSingle decimal.Decimal
	RateDouble decimal.Decimal
	Note       string
}

// UserWorkInput records quantities each named worker is paid for at their
// own rates.
type UserWorkInput struct {
	Date   string
	Names  []string
	Single decimal.Decimal
	Double decimal.Decimal
	Note   string
}

// ExpenseInput is a nasta or loan amount split across the named workers.
type ExpenseInput struct {
	Date   string
	Names  []string
	Amount decimal.Decimal
	Note   string
}

// =============================================================================
// READ
// =============================================================================

// Entries returns one history, newest first.
func (b *Book) Entries(ctx context.Context, kind Kind) ([]Entry, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, b.reject(err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loadEntries(ctx, kind), nil
}

func (b *Book) loadHistoryDoc(ctx context.Context) map[string]json.RawMessage {
	doc := Get(ctx, b.storage, KeyHistories, map[string]json.RawMessage{})
	if doc == nil {
		doc = map[string]json.RawMessage{}
	}
	return doc
}

func (b *Book) loadEntries(ctx context.Context, kind Kind) []Entry {
	doc := b.loadHistoryDoc(ctx)
	raw, ok := doc[string(kind)]
	if !ok {
		return []Entry{}
	}
	entries, _ := decodeEntries(b.log.WithField("history", kind), kind, raw)
	return entries
}

// decodeEntries decodes one history, newest first, and also returns how
// many elements it held. Entries of a keyed-by-id history that carry no id
// of their own take it from their key.
func decodeEntries(logger log.FieldLogger, kind Kind, raw json.RawMessage) ([]Entry, int) {
	elems := listElements(logger, raw)
	entries := make([]Entry, 0, len(elems))
	for i, elem := range elems {
		var e Entry
		if err := json.Unmarshal(elem.Value, &e); err != nil {
			logger.WithFields(log.Fields{"index": i, "key": elem.Key, "error": err}).Warn("skipping undecodable entry")
			continue
		}
		if e.ID == 0 && elem.Key != "" {
			if id, err := strconv.ParseInt(elem.Key, 10, 64); err == nil {
				e.ID = id
			}
		}
		e.Kind = kind
		entries = append(entries, e)
	}
	sortNewestFirst(entries)
	return entries, len(elems)
}

func (b *Book) saveEntries(ctx context.Context, kind Kind, entries []Entry) {
	data, err := json.Marshal(entries)
	if err != nil {
		b.log.WithFields(log.Fields{"history": kind, "error": err}).Error("failed to encode history")
		return
	}
	doc := b.loadHistoryDoc(ctx)
	doc[string(kind)] = data
	Set(ctx, b.storage, KeyHistories, doc)
}

func sortNewestFirst(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ID > entries[j].ID
	})
}

// =============================================================================
// CREATE
// =============================================================================

// AddBoardWork logs company production. It has no ledger effect.
func (b *Book) AddBoardWork(ctx context.Context, in BoardWorkInput) (Entry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	names := cleanNames(in.Names)
	if err := requireWorkers(names); err != nil {
		return Entry{}, b.reject(err)
	}
	if err := requireQuantities(in.Single, in.Double); err != nil {
		return Entry{}, b.reject(err)
	}
	if in.RateSingle.IsNegative() || in.RateDouble.IsNegative() {
		return Entry{}, b.reject(invalid("rate", "rates cannot be negative"))
	}

	e := Entry{
		Kind:       KindBoardWork,
		Date:       in.Date,
		Names:      names,
		Single:     in.Single,
		Double:     in.Double,
		RateSingle: in.RateSingle,
		RateDouble: in.RateDouble,
		Total:      in.Single.Mul(in.RateSingle).Add(in.Double.Mul(in.RateDouble)),
		Note:       in.Note,
	}
	return b.addEntry(ctx, e), nil
}

// AddUserWork credits each named worker rateSingle*s + rateDouble*d at
// their current rates. The per-worker amount is stored on the entry.
func (b *Book) AddUserWork(ctx context.Context, in UserWorkInput) (Entry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	names := cleanNames(in.Names)
	if err := requireWorkers(names); err != nil {
		return Entry{}, b.reject(err)
	}
	if err := requireQuantities(in.Single, in.Double); err != nil {
		return Entry{}, b.reject(err)
	}

	rates := b.loadWorkerRates(ctx)
	shares := make(map[string]decimal.Decimal, len(names))
	total := decimal.Zero
	for _, name := range names {
		rate, ok := findRate(rates, name)
		if !ok {
			return Entry{}, b.reject(invalid("names", "no rate set for worker "+name))
		}
		share := in.Single.Mul(rate.RateSingle).Add(in.Double.Mul(rate.RateDouble))
		shares[name] = share
		total = total.Add(share)
	}

	e := Entry{
		Kind:   KindUserWork,
		Date:   in.Date,
		Names:  names,
		Single: in.Single,
		Double: in.Double,
		Total:  total,
		Shares: shares,
		Note:   in.Note,
	}
	return b.addEntry(ctx, e), nil
}

// AddNasta splits a snack expense equally, rounded to cents, and charges
// each named worker that share.
func (b *Book) AddNasta(ctx context.Context, in ExpenseInput) (Entry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	names, err := validateExpense(in)
	if err != nil {
		return Entry{}, b.reject(err)
	}

	perHead := EqualSplit(in.Amount, len(names))
	e := Entry{
		Kind:    KindNasta,
		Date:    in.Date,
		Names:   names,
		Amount:  in.Amount,
		Total:   in.Amount,
		PerHead: &perHead,
		Note:    in.Note,
	}
	return b.addEntry(ctx, e), nil
}

// AddLoan charges each named worker amount/n. The share is not rounded.
func (b *Book) AddLoan(ctx context.Context, in ExpenseInput) (Entry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	names, err := validateExpense(in)
	if err != nil {
		return Entry{}, b.reject(err)
	}

	perHead := in.Amount.Div(decimal.NewFromInt(int64(len(names))))
	e := Entry{
		Kind:    KindLoan,
		Date:    in.Date,
		Names:   names,
		Amount:  in.Amount,
		Total:   in.Amount,
		PerHead: &perHead,
		Note:    in.Note,
	}
	return b.addEntry(ctx, e), nil
}

func (b *Book) addEntry(ctx context.Context, e Entry) Entry {
	now := b.now()
	if e.Date == "" {
		e.Date = now.Format(dateLayout)
	}

	entries := b.loadEntries(ctx, e.Kind)
	e.ID = now.UnixMilli()
	if len(entries) > 0 && entries[0].ID >= e.ID {
		e.ID = entries[0].ID + 1
	}

	b.saveEntries(ctx, e.Kind, append([]Entry{e}, entries...))

	if e.Kind != KindBoardWork {
		accts := b.loadAccounts(ctx)
		accts.Apply(e)
		Set(ctx, b.storage, KeyAccounts, accts)
	}

	b.log.WithFields(entryFields(e)).Info("entry created")
	b.notify.Success(fmt.Sprintf("%s entry saved", e.Kind))
	return e
}

func requireWorkers(names []string) error {
	if len(names) == 0 {
		return invalid("names", "select at least one worker")
	}
	return nil
}

func requireQuantities(single, double decimal.Decimal) error {
	if single.IsNegative() || double.IsNegative() {
		return invalid("quantity", "quantities cannot be negative")
	}
	if !single.IsPositive() && !double.IsPositive() {
		return invalid("quantity", "enter a quantity greater than zero")
	}
	return nil
}

func validateExpense(in ExpenseInput) ([]string, error) {
	names := cleanNames(in.Names)
	if err := requireWorkers(names); err != nil {
		return nil, err
	}
	if !in.Amount.IsPositive() {
		return nil, invalid("amount", "amount must be greater than zero")
	}
	return names, nil
}

func entryFields(e Entry) log.Fields {
	return log.Fields{"kind": e.Kind, "id": e.ID, "workers": len(e.Names)}
}

// =============================================================================
// DELETE
// =============================================================================

// DeleteEntry removes entry id from a history and reverses its effect with
// the share stored on it. An unknown id changes nothing.
func (b *Book) DeleteEntry(ctx context.Context, kind Kind, id int64) (Entry, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return Entry{}, b.reject(err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := b.loadEntries(ctx, kind)
	idx := -1
	for i, e := range entries {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Entry{}, b.reject(fmt.Errorf("%w: %s %d", ErrEntryNotFound, kind, id))
	}

	removed := entries[idx]
	remaining := append(entries[:idx:idx], entries[idx+1:]...)
	b.saveEntries(ctx, kind, remaining)

	if kind != KindBoardWork {
		accts := b.loadAccounts(ctx)
		accts.Reverse(removed)
		Set(ctx, b.storage, KeyAccounts, accts)
	}

	b.log.WithFields(entryFields(removed)).Info("entry deleted")
	b.notify.Success(fmt.Sprintf("%s entry deleted", kind))
	return removed, nil
}

// =============================================================================
// WORKER STATEMENT
// =============================================================================

// StatementLine is one entry naming the worker and its effect on them.
type StatementLine struct {
	Entry Entry
	Share decimal.Decimal // positive earns, negative deducts
}

// Statement is the worker-facing view of one account.
type Statement struct {
	Name    string
	Account Account
	Balance decimal.Decimal
	Lines   []StatementLine
}

// Statement collects the account and every entry naming name, newest first.
func (b *Book) Statement(ctx context.Context, name string) Statement {
	b.mu.Lock()
	defer b.mu.Unlock()

	acct := b.loadAccounts(ctx).Get(name)
	st := Statement{
		Name:    name,
		Account: acct,
		Balance: acct.Balance(),
		Lines:   []StatementLine{},
	}
	for _, kind := range Kinds {
		for _, e := range b.loadEntries(ctx, kind) {
			if e.HasName(name) {
				st.Lines = append(st.Lines, StatementLine{Entry: e, Share: ShareOf(e, name)})
			}
		}
	}
	sort.SliceStable(st.Lines, func(i, j int) bool {
		return st.Lines[i].Entry.ID > st.Lines[j].Entry.ID
	})
	return st
}
