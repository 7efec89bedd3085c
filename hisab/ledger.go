/*
ledger.go - Account transitions for each entry kind

PURPOSE:
  The accounts map is mutated only here, and only as the effect of a
  history entry being created (Apply) or deleted (Reverse).

TRANSITIONS:
  Kind        Apply                               Reverse
  ---------   ---------------------------------   ---------------------------
  boardWork   none                                none
  userWork    bill  += shares[name]               bill  -= shares[name]
  nasta       cost  += perHead, nasta += perHead  cost  -= perHead, nasta -= perHead
  loan        cost  += perHead                    cost  -= perHead

INVARIANT:
  Apply(e) followed by Reverse(e) leaves every account exactly as before.
  Both directions read the share stored on the entry, never the current
  rates. Legacy entries without a stored share fall back to the same
  derivation in both directions, so the pair still cancels.

LOAN SHARES:
  A loan splits amount/n without rounding, unlike nasta which rounds to
  cents through EqualSplit. Stored as computed.
*/
package hisab

import (
	"context"

	"github.com/shopspring/decimal"
)

// Get returns the account for name, zero if it has none.
func (a Accounts) Get(name string) Account {
	return a[name]
}

// Apply adds the effect of e to every named worker.
func (a Accounts) Apply(e Entry) {
	a.adjust(e, false)
}

// Reverse removes the effect of e from every named worker.
func (a Accounts) Reverse(e Entry) {
	a.adjust(e, true)
}

func (a Accounts) adjust(e Entry, reverse bool) {
	if e.Kind == KindBoardWork {
		return
	}
	signed := func(d decimal.Decimal) decimal.Decimal {
		if reverse {
			return d.Neg()
		}
		return d
	}

	for _, name := range e.Names {
		acct := a[name]
		switch e.Kind {
		case KindUserWork:
			acct.Bill = acct.Bill.Add(signed(BillShare(e, name)))
		case KindNasta:
			share := signed(PerHeadAmount(e, decimal.Zero, 0))
			acct.Cost = acct.Cost.Add(share)
			acct.Nasta = acct.Nasta.Add(share)
		case KindLoan:
			acct.Cost = acct.Cost.Add(signed(LoanShare(e)))
		default:
			return
		}
		a[name] = acct
	}
}

// BillShare is what a user-work entry credits to name.
func BillShare(e Entry, name string) decimal.Decimal {
	if share, ok := e.Shares[name]; ok {
		return share
	}
	return PerHeadAmount(e, e.Total, len(e.Names))
}

// LoanShare is what a loan entry charges each named worker.
func LoanShare(e Entry) decimal.Decimal {
	if e.PerHead != nil {
		return *e.PerHead
	}
	if len(e.Names) == 0 {
		return decimal.Zero
	}
	return e.Amount.Div(decimal.NewFromInt(int64(len(e.Names))))
}

// ShareOf is the signed effect e has on name's balance: positive for
// earnings, negative for deductions, zero for board-work.
func ShareOf(e Entry, name string) decimal.Decimal {
	if !e.HasName(name) {
		return decimal.Zero
	}
	switch e.Kind {
	case KindUserWork:
		return BillShare(e, name)
	case KindNasta:
		return PerHeadAmount(e, decimal.Zero, 0).Neg()
	case KindLoan:
		return LoanShare(e).Neg()
	}
	return decimal.Zero
}

// =============================================================================
// PERSISTENCE
// =============================================================================

func (b *Book) loadAccounts(ctx context.Context) Accounts {
	accts := Get(ctx, b.storage, KeyAccounts, Accounts{})
	if accts == nil {
		accts = Accounts{}
	}
	return accts
}

// Accounts returns every stored account.
func (b *Book) Accounts(ctx context.Context) Accounts {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loadAccounts(ctx)
}

// Account returns the account of one worker.
func (b *Book) Account(ctx context.Context, name string) Account {
	return b.Accounts(ctx).Get(name)
}
