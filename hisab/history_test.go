package hisab_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/smart-hisab/hisab"
)

func seededRoster() map[string]string {
	return map[string]string{
		"workers": `["A","B","C"]`,
		"worker_rates": `[{"name":"A","rateSingle":"10","rateDouble":"20","locked":false},
		                  {"name":"B","rateSingle":"12.5","rateDouble":"25","locked":true},
		                  {"name":"C","rateSingle":"8","rateDouble":"16","locked":false}]`,
	}
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestNasta_CreateThenDelete_ReversesStoredShare(t *testing.T) {
	// GIVEN: Three workers with no balance
	b := newTestBook(t, seededRoster())
	ctx := context.Background()

	// WHEN: A nasta of 100 is split across A, B, C
	e, err := b.AddNasta(ctx, hisab.ExpenseInput{Names: []string{"A", "B", "C"}, Amount: dec("100")})
	require.NoError(t, err)

	// THEN: Each is charged 33.33
	require.NotNil(t, e.PerHead)
	decEqual(t, "33.33", *e.PerHead)
	for _, n := range []string{"A", "B", "C"} {
		acct := b.Account(ctx, n)
		decEqual(t, "33.33", acct.Cost, n)
		decEqual(t, "33.33", acct.Nasta, n)
	}

	// WHEN: The entry is deleted
	_, err = b.DeleteEntry(ctx, hisab.KindNasta, e.ID)
	require.NoError(t, err)

	// THEN: Each cost drops by exactly 33.33
	for _, n := range []string{"A", "B", "C"} {
		acct := b.Account(ctx, n)
		decEqual(t, "0", acct.Cost, n)
		decEqual(t, "0", acct.Nasta, n)
	}
	entries, err := b.Entries(ctx, hisab.KindNasta)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUserWork_BillUsesWorkerRates(t *testing.T) {
	// GIVEN: Worker A at rateSingle 10, rateDouble 20
	b := newTestBook(t, seededRoster())
	ctx := context.Background()

	// WHEN: Recording s=2, d=1 for A
	e, err := b.AddUserWork(ctx, hisab.UserWorkInput{Names: []string{"A"}, Single: dec("2"), Double: dec("1")})
	require.NoError(t, err)

	// THEN: A's bill grows by 2*10 + 1*20
	decEqual(t, "40", b.Account(ctx, "A").Bill)
	decEqual(t, "40", e.Shares["A"])
	decEqual(t, "40", e.Total)
}

func TestUserWork_DeleteUsesStoredShareNotCurrentRate(t *testing.T) {
	b := newTestBook(t, seededRoster())
	ctx := context.Background()

	e, err := b.AddUserWork(ctx, hisab.UserWorkInput{Names: []string{"A", "C"}, Single: dec("3")})
	require.NoError(t, err)
	decEqual(t, "30", b.Account(ctx, "A").Bill)
	decEqual(t, "24", b.Account(ctx, "C").Bill)

	// Rate changes after the entry was written
	_, err = b.SetWorkerRate(ctx, "A", dec("100"), dec("200"))
	require.NoError(t, err)

	_, err = b.DeleteEntry(ctx, hisab.KindUserWork, e.ID)
	require.NoError(t, err)

	decEqual(t, "0", b.Account(ctx, "A").Bill)
	decEqual(t, "0", b.Account(ctx, "C").Bill)
}

func TestUserWork_WorkerWithoutRateIsRejected(t *testing.T) {
	b := newTestBook(t, seededRoster())
	ctx := context.Background()
	before := b.mem.Snapshot()

	_, err := b.AddUserWork(ctx, hisab.UserWorkInput{Names: []string{"A", "Ghost"}, Single: dec("1")})

	assert.ErrorIs(t, err, hisab.ErrValidation)
	assert.Equal(t, before, b.mem.Snapshot())
}

func TestLoan_SplitIsNotRounded(t *testing.T) {
	b := newTestBook(t, seededRoster())
	ctx := context.Background()

	e, err := b.AddLoan(ctx, hisab.ExpenseInput{Names: []string{"A", "B", "C"}, Amount: dec("100")})
	require.NoError(t, err)

	require.NotNil(t, e.PerHead)
	assert.False(t, e.PerHead.Equal(dec("33.33")), "loan share keeps full precision")
	assert.True(t, b.Account(ctx, "A").Cost.Equal(*e.PerHead))
	decEqual(t, "0", b.Account(ctx, "A").Nasta)

	_, err = b.DeleteEntry(ctx, hisab.KindLoan, e.ID)
	require.NoError(t, err)
	for _, n := range []string{"A", "B", "C"} {
		decEqual(t, "0", b.Account(ctx, n).Cost, n)
	}
}

func TestBoardWork_LogsWithoutLedgerEffect(t *testing.T) {
	b := newTestBook(t, seededRoster())
	ctx := context.Background()

	e, err := b.AddBoardWork(ctx, hisab.BoardWorkInput{
		Names:      []string{"A", "B"},
		Single:     dec("100"),
		Double:     dec("10"),
		RateSingle: dec("2"),
		RateDouble: dec("3"),
	})
	require.NoError(t, err)

	decEqual(t, "230", e.Total)
	assert.NotContains(t, b.mem.Snapshot(), "accounts")

	_, err = b.DeleteEntry(ctx, hisab.KindBoardWork, e.ID)
	require.NoError(t, err)
	assert.NotContains(t, b.mem.Snapshot(), "accounts")
}

// =============================================================================
// DELETE EDGE CASES
// =============================================================================

func TestDeleteEntry_UnknownIDChangesNothing(t *testing.T) {
	// GIVEN: A book with one nasta entry
	b := newTestBook(t, seededRoster())
	ctx := context.Background()
	_, err := b.AddNasta(ctx, hisab.ExpenseInput{Names: []string{"A", "B"}, Amount: dec("10")})
	require.NoError(t, err)
	before := b.mem.Snapshot()

	// WHEN: Deleting an id that is not in the history
	_, err = b.DeleteEntry(ctx, hisab.KindNasta, 42)

	// THEN: Not found, and histories and accounts are byte-for-byte unchanged
	assert.ErrorIs(t, err, hisab.ErrEntryNotFound)
	assert.True(t, hisab.IsNotFound(err))
	after := b.mem.Snapshot()
	assert.Equal(t, before["histories"], after["histories"])
	assert.Equal(t, before["accounts"], after["accounts"])
	assert.Equal(t, before, after)
}

func TestUnknownKind_IsRejectedWithNotification(t *testing.T) {
	b := newTestBook(t, nil)
	ctx := context.Background()

	_, err := b.DeleteEntry(ctx, hisab.Kind("salary"), 1)
	assert.ErrorIs(t, err, hisab.ErrUnknownKind)

	_, err = b.Entries(ctx, hisab.Kind("salary"))
	assert.ErrorIs(t, err, hisab.ErrUnknownKind)

	assert.Len(t, b.notify.errors, 2)
}

func TestKeyedHistory_IDsComeFromKeys(t *testing.T) {
	// GIVEN: A legacy keyed-by-id history whose entries carry no id field,
	// and accounts that already include their effect
	b := newTestBook(t, map[string]string{
		"histories": `{"nasta":{
			"1700000000001":{"names":["A"],"amount":"10","perHead":"10"},
			"1700000000002":{"names":["B"],"amount":"6","perHead":"6"}}}`,
		"accounts": `{"A":{"bill":"0","cost":"10","nasta":"10"},"B":{"bill":"0","cost":"6","nasta":"6"}}`,
	})
	ctx := context.Background()

	// WHEN: Loading the history
	entries, err := b.Entries(ctx, hisab.KindNasta)
	require.NoError(t, err)

	// THEN: Each entry takes its key as id, newest first
	require.Len(t, entries, 2)
	assert.Equal(t, int64(1700000000002), entries[0].ID)
	assert.Equal(t, []string{"B"}, entries[0].Names)
	assert.Equal(t, int64(1700000000001), entries[1].ID)

	// WHEN: Deleting by the key id
	removed, err := b.DeleteEntry(ctx, hisab.KindNasta, 1700000000002)
	require.NoError(t, err)

	// THEN: Only that entry is gone and its effect is reversed
	assert.Equal(t, []string{"B"}, removed.Names)
	decEqual(t, "0", b.Account(ctx, "B").Cost)
	decEqual(t, "10", b.Account(ctx, "A").Cost)
	entries, err = b.Entries(ctx, hisab.KindNasta)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1700000000001), entries[0].ID)
}

func TestKeyedHistory_InnerIDWins(t *testing.T) {
	b := newTestBook(t, map[string]string{
		"histories": `{"loan":{"5":{"id":9,"names":["A"],"amount":"1"}}}`,
	})

	entries, err := b.Entries(context.Background(), hisab.KindLoan)
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, int64(9), entries[0].ID)
}

func TestDeleteEntry_KeepsUnmodelledFieldsOfSiblings(t *testing.T) {
	b := newTestBook(t, map[string]string{
		"histories": `{"loan":[{"id":2,"names":["A"],"amount":"4","receipt":"r-17"},
		                       {"id":1,"names":["B"],"amount":"3","timestamp":"2024-01-01T10:00"}]}`,
	})
	ctx := context.Background()

	_, err := b.DeleteEntry(ctx, hisab.KindLoan, 1)
	require.NoError(t, err)

	var doc map[string][]map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(b.mem.Snapshot()["histories"]), &doc))
	require.Len(t, doc["loan"], 1)
	assert.JSONEq(t, `"r-17"`, string(doc["loan"][0]["receipt"]))
}

func TestDeleteEntry_LegacyEntryWithoutShares(t *testing.T) {
	// GIVEN: A legacy keyed-object history with a single "name" field and
	// an account that already includes its effect
	b := newTestBook(t, map[string]string{
		"histories": `{"nasta":{"1700000000000":{"id":"1700000000000","name":"A","amount":10}}}`,
		"accounts":  `{"A":{"bill":"50","cost":"10","nasta":"10"}}`,
	})
	ctx := context.Background()

	removed, err := b.DeleteEntry(ctx, hisab.KindNasta, 1700000000000)
	require.NoError(t, err)

	assert.Equal(t, []string{"A"}, removed.Names)
	decEqual(t, "0", b.Account(ctx, "A").Cost)
	decEqual(t, "50", b.Account(ctx, "A").Bill)
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestCreate_ValidationWritesNothing(t *testing.T) {
	tests := []struct {
		name string
		run  func(b *testBook) error
	}{
		{"nasta without names", func(b *testBook) error {
			_, err := b.AddNasta(context.Background(), hisab.ExpenseInput{Names: []string{" ", ""}, Amount: dec("10")})
			return err
		}},
		{"nasta zero amount", func(b *testBook) error {
			_, err := b.AddNasta(context.Background(), hisab.ExpenseInput{Names: []string{"A"}})
			return err
		}},
		{"loan negative amount", func(b *testBook) error {
			_, err := b.AddLoan(context.Background(), hisab.ExpenseInput{Names: []string{"A"}, Amount: dec("-5")})
			return err
		}},
		{"user-work without quantity", func(b *testBook) error {
			_, err := b.AddUserWork(context.Background(), hisab.UserWorkInput{Names: []string{"A"}})
			return err
		}},
		{"board-work negative quantity", func(b *testBook) error {
			_, err := b.AddBoardWork(context.Background(), hisab.BoardWorkInput{Names: []string{"A"}, Single: dec("-1"), Double: dec("2")})
			return err
		}},
		{"board-work negative rate", func(b *testBook) error {
			_, err := b.AddBoardWork(context.Background(), hisab.BoardWorkInput{Names: []string{"A"}, Single: dec("1"), RateSingle: dec("-1")})
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBook(t, seededRoster())
			before := b.mem.Snapshot()

			err := tt.run(b)

			var vErr *hisab.ValidationError
			assert.ErrorAs(t, err, &vErr)
			assert.Equal(t, before, b.mem.Snapshot())
			assert.Len(t, b.notify.errors, 1)
		})
	}
}

// =============================================================================
// IDENTITY AND ORDER
// =============================================================================

func TestAddEntry_IDsUniqueAndNewestFirst(t *testing.T) {
	// GIVEN: A fixed clock, so every entry lands in the same millisecond
	b := newTestBook(t, seededRoster())
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 3; i++ {
		e, err := b.AddNasta(ctx, hisab.ExpenseInput{Names: []string{"A"}, Amount: dec("1")})
		require.NoError(t, err)
		ids = append(ids, e.ID)
	}

	assert.Equal(t, testNow.UnixMilli(), ids[0])
	assert.Equal(t, ids[0]+1, ids[1])
	assert.Equal(t, ids[1]+1, ids[2])

	entries, err := b.Entries(ctx, hisab.KindNasta)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, ids[2], entries[0].ID)
	assert.Equal(t, ids[0], entries[2].ID)
	assert.Equal(t, "2025-03-10", entries[0].Date)
}

func TestAddEntry_KeepsUnknownHistoryKeys(t *testing.T) {
	b := newTestBook(t, map[string]string{
		"workers":   `["A"]`,
		"histories": `{"nasta":[],"salary":[{"id":1}]}`,
	})

	_, err := b.AddNasta(context.Background(), hisab.ExpenseInput{Names: []string{"A"}, Amount: dec("3")})
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(b.mem.Snapshot()["histories"]), &doc))
	assert.JSONEq(t, `[{"id":1}]`, string(doc["salary"]))
}

// =============================================================================
// STATEMENT
// =============================================================================

func TestStatement(t *testing.T) {
	b := newTestBook(t, seededRoster())
	ctx := context.Background()

	_, err := b.AddUserWork(ctx, hisab.UserWorkInput{Names: []string{"A"}, Single: dec("2"), Double: dec("1")})
	require.NoError(t, err)
	b.advance(time.Minute)
	_, err = b.AddNasta(ctx, hisab.ExpenseInput{Names: []string{"A", "B"}, Amount: dec("10")})
	require.NoError(t, err)
	b.advance(time.Minute)
	_, err = b.AddLoan(ctx, hisab.ExpenseInput{Names: []string{"B"}, Amount: dec("7")})
	require.NoError(t, err)

	st := b.Statement(ctx, "A")

	decEqual(t, "40", st.Account.Bill)
	decEqual(t, "5", st.Account.Cost)
	decEqual(t, "35", st.Balance)
	require.Len(t, st.Lines, 2)
	assert.Equal(t, hisab.KindNasta, st.Lines[0].Entry.Kind)
	decEqual(t, "-5", st.Lines[0].Share)
	assert.Equal(t, hisab.KindUserWork, st.Lines[1].Entry.Kind)
	decEqual(t, "40", st.Lines[1].Share)
}
