/*
migrate.go - Storage schema versions

PURPOSE:
  Brings whatever an older app version left in the store up to the
  current layout. Runs once at process start, before any ledger command.

STEPS (run when storageVersion < target, strictly in order):
  1  accounts key       worker_accounts -> accounts
  2  histories          keyed objects -> lists (key becomes a missing id),
                        legacy name fields -> names
  3  defaults           workers, accounts, histories, company_reports exist
  4  rates + selection  legacy rate map -> worker_rates, selection from roster
  5  report types       "taken" -> "payment", keyed reports -> list

CONTRACT:
  - Every step is idempotent. A crash after a step but before the counter
    is written just runs it again.
  - Steps never delete user data. A value that cannot be decoded is left
    as it was.
  - storageVersion is written once, after all applicable steps.
*/
package hisab

import (
	"context"
	"encoding/json"
	"strconv"

	log "github.com/sirupsen/logrus"
)

// CurrentStorageVersion is the version written after a full migration.
const CurrentStorageVersion = 5

type migrationStep struct {
	target int
	name   string
	apply  func(b *Book, ctx context.Context)
}

var migrationSteps = []migrationStep{
	{target: 1, name: "rename accounts key", apply: (*Book).migrateAccountsKey},
	{target: 2, name: "normalize histories", apply: (*Book).migrateHistories},
	{target: 3, name: "ensure defaults", apply: (*Book).migrateDefaults},
	{target: 4, name: "unify rates and selection", apply: (*Book).migrateRates},
	{target: 5, name: "normalize report types", apply: (*Book).migrateReportTypes},
}

// StorageVersion returns the persisted schema version.
func (b *Book) StorageVersion(ctx context.Context) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Get(ctx, b.storage, KeyStorageVersion, 0)
}

// Migrate runs every step above the stored version and returns the
// resulting version.
func (b *Book) Migrate(ctx context.Context) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	from := Get(ctx, b.storage, KeyStorageVersion, 0)
	version := from
	for _, step := range migrationSteps {
		if version >= step.target {
			continue
		}
		step.apply(b, ctx)
		b.log.WithFields(log.Fields{"step": step.target, "name": step.name}).Info("storage migration applied")
		version = step.target
	}

	if version != from {
		Set(ctx, b.storage, KeyStorageVersion, version)
		b.log.WithFields(log.Fields{"from": from, "to": version}).Info("storage migrated")
	}
	return version
}

// =============================================================================
// STEPS
// =============================================================================

func (b *Book) migrateAccountsKey(ctx context.Context) {
	legacy, ok := b.storage.raw(ctx, keyLegacyAccounts)
	if !ok || b.storage.Has(ctx, KeyAccounts) {
		return
	}
	b.storage.setRaw(ctx, KeyAccounts, legacy)
	if b.storage.Has(ctx, KeyAccounts) {
		b.storage.Remove(ctx, keyLegacyAccounts)
	}
}

// historyDoc decodes the histories document, or returns false if it is
// absent or not an object.
func (b *Book) historyDoc(ctx context.Context) (map[string]json.RawMessage, bool) {
	raw, ok := b.storage.raw(ctx, KeyHistories)
	if !ok {
		return nil, false
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
		b.log.WithField("error", err).Warn("histories is not an object, leaving it untouched")
		return nil, false
	}
	return doc, true
}

func (b *Book) migrateHistories(ctx context.Context) {
	doc, ok := b.historyDoc(ctx)
	if !ok {
		return
	}

	logger := b.log.WithField("step", 2)
	for _, kind := range Kinds {
		raw, ok := doc[string(kind)]
		if !ok {
			continue
		}
		entries, total := decodeEntries(logger, kind, raw)
		if len(entries) != total {
			logger.WithField("history", kind).Warn("history has undecodable entries, leaving it untouched")
			continue
		}

		data, err := json.Marshal(entries)
		if err != nil {
			logger.WithFields(log.Fields{"history": kind, "error": err}).Error("failed to encode history")
			continue
		}
		doc[string(kind)] = data
	}
	Set(ctx, b.storage, KeyHistories, doc)
}

func (b *Book) migrateDefaults(ctx context.Context) {
	if !b.storage.Has(ctx, KeyWorkers) {
		Set(ctx, b.storage, KeyWorkers, []string{})
	}
	if !b.storage.Has(ctx, KeyAccounts) {
		Set(ctx, b.storage, KeyAccounts, Accounts{})
	}
	if !b.storage.Has(ctx, KeyCompanyReports) {
		Set(ctx, b.storage, KeyCompanyReports, []Report{})
	}

	if !b.storage.Has(ctx, KeyHistories) {
		doc := make(map[string][]Entry, len(Kinds))
		for _, kind := range Kinds {
			doc[string(kind)] = []Entry{}
		}
		Set(ctx, b.storage, KeyHistories, doc)
		return
	}

	doc, ok := b.historyDoc(ctx)
	if !ok {
		return
	}
	missing := false
	for _, kind := range Kinds {
		if _, ok := doc[string(kind)]; !ok {
			doc[string(kind)] = json.RawMessage("[]")
			missing = true
		}
	}
	if missing {
		Set(ctx, b.storage, KeyHistories, doc)
	}
}

func (b *Book) migrateRates(ctx context.Context) {
	rates := b.loadWorkerRates(ctx)
	if !b.storage.Has(ctx, KeyWorkerRates) {
		Set(ctx, b.storage, KeyWorkerRates, rates)
	}
	if !b.storage.Has(ctx, KeySelectedWorkers) {
		Set(ctx, b.storage, KeySelectedWorkers, GetArray[string](ctx, b.storage, KeyWorkers))
	}
}

func (b *Book) migrateReportTypes(ctx context.Context) {
	raw, ok := b.storage.raw(ctx, KeyCompanyReports)
	if !ok {
		return
	}

	logger := b.log.WithField("step", 5)
	elems := listElements(logger, raw)
	reports := decodeList[map[string]json.RawMessage](logger, raw)
	if len(reports) != len(elems) {
		logger.Warn("company reports have undecodable entries, leaving them untouched")
		return
	}

	changed := raw[0] != '['
	taken, _ := json.Marshal(reportLegacyTaken)
	payment, _ := json.Marshal(ReportPayment)
	for i, r := range reports {
		if _, hasID := r["id"]; !hasID && elems[i].Key != "" {
			if _, err := strconv.ParseInt(elems[i].Key, 10, 64); err == nil {
				r["id"] = json.RawMessage(elems[i].Key)
			}
		}
		if string(r["type"]) == string(taken) {
			r["type"] = payment
			changed = true
		}
	}
	if changed {
		Set(ctx, b.storage, KeyCompanyReports, reports)
	}
}
