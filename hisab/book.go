package hisab

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Book is the ledger core: rates, roster, accounts, histories and reports
// over one Storage. Commands are serialized by a mutex; each one is a short
// read-modify-write of a few keys.
type Book struct {
	storage *Storage
	notify  Notifier
	log     log.FieldLogger
	now     func() time.Time

	mu sync.Mutex
}

// Option configures a Book.
type Option func(*Book)

// WithNotifier sets where user-facing messages go.
func WithNotifier(n Notifier) Option {
	return func(b *Book) { b.notify = n }
}

// WithClock overrides time.Now, used for entry ids.
func WithClock(now func() time.Time) Option {
	return func(b *Book) { b.now = now }
}

// WithLogger sets the logger for the book and its storage.
func WithLogger(l log.FieldLogger) Option {
	return func(b *Book) { b.log = l }
}

// NewBook creates a Book over store.
func NewBook(store Store, opts ...Option) *Book {
	b := &Book{
		log: log.StandardLogger(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.notify == nil {
		b.notify = LogNotifier{Log: b.log}
	}
	b.storage = NewStorage(store, b.log)
	return b
}

// Storage exposes the accessor, mainly so callers can Subscribe.
func (b *Book) Storage() *Storage {
	return b.storage
}

// reject notifies the user of err and returns it.
func (b *Book) reject(err error) error {
	b.notify.Error(err.Error())
	return err
}
