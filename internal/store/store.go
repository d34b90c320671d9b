// Package store owns the catalog database handle: it opens the SQLite file,
// evolves the schema, verifies structural integrity and seeds the reserved
// queue playlist.
package store

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	_ "modernc.org/sqlite" // SQLite driver

	dbutil "github.com/llehouerou/songbook/internal/db"
)

const (
	appName    = "songbook"
	dbFileName = "catalog.db"

	defaultBusyTimeout = 5000
)

// Store is the process-wide catalog handle. Construct it once at startup and
// pass it to the services that need it.
type Store struct {
	db      *sqlx.DB
	path    string
	base    *slog.Logger
	log     *slog.Logger
	metrics *Metrics
	now     func() time.Time
}

type options struct {
	logger      *slog.Logger
	registerer  prometheus.Registerer
	busyTimeout int
	now         func() time.Time
}

// Option configures Open.
type Option func(*options)

// WithLogger sets the logger used for schema and recovery events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRegisterer registers the store metrics on r instead of a private registry.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(o *options) { o.registerer = r }
}

// WithBusyTimeout sets how long SQLite waits on a locked database, in milliseconds.
func WithBusyTimeout(ms int) Option {
	return func(o *options) { o.busyTimeout = ms }
}

// WithClock overrides the time source used for created_at/updated_at columns.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// DefaultPath returns the catalog location under the XDG data directory.
func DefaultPath() (string, error) {
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}

// Open opens or creates the catalog at path (DefaultPath when empty),
// upgrades the schema, verifies it and makes sure the queue playlist exists.
func Open(path string, opts ...Option) (*Store, error) {
	o := options{
		logger:      slog.Default(),
		busyTimeout: defaultBusyTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registerer == nil {
		o.registerer = prometheus.NewRegistry()
	}

	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("resolve catalog path: %w", err)
		}
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create catalog dir: %w", err)
	}

	db, err := sqlx.Open("sqlite", dsn(path, o.busyTimeout))
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping catalog: %w", err)
	}

	metrics, err := newMetrics(o.registerer)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{
		db:      db,
		path:    path,
		base:    o.logger,
		log:     o.logger.With("component", "store"),
		metrics: metrics,
		now:     o.now,
	}

	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// dsn builds a modernc.org/sqlite DSN. Pragmas are applied to every pooled
// connection, and writers take the lock at BEGIN.
func dsn(path string, busyTimeout int) string {
	return fmt.Sprintf(
		"%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_txlock=immediate",
		path, busyTimeout,
	)
}

func (s *Store) init() error {
	version, err := s.CurrentVersion()
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > LatestVersion {
		return fmt.Errorf("%w: catalog is at version %d, this build supports %d",
			dbutil.ErrDowngrade, version, LatestVersion)
	}
	if version < LatestVersion {
		if err := s.Upgrade(version, LatestVersion); err != nil {
			return err
		}
	}

	if _, err := s.VerifyIntegrity(); err != nil {
		return err
	}

	return EnsureQueue(s.db, s.Now())
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the shared database handle.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Path returns the catalog file location.
func (s *Store) Path() string {
	return s.path
}

// Logger returns a logger tagged with the given component name.
func (s *Store) Logger(component string) *slog.Logger {
	return s.base.With("component", component)
}

// Metrics returns the store's counters.
func (s *Store) Metrics() *Metrics {
	return s.metrics
}

// Now returns the current time as unix seconds, the unit of every timestamp column.
func (s *Store) Now() int64 {
	return s.now().Unix()
}
