package core

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/illarion/bootdb/internal/bootdb"
	"github.com/illarion/bootdb/internal/config"
	"github.com/illarion/bootdb/internal/logging"
)

var (
	ErrNotInitialized   = errors.New("bootdb not initialized")
	ErrWrongPassword    = errors.New("wrong password")
	ErrPasswordRequired = errors.New("password required")
	ErrNotSealed        = errors.New("record is not sealed")
	ErrEmptyRecord      = errors.New("record is empty")
	ErrInvalidKeySize   = errors.New("invalid key size")
	ErrInvalidSnapshot  = errors.New("snapshot is not a valid bootdb file")
	ErrIdentityMismatch = errors.New("master public key does not match private key")
)

// Store ties a bootdb database to its snapshot archive and sealing settings
type Store struct {
	path        string
	archivePath string
	iterations  int
	logger      *slog.Logger
	db          *bootdb.DB
}

// Option configures a Store
type Option func(*Store)

// WithArchive sets the snapshot archive path
func WithArchive(path string) Option {
	return func(s *Store) { s.archivePath = path }
}

// WithIterations sets PBKDF2 iterations for newly sealed records
func WithIterations(n int) Option {
	return func(s *Store) { s.iterations = n }
}

// WithLogger sets the logger passed down to the database
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New creates a Store for the database at path. Nothing is opened yet.
func New(path string, opts ...Option) *Store {
	s := &Store{
		path:        path,
		archivePath: path + config.ArchiveSuffix,
		logger:      logging.Noop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromConfig creates a Store from loaded configuration
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Store {
	return New(cfg.Path,
		WithArchive(cfg.ArchivePath()),
		WithIterations(cfg.Iterations),
		WithLogger(logger),
	)
}

// Path returns the database path
func (s *Store) Path() string {
	return s.path
}

// ArchivePath returns the snapshot archive path
func (s *Store) ArchivePath() string {
	return s.archivePath
}

// Exists reports whether the database file exists
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Init opens the database, creating it when missing.
// Returns true when a new file was created.
func (s *Store) Init() (bool, error) {
	created := !s.Exists()
	if err := s.open(); err != nil {
		return false, err
	}
	return created, nil
}

// Open opens an existing database
func (s *Store) Open() error {
	if !s.Exists() {
		return ErrNotInitialized
	}
	return s.open()
}

func (s *Store) open() error {
	if s.db != nil {
		return nil
	}
	db := bootdb.New(bootdb.WithLogger(s.logger))
	if err := db.Init(s.path); err != nil {
		db.Close()
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	s.db = db
	return nil
}

// Close releases the database handle
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// DB returns the underlying database, or nil when closed
func (s *Store) DB() *bootdb.DB {
	return s.db
}

func (s *Store) requireOpen() error {
	if s.db == nil {
		return bootdb.ErrNotOpen
	}
	return nil
}

// Header returns the database header
func (s *Store) Header() (bootdb.Header, error) {
	if err := s.requireOpen(); err != nil {
		return bootdb.Header{}, err
	}
	return s.db.Header()
}

// OwnerID returns the hex owner id of the database
func (s *Store) OwnerID() (string, error) {
	h, err := s.Header()
	if err != nil {
		return "", err
	}
	return h.OwnerIDHex(), nil
}

// Read returns n bytes of a record, or the whole block when n <= 0
func (s *Store) Read(t bootdb.RecordType, n int) ([]byte, error) {
	if err := s.requireOpen(); err != nil {
		return nil, err
	}
	if n <= 0 {
		n = bootdb.BlockSize
	}
	return s.db.ReadRecordN(t, n)
}

// Write stores data in a record slot
func (s *Store) Write(t bootdb.RecordType, data []byte) error {
	if err := s.requireOpen(); err != nil {
		return err
	}
	return s.db.WriteRecord(t, data)
}

// Clear destroys all records and assigns a new owner id
func (s *Store) Clear() error {
	if err := s.requireOpen(); err != nil {
		return err
	}
	return s.db.Clear()
}
