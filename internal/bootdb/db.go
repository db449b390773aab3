package bootdb

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/illarion/bootdb/internal/logging"
)

const FilePerm = 0600 // Owner rw only, the file holds key material

var (
	ErrNotOpen           = errors.New("database not open")
	ErrNoPath            = errors.New("database path not set")
	ErrRecordTooLarge    = errors.New("record larger than block size")
	ErrInvalidRecordType = errors.New("invalid record type")
	ErrInvalidLength     = errors.New("invalid read length")
	ErrNegativePosition  = errors.New("negative position")
	ErrShortHeader       = errors.New("short header")
)

// File is the subset of *os.File the database needs.
type File interface {
	io.ReaderAt
	io.WriterAt
	io.Closer
	Stat() (os.FileInfo, error)
}

// OpenFunc opens the backing file. It follows os.OpenFile.
type OpenFunc func(name string, flag int, perm os.FileMode) (File, error)

func openOSFile(name string, flag int, perm os.FileMode) (File, error) {
	return os.OpenFile(name, flag, perm)
}

// DB is a fixed-slot record database backed by a single file.
type DB struct {
	path string
	f    File
	pos  int64

	clock    func() time.Time
	rand     io.Reader
	logger   *slog.Logger
	openFile OpenFunc
}

// Option configures a DB.
type Option func(*DB)

// WithClock sets the time source used for header timestamps.
func WithClock(clock func() time.Time) Option {
	return func(db *DB) { db.clock = clock }
}

// WithRand sets the random source used for owner ids.
func WithRand(r io.Reader) Option {
	return func(db *DB) { db.rand = r }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(db *DB) { db.logger = logger }
}

// WithOpenFile replaces os.OpenFile for the backing file.
func WithOpenFile(open OpenFunc) Option {
	return func(db *DB) { db.openFile = open }
}

// New creates a closed DB. Call Init to open a file.
func New(opts ...Option) *DB {
	db := &DB{
		clock:    time.Now,
		rand:     rand.Reader,
		logger:   logging.Noop(),
		openFile: openOSFile,
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Init opens the database at path, creating it if needed.
// An invalid file gets a new header; if it is still invalid afterwards
// (for example, its size is not header plus whole blocks) it is cleared.
func (db *DB) Init(path string) error {
	db.path = path
	if err := db.Open(); err != nil {
		return err
	}

	valid, err := db.IsValid()
	if err != nil {
		return err
	}
	if valid {
		return nil
	}

	size, _ := db.Size()
	if size > 0 {
		db.logger.Warn("invalid database, rewriting header", "path", path, "size", size)
	}
	if err := db.WriteHeader(); err != nil {
		return err
	}

	valid, err = db.IsValid()
	if err != nil {
		return err
	}
	if !valid {
		size, _ := db.Size()
		db.logger.Warn("database still invalid after header rewrite, clearing", "path", path, "size", size)
		return db.Clear()
	}
	return nil
}

// Open (re)opens the file at the configured path, creating it if absent.
func (db *DB) Open() error {
	if db.path == "" {
		return ErrNoPath
	}
	if db.IsOpen() {
		if err := db.Close(); err != nil {
			return err
		}
	}

	f, err := db.openFile(db.path, os.O_RDWR|os.O_CREATE, FilePerm)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	db.f = f
	db.pos = 0
	db.logger.Debug("database opened", "path", db.path)
	return nil
}

// Close closes the backing file. Closing a closed DB is a no-op.
func (db *DB) Close() error {
	if db.f == nil {
		return nil
	}
	err := db.f.Close()
	db.f = nil
	return err
}

// IsOpen reports whether the backing file is open.
func (db *DB) IsOpen() bool {
	return db.f != nil
}

// Path returns the configured file path.
func (db *DB) Path() string {
	return db.path
}
