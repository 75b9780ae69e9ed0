package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/RichardKnop/ajxgate/internal/engine"
)

const (
	driverName    = "sqlite"
	fileExtension = ".db"
)

var databaseNameRegexp = regexp.MustCompile(`^\w+$`)

var (
	ErrInvalidDatabaseName = errors.New("invalid database name")
	ErrDatabaseNotFound    = errors.New("database does not exist")
)

// Engine keeps one sqlite file per database under a data directory.
type Engine struct {
	dataDir string
	logger  *zap.Logger
}

func New(dataDir string, logger *zap.Logger) (*Engine, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Engine{
		dataDir: dataDir,
		logger:  logger,
	}, nil
}

func (e *Engine) Open(ctx context.Context, name string) (engine.Database, error) {
	return e.open(ctx, name)
}

func (e *Engine) open(ctx context.Context, name string) (*Database, error) {
	path, err := e.path(name)
	if err != nil {
		return nil, err
	}

	// An empty file is a valid sqlite database, creating it up front makes
	// the database visible before anything is written to it.
	aFile, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	if err := aFile.Close(); err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	e.logger.Debug("opened database", zap.String("name", name), zap.String("path", path))

	return &Database{
		name:   name,
		db:     db,
		logger: e.logger,
	}, nil
}

func (e *Engine) DropDatabase(ctx context.Context, name string) (any, error) {
	path, err := e.path(name)
	if err != nil {
		return nil, err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDatabaseNotFound, name)
		}
		return nil, err
	}
	e.logger.Debug("dropped database", zap.String("name", name))
	return fmt.Sprintf("Database dropped: %s", name), nil
}

func (e *Engine) DescribeDatabase(ctx context.Context, current engine.Database, name string) (any, error) {
	if aDatabase, ok := current.(*Database); ok && aDatabase.Name() == name {
		return aDatabase.describe(ctx)
	}

	path, err := e.path(name)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDatabaseNotFound, name)
		}
		return nil, err
	}

	aDatabase, err := e.open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer aDatabase.Close()

	return aDatabase.describe(ctx)
}

func (e *Engine) path(name string) (string, error) {
	if !databaseNameRegexp.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidDatabaseName, name)
	}
	return filepath.Join(e.dataDir, name+fileExtension), nil
}
