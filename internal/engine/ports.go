package engine

import (
	"context"
)

// Engine opens, drops and describes databases. Everything table-level goes
// through the Database handle returned by Open.
type Engine interface {
	Open(ctx context.Context, name string) (Database, error)
	DropDatabase(ctx context.Context, name string) (any, error)
	// DescribeDatabase receives the currently selected handle, nil when no
	// database has been initialized yet.
	DescribeDatabase(ctx context.Context, current Database, name string) (any, error)
}

type Database interface {
	Name() string
	CreateTable(ctx context.Context, req CreateTableRequest) (any, error)
	Insert(ctx context.Context, req InsertRequest) (any, error)
	Find(ctx context.Context, req FindRequest) (any, error)
	ShowTable(ctx context.Context, req ShowTableRequest) (any, error)
	DescribeTable(ctx context.Context, tableName string) (any, error)
	DropTable(ctx context.Context, tableName string) (any, error)
	Update(ctx context.Context, req UpdateRequest) (any, error)
	Delete(ctx context.Context, req DeleteRequest) (any, error)
	Close() error
}

type CreateTableRequest struct {
	TableName  string
	PrimaryKey string
	Columns    []string
}

type InsertRequest struct {
	TableName string
	// Columns is nil for positional inserts.
	Columns []string
	Values  []any
}

type FindRequest struct {
	TableName      string
	Distinct       bool
	Columns        []string
	Condition      string
	Operator       string
	ConditionValue any
	Offset         *int
	Limit          *int
}

type ShowTableRequest struct {
	TableName string
	Distinct  bool
	Columns   []string
	Offset    *int
	Limit     *int
}

type UpdateRequest struct {
	TableName      string
	Set            []string
	SetValues      []any
	Condition      string
	Operator       string
	ConditionValue any
}

type DeleteRequest struct {
	TableName      string
	Condition      string
	Operator       string
	ConditionValue any
}
