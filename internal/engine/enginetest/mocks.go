package enginetest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/RichardKnop/ajxgate/internal/engine"
)

type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) Open(ctx context.Context, name string) (engine.Database, error) {
	args := m.Called(ctx, name)
	db, _ := args.Get(0).(engine.Database)
	return db, args.Error(1)
}

func (m *MockEngine) DropDatabase(ctx context.Context, name string) (any, error) {
	args := m.Called(ctx, name)
	return args.Get(0), args.Error(1)
}

func (m *MockEngine) DescribeDatabase(ctx context.Context, current engine.Database, name string) (any, error) {
	args := m.Called(ctx, current, name)
	return args.Get(0), args.Error(1)
}

type MockDatabase struct {
	mock.Mock
}

func (m *MockDatabase) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockDatabase) CreateTable(ctx context.Context, req engine.CreateTableRequest) (any, error) {
	args := m.Called(ctx, req)
	return args.Get(0), args.Error(1)
}

func (m *MockDatabase) Insert(ctx context.Context, req engine.InsertRequest) (any, error) {
	args := m.Called(ctx, req)
	return args.Get(0), args.Error(1)
}

func (m *MockDatabase) Find(ctx context.Context, req engine.FindRequest) (any, error) {
	args := m.Called(ctx, req)
	return args.Get(0), args.Error(1)
}

func (m *MockDatabase) ShowTable(ctx context.Context, req engine.ShowTableRequest) (any, error) {
	args := m.Called(ctx, req)
	return args.Get(0), args.Error(1)
}

func (m *MockDatabase) DescribeTable(ctx context.Context, tableName string) (any, error) {
	args := m.Called(ctx, tableName)
	return args.Get(0), args.Error(1)
}

func (m *MockDatabase) DropTable(ctx context.Context, tableName string) (any, error) {
	args := m.Called(ctx, tableName)
	return args.Get(0), args.Error(1)
}

func (m *MockDatabase) Update(ctx context.Context, req engine.UpdateRequest) (any, error) {
	args := m.Called(ctx, req)
	return args.Get(0), args.Error(1)
}

func (m *MockDatabase) Delete(ctx context.Context, req engine.DeleteRequest) (any, error) {
	args := m.Called(ctx, req)
	return args.Get(0), args.Error(1)
}

func (m *MockDatabase) Close() error {
	args := m.Called()
	return args.Error(0)
}
