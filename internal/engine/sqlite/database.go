package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/RichardKnop/ajxgate/internal/engine"
)

// Database is a handle to a single sqlite file.
type Database struct {
	name   string
	db     *sql.DB
	logger *zap.Logger
}

func (d *Database) Name() string {
	return d.name
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) CreateTable(ctx context.Context, req engine.CreateTableRequest) (any, error) {
	if _, err := d.exec(ctx, createTableQuery(req)); err != nil {
		return nil, err
	}
	return fmt.Sprintf("Table created: %s", req.TableName), nil
}

func (d *Database) Insert(ctx context.Context, req engine.InsertRequest) (any, error) {
	if len(req.Columns) == 0 && len(req.Values) > 0 {
		columns, err := d.positionalColumns(ctx, req.TableName, len(req.Values))
		if err != nil {
			return nil, err
		}
		req.Columns = columns
	}

	query, args, err := insertQuery(req)
	if err != nil {
		return nil, err
	}
	result, err := d.exec(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return affected(result, true)
}

func (d *Database) Find(ctx context.Context, req engine.FindRequest) (any, error) {
	query, args, err := selectQuery(selectParts{
		table:     req.TableName,
		distinct:  req.Distinct,
		columns:   req.Columns,
		condition: req.Condition,
		operator:  req.Operator,
		value:     req.ConditionValue,
		offset:    req.Offset,
		limit:     req.Limit,
	})
	if err != nil {
		return nil, err
	}
	return d.query(ctx, query, args...)
}

func (d *Database) ShowTable(ctx context.Context, req engine.ShowTableRequest) (any, error) {
	query, args, err := selectQuery(selectParts{
		table:    req.TableName,
		distinct: req.Distinct,
		columns:  req.Columns,
		offset:   req.Offset,
		limit:    req.Limit,
	})
	if err != nil {
		return nil, err
	}
	return d.query(ctx, query, args...)
}

func (d *Database) DescribeTable(ctx context.Context, tableName string) (any, error) {
	info, err := d.tableInfo(ctx, tableName)
	if err != nil {
		return nil, err
	}

	columns := make([]map[string]any, 0, len(info))
	for _, aColumn := range info {
		columns = append(columns, map[string]any{
			"name":       aColumn.name,
			"primaryKey": aColumn.primaryKey,
			"notNull":    aColumn.notNull,
		})
	}
	return map[string]any{
		"table":   tableName,
		"columns": columns,
	}, nil
}

type columnInfo struct {
	name       string
	primaryKey bool
	notNull    bool
}

func (d *Database) tableInfo(ctx context.Context, tableName string) ([]columnInfo, error) {
	rows, err := d.query(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdentifier(tableName)))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no such table: %s", tableName)
	}

	info := make([]columnInfo, 0, len(rows))
	for _, aRow := range rows {
		name, _ := aRow["name"].(string)
		info = append(info, columnInfo{
			name:       name,
			primaryKey: toInt64(aRow["pk"]) > 0,
			notNull:    toInt64(aRow["notnull"]) > 0,
		})
	}
	return info, nil
}

// positionalColumns maps values given without column names onto the table's
// columns in declaration order. The primary key is skipped unless a value is
// supplied for every column.
func (d *Database) positionalColumns(ctx context.Context, tableName string, count int) ([]string, error) {
	info, err := d.tableInfo(ctx, tableName)
	if err != nil {
		return nil, err
	}

	var all, data []string
	for _, aColumn := range info {
		all = append(all, aColumn.name)
		if !aColumn.primaryKey {
			data = append(data, aColumn.name)
		}
	}

	switch count {
	case len(data):
		return data, nil
	case len(all):
		return all, nil
	default:
		return nil, fmt.Errorf("%w: table %s expects %d values, got %d", errColumnValueMismatch, tableName, len(data), count)
	}
}

func (d *Database) DropTable(ctx context.Context, tableName string) (any, error) {
	if _, err := d.exec(ctx, "DROP TABLE "+quoteIdentifier(tableName)); err != nil {
		return nil, err
	}
	return fmt.Sprintf("Table dropped: %s", tableName), nil
}

func (d *Database) Update(ctx context.Context, req engine.UpdateRequest) (any, error) {
	query, args, err := updateQuery(req)
	if err != nil {
		return nil, err
	}
	result, err := d.exec(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return affected(result, false)
}

func (d *Database) Delete(ctx context.Context, req engine.DeleteRequest) (any, error) {
	query, args, err := deleteQuery(req)
	if err != nil {
		return nil, err
	}
	result, err := d.exec(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return affected(result, false)
}

func (d *Database) describe(ctx context.Context) (any, error) {
	rows, err := d.query(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, err
	}
	tables := make([]string, 0, len(rows))
	for _, aRow := range rows {
		name, _ := aRow["name"].(string)
		tables = append(tables, name)
	}
	return map[string]any{
		"database": d.name,
		"tables":   tables,
	}, nil
}

func (d *Database) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	d.logger.Debug("exec", zap.String("database", d.name), zap.String("query", query), zap.Int("args", len(args)))
	return d.db.ExecContext(ctx, query, args...)
}

func (d *Database) query(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	d.logger.Debug("query", zap.String("database", d.name), zap.String("query", query), zap.Int("args", len(args)))

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	results := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}
		aRow := make(map[string]any, len(columns))
		for i, column := range columns {
			if b, ok := values[i].([]byte); ok {
				aRow[column] = string(b)
				continue
			}
			aRow[column] = values[i]
		}
		results = append(results, aRow)
	}
	return results, rows.Err()
}

func affected(result sql.Result, withLastID bool) (any, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	payload := map[string]any{"rowsAffected": n}
	if withLastID {
		id, err := result.LastInsertId()
		if err == nil {
			payload["lastInsertId"] = id
		}
	}
	return payload, nil
}

// bindValue stores whole numbers as integers so integer primary keys accept
// them and they read back without a fractional part.
func bindValue(v any) any {
	f, ok := v.(float64)
	if !ok {
		return v
	}
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return int64(f)
	}
	return f
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	default:
		return 0
	}
}
