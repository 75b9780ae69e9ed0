package e2etests

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RichardKnop/ajxgate/internal/command"
	"github.com/RichardKnop/ajxgate/internal/config"
	"github.com/RichardKnop/ajxgate/internal/session"
)

func TestEndToEnd(t *testing.T) {
	addr := startServer(t, nil)
	aClient := newClient(t, addr)
	gen := gofakeit.New(uint64(42))

	t.Run("Commands before INIT fail", func(t *testing.T) {
		msg := mustFail(t, aClient, "FIND * IN users")
		assert.Equal(t, `No database initialized. Use "INIT <database_name>" to initialize a database.`, msg)
	})

	t.Run("INIT selects a database", func(t *testing.T) {
		var payload string
		mustSend(t, aClient, "INIT shop", &payload)
		assert.Equal(t, "Using database: shop", payload)
	})

	t.Run("CREATE TABLE", func(t *testing.T) {
		var payload string
		mustSend(t, aClient, "CREATE TABLE users (id PRIMARY_KEY, name, age)", &payload)
		assert.Equal(t, "Table created: users", payload)
	})

	names := make([]string, 0, 5)
	t.Run("INSERT rows", func(t *testing.T) {
		for i, age := range []int{16, 21, 35, 35, 60} {
			name := gen.Name()
			names = append(names, name)

			var payload map[string]any
			mustSend(t, aClient, "INSERT INTO users (name, age) VALUES ("+command.Literal(name)+", "+command.Literal(age)+")", &payload)
			assert.Equal(t, float64(1), payload["rowsAffected"])
			assert.Equal(t, float64(i+1), payload["lastInsertId"])
		}
	})

	t.Run("FIND without WHERE returns every row", func(t *testing.T) {
		var rows []map[string]any
		mustSend(t, aClient, "FIND * IN users", &rows)
		require.Len(t, rows, 5)
		for i, aRow := range rows {
			assert.Equal(t, names[i], aRow["name"])
		}
	})

	t.Run("FIND with WHERE and LIMIT", func(t *testing.T) {
		var rows []map[string]any
		mustSend(t, aClient, "FIND name, age IN users WHERE age > 18 LIMIT 2", &rows)
		assert.Equal(t, []map[string]any{
			{"name": names[1], "age": float64(21)},
			{"name": names[2], "age": float64(35)},
		}, rows)
	})

	t.Run("FIND DISTINCT with OFFSET", func(t *testing.T) {
		var rows []map[string]any
		mustSend(t, aClient, "FIND DISTINCT age IN users WHERE age >= 21 OFFSET 1", &rows)
		assert.ElementsMatch(t, []map[string]any{{"age": float64(35)}, {"age": float64(60)}}, rows)
	})

	t.Run("UPDATE", func(t *testing.T) {
		var payload map[string]any
		mustSend(t, aClient, "UPDATE users SET age=31, name = 'O\\'Hara' WHERE id=1", &payload)
		assert.Equal(t, float64(1), payload["rowsAffected"])

		var rows []map[string]any
		mustSend(t, aClient, "FIND name, age IN users WHERE id = 1", &rows)
		assert.Equal(t, []map[string]any{{"name": "O'Hara", "age": float64(31)}}, rows)
	})

	t.Run("DELETE", func(t *testing.T) {
		var payload map[string]any
		mustSend(t, aClient, "DELETE FROM users WHERE age = 35", &payload)
		assert.Equal(t, float64(2), payload["rowsAffected"])
	})

	t.Run("DESCRIBE TABLE and DATABASE", func(t *testing.T) {
		var table map[string]any
		mustSend(t, aClient, "DESCRIBE TABLE users", &table)
		assert.Equal(t, "users", table["table"])
		assert.Len(t, table["columns"], 3)

		var database map[string]any
		mustSend(t, aClient, "DESCRIBE DATABASE shop", &database)
		assert.Equal(t, map[string]any{"database": "shop", "tables": []any{"users"}}, database)
	})

	t.Run("Errors are framed responses", func(t *testing.T) {
		msg := mustFail(t, aClient, "FIND IN users")
		assert.True(t, strings.HasPrefix(msg, "You have an error on your command syntax: "), msg)

		msg = mustFail(t, aClient, "FIND * IN users WHERE name LIKE 'a%'")
		assert.Equal(t, "operator LIKE is not supported", msg)

		msg = mustFail(t, aClient, "FIND * IN missing")
		assert.Contains(t, msg, "missing")

		msg = mustFail(t, aClient, "DELETE FROM users")
		assert.True(t, strings.HasPrefix(msg, "You have an error on your command syntax: "), msg)
	})

	t.Run("Large responses are chunked and reassembled", func(t *testing.T) {
		long := strings.Repeat(gen.Word(), 100)
		var payload map[string]any
		mustSend(t, aClient, "INSERT INTO users (name, age) VALUES ("+command.Literal(long)+", 99)", &payload)

		var rows []map[string]any
		mustSend(t, aClient, "FIND name IN users WHERE age = 99", &rows)
		assert.Equal(t, []map[string]any{{"name": long}}, rows)
	})

	t.Run("HTTP shares the global session", func(t *testing.T) {
		resp, err := http.Post("http://"+addr+"/", "text/plain", strings.NewReader("FIND age IN users WHERE age = 99"))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		var rows []map[string]any
		require.NoError(t, json.Unmarshal(body, &rows))
		assert.Equal(t, []map[string]any{{"age": float64(99)}}, rows)
	})

	t.Run("DROP TABLE and DATABASE", func(t *testing.T) {
		var payload string
		mustSend(t, aClient, "DROP TABLE users", &payload)
		assert.Equal(t, "Table dropped: users", payload)

		mustSend(t, aClient, "DROP DATABASE shop", &payload)
		assert.Equal(t, "Database dropped: shop", payload)
	})
}

func TestEndToEnd_ConnectionScopedSessions(t *testing.T) {
	addr := startServer(t, func(cfg *config.Config) {
		cfg.SessionScope = session.ScopeConnection
	})

	first := newClient(t, addr)
	second := newClient(t, addr)

	var payload string
	mustSend(t, first, "INIT shop", &payload)

	mustFail(t, second, "FIND * IN users")

	mustSend(t, second, "INIT blog", &payload)
	mustSend(t, second, "CREATE TABLE posts (\n  id PRIMARY_KEY,\n  title\n)", &payload)
	mustSend(t, first, "CREATE TABLE users (name)", &payload)

	var inserted map[string]any
	mustSend(t, second, "INSERT INTO posts ('Hello\nworld')", &inserted)
	assert.Equal(t, float64(1), inserted["rowsAffected"])

	var rows []map[string]any
	mustSend(t, second, "FIND * IN posts", &rows)
	assert.Equal(t, []map[string]any{{"id": float64(1), "title": "Hello\nworld"}}, rows)

	var database map[string]any
	mustSend(t, first, "DESCRIBE DATABASE shop", &database)
	assert.Equal(t, []any{"users"}, database["tables"])

	mustSend(t, second, "DESCRIBE DATABASE blog", &database)
	assert.Equal(t, []any{"posts"}, database["tables"])
}
