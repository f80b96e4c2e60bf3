package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sqliteFixture = `
CREATE TABLE users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username VARCHAR(50) NOT NULL UNIQUE,
	email TEXT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE orders (
	id INTEGER PRIMARY KEY,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	total NUMERIC(10,2)
);
CREATE TABLE order_items (
	order_id INTEGER NOT NULL,
	line INTEGER NOT NULL,
	sku TEXT,
	PRIMARY KEY (order_id, line),
	FOREIGN KEY (order_id) REFERENCES orders(id)
);
CREATE TABLE tags (
	name TEXT PRIMARY KEY,
	color TEXT
) WITHOUT ROWID;
CREATE INDEX idx_orders_user ON orders(user_id);
`

func openFixture(t *testing.T) *SQLiteClient {
	t.Helper()
	ctx := context.Background()

	client, err := NewSQLiteClient(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	_, err = client.DB().ExecContext(ctx, sqliteFixture)
	require.NoError(t, err)
	return client
}

func TestSQLiteExtraction(t *testing.T) {
	client := openFixture(t)

	db, err := NewSQLiteExtractor(client).Extract(context.Background())
	require.NoError(t, err)

	require.Equal(t, 4, db.TableCount())

	users := db.Table("public", "users")
	require.NotNil(t, users)
	assert.Equal(t, []string{"id"}, users.PrimaryKey)
	assert.Equal(t, "int", users.Column("id").Type)
	assert.Equal(t, "varchar(50)", users.Column("username").Type)
	assert.False(t, users.Column("email").Nullable)
	require.NotNil(t, users.Column("created_at").Default)
	assert.Equal(t, "CURRENT_TIMESTAMP", *users.Column("created_at").Default)

	orders := db.Table("public", "orders")
	require.NotNil(t, orders)
	require.Len(t, orders.ForeignKeys, 1)
	fk := orders.ForeignKeys[0]
	assert.Equal(t, []string{"user_id"}, fk.Columns)
	assert.Equal(t, "users", fk.RefTable)
	require.NotNil(t, fk.OnDelete)
	assert.Equal(t, "CASCADE", *fk.OnDelete)
	assert.True(t, orders.Column("user_id").IsForeignKey)

	items := db.Table("public", "order_items")
	require.NotNil(t, items)
	assert.Equal(t, []string{"order_id", "line"}, items.PrimaryKey)
	require.Len(t, items.ForeignKeys, 1)
	assert.Equal(t, "orders", items.ForeignKeys[0].RefTable)

	tags := db.Table("public", "tags")
	require.NotNil(t, tags)
	assert.Equal(t, []string{"name"}, tags.PrimaryKey)
	assert.Len(t, tags.Columns, 2)
}

func TestSQLiteDDL(t *testing.T) {
	client := openFixture(t)

	ddl, err := NewSQLiteExtractor(client).DDL(context.Background())
	require.NoError(t, err)

	assert.Contains(t, ddl, "CREATE TABLE users (")
	assert.NotContains(t, ddl, "CREATE INDEX")
	assert.NotContains(t, ddl, "sqlite_sequence")
}

func TestSQLiteEmptyDatabase(t *testing.T) {
	client, err := NewSQLiteClient(context.Background(), filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	defer client.Close()

	db, err := NewSQLiteExtractor(client).Extract(context.Background())
	require.NoError(t, err)
	assert.Zero(t, db.TableCount())
}
