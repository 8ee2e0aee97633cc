package database

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"reflect"
	"testing"
	"testing/fstest"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want []string
	}{
		{
			name: "literals and comment-only tail",
			sql: `-- header comment
CREATE TABLE a (x TEXT DEFAULT 'semi;colon');
INSERT INTO a VALUES ('it''s');
-- trailing comment only;
`,
			want: []string{
				"CREATE TABLE a (x TEXT DEFAULT 'semi;colon')",
				"INSERT INTO a VALUES ('it''s')",
			},
		},
		{
			name: "semicolon inside line comment",
			sql: `CREATE TABLE a (x TEXT);
-- left_at NULL means active; re-adding clears it.
CREATE TABLE b (y TEXT);`,
			want: []string{
				"CREATE TABLE a (x TEXT)",
				"CREATE TABLE b (y TEXT)",
			},
		},
		{
			name: "semicolon inside block comment",
			sql:  `CREATE TABLE a (x TEXT /* one; two */);`,
			want: []string{"CREATE TABLE a (x TEXT  )"},
		},
		{
			name: "comment marker inside literal",
			sql:  `INSERT INTO a VALUES ('--not a comment; really');`,
			want: []string{"INSERT INTO a VALUES ('--not a comment; really')"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitStatements(tt.sql)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewAppliesEmbeddedMigrationsOnce(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "test.db")

	migrations, err := fs.Sub(EmbeddedMigrations, "migrations")
	if err != nil {
		t.Fatal(err)
	}

	db, err := New(ctx, path, migrations, discardLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, table := range []string{"users", "conversations", "conversation_participants", "messages", "message_read_receipts", "properties", "deals"} {
		var n int
		if err := db.Conn.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&n); err != nil || n != 1 {
			t.Fatalf("table %s missing (n=%d, err=%v)", table, n, err)
		}
	}
	db.Close()

	// reopening must not re-run 001_init.sql
	db, err = New(ctx, path, migrations, discardLogger())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	var applied int
	if err := db.Conn.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied); err != nil {
		t.Fatal(err)
	}
	if applied != 1 {
		t.Fatalf("schema_migrations has %d rows, want 1", applied)
	}
}

func TestRecoverableStatementIsSkipped(t *testing.T) {
	migrations := fstest.MapFS{
		"001_a.sql": {Data: []byte("CREATE TABLE t (a TEXT); ALTER TABLE t ADD COLUMN b TEXT;")},
		"002_b.sql": {Data: []byte("ALTER TABLE t ADD COLUMN b TEXT; ALTER TABLE t ADD COLUMN c TEXT;")},
	}

	db, err := New(context.Background(), filepath.Join(t.TempDir(), "r.db"), migrations, discardLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer db.Close()

	if _, err := db.Conn.Exec("INSERT INTO t (a, b, c) VALUES ('1', '2', '3')"); err != nil {
		t.Fatalf("column c should exist: %v", err)
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	migrations, _ := fs.Sub(EmbeddedMigrations, "migrations")
	db, err := New(context.Background(), filepath.Join(t.TempDir(), "fk.db"), migrations, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	_, err = db.Conn.Exec(`INSERT INTO conversations (id, created_by, created_at, updated_at)
		VALUES ('c1', 'nobody', '2026-01-01', '2026-01-01')`)
	if err == nil {
		t.Fatal("insert with dangling created_by should fail")
	}
}

func TestWithTxRollsBack(t *testing.T) {
	migrations := fstest.MapFS{"001.sql": {Data: []byte("CREATE TABLE t (a TEXT)")}}
	db, err := New(context.Background(), filepath.Join(t.TempDir(), "tx.db"), migrations, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	ctx := context.Background()
	boom := errors.New("boom")

	err = WithTx(ctx, db.Conn, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "INSERT INTO t VALUES ('x')"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("panic should be re-raised")
			}
		}()
		_ = WithTx(ctx, db.Conn, func(tx *sql.Tx) error {
			_, _ = tx.ExecContext(ctx, "INSERT INTO t VALUES ('y')")
			panic("fail")
		})
	}()

	var n int
	if err := db.Conn.QueryRow("SELECT COUNT(*) FROM t").Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("rows = %d, want 0 after rollbacks", n)
	}

	if err := WithTx(ctx, db.Conn, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO t VALUES ('z')")
		return err
	}); err != nil {
		t.Fatal(err)
	}
	if err := db.Conn.QueryRow("SELECT COUNT(*) FROM t").Scan(&n); err != nil || n != 1 {
		t.Fatalf("commit lost: n=%d err=%v", n, err)
	}
}
