package sqlbuild

import (
	"errors"
	"strings"
	"testing"

	"github.com/torchdb/toolgate/internal/sqlcheck"
)

func TestBuildSelectDefaults(t *testing.T) {
	stmt, err := BuildSelect(DialectMySQL, "users", SelectOpts{
		DefaultLimit: 100,
		MaxLimit:     10000,
	})
	if err != nil {
		t.Fatalf("BuildSelect: %v", err)
	}
	want := "SELECT * FROM `users` LIMIT ?"
	if stmt.SQL != want {
		t.Fatalf("SQL = %q, want %q", stmt.SQL, want)
	}
	if len(stmt.Args) != 1 || stmt.Args[0].Arg() != int64(100) {
		t.Fatalf("args = %v, want [100]", stmt.Args)
	}
}

func TestBuildSelectFull(t *testing.T) {
	stmt, err := BuildSelect(DialectMySQL, "orders", SelectOpts{
		Columns:      []string{"id", "total"},
		Where:        []Assignment{{"status", Text("open")}, {"user_id", Int(7)}},
		OrderBy:      "created_at",
		Limit:        50,
		Offset:       100,
		DefaultLimit: 100,
		MaxLimit:     10000,
	})
	if err != nil {
		t.Fatalf("BuildSelect: %v", err)
	}
	want := "SELECT `id`, `total` FROM `orders` WHERE `status` = ? AND `user_id` = ? ORDER BY `created_at` LIMIT ? OFFSET ?"
	if stmt.SQL != want {
		t.Fatalf("SQL = %q, want %q", stmt.SQL, want)
	}
	wantArgs := []any{"open", int64(7), int64(50), int64(100)}
	if len(stmt.Args) != len(wantArgs) {
		t.Fatalf("got %d args, want %d", len(stmt.Args), len(wantArgs))
	}
	for i, w := range wantArgs {
		if got := stmt.Args[i].Arg(); got != w {
			t.Errorf("arg %d = %v, want %v", i, got, w)
		}
	}
}

func TestBuildSelectPostgresPlaceholders(t *testing.T) {
	stmt, err := BuildSelect(DialectPostgres, "orders", SelectOpts{
		Where:        []Assignment{{"status", Text("open")}},
		Offset:       10,
		DefaultLimit: 100,
		MaxLimit:     10000,
	})
	if err != nil {
		t.Fatalf("BuildSelect: %v", err)
	}
	want := `SELECT * FROM "orders" WHERE "status" = $1 LIMIT $2 OFFSET $3`
	if stmt.SQL != want {
		t.Fatalf("SQL = %q, want %q", stmt.SQL, want)
	}
}

func TestBuildSelectDeterministic(t *testing.T) {
	opts := SelectOpts{
		Columns:      []string{"a", "b"},
		Where:        []Assignment{{"a", Int(1)}, {"b", Int(2)}},
		DefaultLimit: 100,
		MaxLimit:     10000,
	}
	first, err := BuildSelect(DialectMySQL, "t", opts)
	if err != nil {
		t.Fatalf("BuildSelect: %v", err)
	}
	for i := 0; i < 5; i++ {
		next, err := BuildSelect(DialectMySQL, "t", opts)
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if next.SQL != first.SQL {
			t.Fatalf("run %d: SQL %q != %q", i, next.SQL, first.SQL)
		}
	}
}

func TestBuildSelectNoInterpolation(t *testing.T) {
	// Hostile values ride in the args, never in the statement text.
	hostile := "'; DROP TABLE users; --"
	stmt, err := BuildSelect(DialectMySQL, "users", SelectOpts{
		Where:        []Assignment{{"name", Text(hostile)}},
		DefaultLimit: 100,
		MaxLimit:     10000,
	})
	if err != nil {
		t.Fatalf("BuildSelect: %v", err)
	}
	if strings.Contains(stmt.SQL, "DROP") {
		t.Fatalf("value leaked into SQL text: %q", stmt.SQL)
	}
	if stmt.Args[0].Arg() != hostile {
		t.Fatalf("value not preserved in args: %v", stmt.Args[0].Arg())
	}
}

func TestBuildSelectLimitClamping(t *testing.T) {
	tests := []struct {
		name    string
		limit   int
		offset  int
		wantErr error
	}{
		{"zero uses default", 0, 0, nil},
		{"within max", 10000, 0, nil},
		{"over max", 10001, 0, ErrLimitTooLarge},
		{"negative limit", -1, 0, ErrNegativeLimit},
		{"negative offset", 10, -5, ErrNegativeLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildSelect(DialectMySQL, "t", SelectOpts{
				Limit:        tt.limit,
				Offset:       tt.offset,
				DefaultLimit: 100,
				MaxLimit:     10000,
			})
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuildSelectRejectsBadIdentifiers(t *testing.T) {
	base := SelectOpts{DefaultLimit: 100, MaxLimit: 10000}

	if _, err := BuildSelect(DialectMySQL, "users; DROP TABLE x", base); err == nil {
		t.Fatal("expected error for hostile table name")
	}
	opts := base
	opts.Columns = []string{"id", "na me"}
	if _, err := BuildSelect(DialectMySQL, "users", opts); err == nil {
		t.Fatal("expected error for hostile column name")
	}
	opts = base
	opts.OrderBy = "id; DELETE FROM users"
	if _, err := BuildSelect(DialectMySQL, "users", opts); err == nil {
		t.Fatal("expected error for hostile order by")
	}
	opts = base
	opts.Where = []Assignment{{"a b", Int(1)}}
	if _, err := BuildSelect(DialectMySQL, "users", opts); err == nil {
		t.Fatal("expected error for hostile condition column")
	}
}

func TestBuildInsertSingleRow(t *testing.T) {
	stmt, err := BuildInsert(DialectMySQL, "users", [][]Assignment{
		{{"email", Text("a@b.c")}, {"name", Text("Ada")}},
	})
	if err != nil {
		t.Fatalf("BuildInsert: %v", err)
	}
	want := "INSERT INTO `users` (`email`, `name`) VALUES (?, ?)"
	if stmt.SQL != want {
		t.Fatalf("SQL = %q, want %q", stmt.SQL, want)
	}
	if len(stmt.Args) != 2 {
		t.Fatalf("got %d args, want 2", len(stmt.Args))
	}
}

func TestBuildInsertMultiRow(t *testing.T) {
	stmt, err := BuildInsert(DialectPostgres, "users", [][]Assignment{
		{{"email", Text("a@b.c")}, {"name", Text("Ada")}},
		{{"email", Text("d@e.f")}, {"name", Null()}},
	})
	if err != nil {
		t.Fatalf("BuildInsert: %v", err)
	}
	want := `INSERT INTO "users" ("email", "name") VALUES ($1, $2), ($3, $4)`
	if stmt.SQL != want {
		t.Fatalf("SQL = %q, want %q", stmt.SQL, want)
	}
	if stmt.Args[3].Arg() != nil {
		t.Fatalf("arg 3 = %v, want nil", stmt.Args[3].Arg())
	}
}

func TestBuildInsertErrors(t *testing.T) {
	if _, err := BuildInsert(DialectMySQL, "t", nil); !errors.Is(err, ErrNoData) {
		t.Fatalf("empty rows: got %v, want %v", err, ErrNoData)
	}
	_, err := BuildInsert(DialectMySQL, "t", [][]Assignment{
		{{"a", Int(1)}, {"b", Int(2)}},
		{{"a", Int(3)}},
	})
	if !errors.Is(err, ErrInconsistentRow) {
		t.Fatalf("ragged rows: got %v, want %v", err, ErrInconsistentRow)
	}
	_, err = BuildInsert(DialectMySQL, "t", [][]Assignment{
		{{"a", Int(1)}, {"b", Int(2)}},
		{{"a", Int(3)}, {"c", Int(4)}},
	})
	if !errors.Is(err, ErrInconsistentRow) {
		t.Fatalf("mismatched columns: got %v, want %v", err, ErrInconsistentRow)
	}
}

func TestBuildUpdate(t *testing.T) {
	stmt, err := BuildUpdate(DialectMySQL, "users",
		[]Assignment{{"name", Text("Grace")}, {"active", Bool(true)}},
		[]Assignment{{"id", Int(9)}},
	)
	if err != nil {
		t.Fatalf("BuildUpdate: %v", err)
	}
	want := "UPDATE `users` SET `name` = ?, `active` = ? WHERE `id` = ?"
	if stmt.SQL != want {
		t.Fatalf("SQL = %q, want %q", stmt.SQL, want)
	}
	if len(stmt.Args) != 3 {
		t.Fatalf("got %d args, want 3", len(stmt.Args))
	}
}

func TestBuildUpdateRequiresConditions(t *testing.T) {
	_, err := BuildUpdate(DialectMySQL, "users",
		[]Assignment{{"name", Text("x")}}, nil)
	if !errors.Is(err, ErrNoConditions) {
		t.Fatalf("got %v, want %v", err, ErrNoConditions)
	}
	_, err = BuildUpdate(DialectMySQL, "users", nil,
		[]Assignment{{"id", Int(1)}})
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("got %v, want %v", err, ErrNoData)
	}
}

func TestBuildDelete(t *testing.T) {
	stmt, err := BuildDelete(DialectPostgres, "sessions",
		[]Assignment{{"user_id", Int(3)}, {"expired", Bool(true)}})
	if err != nil {
		t.Fatalf("BuildDelete: %v", err)
	}
	want := `DELETE FROM "sessions" WHERE "user_id" = $1 AND "expired" = $2`
	if stmt.SQL != want {
		t.Fatalf("SQL = %q, want %q", stmt.SQL, want)
	}
}

func TestBuildDeleteRequiresConditions(t *testing.T) {
	if _, err := BuildDelete(DialectMySQL, "users", nil); !errors.Is(err, ErrNoConditions) {
		t.Fatalf("got %v, want %v", err, ErrNoConditions)
	}
}

func TestBuildCreateTable(t *testing.T) {
	stmt, err := BuildCreateTable(DialectMySQL, "notes", []ColumnDef{
		{"id", "INT PRIMARY KEY AUTO_INCREMENT"},
		{"body", "VARCHAR(255) NOT NULL"},
		{"created_at", "TIMESTAMP DEFAULT CURRENT_TIMESTAMP"},
	})
	if err != nil {
		t.Fatalf("BuildCreateTable: %v", err)
	}
	want := "CREATE TABLE `notes` (`id` INT PRIMARY KEY AUTO_INCREMENT, `body` VARCHAR(255) NOT NULL, `created_at` TIMESTAMP DEFAULT CURRENT_TIMESTAMP)"
	if stmt.SQL != want {
		t.Fatalf("SQL = %q, want %q", stmt.SQL, want)
	}
	if len(stmt.Args) != 0 {
		t.Fatalf("CREATE TABLE should carry no args, got %d", len(stmt.Args))
	}
}

func TestBuildCreateTableRejectsHostileTypes(t *testing.T) {
	tests := []struct {
		name string
		typ  string
	}{
		{"stacked statement", "TEXT); DROP TABLE users; --"},
		{"quoted default", "VARCHAR(20) DEFAULT 'x'"},
		{"subselect", "INT CHECK (id IN (SELECT id FROM t))"},
		{"unknown keyword", "MEDIUMPOTATO"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildCreateTable(DialectMySQL, "t", []ColumnDef{{"c", tt.typ}})
			if !errors.Is(err, ErrBadColumnType) {
				t.Fatalf("type %q: got %v, want %v", tt.typ, err, ErrBadColumnType)
			}
		})
	}
}

func TestBuildCreateTableErrors(t *testing.T) {
	if _, err := BuildCreateTable(DialectMySQL, "t", nil); !errors.Is(err, ErrNoColumns) {
		t.Fatalf("got %v, want %v", err, ErrNoColumns)
	}
	_, err := BuildCreateTable(DialectMySQL, "t", []ColumnDef{{"drop", "INT"}})
	if !errors.Is(err, sqlcheck.ErrIdentifierReserved) {
		t.Fatalf("got %v, want %v", err, sqlcheck.ErrIdentifierReserved)
	}
}
