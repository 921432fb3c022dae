package postgres

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bobmcallan/carteira/internal/common"
	tcommon "github.com/bobmcallan/carteira/tests/common"
)

// testDB starts the shared Postgres container and returns a connection to a
// fresh database per test, with the schema applied.
func testDB(t *testing.T) *DB {
	t.Helper()

	pc := tcommon.StartPostgres(t)
	ctx := context.Background()

	admin, err := Open(ctx, pc.URL(""), 1)
	if err != nil {
		t.Fatalf("connect to Postgres: %v", err)
	}
	defer admin.Close()

	sanitized := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, strings.ToLower(t.Name()))
	if len(sanitized) > 40 {
		sanitized = sanitized[:40]
	}
	dbName := fmt.Sprintf("t_%s_%d", sanitized, time.Now().UnixNano()%100000)
	if _, err := admin.ExecContext(ctx, "CREATE DATABASE "+dbName); err != nil {
		t.Fatalf("create database %s: %v", dbName, err)
	}

	db, err := Open(ctx, pc.URL(dbName), 2)
	if err != nil {
		t.Fatalf("connect to %s: %v", dbName, err)
	}
	if err := db.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func testLogger() *common.Logger {
	return common.NewSilentLogger()
}
