package postgres

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// dataTables lists every table holding rows, children first
var dataTables = []string{
	"keepr_audit_logs",
	"keepr_devices",
	"work_logs",
	"managed_test_cases",
	"test_sessions",
}

// TestDB is a migrated Postgres running in a container
type TestDB struct {
	X         *sqlx.DB
	Container testcontainers.Container
}

// SetupTestDB starts Postgres, connects and applies migrations
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("zenit_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "starting postgres container")

	td := &TestDB{Container: container}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		td.Cleanup(t)
		t.Fatalf("connection string: %v", err)
	}

	td.X, err = sqlx.Connect("postgres", connStr)
	if err != nil {
		td.Cleanup(t)
		t.Fatalf("connecting: %v", err)
	}

	if err := td.migrate(); err != nil {
		td.Cleanup(t)
		t.Fatalf("migrating: %v", err)
	}
	return td
}

func (td *TestDB) migrate() error {
	dir, err := migrationsDir()
	if err != nil {
		return err
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return err
	}
	sort.Strings(files)

	for _, file := range files {
		ddl, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		if _, err := td.X.Exec(string(ddl)); err != nil {
			return err
		}
	}
	return nil
}

// migrationsDir walks up from the package directory to the repository root
func migrationsDir() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, "migrations")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// Cleanup closes the connection and stops the container
func (td *TestDB) Cleanup(t *testing.T) {
	t.Helper()
	if td.X != nil {
		td.X.Close()
	}
	if td.Container != nil {
		if err := td.Container.Terminate(context.Background()); err != nil {
			t.Logf("terminating container: %v", err)
		}
	}
}

// TruncateTables empties every table between subtests
func (td *TestDB) TruncateTables(t *testing.T) {
	t.Helper()
	_, err := td.X.Exec("TRUNCATE TABLE " + strings.Join(dataTables, ", ") + " CASCADE")
	require.NoError(t, err)
}
