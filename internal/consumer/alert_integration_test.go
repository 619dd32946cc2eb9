//go:build integration

package consumer

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/CHIDI00/healix/internal/domain"
	"github.com/CHIDI00/healix/internal/events"
	persistence "github.com/CHIDI00/healix/internal/persistence/postgres"
)

func TestAlertHandlerLogsEvent(t *testing.T) {
	ctx := context.Background()
	pool, cleanup := setupPostgres(t, ctx)
	defer cleanup()

	repo := persistence.NewRepository(pool, log.Default())
	handler := NewAlertHandler(pool, domain.NewService(repo))

	tenantID := uuid.NewString()
	payload := json.RawMessage(`{"record_id":"abc","tenant_id":"` + tenantID + `","user_id":"user-1","recorded_at":"2025-06-15T12:00:00Z","heart_rate":72}`)
	msg := Message{
		EventType:     "vitals.recorded",
		TenantID:      tenantID,
		SchemaID:      42,
		SchemaSubject: "health_vitals-value",
		Topic:         "health_vitals",
		Partition:     0,
		Offset:        5,
		Payload:       payload,
		Timestamp:     time.Now().UTC(),
	}

	require.NoError(t, handler.Handle(ctx, msg))

	var storedPayload []byte
	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM health_event_log`).Scan(&count))
	require.Equal(t, 1, count)
	err := pool.QueryRow(ctx, `SELECT payload FROM health_event_log LIMIT 1`).Scan(&storedPayload)
	require.NoError(t, err)
	require.JSONEq(t, string(payload), string(storedPayload))

	// Normal reading, no alert.
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM emergency_alerts`).Scan(&count))
	require.Zero(t, count)
}

func TestAlertHandlerRaisesAlertOnBreach(t *testing.T) {
	ctx := context.Background()
	pool, cleanup := setupPostgres(t, ctx)
	defer cleanup()

	repo := persistence.NewRepository(pool, log.Default())
	handler := NewAlertHandler(pool, domain.NewService(repo))

	tenantID := uuid.NewString()
	userID := uuid.NewString()
	spo2 := 85.0
	payload, err := json.Marshal(events.VitalsRecorded{
		RecordID:         uuid.NewString(),
		TenantID:         tenantID,
		UserID:           userID,
		RecordedAt:       time.Now().UTC(),
		OxygenSaturation: &spo2,
	})
	require.NoError(t, err)

	msg := Message{
		EventType:     "vitals.recorded",
		TenantID:      tenantID,
		SchemaID:      7,
		SchemaSubject: "health_vitals-value",
		Topic:         "health_vitals",
		Payload:       payload,
		Timestamp:     time.Now().UTC(),
	}

	require.NoError(t, handler.Handle(ctx, msg))

	var reason, urgency string
	err = pool.QueryRow(ctx,
		`SELECT reason, urgency FROM emergency_alerts WHERE tenant_id = $1 AND user_id = $2`,
		tenantID, userID,
	).Scan(&reason, &urgency)
	require.NoError(t, err)
	require.Contains(t, reason, "oxygen saturation")
	require.Equal(t, "critical", urgency)

	// The alert fans out through the outbox for downstream notification.
	var eventType string
	err = pool.QueryRow(ctx,
		`SELECT event_type FROM outbox WHERE tenant_id = $1 AND event_type = 'alert.raised'`,
		tenantID,
	).Scan(&eventType)
	require.NoError(t, err)

	// And lands in the insights feed.
	var insightType string
	err = pool.QueryRow(ctx,
		`SELECT insight_type FROM health_insights WHERE tenant_id = $1 AND user_id = $2`,
		tenantID, userID,
	).Scan(&insightType)
	require.NoError(t, err)
	require.Equal(t, "alert", insightType)
}

func setupPostgres(t *testing.T, ctx context.Context) (*pgxpool.Pool, func()) {
	t.Helper()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("healix"),
		postgrescontainer.WithUsername("platform"),
		postgrescontainer.WithPassword("platform"),
	)
	require.NoError(t, err)

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, waitForDatabase(ctx, connStr))
	runMigrations(t, ctx, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = pg.Terminate(ctx)
	}
	return pool, cleanup
}

func runMigrations(t *testing.T, ctx context.Context, connStr string) {
	t.Helper()

	migrationsPath := resolvePath(t, "../../db/postgres/migrations")
	files, err := filepath.Glob(filepath.Join(migrationsPath, "*.up.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, files)
	sort.Strings(files)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	defer pool.Close()

	for _, file := range files {
		content, readErr := os.ReadFile(file)
		require.NoErrorf(t, readErr, "read migration %s", file)
		_, execErr := pool.Exec(ctx, string(content))
		require.NoErrorf(t, execErr, "execute migration %s", file)
	}
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}

func resolvePath(t *testing.T, rel string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), rel)
}
