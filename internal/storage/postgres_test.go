package storage

import (
	"context"
	"testing"

	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/stretchr/testify/require"

	"github.com/udisondev/raidtrack/internal/protocol"
)

// setupTestPostgres starts a throwaway postgres:16-alpine container,
// applies the goose migrations against it, and returns a connected
// *Postgres. Mirrors the teacher's db.TestMain container pattern.
func setupTestPostgres(t *testing.T) *Postgres {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("raidtrack_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, wait.ForListeningPort("5432/tcp").WaitUntilReady(ctx, container))
	require.NoError(t, RunMigrations(ctx, dsn))

	repo, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(repo.Close)
	return repo
}

func TestPostgres_SaveAndGetEncounter(t *testing.T) {
	repo := setupTestPostgres(t)
	ctx := context.Background()

	id, err := repo.SaveEncounter(ctx,
		protocol.EncounterRow{
			LastCombatPacketMs: 900_000,
			TotalDamageDealt:   1_000_000,
			TopDamageDealt:     500_000,
			DPS:                1111.1,
			Version:            "test-1",
			MiscJSON:           []byte(`{"region":"EU"}`),
		},
		[]protocol.EntityRow{
			{Name: "Alice", EntityType: "Player", ClassID: 101, DamageStatsGz: []byte{}, SkillsGz: []byte{}},
		},
		protocol.PreviewRow{
			FightStartMs: 1_000,
			CurrentBoss:  "Valtan",
			DurationMs:   900_000,
			Players:      "101:Alice",
			Cleared:      true,
		},
	)
	require.NoError(t, err)
	require.Greater(t, id, int64(0))

	got, err := repo.GetEncounter(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Valtan", got.CurrentBoss)
	require.True(t, got.Cleared)
	require.Equal(t, "101:Alice", got.Players)
}
