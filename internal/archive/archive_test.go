package archive

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	tcmongodb "github.com/testcontainers/testcontainers-go/modules/mongodb"

	"github.com/udisondev/raidtrack/internal/protocol"
)

// setupTestStore starts a throwaway mongo container and returns a
// connected *Store. Mirrors internal/storage's testcontainers-based
// setupTestPostgres.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	container, err := tcmongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	store, err := Connect(ctx, uri, "raidtrack_test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(ctx) })
	return store
}

func TestStore_ArchiveAndFindByID(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.Archive(ctx, 1,
		protocol.EncounterRow{TotalDamageDealt: 1_000_000, Version: "test-1"},
		[]protocol.EntityRow{{Name: "Alice", EntityType: "Player", ClassID: 101}},
		protocol.PreviewRow{CurrentBoss: "Valtan", Players: "101:Alice", Cleared: true},
	)
	require.NoError(t, err)

	doc, err := store.FindByID(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(1), doc.ID)
	require.Equal(t, "Valtan", doc.Preview.CurrentBoss)
	require.Len(t, doc.Entities, 1)
	require.Equal(t, "Alice", doc.Entities[0].Name)
}

func TestStore_ListByBoss(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Archive(ctx, 1, protocol.EncounterRow{}, nil, protocol.PreviewRow{CurrentBoss: "Valtan"}))
	require.NoError(t, store.Archive(ctx, 2, protocol.EncounterRow{}, nil, protocol.PreviewRow{CurrentBoss: "Valtan"}))
	require.NoError(t, store.Archive(ctx, 3, protocol.EncounterRow{}, nil, protocol.PreviewRow{CurrentBoss: "Vykas"}))

	docs, err := store.ListByBoss(ctx, "Valtan", 10)
	require.NoError(t, err)
	require.Len(t, docs, 2)
}

func TestStore_ArchiveUpserts(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Archive(ctx, 1, protocol.EncounterRow{}, nil, protocol.PreviewRow{CurrentBoss: "Valtan"}))
	require.NoError(t, store.Archive(ctx, 1, protocol.EncounterRow{}, nil, protocol.PreviewRow{CurrentBoss: "Valtan", Cleared: true}))

	doc, err := store.FindByID(ctx, 1)
	require.NoError(t, err)
	require.True(t, doc.Preview.Cleared)
}
