package broadcast

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/udisondev/raidtrack/internal/config"
	"github.com/udisondev/raidtrack/internal/data"
	"github.com/udisondev/raidtrack/internal/encounter"
	"github.com/udisondev/raidtrack/internal/persistence"
	"github.com/udisondev/raidtrack/internal/protocol"
)

type fakeEmitter struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeEmitter) Emit(event string, _ any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeEmitter) count(event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e == event {
			n++
		}
	}
	return n
}

type fakeRepo struct {
	mu    sync.Mutex
	saves int
}

func (f *fakeRepo) SaveEncounter(_ context.Context, _ protocol.EncounterRow, _ []protocol.EntityRow, _ protocol.PreviewRow) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	return int64(f.saves), nil
}

func newTestLoop(t *testing.T, emitter *fakeEmitter, repo *fakeRepo) (*Loop, *encounter.Engine) {
	t.Helper()
	tables := &data.Tables{}
	eng := encounter.New(nil, tables, nil, emitter)
	pipeline := persistence.New(repo, tables, nil, "test")
	cfg := config.DefaultEngine()
	cfg.EmitIntervalMs = 5
	loop := New(nil, eng, pipeline, emitter, cfg, nil)
	return loop, eng
}

func TestLoop_EmitsPeriodically(t *testing.T) {
	emitter := &fakeEmitter{}
	loop, eng := newTestLoop(t, emitter, &fakeRepo{})
	eng.SetBossOnlyDamage(false)

	require.NoError(t, eng.HandlePacket(protocol.Packet{Opcode: protocol.OpInitPC, Payload: []byte(`{"entity_id":1,"character_id":1,"name":"Hero","timestamp_ms":1000}`)}))
	require.NoError(t, eng.HandlePacket(protocol.Packet{Opcode: protocol.OpNewNpc, Payload: []byte(`{"entity_id":2,"name":"Boss","npc_id":99,"grade":"boss","max_hp":1000000,"current_hp":1000000}`)}))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		_ = loop.Run(ctx)
		close(done)
	}()
	<-done

	require.GreaterOrEqual(t, emitter.count("encounter-update"), 1)
}

func TestLoop_SkipsTrivialAndPausedEmits(t *testing.T) {
	emitter := &fakeEmitter{}
	loop, eng := newTestLoop(t, emitter, &fakeRepo{})
	eng.Pause()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_ = loop.Run(ctx)

	require.Equal(t, 0, emitter.count("encounter-update"))
}

func TestLoop_ManualSavePersists(t *testing.T) {
	emitter := &fakeEmitter{}
	repo := &fakeRepo{}
	loop, eng := newTestLoop(t, emitter, repo)

	require.NoError(t, eng.HandlePacket(protocol.Packet{Opcode: protocol.OpNewNpc, Payload: []byte(`{"entity_id":2,"name":"Boss","npc_id":99,"grade":"boss","max_hp":1000000,"current_hp":1000000}`)}))

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		_ = loop.Run(ctx)
		close(done)
	}()

	eng.ManualSave()
	<-done

	repo.mu.Lock()
	defer repo.mu.Unlock()
	require.Equal(t, 1, repo.saves)
}
