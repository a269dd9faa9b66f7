// Package broadcast runs the Live Broadcast Loop (spec §5): a periodic
// emit tick that snapshots the live encounter and forwards it to the
// GUI-facing emitter, and a save task that drains encounter.Engine's
// save requests and persists them through internal/persistence,
// without ever blocking the packet-consumer goroutine.
//
// Grounded on the teacher pack's errgroup.WithContext fan-out idiom
// (MOHCentral-opm-stats-api's playerStatsService.GetDeepStats) for
// coordinating the two background goroutines and stopping both
// cleanly when ctx is cancelled.
package broadcast

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/raidtrack/internal/config"
	"github.com/udisondev/raidtrack/internal/encounter"
	"github.com/udisondev/raidtrack/internal/metrics"
	"github.com/udisondev/raidtrack/internal/model"
	"github.com/udisondev/raidtrack/internal/persistence"
	"github.com/udisondev/raidtrack/internal/protocol"
)

// StaticsProvider supplies the slow-changing per-player data the
// persistence pipeline folds in at save time (spec §4.6 step 1). The
// GUI/orchestrator owns the out-of-band listener that populates it;
// broadcast only calls it once per save.
type StaticsProvider func() map[string]persistence.PlayerStaticInfo

// Loop owns the emit ticker and save drain goroutines.
type Loop struct {
	log      *slog.Logger
	engine   *encounter.Engine
	pipeline *persistence.Pipeline
	emitter  protocol.Emitter
	cfg      config.Engine
	statics  StaticsProvider

	saveCh chan *encounter.SaveSnapshot
}

// New wires a Loop. statics may be nil, in which case every save uses
// zero-value PlayerStaticInfo for every entity.
func New(log *slog.Logger, eng *encounter.Engine, pipeline *persistence.Pipeline, emitter protocol.Emitter, cfg config.Engine, statics StaticsProvider) *Loop {
	if log == nil {
		log = slog.Default()
	}
	l := &Loop{
		log:      log,
		engine:   eng,
		pipeline: pipeline,
		emitter:  emitter,
		cfg:      cfg,
		statics:  statics,
		saveCh:   make(chan *encounter.SaveSnapshot, 4),
	}
	eng.OnSaveRequested = l.onSaveRequested
	return l
}

// onSaveRequested is called synchronously from the consumer goroutine
// (spec §5); it must never block, so when the save channel is full the
// incoming request is dropped and logged instead of stalling packet
// processing.
func (l *Loop) onSaveRequested(snap *encounter.SaveSnapshot) {
	select {
	case l.saveCh <- snap:
	default:
		metrics.SavesDropped.Inc()
		l.log.Warn("save channel full, dropping save request", "boss", snap.Encounter.CurrentBossName)
	}
}

// Run blocks until ctx is cancelled, running the emit ticker and save
// drain concurrently. Both goroutines stop when ctx is done; Run
// returns the first non-context error either produced, if any.
func (l *Loop) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return l.runEmitTicker(ctx)
	})

	g.Go(func() error {
		return l.runSaveDrain(ctx)
	})

	return g.Wait()
}

// runEmitTicker emits a snapshot every EmitInterval until ctx is done.
func (l *Loop) runEmitTicker(ctx context.Context) error {
	ticker := time.NewTicker(l.cfg.EmitInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			l.emitSnapshot()
		}
	}
}

func (l *Loop) emitSnapshot() {
	if l.engine.Paused() {
		return
	}
	start := time.Now()
	snap := l.engine.Snapshot()
	if isTrivialEncounter(snap.Encounter) {
		metrics.EncountersActive.Set(0)
		return
	}
	metrics.EncountersActive.Set(1)
	l.emitter.Emit("encounter-update", snap.Encounter)
	metrics.EmitDuration.Observe(time.Since(start).Seconds())
}

// isTrivialEncounter reports whether enc carries no boss and no damage
// yet, the case the spec's tick cadence description calls out as not
// worth emitting (spec §5).
func isTrivialEncounter(enc *model.Encounter) bool {
	return enc == nil || (enc.CurrentBossName == "" && enc.DamageStats.TotalDamageDealt == 0)
}

// runSaveDrain persists every snapshot the engine pushes onto saveCh
// until ctx is done or the channel is closed.
func (l *Loop) runSaveDrain(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-l.saveCh:
			if !ok {
				return nil
			}
			l.persist(ctx, snap)
		}
	}
}

func (l *Loop) persist(ctx context.Context, snap *encounter.SaveSnapshot) {
	correlationID := uuid.NewString()
	log := l.log.With("correlation_id", correlationID, "boss", snap.Encounter.CurrentBossName)
	start := time.Now()

	var statics map[string]persistence.PlayerStaticInfo
	if l.statics != nil {
		statics = l.statics()
	}

	id, err := l.pipeline.Save(ctx, snap, statics)
	metrics.SaveDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		log.Error("saving encounter failed", "error", err)
		l.emit("save-failed", correlationID)
		return
	}
	log.Info("encounter saved", "encounter_id", id)
	l.emit("clear-encounter", id)
}

func (l *Loop) emit(event string, payload any) {
	if l.emitter != nil {
		l.emitter.Emit(event, payload)
	}
}
