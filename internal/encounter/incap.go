package encounter

import "github.com/udisondev/raidtrack/internal/model"

// incapTracker is the open span, if any, for one entity id (spec
// §4.5.1): at most one of FallDown/HardCC is active at a time.
type incapTracker struct {
	startMs int64
	kind    model.IncapacitationKind
}

// applyAbnormalMove folds a SkillDamageAbnormalMoveNotify's
// down/move/stand-up timing into the target's incapacitation span
// (spec §4.5.1): DownTime starts a HardCC span (used by CC-uptime
// reporting), MoveTime alone starts a FallDown span; a StandUpTime
// closes whatever span is open. Overlapping spans on the same entity
// are merged into the earlier span's kind rather than stacked, per the
// non-overlap invariant.
func (e *Engine) applyAbnormalMove(entityID uint64, ee *model.EncounterEntity, ev SkillDamageEvent) {
	if ee == nil {
		return
	}
	switch {
	case ev.DownTimeSec != nil && *ev.DownTimeSec > 0:
		e.startIncapacitation(entityID, ee, model.IncapHardCC, ev.TimestampMs, int64(*ev.DownTimeSec*1000))
	case ev.MoveTimeSec != nil && *ev.MoveTimeSec > 0:
		e.startIncapacitation(entityID, ee, model.IncapFallDown, ev.TimestampMs, int64(*ev.MoveTimeSec*1000))
	}
	if ev.StandUpTimeSec != nil {
		e.endIncapacitation(entityID, ee, ev.TimestampMs)
	}
}

// startIncapacitation opens a span for entityID, or extends the
// currently open one if it already covers timestampMs (non-overlap
// invariant, spec §4.5.1, §8.2).
func (e *Engine) startIncapacitation(entityID uint64, ee *model.EncounterEntity, kind model.IncapacitationKind, startMs, durationMs int64) {
	if durationMs <= 0 {
		return
	}
	if t, ok := e.incapState[entityID]; ok {
		if startMs < t.startMs+0 { // defensive: never rewind a span already opened
			return
		}
		end := t.startMs
		if n := len(ee.DamageStats.Incapacitations); n > 0 {
			end = ee.DamageStats.Incapacitations[n-1].End()
		}
		if startMs <= end {
			return
		}
	}
	e.incapState[entityID] = &incapTracker{startMs: startMs, kind: kind}
}

// endIncapacitation closes entityID's open span at timestampMs,
// appending the finished IncapacitatedEvent to ee's accumulator (spec
// §4.5.1).
func (e *Engine) endIncapacitation(entityID uint64, ee *model.EncounterEntity, timestampMs int64) {
	t, ok := e.incapState[entityID]
	if !ok {
		return
	}
	delete(e.incapState, entityID)
	dur := timestampMs - t.startMs
	if dur <= 0 {
		return
	}
	ee.DamageStats.Incapacitations = append(ee.DamageStats.Incapacitations, model.IncapacitatedEvent{
		TimestampMs: t.startMs,
		DurationMs:  dur,
		Kind:        t.kind,
	})
}
