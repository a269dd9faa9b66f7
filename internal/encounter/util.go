package encounter

import (
	"github.com/udisondev/raidtrack/internal/metrics"
	"github.com/udisondev/raidtrack/internal/model"
)

// emit forwards an event to the GUI-facing sink, tolerating a nil
// emitter (e.g. in tests).
func (e *Engine) emit(event string, payload any) {
	if e.emitter != nil {
		e.emitter.Emit(event, payload)
	}
}

// recordBossHP appends one per-second HP sample for name to the
// encounter's boss HP log (spec §3 BossHPLogEntry).
func (e *Engine) recordBossHP(name string, timestampMs, hp int64) {
	ee, ok := e.enc.Entities[name]
	if !ok || ee.MaxHP <= 0 {
		return
	}
	timeSec := (timestampMs - e.enc.FightStartMs) / 1000
	pct := float64(hp) / float64(ee.MaxHP) * 100
	log := e.enc.DamageStats.BossHPLog[name]
	if n := len(log); n > 0 && log[n-1].TimeSec == timeSec {
		log[n-1].HP = hp
		log[n-1].Percent = pct
		return
	}
	e.enc.DamageStats.BossHPLog[name] = append(log, model.BossHPLogEntry{
		TimeSec: timeSec,
		HP:      hp,
		Percent: pct,
	})
}

// requestSave invokes the save callback with a clone of the live
// aggregate plus the current party snapshot, never the live engine
// state itself (spec §4.6, §5).
func (e *Engine) requestSave() {
	if e.OnSaveRequested == nil {
		return
	}
	metrics.SavesRequested.Inc()
	e.OnSaveRequested(&SaveSnapshot{
		Encounter:            e.cloneEncounter(),
		Parties:              e.parties.Snapshot(),
		LocalPlayerCooldowns: e.skills.AllCooldowns(),
	})
}

// cloneEncounter returns a deep-enough copy of the live aggregate safe
// to hand to a background persistence task: every mutable field the
// persistence pipeline reads is copied, not aliased.
func (e *Engine) cloneEncounter() *model.Encounter {
	src := e.enc
	dst := *src
	dst.Entities = make(map[string]*model.EncounterEntity, len(src.Entities))
	for name, ee := range src.Entities {
		dst.Entities[name] = cloneEncounterEntity(ee)
	}
	ds := *src.DamageStats
	ds.Buffs = copyMap(src.DamageStats.Buffs)
	ds.Debuffs = copyMap(src.DamageStats.Debuffs)
	ds.ShieldBuffs = copyMap(src.DamageStats.ShieldBuffs)
	ds.AppliedShieldBuffs = copyMap(src.DamageStats.AppliedShieldBuffs)
	ds.Misc = make(map[string]any, len(src.DamageStats.Misc))
	for k, v := range src.DamageStats.Misc {
		ds.Misc[k] = v
	}
	ds.UnknownBuffs = make(map[uint64]struct{}, len(src.DamageStats.UnknownBuffs))
	for k := range src.DamageStats.UnknownBuffs {
		ds.UnknownBuffs[k] = struct{}{}
	}
	ds.BossHPLog = make(map[string][]model.BossHPLogEntry, len(src.DamageStats.BossHPLog))
	for k, v := range src.DamageStats.BossHPLog {
		cp := make([]model.BossHPLogEntry, len(v))
		copy(cp, v)
		ds.BossHPLog[k] = cp
	}
	ds.DamageLog = append([]model.DamageLogEntry(nil), src.DamageStats.DamageLog...)
	dst.DamageStats = &ds
	return &dst
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneEncounterEntity(src *model.EncounterEntity) *model.EncounterEntity {
	dst := *src
	ds := *src.DamageStats
	ds.BuffedBy = copyMap(src.DamageStats.BuffedBy)
	ds.DebuffedBy = copyMap(src.DamageStats.DebuffedBy)
	ds.ShieldsGiven = copyMap(src.DamageStats.ShieldsGiven)
	ds.ShieldsReceived = copyMap(src.DamageStats.ShieldsReceived)
	ds.DamageAbsorbedBy = copyMap(src.DamageStats.DamageAbsorbedBy)
	ds.DamageAbsorbedOnOthersBy = copyMap(src.DamageStats.DamageAbsorbedOnOthersBy)
	ds.DPSRolling10s = append([]float64(nil), src.DamageStats.DPSRolling10s...)
	ds.DamageLog = append([]model.DamageLogEntry(nil), src.DamageStats.DamageLog...)
	ds.DeathInfos = append([]model.DeathInfo(nil), src.DamageStats.DeathInfos...)
	ds.Incapacitations = append([]model.IncapacitatedEvent(nil), src.DamageStats.Incapacitations...)
	dst.DamageStats = &ds

	ss := *src.SkillStats
	dst.SkillStats = &ss

	dst.Skills = make(map[int64]*model.Skill, len(src.Skills))
	for id, sk := range src.Skills {
		skCopy := *sk
		skCopy.BuffedBy = copyMap(sk.BuffedBy)
		skCopy.DebuffedBy = copyMap(sk.DebuffedBy)
		skCopy.CastLog = append([]int64(nil), sk.CastLog...)
		skCopy.SkillCastLog = append([]model.SkillCast(nil), sk.SkillCastLog...)
		skCopy.RDPSContributed = copyMap(sk.RDPSContributed)
		skCopy.RDPSReceived = make(map[int32]map[int64]int64, len(sk.RDPSReceived))
		for k, v := range sk.RDPSReceived {
			skCopy.RDPSReceived[k] = copyMap(v)
		}
		dst.Skills[id] = &skCopy
	}
	return &dst
}
