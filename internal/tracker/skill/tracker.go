// Package skill implements the per-caster cast timeline, projectile-
// to-source-skill linkage, hit log, and cooldown event log (spec §4.4).
package skill

import "github.com/udisondev/raidtrack/internal/model"

type casterSkillKey struct {
	Caster uint64
	Skill  int64
}

// Tracker owns the cast timeline and cooldown logs.
type Tracker struct {
	skillTimestamp          map[casterSkillKey]int64
	projectileIDToTimestamp map[uint64]int64
	castLog                 map[casterSkillKey][]*model.SkillCast
	cooldowns                map[int64][]model.CastEvent
	fightStartMs            int64
}

// New returns an empty tracker.
func New() *Tracker {
	return &Tracker{
		skillTimestamp:          make(map[casterSkillKey]int64),
		projectileIDToTimestamp: make(map[uint64]int64),
		castLog:                 make(map[casterSkillKey][]*model.SkillCast),
		cooldowns:                make(map[int64][]model.CastEvent),
	}
}

// SetFightStart stamps the fight-start timestamp on the tracker;
// nothing in this package reads it back.
func (t *Tracker) SetFightStart(ms int64) { t.fightStartMs = ms }

// NewCast records a cast of skill by caster at ts. For every
// summon-source skill id, also records (caster, sourceSkill) -> ts so
// a later projectile dispatch on the summon's skill can find the
// originating cast (spec §4.4).
func (t *Tracker) NewCast(caster uint64, skillID int64, summonSources []int64, ts int64) {
	key := casterSkillKey{caster, skillID}
	t.skillTimestamp[key] = ts
	t.castLog[key] = append(t.castLog[key], &model.SkillCast{TimestampMs: ts})

	for _, src := range summonSources {
		t.skillTimestamp[casterSkillKey{caster, src}] = ts
	}
}

// OnHit appends hit to the most recent cast matching the projectile's
// recorded timestamp, or the skill's last cast if the projectile is
// unknown (spec §4.4).
func (t *Tracker) OnHit(caster uint64, projectileID uint64, skillID int64, hit model.SkillHit, summonSources []int64) {
	ts, ok := t.projectileIDToTimestamp[projectileID]
	if !ok {
		ts, ok = t.skillTimestamp[casterSkillKey{caster, skillID}]
	}
	if !ok {
		for _, src := range summonSources {
			if v, ok2 := t.skillTimestamp[casterSkillKey{caster, src}]; ok2 {
				ts, ok = v, true
				break
			}
		}
	}

	key := casterSkillKey{caster, skillID}
	casts := t.castLog[key]
	if len(casts) == 0 {
		c := &model.SkillCast{TimestampMs: ts}
		casts = append(casts, c)
		t.castLog[key] = casts
	}

	target := casts[len(casts)-1]
	if ok {
		for i := len(casts) - 1; i >= 0; i-- {
			if casts[i].TimestampMs == ts {
				target = casts[i]
				break
			}
		}
	}
	target.Hits = append(target.Hits, hit)
}

// RegisterProjectile records that a projectile was spawned by the most
// recent cast of (caster, skillID) at ts, so OnHit can attach later
// hits to that exact cast.
func (t *Tracker) RegisterProjectile(projectileID, caster uint64, skillID int64) {
	if ts, ok := t.skillTimestamp[casterSkillKey{caster, skillID}]; ok {
		t.projectileIDToTimestamp[projectileID] = ts
	}
}

// CastLog returns the recorded casts for (caster, skillID).
func (t *Tracker) CastLog(caster uint64, skillID int64) []*model.SkillCast {
	return t.castLog[casterSkillKey{caster, skillID}]
}

// RecordCooldown appends or overwrites the skill's most recent
// cooldown event per spec §4.5 SkillCooldownNotify: if the last event
// is still ongoing (now < ts+dur), this is a cooldown reduction —
// overwrite dur = (now-ts)+duration; otherwise append a new event.
func (t *Tracker) RecordCooldown(skillID int64, now, duration int64) {
	events := t.cooldowns[skillID]
	if n := len(events); n > 0 {
		last := &events[n-1]
		if now < last.TimestampMs+last.CooldownDuration {
			last.CooldownDuration = (now - last.TimestampMs) + duration
			return
		}
	}
	t.cooldowns[skillID] = append(events, model.CastEvent{TimestampMs: now, CooldownDuration: duration})
}

// Cooldowns returns the recorded cooldown events for a skill.
func (t *Tracker) Cooldowns(skillID int64) []model.CastEvent {
	return t.cooldowns[skillID]
}

// AllCooldowns returns a copy of every skill's cooldown event log, for
// handing to a background save task without aliasing live state (spec
// §4.4, §4.6 step 1 `time_available`).
func (t *Tracker) AllCooldowns() map[int64][]model.CastEvent {
	out := make(map[int64][]model.CastEvent, len(t.cooldowns))
	for id, events := range t.cooldowns {
		out[id] = append([]model.CastEvent(nil), events...)
	}
	return out
}

// GetTotalAvailableTime returns the length of [start,end] minus
// intervals where the skill was on cooldown, per spec §4.4:
//
//	avail = 0; cursor = start
//	for each e: avail += max(0, e.ts-cursor); cursor = max(cursor, e.ts+e.dur)
//	avail += max(0, end-cursor)
func GetTotalAvailableTime(events []model.CastEvent, start, end int64) int64 {
	if end <= start {
		return 0
	}
	var avail int64
	cursor := start
	for _, e := range events {
		if e.TimestampMs > cursor {
			avail += e.TimestampMs - cursor
		}
		endOfEvent := e.TimestampMs + e.CooldownDuration
		if endOfEvent > cursor {
			cursor = endOfEvent
		}
	}
	if end > cursor {
		avail += end - cursor
	}
	return avail
}
