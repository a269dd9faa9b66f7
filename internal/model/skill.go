package model

// SkillHit is one recorded hit inside a SkillCast (spec §3).
type SkillHit struct {
	Damage      int64
	Crit        bool
	Back        bool
	Front       bool
	BuffedBy    []uint64
	DebuffedBy  []uint64
	TimestampMs int64
}

// SkillCast groups the hits produced by a single cast of a skill.
type SkillCast struct {
	TimestampMs int64
	Hits        []SkillHit
}

// Skill is the per-caster, per-skill-id accumulator (spec §3).
type Skill struct {
	ID              int64
	Name            string
	Icon            string
	Casts           int64
	Hits            int64
	Crits           int64
	TotalDamage     int64
	MaxDamage       int64
	BuffedBy        map[uint64]int64
	DebuffedBy      map[uint64]int64
	CastLog         []int64 // relative timestamps, ms, from fight start
	SkillCastLog    []SkillCast
	TimeAvailableMs int64 // local player only

	RDPSContributed map[int32]int64          // rdps_type -> value given to others
	RDPSReceived    map[int32]map[int64]int64 // rdps_type -> contributing skill id -> value

	Special          bool
	IsHyperAwakening bool
	TripodIndex      *[3]int32

	DPS            float64
	DPSAverage     float64
	GemCooldownLvl int32
	GemDamageLvl   int32
}

// NewSkill constructs an empty accumulator for (id, name).
func NewSkill(id int64, name, icon string) *Skill {
	return &Skill{
		ID:              id,
		Name:            name,
		Icon:            icon,
		BuffedBy:        make(map[uint64]int64),
		DebuffedBy:      make(map[uint64]int64),
		RDPSContributed: make(map[int32]int64),
		RDPSReceived:    make(map[int32]map[int64]int64),
	}
}

// RecordHit folds a hit into the skill's totals. Callers are
// responsible for also updating the owning entity's damage stats so
// the damage-conservation invariant (spec §8.2) holds.
func (s *Skill) RecordHit(damage int64, crit, back, front bool) {
	s.Hits++
	s.TotalDamage += damage
	if damage > s.MaxDamage {
		s.MaxDamage = damage
	}
	if crit {
		s.Crits++
	}
	_ = back
	_ = front
}

// CastEvent is one cooldown-start record for a skill (spec §3).
type CastEvent struct {
	TimestampMs      int64
	CooldownDuration int64 // ms
}

// IncapacitationKind distinguishes knock-down/fall-down from hard CC.
type IncapacitationKind int

const (
	IncapFallDown IncapacitationKind = iota
	IncapHardCC
)

// IncapacitatedEvent records one span during which an entity could not
// act (spec §3, §4.5.1).
type IncapacitatedEvent struct {
	TimestampMs int64
	DurationMs  int64
	Kind        IncapacitationKind
}

// End returns the event's end timestamp.
func (e IncapacitatedEvent) End() int64 { return e.TimestampMs + e.DurationMs }

// BossHPLogEntry is one per-second sample of a boss's HP (spec §3).
type BossHPLogEntry struct {
	TimeSec int64
	HP      int64
	Percent float64
}
