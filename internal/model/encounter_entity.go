package model

// DeathInfo records one death of an entity (spec §3).
type DeathInfo struct {
	DeathTimeMs   int64
	DeadForMs     *int64 // nil until a later reconnect/requery fills it in
	BossHPAtDeath int64
}

// DamageStats is the per-entity damage accumulator (spec §3).
type DamageStats struct {
	DamageDealt int64
	DamageTaken int64
	DPS         float64

	CritDamage  int64
	BackDamage  int64
	FrontDamage int64

	BuffedBy   map[uint64]int64
	DebuffedBy map[uint64]int64

	BuffedBySupport  int64
	BuffedByIdentity int64
	BuffedByHat      int64
	DebuffedBySupport int64

	ShieldsGiven    map[string]int64 // by target name
	ShieldsReceived map[string]int64 // by source name
	TotalShielding  int64

	DamageAbsorbed          int64
	DamageAbsorbedBy        map[string]int64
	DamageAbsorbedOnOthers  int64
	DamageAbsorbedOnOthersBy map[string]int64

	HyperAwakeningDamage int64
	SpecialDamage        int64 // "Special" flagged hits, excluded from support-buff-ratio denominators
	BuffedDamage         int64 // from pseudo-rdps, rdps_type in {1,3,5}
	UnbuffedDamage       int64

	DPSRolling10s []float64 // one sample per second, ±5s window average

	// DamageLog is this entity's own hit timestamps (players only),
	// the per-player counterpart to EncounterDamageStats.DamageLog,
	// consulted by internal/persistence to build DPSRolling10s.
	DamageLog []DamageLogEntry

	LastTimestampMs int64
	DeathInfos      []DeathInfo
	Incapacitations []IncapacitatedEvent
}

// NewDamageStats returns a zeroed accumulator with maps allocated.
func NewDamageStats() *DamageStats {
	return &DamageStats{
		BuffedBy:                 make(map[uint64]int64),
		DebuffedBy:                make(map[uint64]int64),
		ShieldsGiven:              make(map[string]int64),
		ShieldsReceived:           make(map[string]int64),
		DamageAbsorbedBy:          make(map[string]int64),
		DamageAbsorbedOnOthersBy:  make(map[string]int64),
	}
}

// SkillStats counts cast/hit-shaped events for an entity (spec §3).
type SkillStats struct {
	Hits               int64
	Crits              int64
	Casts              int64
	BackAttacks        int64
	FrontAttacks        int64
	Counters           int64
}

// EncounterEntity is the per-player/NPC accumulator keyed by name in
// Encounter.Entities (spec §3).
type EncounterEntity struct {
	Name        string
	EntityID    uint64
	CharacterID uint64
	Type        EntityType
	ClassID     int32
	NpcID       int32
	GearLevel   float64
	CurrentHP   int64
	MaxHP       int64
	IsDead      bool

	Skills      map[int64]*Skill
	DamageStats *DamageStats
	SkillStats  *SkillStats

	// Persistence-only fields populated by internal/specinfer and
	// internal/persistence, not mutated by the live packet handlers.
	Spec            string
	Engravings      []string
	SupportBuff     float64
	SupportBrand    float64
	SupportIdentity float64
	SupportHyper    float64
}

// NewEncounterEntity creates an empty accumulator for name.
func NewEncounterEntity(name string, typ EntityType) *EncounterEntity {
	return &EncounterEntity{
		Name:        name,
		Type:        typ,
		Skills:      make(map[int64]*Skill),
		DamageStats: NewDamageStats(),
		SkillStats:  &SkillStats{},
	}
}

// TotalSkillDamage sums every skill's TotalDamage — used to check the
// damage-conservation invariant (spec §8.2).
func (e *EncounterEntity) TotalSkillDamage() int64 {
	var sum int64
	for _, sk := range e.Skills {
		sum += sk.TotalDamage
	}
	return sum
}
