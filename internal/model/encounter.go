package model

// EncounterDamageStats aggregates fight-wide totals (spec §3).
type EncounterDamageStats struct {
	TotalDamageDealt int64
	TopDamageDealt   int64
	TotalDamageTaken int64
	TopDamageTaken   int64
	DPS              float64

	Buffs              map[uint64]string // buff id -> name, every buff id seen
	Debuffs            map[uint64]string
	ShieldBuffs        map[uint64]string
	Misc               map[string]any
	AppliedShieldBuffs map[uint64]string
	UnknownBuffs       map[uint64]struct{}

	BossHPLog map[string][]BossHPLogEntry // boss name -> log

	TotalShielding          int64
	TotalEffectiveShielding int64

	DamageLog []DamageLogEntry // time series for player-sourced hits
}

// DamageLogEntry is one player-sourced hit timestamp+amount pair used
// for the rolling-DPS reconstruction during persistence.
type DamageLogEntry struct {
	TimestampMs int64
	Damage      int64
}

// NewEncounterDamageStats returns a zeroed aggregate with maps allocated.
func NewEncounterDamageStats() *EncounterDamageStats {
	return &EncounterDamageStats{
		Buffs:              make(map[uint64]string),
		Debuffs:            make(map[uint64]string),
		ShieldBuffs:        make(map[uint64]string),
		Misc:               make(map[string]any),
		AppliedShieldBuffs: make(map[uint64]string),
		UnknownBuffs:       make(map[uint64]struct{}),
		BossHPLog:          make(map[string][]BossHPLogEntry),
	}
}

// Encounter is the live aggregate the state machine mutates (spec §3).
//
// Invariant: exactly one entry named CurrentBossName exists in
// Entities while the boss is alive; it may be reassigned when a new
// boss with strictly greater max HP appears, or the previous boss
// dies (see internal/encounter).
type Encounter struct {
	FightStartMs       int64
	LastCombatPacketMs int64
	LocalPlayerName    string
	CurrentBossName    string

	Entities map[string]*EncounterEntity

	DamageStats *EncounterDamageStats

	Region         string
	Difficulty     string
	BossOnlyDamage bool
	Cleared        bool

	// Phase/intermission bookkeeping (spec §4.5.2, §12 supplement).
	Phase             int
	RaidClear         bool
	PartyFreeze       bool
	Resetting         bool
	IntermissionStart *int64
	IntermissionEnd   *int64
	DamageLockoutUntilMs int64

	RDPSValid  bool
	ManualSave bool
}

// NewEncounter returns an empty live aggregate seeded with the local
// player's name.
func NewEncounter(localPlayerName string) *Encounter {
	return &Encounter{
		LocalPlayerName: localPlayerName,
		Entities:        make(map[string]*EncounterEntity),
		DamageStats:     NewEncounterDamageStats(),
		RDPSValid:       true,
	}
}

// EnsureEntity returns the entity named name, creating an empty
// accumulator of the given type if it does not yet exist (spec §3
// "created the first time its name appears as a damage source or
// target").
func (enc *Encounter) EnsureEntity(name string, typ EntityType) *EncounterEntity {
	if e, ok := enc.Entities[name]; ok {
		return e
	}
	e := NewEncounterEntity(name, typ)
	enc.Entities[name] = e
	return e
}

// DurationMs returns the fight's current duration, clamped to zero.
func (enc *Encounter) DurationMs() int64 {
	d := enc.LastCombatPacketMs - enc.FightStartMs
	if d < 0 {
		return 0
	}
	return d
}
