// Package protocol defines the narrow interfaces the encounter engine
// uses to talk to everything outside its own process: the decoded
// packet stream, the GUI emitter, and the persistence repository.
// Concrete implementations (internal/ingest, internal/emit/redisemit,
// internal/storage, ...) live outside the core and are wired together
// only from cmd/.
package protocol

import "context"

// Opcode identifies a decoded game-protocol packet type. The core only
// cares about the opcodes it dispatches on (see internal/encounter);
// unrecognized opcodes are ignored.
type Opcode uint16

const (
	OpInitEnv Opcode = iota + 1
	OpTransit
	OpInitPC
	OpNewPC
	OpNewNpc
	OpNewNpcSummon
	OpDeath
	OpSkillCooldownNotify
	OpSkillStartNotify
	OpSkillCastNotify
	OpSkillDamageNotify
	OpSkillDamageAbnormalMoveNotify
	OpRemoveObject
	OpShieldAdd
	OpShieldRemove
	OpShieldSync
	OpCounterattack
	OpRaidBegin
	OpRaidResult
	OpRaidBossKillNotify
	OpTriggerBossBattleStatus
	OpTriggerStartNotify
	OpZoneMemberLoadStatusNotify
	OpPartyInfo
	OpPartyLeaveResult
	OpPartyStatusEffectAdd
	OpPartyStatusEffectRemove
	OpPartyStatusEffectResult
	OpNewTransit
)

// Packet is one decoded (opcode, payload) pair read off the wire.
type Packet struct {
	Opcode  Opcode
	Payload []byte
}

// PacketSource is the external collaborator that decodes raw capture
// bytes into opcode/payload pairs (spec §1, §6). Raw capture and
// decryption themselves are out of scope for the core; only the
// channel contract matters here.
type PacketSource interface {
	// Recv blocks until the next packet is available, ctx is
	// cancelled, or the source is exhausted (io.EOF).
	Recv(ctx context.Context) (Packet, error)
}

// DecryptHook mirrors the out-of-scope "decrypt_damage_event" hook of
// spec §6. It is given a mutable view of a damage event's raw fields
// and returns whether decryption succeeded.
type DecryptHook func(skillID, skillEffectID *int64, damage *int64) bool

// Emitter is the GUI-facing sink (spec §6). Event names are the ones
// enumerated there: zone-change, phase-transition, raid-start,
// invalid-damage, encounter-update, party-update, clear-encounter,
// identity-update, plus control acknowledgements.
type Emitter interface {
	Emit(event string, payload any)
}

// Repository is the persistence collaborator (spec §1, §4.6). SQL
// schema migration and connection pooling are out of scope for the
// core; only this narrow contract is depended on.
type Repository interface {
	SaveEncounter(ctx context.Context, row EncounterRow, entities []EntityRow, preview PreviewRow) (int64, error)
}

// EncounterRow is the persisted encounter row (spec §6 field names are
// normative; gzip-JSON fields are already compressed byte slices by
// the time they reach this struct — see internal/persistence).
type EncounterRow struct {
	LastCombatPacketMs    int64
	TotalDamageDealt      int64
	TopDamageDealt        int64
	TotalDamageTaken      int64
	TopDamageTaken        int64
	DPS                   float64
	BuffsGz               []byte
	DebuffsGz             []byte
	TotalShielding        int64
	TotalEffectiveShield  int64
	AppliedShieldBuffsGz  []byte
	MiscJSON              []byte
	Version               string
	BossHPLogGz           []byte
}

// EntityRow is the persisted per-entity row (spec §6).
type EntityRow struct {
	Name              string
	EncounterID       int64
	NpcID             int32
	EntityType        string
	ClassID           int32
	Class             string
	GearScore         float64
	CurrentHP         int64
	MaxHP             int64
	IsDead            bool
	SkillsGz          []byte
	DamageStatsGz     []byte
	SkillStatsJSON    []byte
	DPS               float64
	CharacterID       uint64
	EngravingsJSON    []byte
	LoadoutHash       string
	CombatPower       float64
	ArkPassiveActive  bool
	Spec              string
	ArkPassiveDataJSON []byte
	SupportBuff       float64
	SupportBrand      float64
	SupportIdentity   float64
	SupportHyper      float64
	UnbuffedDamage    int64
	UnbuffedDPS       float64
}

// PreviewRow is the persisted preview/listing row (spec §6).
type PreviewRow struct {
	ID             int64
	FightStartMs   int64
	CurrentBoss    string
	DurationMs     int64
	Players        string // "classId:name,classId:name,..."
	Difficulty     string
	LocalPlayer    string
	MyDPS          float64
	Cleared        bool
	BossOnlyDamage bool
}
