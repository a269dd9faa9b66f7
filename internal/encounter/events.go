package encounter

// Event payloads the engine dispatches on. The real wire format that
// produces these is out of scope (spec §1 "protocol reverse
// engineering" is an explicit Non-goal); internal/protocol.PacketSource
// is expected to have already decoded a Packet's Payload into one of
// these via JSON (see decode in engine.go), the same boundary the teacher draws
// between `internal/gslistener/packet.Reader` and the typed
// clientpackets it produces.

// InitEnvEvent carries the local player's freshly re-rolled entity id.
type InitEnvEvent struct {
	NewPlayerID uint64 `json:"new_player_id"`
	TimestampMs int64  `json:"timestamp_ms"`
}

// TransitEvent is a zone change.
type TransitEvent struct {
	ZoneID      int32 `json:"zone_id"`
	TimestampMs int64 `json:"timestamp_ms"`
}

// PCEvent carries the fields common to InitPC and NewPC.
type PCEvent struct {
	CharacterID uint64  `json:"character_id"`
	EntityID    uint64  `json:"entity_id"`
	Name        string  `json:"name"`
	ClassID     int32   `json:"class_id"`
	CurrentHP   int64   `json:"current_hp"`
	MaxHP       int64   `json:"max_hp"`
	GearLevel   float64 `json:"gear_level"`
	TimestampMs int64   `json:"timestamp_ms"`
}

// NpcEvent carries the fields common to NewNpc and NewNpcSummon.
type NpcEvent struct {
	EntityID    uint64 `json:"entity_id"`
	NpcID       int32  `json:"npc_id"`
	Name        string `json:"name"`
	Grade       string `json:"grade"`
	CurrentHP   int64  `json:"current_hp"`
	MaxHP       int64  `json:"max_hp"`
	OwnerID     uint64 `json:"owner_id"` // summon only
	IsSummon    bool   `json:"is_summon"`
	TimestampMs int64  `json:"timestamp_ms"`
}

// ProjectileEvent covers NewProjectile/NewTrap.
type ProjectileEvent struct {
	ProjectileID uint64 `json:"projectile_id"`
	OwnerID      uint64 `json:"owner_id"`
	IsTrap       bool   `json:"is_trap"`
}

// DeathEvent marks an entity's death.
type DeathEvent struct {
	EntityID      uint64 `json:"entity_id"`
	TimestampMs   int64  `json:"timestamp_ms"`
	BossHPAtDeath int64  `json:"boss_hp_at_death"`
}

// SkillCooldownNotifyEvent carries a cooldown-start notification.
type SkillCooldownNotifyEvent struct {
	CasterID             uint64  `json:"caster_id"`
	SkillID              int64   `json:"skill_id"`
	HasStacks            bool    `json:"has_stacks"`
	CurrentCooldownSec   float64 `json:"current_cooldown_sec"`
	CurrentStackCooldown float64 `json:"current_stack_cooldown_sec"`
	TimestampMs          int64   `json:"timestamp_ms"`
}

// SkillStartEvent covers SkillStartNotify/SkillCastNotify.
type SkillStartEvent struct {
	CasterID       uint64  `json:"caster_id"`
	SkillID        int64   `json:"skill_id"`
	SkillName      string  `json:"skill_name"`
	Icon           string  `json:"icon"`
	SummonSkillIDs []int64 `json:"summon_skill_ids"`
	IsGetup        bool    `json:"is_getup"`
	TimestampMs    int64   `json:"timestamp_ms"`
}

// RDPSContribution is one entry of the pseudo-rdps vector (spec §4.5).
type RDPSContribution struct {
	RDPSType            int32  `json:"rdps_type"`
	SkillID              int64  `json:"skill_id"`
	SourceCharacterID     uint64 `json:"source_character_id"`
	Value                int64  `json:"value"`
}

// HitFlag enumerates the flags a damage event may carry.
type HitFlag int

const (
	HitNormal HitFlag = iota
	HitInvincible
	HitDamageShare
)

// SkillDamageEvent covers SkillDamageNotify and
// SkillDamageAbnormalMoveNotify (the latter additionally sets
// DownTime/MoveTime/StandUpTime).
type SkillDamageEvent struct {
	SourceID       uint64  `json:"source_id"`
	TargetID       uint64  `json:"target_id"`
	ProjectileID   uint64  `json:"projectile_id"`
	SkillID        int64   `json:"skill_id"`
	SkillEffectID  int64   `json:"skill_effect_id"`
	Damage         int64   `json:"damage"`
	TargetCurrentHP int64  `json:"target_current_hp"` // negative when this hit kills an NPC
	HitFlag        HitFlag `json:"hit_flag"`
	Crit           bool    `json:"crit"`
	Back           bool    `json:"back"`
	Front          bool    `json:"front"`
	Special        bool    `json:"special"`
	IsHyperAwakening bool  `json:"is_hyper_awakening"`
	IsBattleItem   bool    `json:"is_battle_item"`
	SeOnSourceIDs  []uint64 `json:"se_on_source_ids"`
	SeOnTargetIDs  []uint64 `json:"se_on_target_ids"`
	RDPSData       []RDPSContribution `json:"rdps_data"`
	TimestampMs    int64   `json:"timestamp_ms"`

	// Abnormal-move only.
	IsAbnormalMove bool     `json:"is_abnormal_move"`
	DownTimeSec    *float64 `json:"down_time_sec,omitempty"`
	MoveTimeSec    *float64 `json:"move_time_sec,omitempty"`
	StandUpTimeSec *float64 `json:"stand_up_time_sec,omitempty"`
}

// RemoveObjectEvent drops an entity and its local status registry.
type RemoveObjectEvent struct {
	EntityID uint64 `json:"entity_id"`
}

// ShieldKind distinguishes the three shield packet variants.
type ShieldKind int

const (
	ShieldAdd ShieldKind = iota
	ShieldRemove
	ShieldSync
)

// ShieldEvent covers shield add/remove/sync.
type ShieldEvent struct {
	Kind        ShieldKind `json:"kind"`
	SourceID    uint64     `json:"source_id"`
	TargetID    uint64     `json:"target_id"`
	InstanceID  uint32     `json:"instance_id"`
	Value       int64      `json:"value"`
	ExpirationDelaySec float64 `json:"expiration_delay_sec"`
	Reason      int        `json:"reason"`
	TimestampMs int64      `json:"timestamp_ms"`
}

// CounterattackEvent marks a parry/counter.
type CounterattackEvent struct {
	SourceID uint64 `json:"source_id"`
}

// RaidBeginEvent starts a raid instance.
type RaidBeginEvent struct {
	RaidID int32 `json:"raid_id"`
}

// TriggerStartEvent carries the phase-transition trigger signal (spec
// §4.5.2): 57/59/61/63/74/76 => clear, 58/60/62/64/75/77 => wipe.
type TriggerStartEvent struct {
	Signal int32 `json:"signal"`
}

// ZoneMemberLoadStatusEvent refines difficulty inference.
type ZoneMemberLoadStatusEvent struct {
	ZoneID int32 `json:"zone_id"`
}

// PartyMemberEvent is one row of a PartyInfo refresh.
type PartyMemberEvent struct {
	CharacterID     uint64 `json:"character_id"`
	EntityID        uint64 `json:"entity_id"`
	Name            string `json:"name"`
	PartyInstanceID int32  `json:"party_instance_id"`
	RaidInstanceID  int32  `json:"raid_instance_id"`
}

// PartyInfoEvent is a full party refresh.
type PartyInfoEvent struct {
	Members []PartyMemberEvent `json:"members"`
}

// PartyLeaveResultEvent drops a party's membership.
type PartyLeaveResultEvent struct {
	PartyInstanceID int32 `json:"party_instance_id"`
	RaidInstanceID  int32 `json:"raid_instance_id"`
}

// PartyStatusEffectEvent covers PartyStatusEffectAdd/Remove/Result,
// forwarding shield adds into the shield handler per spec §4.5.
type PartyStatusEffectEvent struct {
	CharacterID   uint64   `json:"character_id"`
	InstanceIDs   []uint32 `json:"instance_ids"`
	StatusEffectID uint64  `json:"status_effect_id"`
	SourceEntityID uint64  `json:"source_entity_id"`
	Value          int64   `json:"value"`
	ExpirationDelaySec float64 `json:"expiration_delay_sec"`
	IsShield       bool    `json:"is_shield"`
	Remove         bool    `json:"remove"`
	TimestampMs    int64   `json:"timestamp_ms"`
}

// NewTransitEvent updates the packet-decryption zone-instance id (out
// of scope for decryption itself; the engine only needs the id for
// phase bookkeeping parity with the original).
type NewTransitEvent struct {
	ZoneInstanceID int32 `json:"zone_instance_id"`
}
