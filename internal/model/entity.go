// Package model holds the plain data types the encounter aggregation
// engine mutates: entities, status effects, skills and the encounter
// aggregate itself. Types here carry no internal locking — the
// consumer goroutine is the sole writer (see internal/encounter); safe
// sharing with background save/emit tasks happens through snapshots,
// not shared mutexes.
package model

// EntityType classifies a tracked world object.
type EntityType int

const (
	EntityUnknown EntityType = iota
	EntityPlayer
	EntityNpc
	EntityBoss
	EntityEsther
	EntitySummon
	EntityProjectile
)

func (t EntityType) String() string {
	switch t {
	case EntityPlayer:
		return "player"
	case EntityNpc:
		return "npc"
	case EntityBoss:
		return "boss"
	case EntityEsther:
		return "esther"
	case EntitySummon:
		return "summon"
	case EntityProjectile:
		return "projectile"
	default:
		return "unknown"
	}
}

// Entity is a tracked world object: player, NPC, boss, esther, summon
// or projectile. EntityID is ephemeral per zone; CharacterID (players
// only) is stable across zones/reconnects.
//
// Invariants (spec §3):
//  1. every CharacterID > 0 maps to exactly one current EntityID (see
//     internal/tracker/idparty).
//  2. a projectile/summon's OwnerID must resolve to a tracked entity;
//     when it does not, the source is treated as the projectile
//     itself (see internal/tracker/entity.Tracker.GetSourceEntity).
//  3. player rows persist across soft resets; NPC rows may be purged.
type Entity struct {
	EntityID    uint64
	CharacterID uint64
	Name        string
	Type        EntityType
	ClassID     int32
	NpcID       int32
	OwnerID     uint64
	GearLevel   float64
	CurrentHP   int64
	MaxHP       int64
	Stats       map[int32]int64
	PushImmune  bool // boss only
}

// Clone returns a deep copy safe to hand to a background task.
func (e *Entity) Clone() *Entity {
	if e == nil {
		return nil
	}
	c := *e
	if e.Stats != nil {
		c.Stats = make(map[int32]int64, len(e.Stats))
		for k, v := range e.Stats {
			c.Stats[k] = v
		}
	}
	return &c
}

// IsBossCandidate reports whether an NPC's stats qualify it as a boss
// entry, per spec §4.3: grade in {boss, raid, epic_raid, commander},
// max HP over 10,000, and a non-empty, ASCII, underscore-free name.
func IsBossCandidate(grade string, maxHP int64, name string) bool {
	switch grade {
	case "boss", "raid", "epic_raid", "commander":
	default:
		return false
	}
	if maxHP <= 10000 || name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c > 127 || c == '_' {
			return false
		}
	}
	return true
}
