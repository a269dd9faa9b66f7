// Package data holds the read-only static lookup tables the
// encounter engine consults: skills, buffs, NPCs, the gem-to-skill
// map, engravings, the stat-type map, combat effects, the raid-zone
// map and support-buff groups (spec §2). Every table here is loaded
// once at startup from JSON and treated as frozen afterward; concurrent
// reads from background save/emit tasks are safe without locking.
package data

import (
	"encoding/json"
	"fmt"
	"os"
)

// SkillInfo is the static definition of a skill (name/icon lookup and
// the handful of flags the attribution pass needs).
type SkillInfo struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Icon             string `json:"icon"`
	ClassID          int32  `json:"class_id"`
	IsHyperAwakening bool   `json:"is_hyper_awakening"`
}

// BuffInfo is the static definition of a buff/debuff (spec §3,
// StatusEffectInstance's derived fields).
type BuffInfo struct {
	ID           uint64 `json:"id"`
	Name         string `json:"name"`
	Category     string `json:"category"`      // "buff" | "debuff" | "other"
	BuffCategory string `json:"buff_category"` // "supportbuff", "battleitem", ...
	ShowType     string `json:"show_type"`
	EffectType   string `json:"effect_type"` // "shield" | "hardcc" | "other"
	UniqueGroup  int32  `json:"unique_group"`
	Source       string `json:"source"` // skill name the buff originates from, for "Stabilized Status" matching
	IsHAT        bool   `json:"is_hat"`
	HasDMGFlag   bool   `json:"has_dmg_flag"`
}

// NpcInfo is the static definition of an NPC/boss.
type NpcInfo struct {
	ID     int32  `json:"id"`
	Name   string `json:"name"`
	Grade  string `json:"grade"` // "boss","raid","epic_raid","commander",...
	MaxHP  int64  `json:"max_hp"`
}

// Tables is the full set of static data loaded at startup.
type Tables struct {
	Skills          map[int64]SkillInfo  `json:"skills"`
	Buffs           map[uint64]BuffInfo  `json:"buffs"`
	Npcs            map[int32]NpcInfo    `json:"npcs"`
	GemToSkill      map[int32]int64      `json:"gem_to_skill"`
	Engravings      map[int32]string     `json:"engravings"`
	StatTypeNames   map[int32]string     `json:"stat_type_names"`
	CombatEffects   map[int64]string     `json:"combat_effects"`
	RaidZoneMap     map[int32]string     `json:"raid_zone_map"` // zone id -> difficulty/id string
	SupportAPGroup  map[int32]struct{}   `json:"-"`
	SupportIdGroup  map[int32]struct{}   `json:"-"`
	IntermissionZones map[int32]bool     `json:"intermission_zones"` // zone id -> true if "end of intermission" zone
	GetupSkillType  string               `json:"getup_skill_type"`

	supportAPGroupRaw []int32
	supportIdGroupRaw []int32
}

// tablesJSON mirrors Tables but with the raw group slices that get
// turned into sets after decoding.
type tablesJSON struct {
	Skills            map[int64]SkillInfo `json:"skills"`
	Buffs             map[uint64]BuffInfo `json:"buffs"`
	Npcs              map[int32]NpcInfo   `json:"npcs"`
	GemToSkill        map[int32]int64     `json:"gem_to_skill"`
	Engravings        map[int32]string    `json:"engravings"`
	StatTypeNames     map[int32]string    `json:"stat_type_names"`
	CombatEffects     map[int64]string    `json:"combat_effects"`
	RaidZoneMap       map[int32]string    `json:"raid_zone_map"`
	SupportAPGroup    []int32             `json:"support_ap_group"`
	SupportIdGroup    []int32             `json:"support_identity_group"`
	IntermissionZones map[int32]bool      `json:"intermission_zones"`
	GetupSkillType    string              `json:"getup_skill_type"`
}

// BrandUniqueGroup is the fixed `unique_group` value identifying the
// support "brand" debuff group (spec glossary).
const BrandUniqueGroup int32 = 210230

// Load reads a JSON file produced by the game-data export tooling
// (out of scope; see spec §1) and returns a frozen Tables.
func Load(path string) (*Tables, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading static data %s: %w", path, err)
	}
	var tj tablesJSON
	if err := json.Unmarshal(raw, &tj); err != nil {
		return nil, fmt.Errorf("parsing static data %s: %w", path, err)
	}
	return fromJSON(tj), nil
}

func fromJSON(tj tablesJSON) *Tables {
	t := &Tables{
		Skills:            tj.Skills,
		Buffs:             tj.Buffs,
		Npcs:              tj.Npcs,
		GemToSkill:        tj.GemToSkill,
		Engravings:        tj.Engravings,
		StatTypeNames:     tj.StatTypeNames,
		CombatEffects:     tj.CombatEffects,
		RaidZoneMap:       tj.RaidZoneMap,
		IntermissionZones: tj.IntermissionZones,
		GetupSkillType:    tj.GetupSkillType,
		SupportAPGroup:    make(map[int32]struct{}, len(tj.SupportAPGroup)),
		SupportIdGroup:    make(map[int32]struct{}, len(tj.SupportIdGroup)),
	}
	for _, g := range tj.SupportAPGroup {
		t.SupportAPGroup[g] = struct{}{}
	}
	for _, g := range tj.SupportIdGroup {
		t.SupportIdGroup[g] = struct{}{}
	}
	if t.Skills == nil {
		t.Skills = map[int64]SkillInfo{}
	}
	if t.Buffs == nil {
		t.Buffs = map[uint64]BuffInfo{}
	}
	if t.Npcs == nil {
		t.Npcs = map[int32]NpcInfo{}
	}
	return t
}

// Empty returns a Tables with every map initialized but empty — useful
// for tests and as a safe zero-value when no static data file is
// configured (every lookup then degrades per spec §7).
func Empty() *Tables {
	return fromJSON(tablesJSON{})
}

// Skill looks up a skill by id. The bool reports whether it was found;
// callers degrade to an id-derived name/empty icon on miss (spec §7).
func (t *Tables) Skill(id int64) (SkillInfo, bool) {
	s, ok := t.Skills[id]
	return s, ok
}

// SkillByName finds a skill definition by name, used when a caster's
// skill table already has an entry under a different id for the same
// name (spec §4.5 attribution rule 1, "renaming collisions").
func (t *Tables) SkillByName(name string) (SkillInfo, bool) {
	for _, s := range t.Skills {
		if s.Name == name {
			return s, true
		}
	}
	return SkillInfo{}, false
}

// Buff looks up a buff/debuff definition by id.
func (t *Tables) Buff(id uint64) (BuffInfo, bool) {
	b, ok := t.Buffs[id]
	return b, ok
}

// Npc looks up an NPC definition by id.
func (t *Tables) Npc(id int32) (NpcInfo, bool) {
	n, ok := t.Npcs[id]
	return n, ok
}

// IsIntermissionZone reports whether zoneID is one of the three
// designated intermission zones (spec §4.5 Transit handler).
func (t *Tables) IsIntermissionZone(zoneID int32) bool {
	_, ok := t.IntermissionZones[zoneID]
	return ok
}

// IsEndOfIntermissionZone reports whether entering zoneID should stamp
// intermission_end when an intermission is already in progress.
func (t *Tables) IsEndOfIntermissionZone(zoneID int32) bool {
	return t.IntermissionZones[zoneID]
}
