// Package entity implements the lifecycle tracker for every observed
// world object — players, NPCs, bosses, summons and projectiles/traps
// (spec §4.3).
package entity

import (
	"fmt"

	"github.com/udisondev/raidtrack/internal/data"
	"github.com/udisondev/raidtrack/internal/model"
	"github.com/udisondev/raidtrack/internal/tracker/idparty"
)

// Tracker owns the live entity map, keyed by entity id.
type Tracker struct {
	entities map[uint64]*model.Entity
	parties  *idparty.Tracker
	tables   *data.Tables

	localPlayerCharacterID uint64
}

// New returns an empty tracker bound to the shared id/party tracker
// and static data tables.
func New(parties *idparty.Tracker, tables *data.Tables) *Tracker {
	return &Tracker{
		entities: make(map[uint64]*model.Entity),
		parties:  parties,
		tables:   tables,
	}
}

// Get returns the entity for id, if tracked.
func (t *Tracker) Get(id uint64) (*model.Entity, bool) {
	e, ok := t.entities[id]
	return e, ok
}

// All returns every tracked entity (callers must not mutate the slice
// contents across packet boundaries; clone for snapshots).
func (t *Tracker) All() map[uint64]*model.Entity { return t.entities }

// InitEnv reassigns the local player's entity id, carrying its party
// membership, and clears every other entity (spec §4.3). CharacterID
// is preserved.
func (t *Tracker) InitEnv(newPlayerID uint64) {
	var local *model.Entity
	for _, e := range t.entities {
		if e.CharacterID == t.localPlayerCharacterID && t.localPlayerCharacterID != 0 {
			local = e
			break
		}
	}
	oldID := uint64(0)
	if local != nil {
		oldID = local.EntityID
	}

	t.entities = make(map[uint64]*model.Entity)
	if local != nil {
		t.parties.ChangeEntityID(oldID, newPlayerID)
		local.EntityID = newPlayerID
		t.entities[newPlayerID] = local
	}
}

// InitPC declares the local player with canonical fields, clearing
// registries done by the caller (encounter orchestrator); this tracker
// only owns the entity map (spec §4.3).
func (t *Tracker) InitPC(pc *model.Entity) {
	pc.Type = model.EntityPlayer
	t.localPlayerCharacterID = pc.CharacterID
	t.entities[pc.EntityID] = pc
	t.parties.AddMapping(pc.CharacterID, pc.EntityID)
}

// upsertByCharacterID reconciles an incoming row with any existing row
// sharing the same character id, migrating party mappings (spec §4.3
// "new_pc ... reconciling with any existing row by character id").
func (t *Tracker) upsertByCharacterID(e *model.Entity) {
	if e.CharacterID != 0 {
		for id, existing := range t.entities {
			if existing.CharacterID == e.CharacterID && id != e.EntityID {
				delete(t.entities, id)
				t.parties.ChangeEntityID(id, e.EntityID)
			}
		}
		t.parties.AddMapping(e.CharacterID, e.EntityID)
	}
	t.entities[e.EntityID] = e
}

// NewPC upserts a player entity. NewPC never overwrites a non-zero
// MaxHP with zero (spec §4.5 NewPC handler contract).
func (t *Tracker) NewPC(e *model.Entity) {
	if existing, ok := t.entities[e.EntityID]; ok && existing.MaxHP > 0 && e.MaxHP == 0 {
		e.MaxHP = existing.MaxHP
	}
	e.Type = model.EntityPlayer
	t.upsertByCharacterID(e)
}

// NewNpc upserts an NPC/boss entity, classifying it as Boss when the
// static grade/max-HP/name predicate holds (spec §4.3).
func (t *Tracker) NewNpc(e *model.Entity, grade string) bool {
	isBoss := model.IsBossCandidate(grade, e.MaxHP, e.Name)
	if isBoss {
		e.Type = model.EntityBoss
	} else if e.Type == model.EntityUnknown {
		e.Type = model.EntityNpc
	}
	t.entities[e.EntityID] = e
	return isBoss
}

// NewNpcSummon is identical to NewNpc for tracking purposes; summons
// that are also NPC-typed (e.g. guardian constructs) go through the
// same boss classification.
func (t *Tracker) NewNpcSummon(e *model.Entity, grade string) bool {
	return t.NewNpc(e, grade)
}

// NewProjectile inserts a minimal projectile row owned by ownerID.
func (t *Tracker) NewProjectile(projectileID, ownerID uint64) {
	t.entities[projectileID] = &model.Entity{EntityID: projectileID, Type: model.EntityProjectile, OwnerID: ownerID}
}

// NewTrap inserts a minimal trap row owned by ownerID (traps are
// tracked identically to projectiles for source-resolution purposes).
func (t *Tracker) NewTrap(trapID, ownerID uint64) {
	t.entities[trapID] = &model.Entity{EntityID: trapID, Type: model.EntityProjectile, OwnerID: ownerID}
}

// Remove drops an entity from the map (RemoveObject packet).
func (t *Tracker) Remove(id uint64) { delete(t.entities, id) }

// GetSourceEntity resolves the true damage source for id: if id is a
// projectile/summon, substitutes the owner; if id is untracked,
// synthesizes an Unknown entity named after the hex of id (spec
// §4.3).
func (t *Tracker) GetSourceEntity(id uint64) *model.Entity {
	e, ok := t.entities[id]
	if !ok {
		synth := &model.Entity{EntityID: id, Type: model.EntityUnknown, Name: fmt.Sprintf("%x", id)}
		t.entities[id] = synth
		return synth
	}
	if e.Type == model.EntityProjectile || e.Type == model.EntitySummon {
		if owner, ok := t.entities[e.OwnerID]; ok {
			return owner
		}
		return e
	}
	return e
}

// GuessIsPlayer promotes an Unknown or class-0 Player entity to Player
// with the class the skill id maps to, if known. Idempotent (spec
// §4.3).
func (t *Tracker) GuessIsPlayer(id uint64, skillID int64) {
	e, ok := t.entities[id]
	if !ok {
		return
	}
	if e.Type != model.EntityUnknown && !(e.Type == model.EntityPlayer && e.ClassID == 0) {
		return
	}
	info, found := t.tables.Skill(skillID)
	if !found || info.ClassID == 0 {
		return
	}
	e.Type = model.EntityPlayer
	e.ClassID = info.ClassID
}

// PartyMember is one observed party-refresh row.
type PartyMember struct {
	CharacterID     uint64
	EntityID        uint64
	Name            string
	PartyInstanceID int32
	RaidInstanceID  int32
}

// PartyInfo processes one party refresh: if the local player's name is
// still unknown, picks the entry whose character id matches the
// cached local player with the highest observed refresh count, then
// reseats mappings for every member (spec §4.3).
func (t *Tracker) PartyInfo(members []PartyMember, localNameKnown bool) {
	if !localNameKnown {
		for _, m := range members {
			if m.CharacterID == t.localPlayerCharacterID {
				t.parties.CompleteEntry(m.CharacterID, m.EntityID)
			}
		}
	}
	for _, m := range members {
		t.parties.Add(m.PartyInstanceID, m.RaidInstanceID, m.CharacterID, m.EntityID, m.Name)
	}
}
