// Package status implements the two-tiered status-effect registry of
// spec §4.2: a Local registry keyed by entity id and a Party registry
// keyed by character id, with lazy read-time expiration.
package status

import (
	"github.com/udisondev/raidtrack/internal/data"
	"github.com/udisondev/raidtrack/internal/model"
	"github.com/udisondev/raidtrack/internal/tracker/idparty"
)

// RemoveReason enumerates why a status effect was removed. Reason 4 is
// "shield depleted" (spec §4.2 `remove`).
type RemoveReason int

const ReasonShieldDepleted RemoveReason = 4

// Registry is the two-tiered buff/debuff store.
type Registry struct {
	local map[uint64]map[uint32]*model.StatusEffectInstance // entity id -> instance id -> instance
	party map[uint64]map[uint32]*model.StatusEffectInstance // character id -> instance id -> instance

	parties *idparty.Tracker
}

// New returns an empty registry bound to the id/party tracker used to
// decide local-vs-party scoping.
func New(parties *idparty.Tracker) *Registry {
	return &Registry{
		local:   make(map[uint64]map[uint32]*model.StatusEffectInstance),
		party:   make(map[uint64]map[uint32]*model.StatusEffectInstance),
		parties: parties,
	}
}

// ResolveScope decides whether an effect applied to characterID (with
// its EntityID) should be routed to Party or Local, per spec §4.2: an
// incoming effect on character X is routed to Party iff X shares a
// party with the local player and X is not the local player;
// otherwise to Local. The local player's own buffs always live in
// Local.
func ResolveScope(parties *idparty.Tracker, characterID, localCharacterID uint64) model.TargetScope {
	if parties.SamePartyAs(characterID, localCharacterID) {
		return model.ScopeParty
	}
	return model.ScopeLocal
}

// Register inserts inst, computing its ExpireAtMs from
// ExpirationDelaySec per spec §4.2: `timestamp + (delay*1000 +
// GRACE_MS)` when `0 < delay < 604800`, else infinite.
func (r *Registry) Register(inst *model.StatusEffectInstance) {
	if inst.ExpirationDelaySec > 0 && inst.ExpirationDelaySec < model.MaxFiniteExpirationSec {
		expireAt := inst.TimestampMs + int64(inst.ExpirationDelaySec*1000) + model.GraceMs
		inst.ExpireAtMs = &expireAt
	} else {
		inst.ExpireAtMs = nil
	}

	registry := r.registryFor(inst.TargetScope)
	m, ok := registry[inst.TargetID]
	if !ok {
		m = make(map[uint32]*model.StatusEffectInstance)
		registry[inst.TargetID] = m
	}
	m[inst.InstanceID] = inst
}

func (r *Registry) registryFor(scope model.TargetScope) map[uint64]map[uint32]*model.StatusEffectInstance {
	if scope == model.ScopeParty {
		return r.party
	}
	return r.local
}

// RemoveResult is the return shape of Remove (spec §4.2).
type RemoveResult struct {
	HadShield     bool
	BrokenShields []*model.StatusEffectInstance
	Removed       []*model.StatusEffectInstance
	LeftWorkshop  bool
}

// Remove deletes the given instance ids from target's registry.
// Instances removed with ReasonShieldDepleted are collected into
// BrokenShields, not Removed (spec §4.2).
func (r *Registry) Remove(targetID uint64, instanceIDs []uint32, reason RemoveReason, scope model.TargetScope) RemoveResult {
	var res RemoveResult
	m := r.registryFor(scope)[targetID]
	if m == nil {
		return res
	}
	for _, id := range instanceIDs {
		inst, ok := m[id]
		if !ok {
			continue
		}
		delete(m, id)
		if inst.EffectType == model.EffectShield {
			res.HadShield = true
		}
		if inst.EffectType == model.EffectShield && reason == ReasonShieldDepleted {
			res.BrokenShields = append(res.BrokenShields, inst)
			continue
		}
		res.Removed = append(res.Removed, inst)
	}
	return res
}

// Sync updates an instance's Value in place (live shield refresh,
// spec §4.2 `sync`). Returns the instance (nil if not found) and its
// previous value.
func (r *Registry) Sync(targetID uint64, instanceID uint32, scope model.TargetScope, newValue int64) (*model.StatusEffectInstance, int64) {
	m := r.registryFor(scope)[targetID]
	if m == nil {
		return nil, 0
	}
	inst, ok := m[instanceID]
	if !ok {
		return nil, 0
	}
	old := inst.Value
	inst.Value = newValue
	return inst, old
}

// RemoveLocalObject and RemovePartyObject drop an entire target's registry bucket (RemoveObject
// packet, and NewPC/InitPC re-registration per spec §4.2).
func (r *Registry) RemoveLocalObject(entityID uint64) { delete(r.local, entityID) }
func (r *Registry) RemovePartyObject(characterID uint64) { delete(r.party, characterID) }

// purgeExpired removes expired instances from m at read time (spec
// §4.2 "Expiration is evaluated at read time, not by a timer").
func purgeExpired(m map[uint32]*model.StatusEffectInstance, nowMs int64) {
	for id, inst := range m {
		if inst.IsExpired(nowMs) {
			delete(m, id)
		}
	}
}

func (r *Registry) actuallyGet(targetID uint64, scope model.TargetScope, nowMs int64) []*model.StatusEffectInstance {
	m := r.registryFor(scope)[targetID]
	if m == nil {
		return nil
	}
	purgeExpired(m, nowMs)
	out := make([]*model.StatusEffectInstance, 0, len(m))
	for _, inst := range m {
		out = append(out, inst)
	}
	return out
}

// isValidForRaid implements spec §4.2's "valid-for-raid" predicate:
// battle-item/bracelet/etc category, Debuff, show-type "all".
func isValidForRaid(inst *model.StatusEffectInstance) bool {
	switch inst.BuffCategory {
	case "battleitem", "bracelet", "etc":
	default:
		return false
	}
	return inst.Category == model.CategoryDebuff && inst.ShowType == "all"
}

// EffectRef is a (status effect id, source entity id) pair, the shape
// GetStatusEffects returns (spec §4.2).
type EffectRef struct {
	StatusEffectID uint32
	SourceEntityID uint64
}

// SourceView carries the minimal entity shape GetStatusEffects needs.
type SourceView struct {
	EntityID    uint64
	CharacterID uint64
	IsPlayer    bool
}

// GetStatusEffects returns (effects_on_source, effects_on_target) per
// spec §4.2: effects_on_target excludes Local-scope debuffs applied by
// third parties with db_target_type="self"; if source has a known
// party, target effects are further filtered to valid-for-raid or
// same-party-as-source.
func (r *Registry) GetStatusEffects(source, target SourceView, localCharacterID uint64, nowMs int64) (onSource, onTarget []EffectRef) {
	useSourceParty := source.IsPlayer && r.parties.SamePartyAs(source.CharacterID, localCharacterID)
	var sourceList []*model.StatusEffectInstance
	if useSourceParty {
		sourceList = r.actuallyGet(source.CharacterID, model.ScopeParty, nowMs)
	} else {
		sourceList = r.actuallyGet(source.EntityID, model.ScopeLocal, nowMs)
	}
	for _, inst := range sourceList {
		onSource = append(onSource, EffectRef{StatusEffectID: inst.StatusEffectID, SourceEntityID: inst.SourceEntityID})
	}

	useTargetParty := source.IsPlayer && r.parties.SamePartyAs(target.CharacterID, localCharacterID)
	sourcePK, hasSourcePK := r.parties.EntityIDToPartyID(source.EntityID)

	var targetList []*model.StatusEffectInstance
	switch {
	case useTargetParty && hasSourcePK:
		targetList = r.filteredByParty(target.CharacterID, model.ScopeParty, sourcePK, nowMs)
	case !useTargetParty && hasSourcePK:
		targetList = r.filteredByParty(target.EntityID, model.ScopeLocal, sourcePK, nowMs)
	case useTargetParty:
		targetList = r.actuallyGet(target.CharacterID, model.ScopeParty, nowMs)
	default:
		targetList = r.actuallyGet(target.EntityID, model.ScopeLocal, nowMs)
	}

	for _, inst := range targetList {
		if inst.TargetScope == model.ScopeLocal && inst.DBTargetType == "self" && inst.SourceEntityID != target.EntityID {
			continue
		}
		onTarget = append(onTarget, EffectRef{StatusEffectID: inst.StatusEffectID, SourceEntityID: inst.SourceEntityID})
	}
	return onSource, onTarget
}

func (r *Registry) filteredByParty(targetID uint64, scope model.TargetScope, sourcePK idparty.PartyKey, nowMs int64) []*model.StatusEffectInstance {
	all := r.actuallyGet(targetID, scope, nowMs)
	out := make([]*model.StatusEffectInstance, 0, len(all))
	for _, inst := range all {
		if isValidForRaid(inst) {
			out = append(out, inst)
			continue
		}
		if pk, ok := r.parties.EntityIDToPartyID(inst.SourceEntityID); ok && pk == sourcePK {
			out = append(out, inst)
		}
	}
	return out
}

// Clear wipes both registries (spec §4.2).
func (r *Registry) Clear() {
	r.local = make(map[uint64]map[uint32]*model.StatusEffectInstance)
	r.party = make(map[uint64]map[uint32]*model.StatusEffectInstance)
}

// IsBrandDebuff reports whether inst belongs to the support "brand"
// group used by the debuffed-by-support attribution flag (spec §4.5).
func IsBrandDebuff(inst *model.StatusEffectInstance) bool {
	return inst.UniqueGroup == data.BrandUniqueGroup
}
