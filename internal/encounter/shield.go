package encounter

import (
	"github.com/udisondev/raidtrack/internal/model"
	"github.com/udisondev/raidtrack/internal/tracker/status"
)

// handleShield covers ShieldAdd/Remove/Sync (spec §4.2, §4.5). Shields
// are always Local-scoped: they are tracked per entity id regardless of
// party membership, matching how the client reports them.
func (e *Engine) handleShield(ev ShieldEvent) {
	switch ev.Kind {
	case ShieldAdd:
		inst := &model.StatusEffectInstance{
			InstanceID:         ev.InstanceID,
			SourceEntityID:     ev.SourceID,
			TargetID:           ev.TargetID,
			TargetScope:        model.ScopeLocal,
			Value:              ev.Value,
			EffectType:         model.EffectShield,
			Category:           model.CategoryBuff,
			ExpirationDelaySec: ev.ExpirationDelaySec,
			TimestampMs:        ev.TimestampMs,
		}
		e.statuses.Register(inst)

		source := e.entities.GetSourceEntity(ev.SourceID)
		target := e.entities.GetSourceEntity(ev.TargetID)
		sourceEE := e.enc.EnsureEntity(source.Name, source.Type)
		targetEE := e.enc.EnsureEntity(target.Name, target.Type)
		sourceEE.DamageStats.ShieldsGiven[target.Name] += ev.Value
		targetEE.DamageStats.ShieldsReceived[source.Name] += ev.Value
		targetEE.DamageStats.TotalShielding += ev.Value
		e.enc.DamageStats.TotalShielding += ev.Value

	case ShieldSync:
		inst, prev := e.statuses.Sync(ev.TargetID, ev.InstanceID, model.ScopeLocal, ev.Value)
		if inst == nil {
			return
		}
		absorbed := prev - ev.Value
		if absorbed <= 0 {
			return
		}
		source := e.entities.GetSourceEntity(inst.SourceEntityID)
		target := e.entities.GetSourceEntity(ev.TargetID)
		targetEE := e.enc.EnsureEntity(target.Name, target.Type)
		targetEE.DamageStats.DamageAbsorbed += absorbed
		targetEE.DamageStats.DamageAbsorbedBy[source.Name] += absorbed
		sourceEE := e.enc.EnsureEntity(source.Name, source.Type)
		sourceEE.DamageStats.DamageAbsorbedOnOthers += absorbed
		sourceEE.DamageStats.DamageAbsorbedOnOthersBy[target.Name] += absorbed
		e.enc.DamageStats.TotalEffectiveShielding += absorbed

	case ShieldRemove:
		reason := status.RemoveReason(ev.Reason)
		e.statuses.Remove(ev.TargetID, []uint32{ev.InstanceID}, reason, model.ScopeLocal)
	}
}

// statusScopeAndTarget resolves where a PartyStatusEffect* event's
// target lives: Party registry keyed by character id, or Local
// registry keyed by the character's current entity id (spec §4.2
// ResolveScope).
func (e *Engine) statusScopeAndTarget(characterID uint64) (model.TargetScope, uint64) {
	scope := status.ResolveScope(e.parties, characterID, e.localCharacterID)
	if scope == model.ScopeParty {
		return scope, characterID
	}
	if entityID, ok := e.parties.EntityIDFor(characterID); ok {
		return scope, entityID
	}
	return scope, characterID
}

// handlePartyStatusEffectAdd registers a new buff/debuff instance,
// forwarding shield grants to the shield handler and opening a hard-CC
// incapacitation span when the static data marks the effect as such
// (spec §4.5).
func (e *Engine) handlePartyStatusEffectAdd(ev PartyStatusEffectEvent) {
	if ev.IsShield {
		targetEntityID := ev.CharacterID
		if id, ok := e.parties.EntityIDFor(ev.CharacterID); ok {
			targetEntityID = id
		}
		e.handleShield(ShieldEvent{
			Kind:               ShieldAdd,
			SourceID:           ev.SourceEntityID,
			TargetID:           targetEntityID,
			InstanceID:         ev.InstanceIDs[0],
			Value:              ev.Value,
			ExpirationDelaySec: ev.ExpirationDelaySec,
			TimestampMs:        ev.TimestampMs,
		})
		return
	}

	scope, targetID := e.statusScopeAndTarget(ev.CharacterID)
	buffID := e.customIDs.Resolve(ev.StatusEffectID)
	info, _ := e.tables.Buff(buffID)

	category := model.CategoryOther
	switch info.Category {
	case "buff":
		category = model.CategoryBuff
	case "debuff":
		category = model.CategoryDebuff
	}
	effectType := model.EffectOther
	if info.EffectType == "hardcc" {
		effectType = model.EffectHardCC
	}

	for _, instanceID := range ev.InstanceIDs {
		inst := &model.StatusEffectInstance{
			InstanceID:         instanceID,
			StatusEffectID:     uint32(buffID),
			SourceEntityID:     ev.SourceEntityID,
			TargetID:           targetID,
			TargetScope:        scope,
			Value:              ev.Value,
			ExpirationDelaySec: ev.ExpirationDelaySec,
			Category:           category,
			BuffCategory:       info.BuffCategory,
			ShowType:           info.ShowType,
			EffectType:         effectType,
			UniqueGroup:        info.UniqueGroup,
			Name:               info.Name,
			TimestampMs:        ev.TimestampMs,
		}
		e.statuses.Register(inst)
		e.recordKnownBuff(buffID, info.Name, category)

		if effectType == model.EffectHardCC {
			en := e.entities.GetSourceEntity(ev.CharacterID)
			ee := e.enc.EnsureEntity(en.Name, en.Type)
			e.startIncapacitation(targetID, ee, model.IncapHardCC, ev.TimestampMs, int64(ev.ExpirationDelaySec*1000))
		}
	}
}

// recordKnownBuff records buffID in the encounter-wide seen-buff maps
// (spec §3 EncounterDamageStats.Buffs/Debuffs), flagging lookup misses
// as unknown rather than dropping them (spec §7).
func (e *Engine) recordKnownBuff(buffID uint64, name string, category model.StatusEffectCategory) {
	switch category {
	case model.CategoryBuff:
		if _, ok := e.enc.DamageStats.Buffs[buffID]; !ok {
			e.enc.DamageStats.Buffs[buffID] = name
		}
	case model.CategoryDebuff:
		if _, ok := e.enc.DamageStats.Debuffs[buffID]; !ok {
			e.enc.DamageStats.Debuffs[buffID] = name
		}
	default:
		if name == "" {
			e.enc.DamageStats.UnknownBuffs[buffID] = struct{}{}
		}
	}
}

// handlePartyStatusEffectRemove drops instances from the resolved
// registry, closing any open hard-CC span they back (spec §4.2, §4.5).
func (e *Engine) handlePartyStatusEffectRemove(ev PartyStatusEffectEvent) {
	scope, targetID := e.statusScopeAndTarget(ev.CharacterID)
	reason := status.RemoveReason(0)
	res := e.statuses.Remove(targetID, ev.InstanceIDs, reason, scope)
	for _, removed := range res.Removed {
		if removed.EffectType == model.EffectHardCC {
			en := e.entities.GetSourceEntity(ev.CharacterID)
			ee := e.enc.EnsureEntity(en.Name, en.Type)
			e.endIncapacitation(targetID, ee, ev.TimestampMs)
		}
	}
}

// handlePartyStatusEffectSync updates a live instance's Value (spec
// §4.2 `sync`) — used for non-shield stacking effects whose potency
// changes without a remove/re-add pair.
func (e *Engine) handlePartyStatusEffectSync(ev PartyStatusEffectEvent) {
	scope, targetID := e.statusScopeAndTarget(ev.CharacterID)
	for _, instanceID := range ev.InstanceIDs {
		e.statuses.Sync(targetID, instanceID, scope, ev.Value)
	}
}
