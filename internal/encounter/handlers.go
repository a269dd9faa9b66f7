package encounter

import (
	"github.com/udisondev/raidtrack/internal/model"
	"github.com/udisondev/raidtrack/internal/tracker/entity"
	"github.com/udisondev/raidtrack/internal/tracker/idparty"
)

// handleInitEnv is a hard reset (spec §4.5): the local player's entity
// id changed (zone-in after a client restart or character switch).
// Every tracker is wiped except the id/party bijection's knowledge of
// the local player, which is carried over to the new entity id.
func (e *Engine) handleInitEnv(ev InitEnvEvent) {
	if e.enc.CurrentBossName != "" {
		e.requestSave()
	}
	e.entities.InitEnv(ev.NewPlayerID)
	e.statuses.Clear()
	e.customIDs.Clear()
	e.zoneID = 0
	e.enc = model.NewEncounter(e.enc.LocalPlayerName)
	e.enc.BossOnlyDamage = e.bossOnlyDefault
	e.emit("zone-change", nil)
}

// handleTransit updates the current zone and its derived difficulty,
// and stamps intermission bookkeeping (spec §4.5 Transit handler, §12
// supplement "difficulty inference").
func (e *Engine) handleTransit(ev TransitEvent) {
	e.zoneID = ev.ZoneID
	if diff, ok := e.tables.RaidZoneMap[ev.ZoneID]; ok {
		e.enc.Difficulty = diff
	}
	switch {
	case e.tables.IsIntermissionZone(ev.ZoneID) && e.enc.IntermissionStart == nil:
		start := e.enc.LastCombatPacketMs
		e.enc.IntermissionStart = &start
	case e.tables.IsEndOfIntermissionZone(ev.ZoneID) && e.enc.IntermissionStart != nil && e.enc.IntermissionEnd == nil:
		end := e.enc.LastCombatPacketMs
		e.enc.IntermissionEnd = &end
	}
	e.emit("zone-change", ev.ZoneID)
}

// handleInitPC declares the local player's canonical identity. Any
// previously tracked entity sharing the character id is folded in
// (spec §4.3, §4.5).
func (e *Engine) handleInitPC(ev PCEvent) {
	e.parties.SetName(ev.Name)
	e.localNameKnown = ev.Name != ""
	e.localCharacterID = ev.CharacterID
	pc := &model.Entity{
		EntityID:    ev.EntityID,
		CharacterID: ev.CharacterID,
		Name:        ev.Name,
		Type:        model.EntityPlayer,
		ClassID:     ev.ClassID,
		CurrentHP:   ev.CurrentHP,
		MaxHP:       ev.MaxHP,
		GearLevel:   ev.GearLevel,
	}
	e.entities.InitPC(pc)
	e.statuses.RemoveLocalObject(pc.EntityID)
	e.enc.LocalPlayerName = pc.Name
	e.syncPlayerIdentity(pc)
	if e.enc.FightStartMs == 0 {
		e.enc.FightStartMs = ev.TimestampMs
		e.skills.SetFightStart(ev.TimestampMs)
	}
}

// syncPlayerIdentity copies the identity fields a player's
// EncounterEntity needs for persistence (class, character id, gear
// level) from its freshly upserted model.Entity row. The live packet
// path otherwise only ever touches DamageStats/SkillStats, so these
// would stay zero for a player who is never EnsureEntity'd by a hit
// they land themselves.
func (e *Engine) syncPlayerIdentity(pc *model.Entity) {
	ee := e.enc.EnsureEntity(pc.Name, model.EntityPlayer)
	ee.EntityID = pc.EntityID
	ee.CharacterID = pc.CharacterID
	ee.ClassID = pc.ClassID
	ee.GearLevel = pc.GearLevel
	if pc.MaxHP > 0 {
		ee.MaxHP = pc.MaxHP
	}
	ee.CurrentHP = pc.CurrentHP
}

// handleNewPC upserts a player row (local or remote), reconciling by
// character id (spec §4.3).
func (e *Engine) handleNewPC(ev PCEvent) {
	pc := &model.Entity{
		EntityID:    ev.EntityID,
		CharacterID: ev.CharacterID,
		Name:        ev.Name,
		Type:        model.EntityPlayer,
		ClassID:     ev.ClassID,
		CurrentHP:   ev.CurrentHP,
		MaxHP:       ev.MaxHP,
		GearLevel:   ev.GearLevel,
	}
	e.entities.NewPC(pc)
	e.statuses.RemoveLocalObject(pc.EntityID)
	e.syncPlayerIdentity(pc)
	e.emit("party-update", nil)
}

// handleNewNpc upserts an NPC/boss/summon row and, when it classifies
// as a boss with strictly greater max HP than the currently tracked
// boss (or no boss is tracked yet), reassigns CurrentBossName (spec
// §4.3, §4.5).
func (e *Engine) handleNewNpc(ev NpcEvent, isSummon bool) {
	en := &model.Entity{
		EntityID:  ev.EntityID,
		Name:      ev.Name,
		CurrentHP: ev.CurrentHP,
		MaxHP:     ev.MaxHP,
		NpcID:     ev.NpcID,
		OwnerID:   ev.OwnerID,
	}
	var isBoss bool
	if isSummon {
		en.Type = model.EntitySummon
		isBoss = e.entities.NewNpcSummon(en, ev.Grade)
	} else {
		isBoss = e.entities.NewNpc(en, ev.Grade)
	}
	if !isBoss {
		return
	}
	current, hasCurrent := e.enc.Entities[e.enc.CurrentBossName]
	if !hasCurrent || current.Type != model.EntityBoss || en.MaxHP > current.MaxHP {
		e.enc.CurrentBossName = en.Name
	}
	ee := e.enc.EnsureEntity(en.Name, model.EntityBoss)
	ee.EntityID = en.EntityID
	ee.NpcID = en.NpcID
	ee.MaxHP = en.MaxHP
	ee.CurrentHP = en.CurrentHP
	e.emit("encounter-update", nil)
}

// handleDeath marks an entity dead and, for the current boss, records
// a BossHPLogEntry at zero (spec §3, §4.5).
func (e *Engine) handleDeath(ev DeathEvent) {
	en, ok := e.entities.Get(ev.EntityID)
	if !ok {
		return
	}
	ee, ok := e.enc.Entities[en.Name]
	if !ok {
		return
	}
	ee.IsDead = true
	ee.DamageStats.DeathInfos = append(ee.DamageStats.DeathInfos, model.DeathInfo{
		DeathTimeMs:   ev.TimestampMs,
		BossHPAtDeath: ev.BossHPAtDeath,
	})
	if en.Type == model.EntityBoss && en.Name == e.enc.CurrentBossName {
		e.recordBossHP(en.Name, ev.TimestampMs, 0)
	}
}

// handleSkillCooldownNotify threads a caster's cooldown-start event
// into the skill tracker (spec §4.4, §4.5).
func (e *Engine) handleSkillCooldownNotify(ev SkillCooldownNotifyEvent) {
	dur := int64(ev.CurrentCooldownSec * 1000)
	if ev.HasStacks {
		dur = int64(ev.CurrentStackCooldown * 1000)
	}
	e.skills.RecordCooldown(ev.SkillID, ev.TimestampMs, dur)
}

// handleSkillStart records a cast and promotes the caster to a typed
// Player entity when its skill id resolves to a known class (spec
// §4.3 GuessIsPlayer, §4.4, §4.5).
func (e *Engine) handleSkillStart(ev SkillStartEvent) {
	e.entities.GuessIsPlayer(ev.CasterID, ev.SkillID)
	e.skills.NewCast(ev.CasterID, ev.SkillID, ev.SummonSkillIDs, ev.TimestampMs)

	en := e.entities.GetSourceEntity(ev.CasterID)
	ee := e.enc.EnsureEntity(en.Name, en.Type)
	if en.Type == model.EntityPlayer && ee.ClassID == 0 {
		ee.ClassID = en.ClassID
		ee.CharacterID = en.CharacterID
		ee.EntityID = en.EntityID
	}
	ee.SkillStats.Casts++
	sk, ok := ee.Skills[ev.SkillID]
	if !ok {
		name, icon := ev.SkillName, ev.Icon
		if info, found := e.tables.Skill(ev.SkillID); found {
			if name == "" {
				name = info.Name
			}
			if icon == "" {
				icon = info.Icon
			}
		}
		sk = model.NewSkill(ev.SkillID, name, icon)
		ee.Skills[ev.SkillID] = sk
	}
	sk.Casts++
	if ev.IsGetup {
		e.endIncapacitation(ev.CasterID, ee, ev.TimestampMs)
	}
}

// handleRemoveObject drops an entity and its local status-effect
// bucket (spec §4.2, §4.3, §4.5).
func (e *Engine) handleRemoveObject(ev RemoveObjectEvent) {
	e.entities.Remove(ev.EntityID)
	e.statuses.RemoveLocalObject(ev.EntityID)
}

// handleCounterattack increments the source's counter count (spec
// §4.5).
func (e *Engine) handleCounterattack(ev CounterattackEvent) {
	en := e.entities.GetSourceEntity(ev.SourceID)
	ee := e.enc.EnsureEntity(en.Name, en.Type)
	ee.SkillStats.Counters++
}

// handleRaidBegin starts a new raid instance: party/id mappings are
// kept, but the live Encounter is reset (soft reset, spec §4.5,
// §4.5.2).
func (e *Engine) handleRaidBegin(ev RaidBeginEvent) {
	e.raidInstanceID = ev.RaidID
	e.softReset()
}

// handleRaidClearSignal handles RaidResult/RaidBossKillNotify/
// TriggerBossBattleStatus, all of which mark the current fight as
// cleared (spec §4.5, §4.5.2).
func (e *Engine) handleRaidClearSignal() {
	e.enc.Cleared = true
	e.enc.RaidClear = true
	e.transitionPhase(phaseCleared)
	e.requestSave()
}

// handleZoneMemberLoadStatus is used only to refine difficulty
// inference when the raid-zone map is ambiguous (spec §12 supplement).
func (e *Engine) handleZoneMemberLoadStatus(ev ZoneMemberLoadStatusEvent) {
	if diff, ok := e.tables.RaidZoneMap[ev.ZoneID]; ok && e.enc.Difficulty == "" {
		e.enc.Difficulty = diff
	}
}

// handlePartyInfo refreshes party membership for every listed member
// (spec §4.1, §4.3, §4.5).
func (e *Engine) handlePartyInfo(ev PartyInfoEvent) {
	members := make([]entity.PartyMember, 0, len(ev.Members))
	for _, m := range ev.Members {
		members = append(members, entity.PartyMember{
			CharacterID:     m.CharacterID,
			EntityID:        m.EntityID,
			Name:            m.Name,
			PartyInstanceID: m.PartyInstanceID,
			RaidInstanceID:  m.RaidInstanceID,
		})
	}
	e.entities.PartyInfo(members, e.localNameKnown)
	e.emit("party-update", nil)
}

// handlePartyLeaveResult drops a party's membership mappings (spec
// §4.1, §4.5).
func (e *Engine) handlePartyLeaveResult(ev PartyLeaveResultEvent) {
	e.parties.RemovePartyMappings(idparty.PartyKey{
		RaidInstanceID:  ev.RaidInstanceID,
		PartyInstanceID: ev.PartyInstanceID,
	})
}
