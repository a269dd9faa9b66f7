package encounter

import (
	"fmt"
	"strings"

	"github.com/udisondev/raidtrack/internal/data"
	"github.com/udisondev/raidtrack/internal/model"
	"github.com/udisondev/raidtrack/internal/tracker/status"
)

// handleSkillDamage is the core attribution pass (spec §4.5 rule set,
// §4.5.1, §4.5.2): it folds one hit into the caster's skill
// accumulator, both entities' damage stats, the encounter-wide totals,
// the pseudo-rdps ledger, and — for abnormal-move variants — the
// incapacitation span tracker.
func (e *Engine) handleSkillDamage(ev SkillDamageEvent) error {
	if ev.HitFlag == HitInvincible {
		return nil
	}
	if ev.HitFlag == HitDamageShare && ev.SkillID == 0 && ev.SkillEffectID == 0 {
		return nil
	}

	skillID := ev.SkillID
	switch {
	case ev.IsBattleItem:
		skillID = ev.SkillEffectID + data.BattleItemSkillEffectOffset
	case skillID == 0:
		skillID = ev.SkillEffectID
	}

	if ev.ProjectileID != 0 {
		e.skills.RegisterProjectile(ev.ProjectileID, ev.SourceID, skillID)
	}
	e.entities.GuessIsPlayer(ev.SourceID, skillID)

	source := e.entities.GetSourceEntity(ev.SourceID)
	target := e.entities.GetSourceEntity(ev.TargetID)

	if source.EntityID == target.EntityID {
		return nil
	}

	if e.damageLocked(ev.TimestampMs) {
		return nil
	}
	e.beginActivePhase()
	if ev.TimestampMs > e.enc.LastCombatPacketMs {
		e.enc.LastCombatPacketMs = ev.TimestampMs
	}

	sourceEE := e.enc.EnsureEntity(source.Name, source.Type)
	targetEE := e.enc.EnsureEntity(target.Name, target.Type)

	if e.enc.BossOnlyDamage && target.Type != model.EntityBoss {
		return nil
	}

	// Attribution rule #2: a hit that kills a non-player NPC reports a
	// negative target_current_hp equal to the overkill; clamp the
	// damage actually attributed by that amount (spec §4.5).
	damage := ev.Damage
	if target.Type != model.EntityPlayer && ev.TargetCurrentHP < 0 {
		damage += ev.TargetCurrentHP
	}

	if ev.TargetCurrentHP >= 0 {
		targetEE.CurrentHP = ev.TargetCurrentHP
	}
	if target.Type == model.EntityBoss && target.Name == e.enc.CurrentBossName {
		e.recordBossHP(target.Name, ev.TimestampMs, max64(ev.TargetCurrentHP, 0))
	}

	onSource, onTarget := e.statuses.GetStatusEffects(
		status.SourceView{EntityID: source.EntityID, CharacterID: source.CharacterID, IsPlayer: source.Type == model.EntityPlayer},
		status.SourceView{EntityID: target.EntityID, CharacterID: target.CharacterID, IsPlayer: target.Type == model.EntityPlayer},
		e.localCharacterID, ev.TimestampMs,
	)

	// "Special" skills bypass crit/buff counting entirely (spec §4.5,
	// §9): the attribution pass below, and the crit/back/front counters
	// further down, only run for non-special hits.
	var buffIDs, debuffIDs []uint64
	if !ev.Special {
		// stabilized_status_active gates the "Stabilized Status" buff
		// out of the tally while the source is at or below 65% hp.
		stabilizedStatusActive := source.MaxHP > 0 && float64(source.CurrentHP)/float64(source.MaxHP) > 0.65

		for _, ref := range onSource {
			buffID := e.customIDs.Resolve(uint64(ref.StatusEffectID))
			info, found := e.tables.Buff(buffID)
			if !found || info.Category != "buff" {
				continue
			}
			// Hyper-awakening hits are only affected by hat buffs.
			if ev.IsHyperAwakening && !info.IsHAT {
				continue
			}
			if !stabilizedStatusActive && strings.Contains(info.Source, "Stabilized Status") {
				continue
			}
			buffIDs = append(buffIDs, buffID)
			sourceEE.DamageStats.BuffedBy[buffID] += damage
			switch {
			case info.BuffCategory == "supportbuff":
				sourceEE.DamageStats.BuffedBySupport += damage
			case info.IsHAT:
				sourceEE.DamageStats.BuffedByHat += damage
			}
			if info.Source == "identity" {
				sourceEE.DamageStats.BuffedByIdentity += damage
			}
			e.recordKnownBuff(buffID, info.Name, model.CategoryBuff)
		}
		// Hyper-awakening hits record no debuffs at all.
		if !ev.IsHyperAwakening {
			for _, ref := range onTarget {
				buffID := e.customIDs.Resolve(uint64(ref.StatusEffectID))
				info, found := e.tables.Buff(buffID)
				if !found || info.Category != "debuff" {
					continue
				}
				debuffIDs = append(debuffIDs, buffID)
				sourceEE.DamageStats.DebuffedBy[buffID] += damage
				if info.UniqueGroup == data.BrandUniqueGroup || info.BuffCategory == "supportbuff" {
					sourceEE.DamageStats.DebuffedBySupport += damage
				}
				e.recordKnownBuff(buffID, info.Name, model.CategoryDebuff)
			}
		}
		if len(buffIDs) == 0 && len(debuffIDs) == 0 {
			sourceEE.DamageStats.UnbuffedDamage += damage
		}
	}

	sk, ok := sourceEE.Skills[skillID]
	if !ok {
		name, icon := fallbackSkillName(skillID), ""
		if info, found := e.tables.Skill(skillID); found {
			name, icon = info.Name, info.Icon
		}
		sk = model.NewSkill(skillID, name, icon)
		sourceEE.Skills[skillID] = sk
	}
	e.applyRDPS(sourceEE, sk, ev)
	sk.RecordHit(damage, ev.Crit, ev.Back, ev.Front)
	for _, b := range buffIDs {
		sk.BuffedBy[b] += damage
	}
	for _, d := range debuffIDs {
		sk.DebuffedBy[d] += damage
	}
	if ev.IsHyperAwakening {
		sk.IsHyperAwakening = true
		sourceEE.DamageStats.HyperAwakeningDamage += damage
	}
	if ev.Special {
		sk.Special = true
		sourceEE.DamageStats.SpecialDamage += damage
	}

	hit := model.SkillHit{Damage: damage, Crit: ev.Crit, Back: ev.Back, Front: ev.Front, TimestampMs: ev.TimestampMs}
	if !e.lowPerformance {
		hit.BuffedBy = buffIDs
		hit.DebuffedBy = debuffIDs
	}
	e.skills.OnHit(ev.SourceID, ev.ProjectileID, skillID, hit, nil)

	sourceEE.DamageStats.DamageDealt += damage
	sourceEE.DamageStats.LastTimestampMs = ev.TimestampMs
	sourceEE.SkillStats.Hits++
	if !ev.Special {
		if ev.Crit {
			sourceEE.DamageStats.CritDamage += damage
			sourceEE.SkillStats.Crits++
		}
		if ev.Back {
			sourceEE.DamageStats.BackDamage += damage
			sourceEE.SkillStats.BackAttacks++
		}
		if ev.Front {
			sourceEE.DamageStats.FrontDamage += damage
			sourceEE.SkillStats.FrontAttacks++
		}
	}
	targetEE.DamageStats.DamageTaken += damage

	if source.Type == model.EntityPlayer {
		e.enc.DamageStats.TotalDamageDealt += damage
		e.enc.DamageStats.DamageLog = append(e.enc.DamageStats.DamageLog, model.DamageLogEntry{
			TimestampMs: ev.TimestampMs,
			Damage:      damage,
		})
		sourceEE.DamageStats.DamageLog = append(sourceEE.DamageStats.DamageLog, model.DamageLogEntry{
			TimestampMs: ev.TimestampMs,
			Damage:      damage,
		})
		if sourceEE.DamageStats.DamageDealt > e.enc.DamageStats.TopDamageDealt {
			e.enc.DamageStats.TopDamageDealt = sourceEE.DamageStats.DamageDealt
		}
	}
	e.enc.DamageStats.TotalDamageTaken += damage
	if targetEE.DamageStats.DamageTaken > e.enc.DamageStats.TopDamageTaken {
		e.enc.DamageStats.TopDamageTaken = targetEE.DamageStats.DamageTaken
	}

	if ev.IsAbnormalMove {
		e.applyAbnormalMove(target.EntityID, targetEE, ev)
	}
	return nil
}

// applyRDPS folds one hit's pseudo-rdps vector into both the
// contributing supports' RDPSContributed ledgers and the attacking
// skill's RDPSReceived ledger (spec §4.5 pseudo-rdps, §9).
func (e *Engine) applyRDPS(sourceEE *model.EncounterEntity, sk *model.Skill, ev SkillDamageEvent) {
	for _, rc := range ev.RDPSData {
		if rc.RDPSType == 1 || rc.RDPSType == 3 || rc.RDPSType == 5 {
			sourceEE.DamageStats.BuffedDamage += rc.Value
		}
		if sk.RDPSReceived[rc.RDPSType] == nil {
			sk.RDPSReceived[rc.RDPSType] = make(map[int64]int64)
		}
		sk.RDPSReceived[rc.RDPSType][rc.SkillID] += rc.Value
		contributorID, ok := e.parties.EntityIDFor(rc.SourceCharacterID)
		if !ok {
			e.enc.RDPSValid = false
			continue
		}
		contributor := e.entities.GetSourceEntity(contributorID)
		cEE := e.enc.EnsureEntity(contributor.Name, contributor.Type)
		cSk, ok := cEE.Skills[rc.SkillID]
		if !ok {
			cSk = model.NewSkill(rc.SkillID, fallbackSkillName(rc.SkillID), "")
			cEE.Skills[rc.SkillID] = cSk
		}
		cSk.RDPSContributed[rc.RDPSType] += rc.Value
	}
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// fallbackSkillName names a skill whose id has no static data entry
// (spec §7 degrade-on-miss).
func fallbackSkillName(id int64) string {
	return fmt.Sprintf("skill_%d", id)
}
