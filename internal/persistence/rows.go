package persistence

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/udisondev/raidtrack/internal/model"
	"github.com/udisondev/raidtrack/internal/protocol"
)

// classNames resolves the handful of class ids this pipeline already
// knows by name (spec §4.7's decision tree, specinfer.SupportClassIDs);
// anything else degrades to an empty Class field rather than failing
// the save (spec §7).
var classNames = map[int32]string{
	101: "Berserker",
	105: "Paladin",
	204: "Bard",
	602: "Artist",
}

// buildEncounterRow assembles the persisted encounter row (spec §6).
func (p *Pipeline) buildEncounterRow(enc *model.Encounter, durationSec float64) (protocol.EncounterRow, error) {
	ds := enc.DamageStats
	dps := float64(ds.TotalDamageDealt) / durationSec

	buffsGz, err := gzipJSON(ds.Buffs)
	if err != nil {
		return protocol.EncounterRow{}, fmt.Errorf("buffs: %w", err)
	}
	debuffsGz, err := gzipJSON(ds.Debuffs)
	if err != nil {
		return protocol.EncounterRow{}, fmt.Errorf("debuffs: %w", err)
	}
	appliedShieldBuffsGz, err := gzipJSON(ds.AppliedShieldBuffs)
	if err != nil {
		return protocol.EncounterRow{}, fmt.Errorf("applied shield buffs: %w", err)
	}
	bossHPLogGz, err := gzipJSON(ds.BossHPLog)
	if err != nil {
		return protocol.EncounterRow{}, fmt.Errorf("boss hp log: %w", err)
	}

	misc := map[string]any{
		"region":             enc.Region,
		"version":            p.version,
		"rdps_valid":         enc.RDPSValid,
		"manual_save":        enc.ManualSave,
		"intermission_start": enc.IntermissionStart,
		"intermission_end":   enc.IntermissionEnd,
	}
	for k, v := range ds.Misc {
		misc[k] = v
	}
	miscJSON, err := json.Marshal(misc)
	if err != nil {
		return protocol.EncounterRow{}, fmt.Errorf("misc: %w", err)
	}

	return protocol.EncounterRow{
		LastCombatPacketMs:   enc.LastCombatPacketMs,
		TotalDamageDealt:     ds.TotalDamageDealt,
		TopDamageDealt:       ds.TopDamageDealt,
		TotalDamageTaken:     ds.TotalDamageTaken,
		TopDamageTaken:       ds.TopDamageTaken,
		DPS:                  dps,
		BuffsGz:              buffsGz,
		DebuffsGz:            debuffsGz,
		TotalShielding:       ds.TotalShielding,
		TotalEffectiveShield: ds.TotalEffectiveShielding,
		AppliedShieldBuffsGz: appliedShieldBuffsGz,
		MiscJSON:             miscJSON,
		Version:              p.version,
		BossHPLogGz:          bossHPLogGz,
	}, nil
}

// buildEntityRows assembles one row per entity with damage_dealt > 0
// (spec §4.6 step 4); boss/esther/player rows all qualify.
func (p *Pipeline) buildEntityRows(enc *model.Encounter, durationSec float64, statics map[string]PlayerStaticInfo) ([]protocol.EntityRow, error) {
	var rows []protocol.EntityRow
	for name, ee := range enc.Entities {
		if ee.DamageStats.DamageDealt <= 0 {
			continue
		}
		info := statics[name]

		skillsGz, err := gzipJSON(ee.Skills)
		if err != nil {
			return nil, fmt.Errorf("entity %s skills: %w", name, err)
		}
		damageStatsGz, err := gzipJSON(ee.DamageStats)
		if err != nil {
			return nil, fmt.Errorf("entity %s damage stats: %w", name, err)
		}
		skillStatsJSON, err := json.Marshal(ee.SkillStats)
		if err != nil {
			return nil, fmt.Errorf("entity %s skill stats: %w", name, err)
		}
		engravingsJSON, err := json.Marshal(ee.Engravings)
		if err != nil {
			return nil, fmt.Errorf("entity %s engravings: %w", name, err)
		}
		arkPassiveDataJSON, err := json.Marshal(info.ArkPassiveNodes)
		if err != nil {
			return nil, fmt.Errorf("entity %s ark passive: %w", name, err)
		}

		excludingHyper := ee.DamageStats.DamageDealt - ee.DamageStats.HyperAwakeningDamage
		supportBuff, supportBrand, supportIdentity, supportHyper := ee.SupportBuff, ee.SupportBrand, ee.SupportIdentity, ee.SupportHyper
		if supportBuff == 0 && supportBrand == 0 && supportIdentity == 0 && supportHyper == 0 && excludingHyper > 0 {
			supportBuff = float64(ee.DamageStats.BuffedBySupport) / float64(excludingHyper)
			supportBrand = float64(ee.DamageStats.DebuffedBySupport) / float64(excludingHyper)
			supportIdentity = float64(ee.DamageStats.BuffedByIdentity) / float64(excludingHyper)
			supportHyper = float64(ee.DamageStats.BuffedByHat) / float64(excludingHyper)
		}

		unbuffedDamage := ee.DamageStats.UnbuffedDamage
		rows = append(rows, protocol.EntityRow{
			Name:               name,
			NpcID:              ee.NpcID,
			EntityType:         ee.Type.String(),
			ClassID:            ee.ClassID,
			Class:              classNames[ee.ClassID],
			GearScore:          ee.GearLevel,
			CurrentHP:          ee.CurrentHP,
			MaxHP:              ee.MaxHP,
			IsDead:             ee.IsDead,
			SkillsGz:           skillsGz,
			DamageStatsGz:      damageStatsGz,
			SkillStatsJSON:     skillStatsJSON,
			DPS:                ee.DamageStats.DPS,
			CharacterID:        ee.CharacterID,
			EngravingsJSON:     engravingsJSON,
			LoadoutHash:        info.LoadoutHash,
			CombatPower:        info.CombatPower,
			ArkPassiveActive:   info.ArkPassiveActive,
			Spec:               ee.Spec,
			ArkPassiveDataJSON: arkPassiveDataJSON,
			SupportBuff:        supportBuff,
			SupportBrand:       supportBrand,
			SupportIdentity:    supportIdentity,
			SupportHyper:       supportHyper,
			UnbuffedDamage:     unbuffedDamage,
			UnbuffedDPS:        float64(unbuffedDamage) / durationSec,
		})
	}
	return rows, nil
}

// buildPreviewRow assembles the listing row (spec §4.6 step 5): players
// sorted by damage_dealt descending, rendered as "classId:name,...".
func buildPreviewRow(enc *model.Encounter) protocol.PreviewRow {
	type playerEntry struct {
		classID int32
		name    string
		damage  int64
	}
	var players []playerEntry
	var localDPS float64
	for name, ee := range enc.Entities {
		if ee.Type != model.EntityPlayer {
			continue
		}
		players = append(players, playerEntry{classID: ee.ClassID, name: name, damage: ee.DamageStats.DamageDealt})
		if name == enc.LocalPlayerName {
			localDPS = ee.DamageStats.DPS
		}
	}
	sort.Slice(players, func(i, j int) bool { return players[i].damage > players[j].damage })

	var list string
	for i, p := range players {
		if i > 0 {
			list += ","
		}
		list += fmt.Sprintf("%d:%s", p.classID, p.name)
	}

	return protocol.PreviewRow{
		FightStartMs:   enc.FightStartMs,
		CurrentBoss:    enc.CurrentBossName,
		DurationMs:     enc.DurationMs(),
		Players:        list,
		Difficulty:     enc.Difficulty,
		LocalPlayer:    enc.LocalPlayerName,
		MyDPS:          localDPS,
		Cleared:        enc.Cleared,
		BossOnlyDamage: enc.BossOnlyDamage,
	}
}
