package persistence

import (
	"github.com/udisondev/raidtrack/internal/model"
	"github.com/udisondev/raidtrack/internal/specinfer"
	"github.com/udisondev/raidtrack/internal/tracker/idparty"
)

// averageSupportBuffs implements spec §4.6 step 2: for every party of
// exactly 4 with exactly one support member, the support's
// support_buff/support_brand/support_identity/support_hyper fields are
// replaced by a damage-weighted average of its DPS members' own raw
// ratios, rather than the support's own (near-zero) buffed-by-support
// damage.
func (p *Pipeline) averageSupportBuffs(enc *model.Encounter, parties map[idparty.PartyKey][]uint64) {
	charToEntity := make(map[uint64]*model.EncounterEntity, len(enc.Entities))
	for _, ee := range enc.Entities {
		if ee.Type == model.EntityPlayer && ee.CharacterID != 0 {
			charToEntity[ee.CharacterID] = ee
		}
	}

	for _, memberIDs := range parties {
		if len(memberIDs) != 4 {
			continue
		}
		members := make([]*model.EncounterEntity, 0, 4)
		for _, charID := range memberIDs {
			if ee, ok := charToEntity[charID]; ok {
				members = append(members, ee)
			}
		}
		if len(members) != 4 {
			continue
		}

		var support *model.EncounterEntity
		dps := make([]*model.EncounterEntity, 0, 3)
		for _, ee := range members {
			if isSupport(ee) {
				if support != nil {
					support = nil
					break
				}
				support = ee
			} else {
				dps = append(dps, ee)
			}
		}
		if support == nil || len(dps) != 3 {
			continue
		}

		var totalBuffDamage, buffedBySupport, debuffedBySupport, buffedByIdentity, buffedByHat float64
		for _, d := range dps {
			excl := float64(d.DamageStats.DamageDealt - d.DamageStats.HyperAwakeningDamage - d.DamageStats.SpecialDamage)
			if excl <= 0 {
				continue
			}
			totalBuffDamage += excl
			buffedBySupport += float64(d.DamageStats.BuffedBySupport)
			debuffedBySupport += float64(d.DamageStats.DebuffedBySupport)
			buffedByIdentity += float64(d.DamageStats.BuffedByIdentity)
			buffedByHat += float64(d.DamageStats.BuffedByHat)
		}
		if totalBuffDamage <= 0 {
			continue
		}
		support.SupportBuff = buffedBySupport / totalBuffDamage
		support.SupportBrand = debuffedBySupport / totalBuffDamage
		support.SupportIdentity = buffedByIdentity / totalBuffDamage
		support.SupportHyper = buffedByHat / totalBuffDamage
	}
}

// isSupport reports whether ee counts as a support for averaging
// purposes: its class id is a known support class, or its inferred
// spec is a known support spec.
func isSupport(ee *model.EncounterEntity) bool {
	return specinfer.IsSupportClass(ee.ClassID) || specinfer.IsSupportSpec(ee.Spec)
}
