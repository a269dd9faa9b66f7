package encounter

import "github.com/udisondev/raidtrack/internal/model"

// softReset starts a fresh Encounter aggregate for a new raid instance
// while keeping player identity tracking intact: id/party mappings and
// player entity rows survive, NPC/boss/summon/projectile rows are
// purged (spec §3 invariant 3, §4.5.2).
func (e *Engine) softReset() {
	all := e.entities.All()
	toRemove := make([]uint64, 0, len(all))
	for id, en := range all {
		if en.Type != model.EntityPlayer {
			toRemove = append(toRemove, id)
		}
	}
	for _, id := range toRemove {
		e.entities.Remove(id)
		e.statuses.RemoveLocalObject(id)
	}
	e.customIDs.Clear()
	e.enc = model.NewEncounter(e.enc.LocalPlayerName)
	e.enc.BossOnlyDamage = e.bossOnlyDefault
	e.phase = phaseIdle
	e.incapState = map[uint64]*incapTracker{}
	e.emit("raid-start", nil)
}
