package data

// CustomIDBase is the fixed offset construction for disambiguating a
// buff whose "real" status_effect_id is shared across multiple
// possible source skills (spec §9 "Custom buff ids").
const CustomIDBase uint64 = 1_000_000_000

// CustomID builds the synthetic id for (lastSourceSkillID, buffID).
func CustomID(lastSourceSkillID, buffID uint64) uint64 {
	return lastSourceSkillID + buffID + CustomIDBase
}

// SourceSkillFromCustomID inverts CustomID given the original buffID.
func SourceSkillFromCustomID(customID, buffID uint64) uint64 {
	return customID - CustomIDBase - buffID
}

// CustomIDMap dereferences custom ids registered via CustomID back to
// their real buff id. Any downstream path that compares buff ids must
// go through this first (spec §9).
type CustomIDMap struct {
	m map[uint64]uint64
}

// NewCustomIDMap returns an empty map.
func NewCustomIDMap() *CustomIDMap {
	return &CustomIDMap{m: make(map[uint64]uint64)}
}

// Register records that customID refers to realBuffID.
func (c *CustomIDMap) Register(customID, realBuffID uint64) {
	c.m[customID] = realBuffID
}

// Resolve returns the real buff id for id, or id itself if it is not a
// registered custom id.
func (c *CustomIDMap) Resolve(id uint64) uint64 {
	if real, ok := c.m[id]; ok {
		return real
	}
	return id
}

// Clear empties the map (used on hard reset).
func (c *CustomIDMap) Clear() {
	c.m = make(map[uint64]uint64)
}

// BattleItemSkillEffectOffset is added to a battle-item hit's
// skill_effect_id to build its skill_key (spec §4.5 attribution rule 1).
const BattleItemSkillEffectOffset int64 = 1_000_000
