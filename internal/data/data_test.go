package data

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmpty_InitializesAllMaps(t *testing.T) {
	tbl := Empty()

	require.NotNil(t, tbl.Skills)
	require.NotNil(t, tbl.Buffs)
	require.NotNil(t, tbl.Npcs)
	require.NotNil(t, tbl.SupportAPGroup)
	require.NotNil(t, tbl.SupportIdGroup)

	_, ok := tbl.Skill(1)
	require.False(t, ok)
}

func TestTables_SkillByName(t *testing.T) {
	tbl := Empty()
	tbl.Skills[100] = SkillInfo{ID: 100, Name: "Sword Strike"}

	found, ok := tbl.SkillByName("Sword Strike")
	require.True(t, ok)
	require.Equal(t, int64(100), found.ID)

	_, ok = tbl.SkillByName("Nonexistent")
	require.False(t, ok)
}

func TestTables_IntermissionZoneLookups(t *testing.T) {
	tbl := Empty()
	tbl.IntermissionZones = map[int32]bool{1: false, 2: true}

	require.True(t, tbl.IsIntermissionZone(1))
	require.False(t, tbl.IsEndOfIntermissionZone(1))

	require.True(t, tbl.IsIntermissionZone(2))
	require.True(t, tbl.IsEndOfIntermissionZone(2))

	require.False(t, tbl.IsIntermissionZone(99))
}

func TestLoad_MissingFileReturnsError(t *testing.T) {
	_, err := Load("/nonexistent/path/static_data.json")
	require.Error(t, err)
}

func TestCustomID_RoundTrips(t *testing.T) {
	const sourceSkill, buff = uint64(555), uint64(42)

	custom := CustomID(sourceSkill, buff)
	require.Equal(t, sourceSkill, SourceSkillFromCustomID(custom, buff))
}

func TestCustomIDMap_RegisterResolveClear(t *testing.T) {
	m := NewCustomIDMap()
	m.Register(12345, 42)

	require.Equal(t, uint64(42), m.Resolve(12345))
	require.Equal(t, uint64(999), m.Resolve(999), "an unregistered id resolves to itself")

	m.Clear()
	require.Equal(t, uint64(12345), m.Resolve(12345), "Clear must drop every registration")
}

func TestGemCooldownLevel(t *testing.T) {
	require.Equal(t, int32(5), GemCooldownLevel(GemTypeCooldownTier3, 5))
	require.Equal(t, int32(10), GemCooldownLevel(GemTypeCooldownTier4, 5))
	require.Equal(t, int32(0), GemCooldownLevel(999, 5), "an unknown gem type has no cooldown level")
}

func TestGemDamageLevel(t *testing.T) {
	require.Equal(t, int32(3), GemDamageLevel(999, 3), "a plain damage gem uses the standard table")
	require.Equal(t, int32(3), GemDamageLevel(GemTypeSupportDamage1, 3))
	require.Equal(t, int32(5), GemDamageLevel(GemTypeSupportDamage2, 99), "an out-of-range value clamps to the table's top level")
}

func TestLevelFromTable_NegativeValueClampsToTop(t *testing.T) {
	require.Equal(t, int32(10), GemCooldownLevel(GemTypeCooldownTier3, -1))
}
