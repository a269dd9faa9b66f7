package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEntityClone_DeepCopiesStats(t *testing.T) {
	e := &Entity{EntityID: 1, Stats: map[int32]int64{1: 100}}

	clone := e.Clone()
	clone.Stats[1] = 999

	require.Equal(t, int64(100), e.Stats[1], "mutating the clone's Stats must not affect the original")
	require.Equal(t, int64(999), clone.Stats[1])
}

func TestEntityClone_NilIsSafe(t *testing.T) {
	var e *Entity
	require.Nil(t, e.Clone())
}

func TestIsBossCandidate(t *testing.T) {
	require.True(t, IsBossCandidate("boss", 20000, "Valakas"))
	require.True(t, IsBossCandidate("raid", 20000, "Core"))
	require.False(t, IsBossCandidate("normal", 20000, "Valakas"), "grade must be one of the boss-like grades")
	require.False(t, IsBossCandidate("boss", 5000, "Valakas"), "max HP must exceed 10000")
	require.False(t, IsBossCandidate("boss", 20000, ""), "name must be non-empty")
	require.False(t, IsBossCandidate("boss", 20000, "Under_Score"), "underscores disqualify a name")
	require.False(t, IsBossCandidate("boss", 20000, "Iñtërnâtiônàl"), "non-ASCII characters disqualify a name")
}

func TestStatusEffectInstance_IsExpired(t *testing.T) {
	var inst StatusEffectInstance
	require.False(t, inst.IsExpired(1_000_000), "an instance with no ExpireAtMs never expires")

	expireAt := int64(5000)
	inst.ExpireAtMs = &expireAt
	require.False(t, inst.IsExpired(4999))
	require.True(t, inst.IsExpired(5000))
	require.True(t, inst.IsExpired(6000))
}

func TestStatusEffectInstance_CloneIsIndependent(t *testing.T) {
	expireAt := int64(5000)
	inst := &StatusEffectInstance{InstanceID: 1, ExpireAtMs: &expireAt}

	clone := inst.Clone()
	*clone.ExpireAtMs = 9999

	require.Equal(t, int64(5000), *inst.ExpireAtMs, "cloning must not alias the ExpireAtMs pointer")
}

func TestSkill_RecordHit(t *testing.T) {
	s := NewSkill(1, "Sword Strike", "icon.png")

	s.RecordHit(100, false, false, false)
	s.RecordHit(500, true, true, false)

	require.Equal(t, int64(2), s.Hits)
	require.Equal(t, int64(1), s.Crits)
	require.Equal(t, int64(600), s.TotalDamage)
	require.Equal(t, int64(500), s.MaxDamage)
}

func TestEncounter_EnsureEntity_IsIdempotent(t *testing.T) {
	enc := NewEncounter("Hero")

	first := enc.EnsureEntity("Boss", EntityBoss)
	second := enc.EnsureEntity("Boss", EntityBoss)

	require.Same(t, first, second, "a second EnsureEntity call for the same name must return the existing accumulator")
	require.Len(t, enc.Entities, 1)
}

func TestEncounter_DurationMs_ClampsToZero(t *testing.T) {
	enc := NewEncounter("Hero")
	enc.FightStartMs = 10_000
	enc.LastCombatPacketMs = 5_000

	require.Equal(t, int64(0), enc.DurationMs(), "a last-packet time before fight start must clamp to zero, not go negative")

	enc.LastCombatPacketMs = 15_000
	require.Equal(t, int64(5_000), enc.DurationMs())
}

func TestEncounterEntity_TotalSkillDamage(t *testing.T) {
	ee := NewEncounterEntity("Hero", EntityPlayer)
	ee.Skills[1] = &Skill{ID: 1, TotalDamage: 100}
	ee.Skills[2] = &Skill{ID: 2, TotalDamage: 250}

	require.Equal(t, int64(350), ee.TotalSkillDamage())
}

func TestIncapacitatedEvent_End(t *testing.T) {
	ev := IncapacitatedEvent{TimestampMs: 1000, DurationMs: 500}
	require.Equal(t, int64(1500), ev.End())
}
