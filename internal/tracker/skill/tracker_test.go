package skill

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/udisondev/raidtrack/internal/model"
)

func TestNewCastAndOnHit_AttachesHitToMostRecentCast(t *testing.T) {
	tr := New()
	tr.NewCast(1, 100, nil, 1000)
	tr.NewCast(1, 100, nil, 2000)

	tr.OnHit(1, 0, 100, model.SkillHit{Damage: 500}, nil)

	log := tr.CastLog(1, 100)
	require.Len(t, log, 2)
	require.Empty(t, log[0].Hits, "the hit must attach to the latest cast, not the first")
	require.Len(t, log[1].Hits, 1)
	require.Equal(t, int64(500), log[1].Hits[0].Damage)
}

func TestOnHit_FollowsProjectileTimestampToEarlierCast(t *testing.T) {
	tr := New()
	tr.NewCast(1, 100, nil, 1000)
	tr.RegisterProjectile(777, 1, 100)
	tr.NewCast(1, 100, nil, 2000)

	tr.OnHit(1, 777, 100, model.SkillHit{Damage: 300}, nil)

	log := tr.CastLog(1, 100)
	require.Len(t, log, 2)
	require.Len(t, log[0].Hits, 1, "a tracked projectile must route its hit back to the cast it was registered under")
	require.Empty(t, log[1].Hits)
}

func TestNewCast_SummonSourceLinksSummonSkillToCasterTimestamp(t *testing.T) {
	tr := New()
	tr.NewCast(1, 200, []int64{201}, 5000)

	tr.OnHit(1, 0, 201, model.SkillHit{Damage: 100}, nil)

	log := tr.CastLog(1, 201)
	require.Len(t, log, 1)
	require.Equal(t, int64(5000), log[0].TimestampMs)
	require.Len(t, log[0].Hits, 1)
}

func TestOnHit_CreatesCastWhenNoneExists(t *testing.T) {
	tr := New()

	tr.OnHit(1, 0, 999, model.SkillHit{Damage: 42}, nil)

	log := tr.CastLog(1, 999)
	require.Len(t, log, 1)
	require.Len(t, log[0].Hits, 1)
	require.Equal(t, int64(42), log[0].Hits[0].Damage)
}

func TestRecordCooldown_OverlappingNotifyExtendsLastEvent(t *testing.T) {
	tr := New()
	tr.RecordCooldown(1, 1000, 5000) // cooldown [1000, 6000)

	tr.RecordCooldown(1, 3000, 5000) // reduction while still on cooldown

	events := tr.Cooldowns(1)
	require.Len(t, events, 1, "an overlapping notify must overwrite, not append")
	require.Equal(t, int64(1000), events[0].TimestampMs)
	require.Equal(t, int64(7000), events[0].CooldownDuration) // (3000-1000)+5000
}

func TestRecordCooldown_NonOverlappingNotifyAppends(t *testing.T) {
	tr := New()
	tr.RecordCooldown(1, 1000, 2000) // cooldown [1000, 3000)

	tr.RecordCooldown(1, 5000, 2000) // starts after the previous window ended

	events := tr.Cooldowns(1)
	require.Len(t, events, 2)
	require.Equal(t, int64(5000), events[1].TimestampMs)
}

func TestAllCooldowns_ReturnsIndependentCopy(t *testing.T) {
	tr := New()
	tr.RecordCooldown(1, 1000, 2000)

	snap := tr.AllCooldowns()
	snap[1][0].CooldownDuration = 999999

	require.Equal(t, int64(2000), tr.Cooldowns(1)[0].CooldownDuration, "mutating the snapshot must not affect live state")
}

func TestGetTotalAvailableTime_SubtractsCooldownWindows(t *testing.T) {
	events := []model.CastEvent{
		{TimestampMs: 1000, CooldownDuration: 2000}, // busy [1000,3000)
		{TimestampMs: 5000, CooldownDuration: 1000}, // busy [5000,6000)
	}

	avail := GetTotalAvailableTime(events, 0, 10000)

	// [0,1000) + [3000,5000) + [6000,10000) = 1000 + 2000 + 4000
	require.Equal(t, int64(7000), avail)
}

func TestGetTotalAvailableTime_ZeroWindowIsZero(t *testing.T) {
	require.Equal(t, int64(0), GetTotalAvailableTime(nil, 1000, 1000))
	require.Equal(t, int64(0), GetTotalAvailableTime(nil, 2000, 1000))
}

func TestGetTotalAvailableTime_OverlappingEventsDoNotDoubleSubtract(t *testing.T) {
	events := []model.CastEvent{
		{TimestampMs: 1000, CooldownDuration: 5000}, // busy [1000,6000)
		{TimestampMs: 2000, CooldownDuration: 1000}, // fully inside the first window
	}

	avail := GetTotalAvailableTime(events, 0, 10000)

	// [0,1000) + [6000,10000) = 1000 + 4000
	require.Equal(t, int64(5000), avail)
}
