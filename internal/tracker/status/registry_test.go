package status

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/udisondev/raidtrack/internal/model"
	"github.com/udisondev/raidtrack/internal/tracker/idparty"
)

func TestResolveScope(t *testing.T) {
	parties := idparty.New()
	parties.Add(1, 1, 1, 11, "Local")
	parties.Add(1, 1, 2, 12, "Friend")
	parties.Add(2, 1, 3, 13, "Stranger")

	require.Equal(t, model.ScopeParty, ResolveScope(parties, 2, 1))
	require.Equal(t, model.ScopeLocal, ResolveScope(parties, 3, 1))
	require.Equal(t, model.ScopeLocal, ResolveScope(parties, 1, 1), "the local player's own effects are always Local-scoped")
}

func TestRegister_ComputesExpireAtFromDelay(t *testing.T) {
	r := New(idparty.New())

	inst := &model.StatusEffectInstance{
		InstanceID: 1, TargetID: 100, TargetScope: model.ScopeLocal,
		TimestampMs: 1000, ExpirationDelaySec: 10,
	}
	r.Register(inst)

	require.NotNil(t, inst.ExpireAtMs)
	require.Equal(t, int64(1000+10*1000+model.GraceMs), *inst.ExpireAtMs)
}

func TestRegister_ZeroOrOutOfRangeDelayIsInfinite(t *testing.T) {
	r := New(idparty.New())

	zero := &model.StatusEffectInstance{InstanceID: 1, TargetID: 100, ExpirationDelaySec: 0}
	r.Register(zero)
	require.Nil(t, zero.ExpireAtMs)

	huge := &model.StatusEffectInstance{InstanceID: 2, TargetID: 100, ExpirationDelaySec: model.MaxFiniteExpirationSec}
	r.Register(huge)
	require.Nil(t, huge.ExpireAtMs, "the boundary value itself must be treated as infinite")
}

func TestActuallyGet_PurgesExpiredInstancesAtReadTime(t *testing.T) {
	r := New(idparty.New())
	r.Register(&model.StatusEffectInstance{
		InstanceID: 1, TargetID: 100, TargetScope: model.ScopeLocal,
		TimestampMs: 0, ExpirationDelaySec: 1,
	}) // expires at 0 + 1000 + GraceMs(1000) = 2000
	r.Register(&model.StatusEffectInstance{
		InstanceID: 2, TargetID: 100, TargetScope: model.ScopeLocal,
	}) // infinite

	before := r.actuallyGet(100, model.ScopeLocal, 1500)
	require.Len(t, before, 2, "neither instance has expired yet at 1500ms")

	after := r.actuallyGet(100, model.ScopeLocal, 2500)
	require.Len(t, after, 1, "the finite instance must be purged once its expiry passes")
	require.Equal(t, uint32(2), after[0].InstanceID)
}

func TestRemove_SeparatesBrokenShieldsFromOrdinaryRemovals(t *testing.T) {
	r := New(idparty.New())
	r.Register(&model.StatusEffectInstance{InstanceID: 1, TargetID: 100, TargetScope: model.ScopeLocal, EffectType: model.EffectShield})
	r.Register(&model.StatusEffectInstance{InstanceID: 2, TargetID: 100, TargetScope: model.ScopeLocal, EffectType: model.EffectOther})

	res := r.Remove(100, []uint32{1, 2}, ReasonShieldDepleted, model.ScopeLocal)

	require.True(t, res.HadShield)
	require.Len(t, res.BrokenShields, 1)
	require.Equal(t, uint32(1), res.BrokenShields[0].InstanceID)
	require.Len(t, res.Removed, 1)
	require.Equal(t, uint32(2), res.Removed[0].InstanceID)
}

func TestRemove_ShieldRemovedForOtherReasonGoesToRemoved(t *testing.T) {
	r := New(idparty.New())
	r.Register(&model.StatusEffectInstance{InstanceID: 1, TargetID: 100, TargetScope: model.ScopeLocal, EffectType: model.EffectShield})

	res := r.Remove(100, []uint32{1}, RemoveReason(0), model.ScopeLocal)

	require.True(t, res.HadShield)
	require.Empty(t, res.BrokenShields)
	require.Len(t, res.Removed, 1)
}

func TestSync_UpdatesValueInPlaceAndReturnsPrevious(t *testing.T) {
	r := New(idparty.New())
	r.Register(&model.StatusEffectInstance{InstanceID: 1, TargetID: 100, TargetScope: model.ScopeLocal, Value: 1000})

	inst, old := r.Sync(100, 1, model.ScopeLocal, 250)

	require.Equal(t, int64(1000), old)
	require.Equal(t, int64(250), inst.Value)

	again, _ := r.Sync(100, 1, model.ScopeLocal, 250)
	require.Equal(t, int64(250), again.Value)
}

func TestSync_UnknownInstanceReturnsNil(t *testing.T) {
	r := New(idparty.New())
	inst, old := r.Sync(100, 999, model.ScopeLocal, 1)
	require.Nil(t, inst)
	require.Zero(t, old)
}

func TestRemoveLocalAndPartyObject(t *testing.T) {
	r := New(idparty.New())
	r.Register(&model.StatusEffectInstance{InstanceID: 1, TargetID: 100, TargetScope: model.ScopeLocal})
	r.Register(&model.StatusEffectInstance{InstanceID: 2, TargetID: 10, TargetScope: model.ScopeParty})

	r.RemoveLocalObject(100)
	r.RemovePartyObject(10)

	require.Empty(t, r.actuallyGet(100, model.ScopeLocal, 0))
	require.Empty(t, r.actuallyGet(10, model.ScopeParty, 0))
}

func TestClear_WipesBothRegistries(t *testing.T) {
	r := New(idparty.New())
	r.Register(&model.StatusEffectInstance{InstanceID: 1, TargetID: 100, TargetScope: model.ScopeLocal})
	r.Register(&model.StatusEffectInstance{InstanceID: 2, TargetID: 10, TargetScope: model.ScopeParty})

	r.Clear()

	require.Empty(t, r.actuallyGet(100, model.ScopeLocal, 0))
	require.Empty(t, r.actuallyGet(10, model.ScopeParty, 0))
}

func TestIsBrandDebuff(t *testing.T) {
	brand := &model.StatusEffectInstance{UniqueGroup: 210230}
	other := &model.StatusEffectInstance{UniqueGroup: 1}

	require.True(t, IsBrandDebuff(brand))
	require.False(t, IsBrandDebuff(other))
}

func TestGetStatusEffects_ExcludesSelfTargetedDebuffFromThirdParty(t *testing.T) {
	parties := idparty.New()
	r := New(parties)

	r.Register(&model.StatusEffectInstance{
		InstanceID: 1, TargetID: 200, TargetScope: model.ScopeLocal,
		SourceEntityID: 999, DBTargetType: "self",
	})

	_, onTarget := r.GetStatusEffects(
		SourceView{EntityID: 100, CharacterID: 1, IsPlayer: true},
		SourceView{EntityID: 200, CharacterID: 2, IsPlayer: true},
		1, 0,
	)

	require.Empty(t, onTarget, "a self-targeted debuff applied by a different entity must not appear on the target")
}

func TestGetStatusEffects_LocalScopeWhenNoPartyKnown(t *testing.T) {
	parties := idparty.New()
	r := New(parties)

	r.Register(&model.StatusEffectInstance{
		InstanceID: 1, TargetID: 100, TargetScope: model.ScopeLocal,
		SourceEntityID: 100, StatusEffectID: 55,
	})

	onSource, _ := r.GetStatusEffects(
		SourceView{EntityID: 100, CharacterID: 1, IsPlayer: true},
		SourceView{EntityID: 200, CharacterID: 2, IsPlayer: true},
		1, 0,
	)

	require.Len(t, onSource, 1)
	require.Equal(t, uint32(55), onSource[0].StatusEffectID)
}
