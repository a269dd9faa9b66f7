package specinfer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func obs(classID int32, skillIDs ...int64) Observation {
	ids := make(map[int64]struct{}, len(skillIDs))
	for _, id := range skillIDs {
		ids[id] = struct{}{}
	}
	return Observation{ClassID: classID, SkillIDs: ids}
}

func TestInfer_BerserkerPicksTechniqueOverMayhemOnMarkerSkill(t *testing.T) {
	require.Equal(t, "Berserker Technique", Infer(obs(101, 16145), nil))
	require.Equal(t, "Mayhem", Infer(obs(101), nil))
}

func TestInfer_PaladinJudgmentViaTripodSecond(t *testing.T) {
	o := obs(105)
	o.Tripods = map[int64][3]int32{36040: {0, 3, 0}}

	require.Equal(t, "Judgment", Infer(o, nil))
}

func TestInfer_PaladinBlessedAuraViaMarkerSkill(t *testing.T) {
	require.Equal(t, "Blessed Aura", Infer(obs(105, 36200), nil))
}

func TestInfer_PaladinUnknownFallsBackToArkPassive(t *testing.T) {
	o := obs(105)
	o.ArkPassiveNodes = []int32{7}

	got := Infer(o, map[int32]string{7: "Blessed Aura"})
	require.Equal(t, "Blessed Aura", got)
}

func TestInfer_BardTrueCourageViaTripodThird(t *testing.T) {
	o := obs(204)
	o.Tripods = map[int64][3]int32{21310: {0, 0, 2}}

	require.Equal(t, "True Courage", Infer(o, nil))
}

func TestInfer_BardDesperateSalvationViaTripodThird(t *testing.T) {
	o := obs(204)
	o.Tripods = map[int64][3]int32{21310: {0, 0, 1}}

	require.Equal(t, "Desperate Salvation", Infer(o, nil))
}

func TestInfer_UnknownClassWithNoMatchingArkPassiveNode(t *testing.T) {
	o := obs(999)
	o.ArkPassiveNodes = []int32{1, 2}

	require.Equal(t, Unknown, Infer(o, map[int32]string{3: "Something"}))
}

func TestInfer_ArkPassiveFallbackSkipsUnknownAndEmptyEntries(t *testing.T) {
	o := obs(999)
	o.ArkPassiveNodes = []int32{1, 2, 3}

	got := Infer(o, map[int32]string{1: Unknown, 2: "", 3: "Liberator"})
	require.Equal(t, "Liberator", got)
}

func TestIsSupportSpec(t *testing.T) {
	require.True(t, IsSupportSpec("Desperate Salvation"))
	require.True(t, IsSupportSpec("Blessed Aura"))
	require.False(t, IsSupportSpec("Mayhem"))
}

func TestIsSupportClass(t *testing.T) {
	require.True(t, IsSupportClass(105))
	require.True(t, IsSupportClass(204))
	require.False(t, IsSupportClass(101))
}
