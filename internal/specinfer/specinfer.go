// Package specinfer infers a human-readable "spec" (sub-build) for a
// player from their observed skill ids, tripod selections and ark
// passive nodes (spec §4.7).
package specinfer

// Observation is the input to Infer: everything the decision tree
// consults for one player.
type Observation struct {
	ClassID        int32
	SkillIDs       map[int64]struct{}
	Tripods        map[int64][3]int32 // skill id -> (first, second, third)
	ArkPassiveNodes []int32
}

const (
	classBerserker = 101
	classPaladin   = 105
	classBard      = 204
)

// Unknown is returned when no rule matches and the ark-passive
// fallback also fails to resolve a spec.
const Unknown = "Unknown"

func (o Observation) hasAny(ids ...int64) bool {
	for _, id := range ids {
		if _, ok := o.SkillIDs[id]; ok {
			return true
		}
	}
	return false
}

func (o Observation) tripodThird(skillID int64, value int32) bool {
	t, ok := o.Tripods[skillID]
	return ok && t[2] == value
}

func (o Observation) tripodSecond(skillID int64, value int32) bool {
	t, ok := o.Tripods[skillID]
	return ok && t[1] == value
}

// classTree resolves a class-specific spec from direct skill/tripod
// observation. Excerpt from spec §4.7 / glossary §9.
func classTree(o Observation) string {
	switch o.ClassID {
	case classBerserker:
		if o.hasAny(16140, 16145, 16146, 16147) {
			return "Berserker Technique"
		}
		return "Mayhem"

	case classPaladin:
		const flashSlashSkillID = 36040
		if o.hasAny(36250, 36270) || o.tripodSecond(flashSlashSkillID, 3) {
			return "Judgment"
		}
		if o.hasAny(36200, 36170, 36800) {
			return "Blessed Aura"
		}
		return Unknown

	case classBard:
		const heavenlyTuneSkillID = 21310
		if o.hasAny(21147, 21148, 21149, 21310) || o.tripodThird(heavenlyTuneSkillID, 2) {
			return "True Courage"
		}
		if o.tripodThird(heavenlyTuneSkillID, 1) {
			return "Desperate Salvation"
		}
		return Unknown
	}
	return Unknown
}

// arkPassiveFallback walks the player's ark-passive enlightenment nodes
// through a fixed node id -> spec map; the first non-Unknown result
// wins (spec §4.7).
func arkPassiveFallback(nodes []int32, nodeSpecMap map[int32]string) string {
	for _, n := range nodes {
		if s, ok := nodeSpecMap[n]; ok && s != Unknown && s != "" {
			return s
		}
	}
	return Unknown
}

// Infer resolves a player's spec from the class decision tree first,
// falling back to ark-passive nodes when the tree yields Unknown.
func Infer(o Observation, nodeSpecMap map[int32]string) string {
	if s := classTree(o); s != Unknown {
		return s
	}
	return arkPassiveFallback(o.ArkPassiveNodes, nodeSpecMap)
}

// IsSupportSpec reports whether spec belongs to one of the four
// support specs used by the persistence pipeline's support-buff
// averaging (spec §4.6 step 2).
func IsSupportSpec(spec string) bool {
	switch spec {
	case "Desperate Salvation", "Full Bloom", "Blessed Aura", "Liberator":
		return true
	default:
		return false
	}
}

// SupportClassIDs are the class ids treated as support even without a
// resolved spec (spec §4.6 step 2).
var SupportClassIDs = map[int32]struct{}{
	105: {}, // Paladin
	204: {}, // Bard
	602: {}, // Artist
	113: {}, // ??? (fourth support class id, data-driven)
}

// IsSupportClass reports class membership in SupportClassIDs.
func IsSupportClass(classID int32) bool {
	_, ok := SupportClassIDs[classID]
	return ok
}
