package encounter

// encounterPhase is the engine's internal state-machine value; it
// mirors model.Encounter.Phase (an int, so it survives persistence)
// but is typed here for switch exhaustiveness (spec §4.5.2).
type encounterPhase int

const (
	phaseIdle encounterPhase = iota
	phaseActive
	phaseCleared
	phaseWiped
	phasePhase1
)

// damageLockoutMs is how long after a clear/wipe signal late damage
// packets are dropped instead of being folded into the old encounter
// (spec §4.5.2).
const damageLockoutMs = 10_000

// transitionPhase moves the engine to newPhase, updating the mirrored
// model.Encounter.Phase field and the GUI-facing event stream (spec
// §4.5.2).
func (e *Engine) transitionPhase(newPhase encounterPhase) {
	if e.phase == newPhase {
		return
	}
	e.phase = newPhase
	e.enc.Phase = int(newPhase)

	switch newPhase {
	case phaseCleared:
		e.enc.Cleared = true
		e.enc.PartyFreeze = true
		e.enc.DamageLockoutUntilMs = e.enc.LastCombatPacketMs + damageLockoutMs
		e.emit("phase-transition", "cleared")
	case phaseWiped:
		e.enc.PartyFreeze = true
		e.enc.DamageLockoutUntilMs = e.enc.LastCombatPacketMs + damageLockoutMs
		e.emit("phase-transition", "wiped")
	case phaseActive:
		e.emit("phase-transition", "active")
	case phasePhase1:
		e.emit("phase-transition", "phase1")
	}
}

// handleTriggerStart interprets a TriggerStartNotify signal per spec
// §4.5.2: signals in {57,59,61,63,74,76} mark a clear, the signal
// one above each of them marks a wipe; anything else is an
// intermediate phase boundary (phasePhase1) with no save.
func (e *Engine) handleTriggerStart(ev TriggerStartEvent) {
	switch ev.Signal {
	case 57, 59, 61, 63, 74, 76:
		e.transitionPhase(phaseCleared)
		e.enc.RaidClear = true
		e.requestSave()
	case 58, 60, 62, 64, 75, 77:
		e.transitionPhase(phaseWiped)
		e.requestSave()
	default:
		e.transitionPhase(phasePhase1)
	}
}

// beginActivePhase transitions Idle -> Active on the first damage
// packet of a fight (spec §4.5.2).
func (e *Engine) beginActivePhase() {
	if e.phase == phaseIdle {
		e.transitionPhase(phaseActive)
	}
}

// damageLocked reports whether timestampMs falls inside the post-
// clear/wipe lockout window, during which damage packets are dropped
// rather than attributed to the just-ended encounter (spec §4.5.2).
func (e *Engine) damageLocked(timestampMs int64) bool {
	return e.enc.DamageLockoutUntilMs != 0 && timestampMs < e.enc.DamageLockoutUntilMs
}
