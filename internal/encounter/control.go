package encounter

// Snapshot returns a deep-enough clone of the live aggregate, safe to
// hand to a background emit/broadcast task (spec §5). Unlike
// Encounter(), which returns the live, unprotected aggregate for the
// consumer goroutine's own use, Snapshot is the one safe way for
// another goroutine to read engine state.
func (e *Engine) Snapshot() *SaveSnapshot {
	return &SaveSnapshot{
		Encounter:            e.cloneEncounter(),
		Parties:              e.parties.Snapshot(),
		LocalPlayerCooldowns: e.skills.AllCooldowns(),
	}
}

// SetBossOnlyDamage toggles whether non-boss damage is excluded from
// the live aggregate's totals (spec §6 GUI control flags). The flag
// applies immediately to the live encounter and is carried forward as
// the default for every encounter started after it (soft reset, raid
// begin, InitEnv).
func (e *Engine) SetBossOnlyDamage(v bool) {
	e.bossOnlyDefault = v
	e.enc.BossOnlyDamage = v
}

// BossOnlyDamage reports the current boss-only-damage flag.
func (e *Engine) BossOnlyDamage() bool { return e.bossOnlyDefault }

// ManualSave marks the current encounter as explicitly saved and
// persists it immediately, regardless of phase; it does nothing while
// no boss is tracked (spec §4.6 "manual_save" supplement, §6 GUI
// control flags).
func (e *Engine) ManualSave() {
	if e.enc.CurrentBossName == "" {
		return
	}
	e.enc.DamageStats.Misc["manual_save"] = true
	e.requestSave()
}

// Reset discards the live encounter and starts a fresh one without
// persisting it, for the GUI's explicit "reset" control (spec §6). It
// performs exactly the same soft reset as a new-raid transition.
func (e *Engine) Reset() {
	e.softReset()
}

// Pause marks the engine as paused without discarding state. It only
// flips the bookkeeping flag the broadcast loop inspects to skip
// emitting ticks while paused; HandlePacket keeps processing packets
// as usual (spec §6 GUI control flags).
func (e *Engine) Pause()  { e.paused = true }
func (e *Engine) Resume() { e.paused = false }

// Paused reports whether the engine is currently paused.
func (e *Engine) Paused() bool { return e.paused }
