package idparty

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddMapping_MigratesPartyOnEntityChange(t *testing.T) {
	tr := New()
	pk := PartyKey{RaidInstanceID: 1, PartyInstanceID: 2}
	tr.Add(2, 1, 100, 200, "Alice")
	require.Equal(t, pk, mustParty(t, tr, 200))

	tr.AddMapping(100, 201)

	_, ok := tr.EntityIDToPartyID(200)
	require.False(t, ok, "old entity id must no longer resolve to a party")
	require.Equal(t, pk, mustParty(t, tr, 201))

	entID, ok := tr.EntityIDFor(100)
	require.True(t, ok)
	require.Equal(t, uint64(201), entID)
}

func TestChangeEntityID_RekeysEveryLookup(t *testing.T) {
	tr := New()
	tr.Add(1, 1, 10, 20, "Bob")

	tr.ChangeEntityID(20, 30)

	_, ok := tr.CharacterIDFor(20)
	require.False(t, ok, "lookups by the old entity id must fail after rekey")

	charID, ok := tr.CharacterIDFor(30)
	require.True(t, ok)
	require.Equal(t, uint64(10), charID)

	pk, ok := tr.EntityIDToPartyID(30)
	require.True(t, ok)
	require.Equal(t, PartyKey{RaidInstanceID: 1, PartyInstanceID: 1}, pk)
}

func TestRemovePartyMappings_KeepsBijectionIntact(t *testing.T) {
	tr := New()
	pk := PartyKey{RaidInstanceID: 1, PartyInstanceID: 1}
	tr.Add(1, 1, 10, 20, "Carol")

	tr.RemovePartyMappings(pk)

	_, ok := tr.EntityIDToPartyID(20)
	require.False(t, ok)
	_, ok = tr.CharacterIDToPartyID(10)
	require.False(t, ok)

	entID, ok := tr.EntityIDFor(10)
	require.True(t, ok, "id bijection survives party removal")
	require.Equal(t, uint64(20), entID)
}

func TestCompleteEntry_PicksHighestObservedCount(t *testing.T) {
	tr := New()
	pkA := PartyKey{RaidInstanceID: 1, PartyInstanceID: 1}
	pkB := PartyKey{RaidInstanceID: 1, PartyInstanceID: 2}

	// pkA observed once, pkB observed twice for the same character id.
	tr.Add(1, 1, 42, 100, "Dave")
	tr.Add(2, 1, 42, 100, "Dave")
	tr.Add(2, 1, 42, 100, "Dave")
	_ = pkA

	got, found := tr.CompleteEntry(42, 999)
	require.True(t, found)
	require.Equal(t, pkB, got)

	pk, ok := tr.EntityIDToPartyID(999)
	require.True(t, ok)
	require.Equal(t, pkB, pk)
}

func TestSamePartyAs(t *testing.T) {
	tr := New()
	tr.Add(1, 1, 1, 11, "Local")
	tr.Add(1, 1, 2, 12, "Friend")
	tr.Add(2, 1, 3, 13, "Stranger")

	require.True(t, tr.SamePartyAs(2, 1))
	require.False(t, tr.SamePartyAs(3, 1), "different party must not count as same party")
	require.False(t, tr.SamePartyAs(1, 1), "a character is never in the same party as itself")
}

func TestSetNameAndLocalName(t *testing.T) {
	tr := New()
	require.Empty(t, tr.LocalName())
	tr.SetName("Hero")
	require.Equal(t, "Hero", tr.LocalName())
}

func TestClear_WipesEveryMapping(t *testing.T) {
	tr := New()
	tr.Add(1, 1, 10, 20, "Eve")
	tr.SetName("Eve")

	tr.Clear()

	_, ok := tr.EntityIDFor(10)
	require.False(t, ok)
	require.Empty(t, tr.LocalName(), "Clear resets the local name too")
}

func TestSnapshot_GroupsCharactersByParty(t *testing.T) {
	tr := New()
	pk := PartyKey{RaidInstanceID: 1, PartyInstanceID: 1}
	tr.Add(1, 1, 10, 20, "Alice")
	tr.Add(1, 1, 11, 21, "Bob")

	snap := tr.Snapshot()

	require.ElementsMatch(t, []uint64{10, 11}, snap[pk])
}

func mustParty(t *testing.T, tr *Tracker, entityID uint64) PartyKey {
	t.Helper()
	pk, ok := tr.EntityIDToPartyID(entityID)
	require.True(t, ok)
	return pk
}
