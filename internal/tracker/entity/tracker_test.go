package entity

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/udisondev/raidtrack/internal/data"
	"github.com/udisondev/raidtrack/internal/model"
	"github.com/udisondev/raidtrack/internal/tracker/idparty"
)

func newTestTracker() (*Tracker, *idparty.Tracker) {
	parties := idparty.New()
	tables := data.Empty()
	tables.Skills[100] = data.SkillInfo{ID: 100, Name: "Sword Strike", ClassID: 5}
	return New(parties, tables), parties
}

func TestInitPC_RegistersLocalPlayerAndParty(t *testing.T) {
	tr, parties := newTestTracker()
	pc := &model.Entity{EntityID: 1, CharacterID: 10, Name: "Hero"}

	tr.InitPC(pc)

	got, ok := tr.Get(1)
	require.True(t, ok)
	require.Equal(t, model.EntityPlayer, got.Type)

	entID, ok := parties.EntityIDFor(10)
	require.True(t, ok)
	require.Equal(t, uint64(1), entID)
}

func TestInitEnv_CarriesLocalPlayerPartyToNewEntityID(t *testing.T) {
	tr, parties := newTestTracker()
	tr.InitPC(&model.Entity{EntityID: 1, CharacterID: 10, Name: "Hero"})
	parties.Add(1, 1, 10, 1, "Hero")

	tr.InitEnv(99)

	_, ok := tr.Get(1)
	require.False(t, ok, "old entity id must be cleared on zone change")

	local, ok := tr.Get(99)
	require.True(t, ok)
	require.Equal(t, uint64(10), local.CharacterID)

	pk, ok := parties.EntityIDToPartyID(99)
	require.True(t, ok, "party membership must follow the local player to the new id")
	require.Equal(t, idparty.PartyKey{RaidInstanceID: 1, PartyInstanceID: 1}, pk)
}

func TestNewPC_NeverOverwritesMaxHPWithZero(t *testing.T) {
	tr, _ := newTestTracker()
	tr.NewPC(&model.Entity{EntityID: 1, CharacterID: 10, MaxHP: 5000})

	tr.NewPC(&model.Entity{EntityID: 1, CharacterID: 10, MaxHP: 0})

	got, ok := tr.Get(1)
	require.True(t, ok)
	require.Equal(t, int64(5000), got.MaxHP, "a later NewPC row with zero max HP must not clobber the known value")
}

func TestNewPC_ReconcilesByCharacterIDAcrossEntityIDChange(t *testing.T) {
	tr, parties := newTestTracker()
	tr.NewPC(&model.Entity{EntityID: 1, CharacterID: 10, Name: "Hero"})

	tr.NewPC(&model.Entity{EntityID: 2, CharacterID: 10, Name: "Hero"})

	_, ok := tr.Get(1)
	require.False(t, ok, "the stale entity id row must be dropped on reconciliation")
	_, ok = tr.Get(2)
	require.True(t, ok)

	entID, ok := parties.EntityIDFor(10)
	require.True(t, ok)
	require.Equal(t, uint64(2), entID)
}

func TestNewNpc_ClassifiesBossCandidates(t *testing.T) {
	tr, _ := newTestTracker()

	isBoss := tr.NewNpc(&model.Entity{EntityID: 50, Name: "Valakas", MaxHP: 1_000_000}, "boss")
	require.True(t, isBoss)
	got, ok := tr.Get(50)
	require.True(t, ok)
	require.Equal(t, model.EntityBoss, got.Type)

	isBoss = tr.NewNpc(&model.Entity{EntityID: 51, Name: "Training Dummy", MaxHP: 100}, "normal")
	require.False(t, isBoss)
	got, ok = tr.Get(51)
	require.True(t, ok)
	require.Equal(t, model.EntityNpc, got.Type)
}

func TestNewProjectileAndTrap_TrackOwner(t *testing.T) {
	tr, _ := newTestTracker()
	tr.NewProjectile(200, 1)
	tr.NewTrap(201, 1)

	p, ok := tr.Get(200)
	require.True(t, ok)
	require.Equal(t, uint64(1), p.OwnerID)

	tp, ok := tr.Get(201)
	require.True(t, ok)
	require.Equal(t, uint64(1), tp.OwnerID)
}

func TestGetSourceEntity_ResolvesProjectileToOwner(t *testing.T) {
	tr, _ := newTestTracker()
	tr.NewPC(&model.Entity{EntityID: 1, CharacterID: 10, Name: "Hero"})
	tr.NewProjectile(200, 1)

	src := tr.GetSourceEntity(200)
	require.Equal(t, uint64(1), src.EntityID)
}

func TestGetSourceEntity_SynthesizesUnknownForUntrackedID(t *testing.T) {
	tr, _ := newTestTracker()

	src := tr.GetSourceEntity(0xdeadbeef)
	require.Equal(t, model.EntityUnknown, src.Type)
	require.Equal(t, "deadbeef", src.Name)

	again, ok := tr.Get(0xdeadbeef)
	require.True(t, ok, "the synthesized entity must be cached for subsequent lookups")
	require.Same(t, src, again)
}

func TestGuessIsPlayer_PromotesUnknownToClassFromSkill(t *testing.T) {
	tr, _ := newTestTracker()
	tr.entities[5] = &model.Entity{EntityID: 5, Type: model.EntityUnknown}

	tr.GuessIsPlayer(5, 100)

	got, ok := tr.Get(5)
	require.True(t, ok)
	require.Equal(t, model.EntityPlayer, got.Type)
	require.Equal(t, int32(5), got.ClassID)
}

func TestGuessIsPlayer_IgnoresAlreadyClassifiedPlayers(t *testing.T) {
	tr, _ := newTestTracker()
	tr.entities[5] = &model.Entity{EntityID: 5, Type: model.EntityPlayer, ClassID: 7}

	tr.GuessIsPlayer(5, 100)

	got, ok := tr.Get(5)
	require.True(t, ok)
	require.Equal(t, int32(7), got.ClassID, "an already-classed player must not be reclassified")
}

func TestPartyInfo_CompletesLocalEntryWhenNameUnknown(t *testing.T) {
	tr, parties := newTestTracker()
	tr.InitPC(&model.Entity{EntityID: 1, CharacterID: 10, Name: ""})
	tr.localPlayerCharacterID = 10

	tr.PartyInfo([]PartyMember{
		{CharacterID: 10, EntityID: 1, Name: "Hero", PartyInstanceID: 3, RaidInstanceID: 1},
		{CharacterID: 11, EntityID: 2, Name: "Friend", PartyInstanceID: 3, RaidInstanceID: 1},
	}, false)

	pk, ok := parties.CharacterIDToPartyID(10)
	require.True(t, ok)
	require.Equal(t, idparty.PartyKey{RaidInstanceID: 1, PartyInstanceID: 3}, pk)

	pk, ok = parties.CharacterIDToPartyID(11)
	require.True(t, ok)
	require.Equal(t, idparty.PartyKey{RaidInstanceID: 1, PartyInstanceID: 3}, pk)
}
