// Package idparty implements the bijection between stable character
// ids and ephemeral entity ids, and the mapping of both onto
// (raid_instance_id, party_instance_id) party membership (spec §4.1).
//
// The tracker is mutated only from the single consumer goroutine (spec
// §5); it carries no internal locking.
package idparty

// PartyKey identifies one raid/party instance pairing.
type PartyKey struct {
	RaidInstanceID  int32
	PartyInstanceID int32
}

// Tracker is the id/party bijection store.
type Tracker struct {
	charToEntity map[uint64]uint64
	entityToChar map[uint64]uint64

	entityToParty map[uint64]PartyKey
	charToParty   map[uint64]PartyKey

	memberCount map[PartyKey]map[uint64]int32 // party -> character -> observed refresh count

	localName string
}

// New returns an empty tracker.
func New() *Tracker {
	return &Tracker{
		charToEntity:  make(map[uint64]uint64),
		entityToChar:  make(map[uint64]uint64),
		entityToParty: make(map[uint64]PartyKey),
		charToParty:   make(map[uint64]PartyKey),
		memberCount:   make(map[PartyKey]map[uint64]int32),
	}
}

// AddMapping records that characterID currently maps to entityID. If
// characterID already mapped to a different entity id, the party
// membership under the old entity id is migrated to the new one (spec
// §4.1, §3 invariant 1).
func (t *Tracker) AddMapping(characterID, entityID uint64) {
	if oldEntity, ok := t.charToEntity[characterID]; ok && oldEntity != entityID {
		if pk, ok := t.entityToParty[oldEntity]; ok {
			t.entityToParty[entityID] = pk
			delete(t.entityToParty, oldEntity)
		}
		delete(t.entityToChar, oldEntity)
	}
	t.charToEntity[characterID] = entityID
	t.entityToChar[entityID] = characterID
}

// ChangeEntityID re-keys every mapping pointing at oldID so they point
// at newID instead. After this call no lookup returns oldID (spec §4.1
// invariant).
func (t *Tracker) ChangeEntityID(oldID, newID uint64) {
	if charID, ok := t.entityToChar[oldID]; ok {
		delete(t.entityToChar, oldID)
		t.entityToChar[newID] = charID
		t.charToEntity[charID] = newID
	}
	if pk, ok := t.entityToParty[oldID]; ok {
		delete(t.entityToParty, oldID)
		t.entityToParty[newID] = pk
	}
}

// Add registers party/raid/character/entity membership for one member,
// bumping the observed refresh count used by CompleteEntry. name is
// accepted but not stored.
func (t *Tracker) Add(partyInstanceID, raidInstanceID int32, characterID, entityID uint64, name string) {
	pk := PartyKey{RaidInstanceID: raidInstanceID, PartyInstanceID: partyInstanceID}
	t.AddMapping(characterID, entityID)
	t.entityToParty[entityID] = pk
	t.charToParty[characterID] = pk

	if t.memberCount[pk] == nil {
		t.memberCount[pk] = make(map[uint64]int32)
	}
	t.memberCount[pk][characterID]++
	_ = name
}

// RemovePartyMappings drops every character/entity's party membership
// for the given party key, keeping the id bijection intact.
func (t *Tracker) RemovePartyMappings(pk PartyKey) {
	for entityID, epk := range t.entityToParty {
		if epk == pk {
			delete(t.entityToParty, entityID)
		}
	}
	for charID, cpk := range t.charToParty {
		if cpk == pk {
			delete(t.charToParty, charID)
		}
	}
	delete(t.memberCount, pk)
}

// CompleteEntry picks, among the candidates observed for characterID,
// the party key with the highest observed refresh count — used by
// EntityTracker.PartyInfo when the local player's name is still
// unknown (spec §4.3).
func (t *Tracker) CompleteEntry(characterID, entityID uint64) (PartyKey, bool) {
	var best PartyKey
	var bestCount int32 = -1
	found := false
	for pk, members := range t.memberCount {
		if count, ok := members[characterID]; ok {
			if count > bestCount {
				best, bestCount, found = pk, count, true
			}
		}
	}
	if found {
		t.AddMapping(characterID, entityID)
		t.entityToParty[entityID] = best
		t.charToParty[characterID] = best
	}
	return best, found
}

// EntityIDToPartyID returns the party key for an entity id, if known.
func (t *Tracker) EntityIDToPartyID(entityID uint64) (PartyKey, bool) {
	pk, ok := t.entityToParty[entityID]
	return pk, ok
}

// CharacterIDToPartyID returns the party key for a character id, if known.
func (t *Tracker) CharacterIDToPartyID(characterID uint64) (PartyKey, bool) {
	pk, ok := t.charToParty[characterID]
	return pk, ok
}

// EntityIDFor returns the current entity id mapped to characterID.
func (t *Tracker) EntityIDFor(characterID uint64) (uint64, bool) {
	id, ok := t.charToEntity[characterID]
	return id, ok
}

// CharacterIDFor returns the character id currently mapped to entityID.
func (t *Tracker) CharacterIDFor(entityID uint64) (uint64, bool) {
	id, ok := t.entityToChar[entityID]
	return id, ok
}

// SetName records the local player's name (used by EntityTracker when
// InitPC fires).
func (t *Tracker) SetName(name string) { t.localName = name }

// LocalName returns the last name set via SetName.
func (t *Tracker) LocalName() string { return t.localName }

// SamePartyAs reports whether characterID shares a party with
// localCharacterID, per spec §4.2 "should_use_party_status_effect":
// both must have a known party, the parties must match, and the two
// ids must differ.
func (t *Tracker) SamePartyAs(characterID, localCharacterID uint64) bool {
	if characterID == localCharacterID {
		return false
	}
	localPK, ok1 := t.charToParty[localCharacterID]
	otherPK, ok2 := t.charToParty[characterID]
	return ok1 && ok2 && localPK == otherPK
}

// Clear wipes every mapping (hard reset).
func (t *Tracker) Clear() {
	*t = *New()
}

// Snapshot returns every known party's current character-id membership,
// a deep-enough copy safe to hand to a background save task (spec §5
// "clones the immutable subset of state it needs ... party").
func (t *Tracker) Snapshot() map[PartyKey][]uint64 {
	out := make(map[PartyKey][]uint64, len(t.memberCount))
	for charID, pk := range t.charToParty {
		out[pk] = append(out[pk], charID)
	}
	return out
}
