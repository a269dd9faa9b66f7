// Package persistence implements the encounter persistence pipeline
// (spec §4.6): deriving per-entity statistics, averaging support buff
// ratios across parties, compressing the gzip-JSON envelope fields,
// and writing the encounter/entity/preview rows through a
// protocol.Repository inside a single logical save.
//
// Nothing here talks to a database directly — that is
// internal/storage's job, reached only through the protocol.Repository
// interface this package is handed at construction.
package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/klauspost/compress/gzip"

	"github.com/udisondev/raidtrack/internal/data"
	"github.com/udisondev/raidtrack/internal/encounter"
	"github.com/udisondev/raidtrack/internal/model"
	"github.com/udisondev/raidtrack/internal/protocol"
	"github.com/udisondev/raidtrack/internal/specinfer"
)

// Archiver mirrors internal/archive.Store's write path, narrowed so
// this package doesn't need to import MongoDB types directly. Set via
// SetArchiver; nil means no archive copy is made.
type Archiver interface {
	Archive(ctx context.Context, id int64, enc protocol.EncounterRow, entities []protocol.EntityRow, preview protocol.PreviewRow) error
}

// GemEntry is one player's engraved gem on a skill (spec §4.6 step 1).
// The packet that reports equipped gems is out of scope for the
// decoded event set internal/encounter consumes; callers that have it
// (e.g. an ArkPassiveInfo listener wired in cmd/raidtrackd) supply it
// here at save time.
type GemEntry struct {
	GemType int32
	Value   int32
}

// PlayerStaticInfo is the slow-changing, out-of-band player data the
// persistence pipeline folds in alongside the live Encounter: gems,
// tripods and ark-passive nodes for spec inference (§4.7), plus the
// loadout/combat-power fields the entity row carries verbatim.
type PlayerStaticInfo struct {
	Gems             map[int64]GemEntry
	Tripods          map[int64][3]int32
	ArkPassiveNodes  []int32
	ArkPassiveActive bool
	LoadoutHash      string
	CombatPower      float64
}

// Pipeline derives, compresses and persists one encounter snapshot.
type Pipeline struct {
	repo        protocol.Repository
	tables      *data.Tables
	specNodeMap map[int32]string
	version     string
	archiver    Archiver
}

// New returns a pipeline bound to repo. version is stamped into every
// saved encounter row (spec §6 `version`).
func New(repo protocol.Repository, tables *data.Tables, specNodeMap map[int32]string, version string) *Pipeline {
	return &Pipeline{repo: repo, tables: tables, specNodeMap: specNodeMap, version: version}
}

// SetArchiver wires an optional archive copy of every saved encounter,
// alongside (not instead of) the relational repository save (spec.md
// §1's "persisted encounters are queryable for post-fight review").
func (p *Pipeline) SetArchiver(a Archiver) { p.archiver = a }

// Save runs the full §4.6 pipeline over snap and writes it through the
// bound repository. statics is keyed by player name (Encounter.Entities'
// key); a missing entry degrades to zero gems/tripods/ark-passive nodes
// rather than failing the save (spec §7).
func (p *Pipeline) Save(ctx context.Context, snap *encounter.SaveSnapshot, statics map[string]PlayerStaticInfo) (int64, error) {
	enc := snap.Encounter
	if enc == nil {
		return 0, fmt.Errorf("persistence: nil encounter in save snapshot")
	}

	durationSec := float64(enc.DurationMs()) / 1000
	if durationSec < 1 {
		durationSec = 1
	}

	p.deriveEntityStats(enc, durationSec, statics)
	applyLocalPlayerCooldowns(enc, snap.LocalPlayerCooldowns)
	p.averageSupportBuffs(enc, snap.Parties)

	encRow, err := p.buildEncounterRow(enc, durationSec)
	if err != nil {
		return 0, fmt.Errorf("persistence: building encounter row: %w", err)
	}

	entityRows, err := p.buildEntityRows(enc, durationSec, statics)
	if err != nil {
		return 0, fmt.Errorf("persistence: building entity rows: %w", err)
	}

	preview := buildPreviewRow(enc)

	id, err := p.repo.SaveEncounter(ctx, encRow, entityRows, preview)
	if err != nil {
		return 0, fmt.Errorf("persistence: saving encounter: %w", err)
	}

	if p.archiver != nil {
		if err := p.archiver.Archive(ctx, id, encRow, entityRows, preview); err != nil {
			slog.Default().Warn("archiving encounter failed, relational save still succeeded", "encounter_id", id, "error", err)
		}
	}

	return id, nil
}

// gzipJSON compresses v's JSON encoding with klauspost's gzip at the
// default compression level (spec §6 compression envelope).
func gzipJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling: %w", err)
	}
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.DefaultCompression)
	if err != nil {
		return nil, fmt.Errorf("building gzip writer: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		w.Close()
		return nil, fmt.Errorf("writing gzip payload: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing gzip writer: %w", err)
	}
	return buf.Bytes(), nil
}

// resolveSpec runs internal/specinfer for one entity using its static
// info, defaulting to an empty observation when none was supplied.
func resolveSpec(ee *model.EncounterEntity, info PlayerStaticInfo, nodeSpecMap map[int32]string) string {
	skillIDs := make(map[int64]struct{}, len(ee.Skills))
	for id := range ee.Skills {
		skillIDs[id] = struct{}{}
	}
	obs := specinfer.Observation{
		ClassID:         ee.ClassID,
		SkillIDs:        skillIDs,
		Tripods:         info.Tripods,
		ArkPassiveNodes: info.ArkPassiveNodes,
	}
	return specinfer.Infer(obs, nodeSpecMap)
}
