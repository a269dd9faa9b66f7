// Package storage implements protocol.Repository on top of Postgres via
// pgx, and RunMigrations via goose — the SQL schema migration and
// connection pooling collaborator spec.md §1 treats as external,
// concrete here so the encounter/entity/preview rows of spec §6 land
// somewhere real.
package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/raidtrack/internal/protocol"
)

const (
	stmtInsertEncounter = "raidtrack_insert_encounter"
	stmtInsertEntity    = "raidtrack_insert_entity"
	stmtInsertPreview   = "raidtrack_insert_preview"
)

// Postgres is a protocol.Repository backed by a pgx connection pool.
// Save statements are prepared once per physical connection via
// AfterConnect and reused by name thereafter — spec §4.6's "all inserts
// use prepared, cached statements".
type Postgres struct {
	pool *pgxpool.Pool
}

// Open connects to Postgres at dsn, configuring the pool to prepare and
// cache the save statements on every new connection.
func Open(ctx context.Context, dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing dsn: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return prepareStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close closes the underlying connection pool.
func (p *Postgres) Close() { p.pool.Close() }

// Ping reports whether the pool can currently reach Postgres, for the
// httpapi readiness check.
func (p *Postgres) Ping(ctx context.Context) error { return p.pool.Ping(ctx) }

func prepareStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		stmtInsertEncounter: `INSERT INTO encounter (
			last_combat_packet_ms, total_damage_dealt, top_damage_dealt,
			total_damage_taken, top_damage_taken, dps, buffs, debuffs,
			total_shielding, total_effective_shield, applied_shield_buffs,
			misc, version, boss_hp_log
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING id`,
		stmtInsertEntity: `INSERT INTO entity (
			encounter_id, name, npc_id, entity_type, class_id, class, gear_score,
			current_hp, max_hp, is_dead, skills, damage_stats, skill_stats, dps,
			character_id, engravings, loadout_hash, combat_power, ark_passive_active,
			spec, ark_passive_data, support_buff, support_brand, support_identity,
			support_hyper, unbuffed_damage, unbuffed_dps
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27)`,
		stmtInsertPreview: `INSERT INTO preview (
			id, fight_start_ms, current_boss, duration_ms, players, difficulty,
			local_player, my_dps, cleared, boss_only_damage
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
	}
	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("preparing statement %s: %w", name, err)
		}
	}
	return nil
}

// SaveEncounter writes the encounter row, its entity rows and the
// preview row in a single transaction (spec §4.6).
func (p *Postgres) SaveEncounter(ctx context.Context, row protocol.EncounterRow, entities []protocol.EntityRow, preview protocol.PreviewRow) (int64, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning save transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	err = tx.QueryRow(ctx, stmtInsertEncounter,
		row.LastCombatPacketMs, row.TotalDamageDealt, row.TopDamageDealt,
		row.TotalDamageTaken, row.TopDamageTaken, row.DPS, row.BuffsGz, row.DebuffsGz,
		row.TotalShielding, row.TotalEffectiveShield, row.AppliedShieldBuffsGz,
		row.MiscJSON, row.Version, row.BossHPLogGz,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting encounter row: %w", err)
	}

	for _, e := range entities {
		_, err := tx.Exec(ctx, stmtInsertEntity,
			id, e.Name, e.NpcID, e.EntityType, e.ClassID, e.Class, e.GearScore,
			e.CurrentHP, e.MaxHP, e.IsDead, e.SkillsGz, e.DamageStatsGz, e.SkillStatsJSON, e.DPS,
			int64(e.CharacterID), e.EngravingsJSON, e.LoadoutHash, e.CombatPower, e.ArkPassiveActive,
			e.Spec, e.ArkPassiveDataJSON, e.SupportBuff, e.SupportBrand, e.SupportIdentity,
			e.SupportHyper, e.UnbuffedDamage, e.UnbuffedDPS,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting entity row %q: %w", e.Name, err)
		}
	}

	_, err = tx.Exec(ctx, stmtInsertPreview,
		id, preview.FightStartMs, preview.CurrentBoss, preview.DurationMs, preview.Players,
		preview.Difficulty, preview.LocalPlayer, preview.MyDPS, preview.Cleared, preview.BossOnlyDamage,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting preview row: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing save transaction: %w", err)
	}
	return id, nil
}

// GetEncounter reads back a persisted encounter row's preview entry, the
// minimal read path the httpapi's /encounters/{id} endpoint needs.
// Full encounter/entity row reconstruction belongs to a richer read
// model (see internal/archive for the denormalized, query-oriented
// store); this is a narrow existence+summary check straight off the
// relational rows.
func (p *Postgres) GetEncounter(ctx context.Context, id int64) (protocol.PreviewRow, error) {
	var pv protocol.PreviewRow
	err := p.pool.QueryRow(ctx,
		`SELECT id, fight_start_ms, current_boss, duration_ms, players, difficulty,
		        local_player, my_dps, cleared, boss_only_damage
		 FROM preview WHERE id = $1`, id,
	).Scan(&pv.ID, &pv.FightStartMs, &pv.CurrentBoss, &pv.DurationMs, &pv.Players,
		&pv.Difficulty, &pv.LocalPlayer, &pv.MyDPS, &pv.Cleared, &pv.BossOnlyDamage)
	if err != nil {
		return protocol.PreviewRow{}, fmt.Errorf("querying encounter %d: %w", id, err)
	}
	return pv, nil
}
