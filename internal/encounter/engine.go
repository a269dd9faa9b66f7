// Package encounter implements the packet-driven encounter aggregation
// engine: the opcode dispatch, damage attribution, CC/abnormal-move
// tracking and phase state machine that together turn a decoded packet
// stream into the live Encounter aggregate (spec §4.5, §4.5.1, §4.5.2).
//
// Engine is owned by a single consumer goroutine (spec §5); none of its
// fields are protected by a mutex. Background save/emit tasks are
// always handed a clone, never the live aggregate.
package encounter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/udisondev/raidtrack/internal/data"
	"github.com/udisondev/raidtrack/internal/metrics"
	"github.com/udisondev/raidtrack/internal/model"
	"github.com/udisondev/raidtrack/internal/protocol"
	"github.com/udisondev/raidtrack/internal/specinfer"
	"github.com/udisondev/raidtrack/internal/tracker/entity"
	"github.com/udisondev/raidtrack/internal/tracker/idparty"
	"github.com/udisondev/raidtrack/internal/tracker/skill"
	"github.com/udisondev/raidtrack/internal/tracker/status"
)

// Engine is the single-threaded encounter aggregation core.
type Engine struct {
	log *slog.Logger

	tables *data.Tables
	parties *idparty.Tracker
	entities *entity.Tracker
	statuses *status.Registry
	skills   *skill.Tracker
	customIDs *data.CustomIDMap

	enc *model.Encounter

	zoneID          int32
	zoneInstanceID  int32
	raidInstanceID  int32
	localCharacterID uint64
	localNameKnown  bool
	lowPerformance  bool
	bossOnlyDefault bool
	paused          bool

	emitter protocol.Emitter

	phase      encounterPhase
	incapState map[uint64]*incapTracker

	// specNodeMap resolves ark-passive node ids to spec names for
	// internal/specinfer's fallback path; populated from static data,
	// not mutated by packet handlers.
	specNodeMap map[int32]string

	// OnSaveRequested fires when the phase machine decides this
	// encounter must be persisted (wipe, clear, or manual save). The
	// engine hands the callback a cloned snapshot; internal/broadcast's
	// Loop installs a callback that never blocks (spec §4.6, §5).
	OnSaveRequested func(*SaveSnapshot)
}

// SaveSnapshot bundles everything internal/persistence needs to derive
// and persist one encounter, already cloned/copied so the background
// save task never touches live engine state (spec §5).
type SaveSnapshot struct {
	Encounter            *model.Encounter
	Parties              map[idparty.PartyKey][]uint64
	LocalPlayerCooldowns map[int64][]model.CastEvent
}

// New returns an engine with empty trackers, ready to receive packets.
func New(log *slog.Logger, tables *data.Tables, specNodeMap map[int32]string, emitter protocol.Emitter) *Engine {
	if log == nil {
		log = slog.Default()
	}
	parties := idparty.New()
	return &Engine{
		log:             log,
		tables:          tables,
		parties:         parties,
		entities:        entity.New(parties, tables),
		statuses:        status.New(parties),
		skills:          skill.New(),
		customIDs:       data.NewCustomIDMap(),
		enc:             model.NewEncounter(""),
		emitter:         emitter,
		specNodeMap:     specNodeMap,
		bossOnlyDefault: false,
		phase:           phaseIdle,
		incapState:      make(map[uint64]*incapTracker),
	}
}

// Encounter returns the live aggregate. Callers outside the consumer
// goroutine must Clone before reading.
func (e *Engine) Encounter() *model.Encounter { return e.enc }

// SetLowPerformanceMode toggles the reduced bookkeeping mode (spec §12
// supplement): when enabled, the per-hit BuffedBy/DebuffedBy lists on
// SkillHit are skipped to cut allocation rate on constrained machines.
// DPSRolling10s is still computed at save time.
func (e *Engine) SetLowPerformanceMode(v bool) { e.lowPerformance = v }

// Run consumes src until ctx is cancelled or src is exhausted. Each
// packet is dispatched through HandlePacket; per-packet errors are
// logged and skipped, never fatal (spec §7).
func (e *Engine) Run(ctx context.Context, src protocol.PacketSource) error {
	for {
		pkt, err := src.Recv(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("receiving packet: %w", err)
		}
		if err := e.HandlePacket(pkt); err != nil {
			e.log.Warn("packet handling failed", "opcode", pkt.Opcode, "error", err)
			metrics.PacketsFailed.WithLabelValues(fmt.Sprintf("%d", pkt.Opcode)).Inc()
			continue
		}
		metrics.PacketsProcessed.Inc()
	}
}

func decode[T any](payload []byte) (T, error) {
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return v, fmt.Errorf("%w: %v", protocol.ErrParseFailure, err)
	}
	return v, nil
}

// HandlePacket dispatches one decoded packet to its handler (spec
// §4.5). Unrecognized opcodes are ignored.
func (e *Engine) HandlePacket(pkt protocol.Packet) error {
	switch pkt.Opcode {
	case protocol.OpInitEnv:
		ev, err := decode[InitEnvEvent](pkt.Payload)
		if err != nil {
			return err
		}
		e.handleInitEnv(ev)

	case protocol.OpTransit:
		ev, err := decode[TransitEvent](pkt.Payload)
		if err != nil {
			return err
		}
		e.handleTransit(ev)

	case protocol.OpInitPC:
		ev, err := decode[PCEvent](pkt.Payload)
		if err != nil {
			return err
		}
		e.handleInitPC(ev)

	case protocol.OpNewPC:
		ev, err := decode[PCEvent](pkt.Payload)
		if err != nil {
			return err
		}
		e.handleNewPC(ev)

	case protocol.OpNewNpc:
		ev, err := decode[NpcEvent](pkt.Payload)
		if err != nil {
			return err
		}
		e.handleNewNpc(ev, false)

	case protocol.OpNewNpcSummon:
		ev, err := decode[NpcEvent](pkt.Payload)
		if err != nil {
			return err
		}
		e.handleNewNpc(ev, true)

	case protocol.OpDeath:
		ev, err := decode[DeathEvent](pkt.Payload)
		if err != nil {
			return err
		}
		e.handleDeath(ev)

	case protocol.OpSkillCooldownNotify:
		ev, err := decode[SkillCooldownNotifyEvent](pkt.Payload)
		if err != nil {
			return err
		}
		e.handleSkillCooldownNotify(ev)

	case protocol.OpSkillStartNotify, protocol.OpSkillCastNotify:
		ev, err := decode[SkillStartEvent](pkt.Payload)
		if err != nil {
			return err
		}
		e.handleSkillStart(ev)

	case protocol.OpSkillDamageNotify:
		ev, err := decode[SkillDamageEvent](pkt.Payload)
		if err != nil {
			return err
		}
		return e.handleSkillDamage(ev)

	case protocol.OpSkillDamageAbnormalMoveNotify:
		ev, err := decode[SkillDamageEvent](pkt.Payload)
		if err != nil {
			return err
		}
		ev.IsAbnormalMove = true
		return e.handleSkillDamage(ev)

	case protocol.OpRemoveObject:
		ev, err := decode[RemoveObjectEvent](pkt.Payload)
		if err != nil {
			return err
		}
		e.handleRemoveObject(ev)

	case protocol.OpShieldAdd:
		ev, err := decode[ShieldEvent](pkt.Payload)
		if err != nil {
			return err
		}
		ev.Kind = ShieldAdd
		e.handleShield(ev)

	case protocol.OpShieldRemove:
		ev, err := decode[ShieldEvent](pkt.Payload)
		if err != nil {
			return err
		}
		ev.Kind = ShieldRemove
		e.handleShield(ev)

	case protocol.OpShieldSync:
		ev, err := decode[ShieldEvent](pkt.Payload)
		if err != nil {
			return err
		}
		ev.Kind = ShieldSync
		e.handleShield(ev)

	case protocol.OpCounterattack:
		ev, err := decode[CounterattackEvent](pkt.Payload)
		if err != nil {
			return err
		}
		e.handleCounterattack(ev)

	case protocol.OpRaidBegin:
		ev, err := decode[RaidBeginEvent](pkt.Payload)
		if err != nil {
			return err
		}
		e.handleRaidBegin(ev)

	case protocol.OpRaidResult, protocol.OpRaidBossKillNotify, protocol.OpTriggerBossBattleStatus:
		e.handleRaidClearSignal()

	case protocol.OpTriggerStartNotify:
		ev, err := decode[TriggerStartEvent](pkt.Payload)
		if err != nil {
			return err
		}
		e.handleTriggerStart(ev)

	case protocol.OpZoneMemberLoadStatusNotify:
		ev, err := decode[ZoneMemberLoadStatusEvent](pkt.Payload)
		if err != nil {
			return err
		}
		e.handleZoneMemberLoadStatus(ev)

	case protocol.OpPartyInfo:
		ev, err := decode[PartyInfoEvent](pkt.Payload)
		if err != nil {
			return err
		}
		e.handlePartyInfo(ev)

	case protocol.OpPartyLeaveResult:
		ev, err := decode[PartyLeaveResultEvent](pkt.Payload)
		if err != nil {
			return err
		}
		e.handlePartyLeaveResult(ev)

	case protocol.OpPartyStatusEffectAdd:
		ev, err := decode[PartyStatusEffectEvent](pkt.Payload)
		if err != nil {
			return err
		}
		e.handlePartyStatusEffectAdd(ev)

	case protocol.OpPartyStatusEffectRemove:
		ev, err := decode[PartyStatusEffectEvent](pkt.Payload)
		if err != nil {
			return err
		}
		e.handlePartyStatusEffectRemove(ev)

	case protocol.OpPartyStatusEffectResult:
		ev, err := decode[PartyStatusEffectEvent](pkt.Payload)
		if err != nil {
			return err
		}
		e.handlePartyStatusEffectSync(ev)

	case protocol.OpNewTransit:
		ev, err := decode[NewTransitEvent](pkt.Payload)
		if err != nil {
			return err
		}
		e.zoneInstanceID = ev.ZoneInstanceID
	}
	return nil
}
