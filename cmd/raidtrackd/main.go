// Command raidtrackd wires the encounter aggregation engine to its
// peripheral adapters and runs until interrupted: Postgres storage,
// the live broadcast loop, the HTTP control surface, and (when
// configured) the Redis emitter, MongoDB archive and ClickHouse
// analytics uploader.
//
// Follows the teacher's cmd/gameserver/main.go shape: main() sets up
// signal-driven cancellation and delegates to run(ctx) error, which
// loads config, builds every collaborator in dependency order, then
// fans every long-running component out through one errgroup.
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/raidtrack/internal/analytics"
	"github.com/udisondev/raidtrack/internal/archive"
	"github.com/udisondev/raidtrack/internal/broadcast"
	"github.com/udisondev/raidtrack/internal/config"
	"github.com/udisondev/raidtrack/internal/data"
	"github.com/udisondev/raidtrack/internal/emit/redisemit"
	"github.com/udisondev/raidtrack/internal/encounter"
	"github.com/udisondev/raidtrack/internal/httpapi"
	"github.com/udisondev/raidtrack/internal/ingest"
	"github.com/udisondev/raidtrack/internal/persistence"
	"github.com/udisondev/raidtrack/internal/protocol"
	"github.com/udisondev/raidtrack/internal/storage"

	"github.com/redis/go-redis/v9"
)

const (
	ConfigPath      = "config/raidtrackd.yaml"
	StaticDataPath  = "config/static_data.json"
	SpecNodeMapPath = "config/spec_node_map.json"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := ConfigPath
	if p := os.Getenv("RAIDTRACK_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadEngine(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))
	slog.Info("raidtrackd starting", "log_level", cfg.LogLevel)

	tablesPath := StaticDataPath
	if p := os.Getenv("RAIDTRACK_STATIC_DATA"); p != "" {
		tablesPath = p
	}
	tables, err := data.Load(tablesPath)
	if err != nil {
		slog.Warn("loading static data failed, continuing with empty tables", "error", err)
		tables = data.Empty()
	}

	specNodeMap, err := loadSpecNodeMap(SpecNodeMapPath)
	if err != nil {
		slog.Warn("loading ark-passive node map failed, spec inference will use class trees only", "error", err)
		specNodeMap = map[int32]string{}
	}

	if err := storage.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database migrations applied")

	repo, err := storage.Open(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer repo.Close()

	var emitter protocol.Emitter
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		defer redisClient.Close()
		emitter = redisemit.New(redisClient, cfg.Redis.Channel, slog.Default())
		slog.Info("redis emitter wired", "addr", cfg.Redis.Addr, "channel", cfg.Redis.Channel)
	} else {
		emitter = logEmitter{log: slog.Default()}
	}

	eng := encounter.New(slog.Default(), tables, specNodeMap, emitter)
	eng.SetLowPerformanceMode(cfg.LowPerformanceMode)
	eng.SetBossOnlyDamage(cfg.BossOnlyDamage)

	pipeline := persistence.New(repo, tables, specNodeMap, versionString())

	if cfg.Archive.URI != "" {
		archiveStore, err := archive.Connect(ctx, cfg.Archive.URI, cfg.Archive.Database)
		if err != nil {
			slog.Warn("connecting to archive store failed, post-fight review will only see postgres", "error", err)
		} else {
			defer archiveStore.Close(ctx)
			pipeline.SetArchiver(archiveStore)
			slog.Info("archive store wired", "database", cfg.Archive.Database)
		}
	}

	var analyticsUploader *analytics.Uploader
	if len(cfg.Analytics.Addr) > 0 {
		analyticsUploader, err = analytics.Connect(analytics.Options{
			Addr:     cfg.Analytics.Addr,
			Database: cfg.Analytics.Database,
			Username: cfg.Analytics.Username,
			Password: cfg.Analytics.Password,
		}, slog.Default())
		if err != nil {
			slog.Warn("connecting to clickhouse failed, analytics upload disabled", "error", err)
			analyticsUploader = nil
		} else {
			slog.Info("analytics uploader wired", "addr", cfg.Analytics.Addr)
		}
	}

	broadcastLoop := broadcast.New(slog.Default(), eng, pipeline, emitter, cfg, nil)

	httpServer := httpapi.New(httpapi.Config{
		Addr:        cfg.HTTP.Addr,
		CORSOrigins: cfg.HTTP.CORSOrigins,
		Controller:  eng,
		Storage:     repo,
		Encounters:  repo,
	})

	var src protocol.PacketSource
	if cfg.Ingest.CapturePath != "" {
		src, err = openCaptureSource(cfg.Ingest.CapturePath, cfg.Ingest.BlowfishKeyHex)
		if err != nil {
			return fmt.Errorf("opening capture source: %w", err)
		}
		slog.Info("replaying capture", "path", cfg.Ingest.CapturePath)
	}

	g, gctx := errgroup.WithContext(ctx)

	if src != nil {
		g.Go(func() error {
			slog.Info("starting encounter engine")
			if err := eng.Run(gctx, src); err != nil {
				return fmt.Errorf("encounter engine: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		slog.Info("starting live broadcast loop", "emit_interval", cfg.EmitInterval())
		if err := broadcastLoop.Run(gctx); err != nil {
			return fmt.Errorf("broadcast loop: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		slog.Info("starting http api", "addr", cfg.HTTP.Addr)
		if err := httpServer.Run(gctx); err != nil {
			return fmt.Errorf("http api: %w", err)
		}
		return nil
	})

	if analyticsUploader != nil {
		g.Go(func() error {
			slog.Info("starting analytics uploader")
			return analyticsUploader.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// logEmitter is the fallback protocol.Emitter when no Redis channel is
// configured: every event is logged at debug level rather than
// dropped, so a single-process deployment still has an audit trail.
type logEmitter struct {
	log *slog.Logger
}

func (e logEmitter) Emit(event string, payload any) {
	e.log.Debug("emit", "event", event)
}

// loadSpecNodeMap reads the ark-passive node-id-to-spec-name table
// internal/specinfer's fallback path consults (spec §4.7). It is a
// flat JSON object, distinct from internal/data's richer static tables
// because it changes on a different cadence (ark-passive tree patches)
// than skill/NPC data.
func loadSpecNodeMap(path string) (map[int32]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading spec node map %s: %w", path, err)
	}
	var m map[int32]string
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parsing spec node map %s: %w", path, err)
	}
	return m, nil
}

// openCaptureSource builds a replay packet source from a hex-encoded
// Blowfish key, the capture-replay adapter for the out-of-scope
// real-time capture collaborator (spec.md §1).
func openCaptureSource(path, keyHex string) (protocol.PacketSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening capture file: %w", err)
	}
	key, err := decodeHexKey(keyHex)
	if err != nil {
		f.Close()
		return nil, err
	}
	return ingest.NewReplay(f, key)
}

func decodeHexKey(keyHex string) ([]byte, error) {
	if keyHex == "" {
		return nil, fmt.Errorf("ingest.blowfish_key_hex is required when ingest.capture_path is set")
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("decoding blowfish key: %w", err)
	}
	return key, nil
}

func versionString() string {
	if v := os.Getenv("RAIDTRACK_VERSION"); v != "" {
		return v
	}
	return "dev"
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
