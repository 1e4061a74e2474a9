// parkour runs the course generator headless: it loads the configuration,
// opens storage, serves the live feed and drives simulated players through
// generated courses.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/config"
	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/feed"
	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/leaderboard"
	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/logger"
	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/reward"
	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/schematic"
	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/session"
	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/storage"
	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/world"
)

func main() {
	// Parse command-line flags
	serverConfigFile := flag.String("config", "data/server.yaml", "Path to server config YAML file")
	generationFile := flag.String("generation", "data/generation.yaml", "Path to generation config YAML file")
	rewardsFile := flag.String("rewards", "data/rewards.yaml", "Path to rewards YAML file")
	loggingConfig := flag.String("logging", "data/logging.yaml", "Path to logging config YAML file")
	dataDir := flag.String("data-dir", "", "Path to data directory (overrides server.yaml)")
	fetchURL := flag.String("fetch", "", "Download schematics from this go-getter source before loading (overrides server.yaml)")
	seed := flag.Int64("seed", 0, "Generator seed (default: random based on current time)")
	players := flag.Int("players", 4, "Number of simulated players")
	jumps := flag.Int("jumps", 50, "Maximum jumps per simulated run")
	fallChance := flag.Float64("fall-chance", 0.02, "Chance a simulated player falls on each jump")
	interval := flag.Duration("interval", 250*time.Millisecond, "Delay between simulated landings")
	stay := flag.Bool("stay", false, "Keep serving the feed after the simulated runs finish")
	flag.Parse()

	// Initialize logger first (before any logging)
	logConfig, _ := logger.LoadConfig(*loggingConfig)
	if err := logger.Initialize(logConfig); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	logger.Info("Starting Walk in the Park")

	serverCfg, err := config.LoadConfig(*serverConfigFile)
	if err != nil {
		logger.Warning("Failed to load server config, using defaults", "path", *serverConfigFile, "error", err)
		serverCfg = config.DefaultConfig()
	}
	if *dataDir != "" {
		serverCfg.DataDir = *dataDir
	}
	if *fetchURL != "" {
		serverCfg.Schematics.FetchURL = *fetchURL
	}

	gen, err := config.LoadGeneration(*generationFile)
	if err != nil {
		log.Fatalf("Failed to load generation config: %v", err)
	}

	runSeed := *seed
	if runSeed == 0 {
		runSeed = time.Now().UnixNano()
		logger.Info("Generator seed selected", "seed", runSeed, "random", true)
	} else {
		logger.Info("Generator seed selected", "seed", runSeed, "random", false)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(serverCfg.Storage, serverCfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()
	logger.Info("Storage initialized", "driver", serverCfg.Storage.Driver)

	pool := loadSchematics(ctx, serverCfg, gen)

	board := leaderboard.New(serverCfg.Mode, store)
	if err := board.Load(); err != nil {
		logger.Error("Failed to load leaderboard, starting empty", "mode", serverCfg.Mode, "error", err)
	}

	rewards, err := reward.LoadRewards(*rewardsFile)
	if err != nil {
		logger.Warning("Failed to load rewards config, rewards disabled", "path", *rewardsFile, "error", err)
		rewards = reward.Disabled()
	}

	deps := session.Deps{
		World:   world.NewWorld("witp"),
		Divider: world.NewDivider(gen.Region.Spacing, gen.Region.Columns, gen.Region.Height),
		Pool:    pool,
		Storage: store,
		Board:   board,
		Rewards: reward.NewTracker(rewards, reward.LogExecutor{}),
	}

	var hub *feed.Hub
	if serverCfg.Feed.Enabled {
		hub = feed.NewHub(serverCfg.Feed, serverCfg.WebSocket, board)
		deps.Feed = hub
		logOriginPolicy(serverCfg.WebSocket)
		go func() {
			if err := hub.ListenAndServe(ctx); err != nil {
				logger.Error("Feed server error", "error", err)
				stop()
			}
		}()
	}

	manager := session.NewManager(gen, deps, session.Options{
		Joining:     serverCfg.Joining,
		Spawn:       serverCfg.Schematics.Spawn,
		TrailBehind: 3,
		Seed:        runSeed,
	})

	sim := simulation{
		manager:    manager,
		jumps:      *jumps,
		fallChance: *fallChance,
		interval:   *interval,
		rng:        rand.New(rand.NewSource(runSeed)),
	}

	var wg sync.WaitGroup
	for i := 0; i < *players; i++ {
		name := fmt.Sprintf("runner%d", i+1)
		wg.Add(1)
		go func() {
			defer wg.Done()
			sim.run(ctx, name)
		}()
	}
	wg.Wait()

	if *stay && hub != nil && ctx.Err() == nil {
		logger.Info("Simulated runs finished, serving feed", "address", serverCfg.Feed.Address)
		logger.Info("Press Ctrl+C to shutdown")
		<-ctx.Done()
	}

	logger.Info("Shutting down")
	manager.Shutdown()
	if err := board.Write(); err != nil {
		logger.Error("Failed to write leaderboard", "mode", board.Mode(), "error", err)
	}

	for _, e := range board.Top(10) {
		logger.Info("Leaderboard", "rank", e.Rank, "player", e.Score.Name, "score", e.Score.Score, "time", e.Score.Time)
	}
	logger.Info("Stopped")
}

// loadSchematics fetches and loads the schematic pool. A pool without the
// configured spawn island gets a plain platform so runs can still start.
func loadSchematics(ctx context.Context, cfg *config.ServerConfig, gen *config.Generation) *schematic.Pool {
	dir := cfg.Schematics.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(cfg.DataDir, dir)
	}

	if cfg.Schematics.FetchURL != "" {
		logger.Info("Fetching schematics", "source", cfg.Schematics.FetchURL, "dir", dir)
		if err := schematic.Fetch(ctx, cfg.Schematics.FetchURL, dir); err != nil {
			logger.Error("Failed to fetch schematics", "source", cfg.Schematics.FetchURL, "error", err)
		}
	}

	pool, err := schematic.LoadDir(dir)
	if err != nil {
		logger.Warning("Failed to load schematics, schematic jumps disabled", "dir", dir, "error", err)
		pool = schematic.NewPool()
	}

	if _, err := pool.Get(cfg.Schematics.Spawn); err != nil {
		logger.Warning("Spawn island schematic missing, using a plain platform", "schematic", cfg.Schematics.Spawn)
		pool.Add(platform(cfg.Schematics.Spawn, gen))
	}
	return pool
}

// platform builds a 7x7 stone island with the spawn marker on one side and
// the parkour start on the other.
func platform(name string, gen *config.Generation) *schematic.Template {
	var blocks []world.Block
	for x := 0; x < 7; x++ {
		for z := 0; z < 7; z++ {
			blocks = append(blocks, world.Block{Offset: world.Pos{X: x, Z: z}, Material: world.Stone})
		}
	}
	blocks = append(blocks,
		world.Block{Offset: world.Pos{X: 1, Y: 1, Z: 3}, Material: world.ParseMaterial(gen.Island.Spawn.PlayerBlock)},
		world.Block{Offset: world.Pos{X: 6, Y: 1, Z: 3}, Material: world.ParseMaterial(gen.Island.Parkour.BeginBlock)},
	)
	return schematic.NewTemplate(name, blocks, 0)
}

func logOriginPolicy(ws config.WebSocketConfig) {
	switch {
	case len(ws.AllowedOrigins) == 0:
		logger.Info("Feed CORS policy", "mode", "same-origin")
	case len(ws.AllowedOrigins) == 1 && ws.AllowedOrigins[0] == "*":
		logger.Warning("Feed CORS allows all origins (not recommended for production)")
	default:
		logger.Info("Feed CORS policy", "allowed_origins", ws.AllowedOrigins)
	}
}

// simulation plays runs the way a player would: land, land, fall.
type simulation struct {
	manager    *session.Manager
	jumps      int
	fallChance float64
	interval   time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

func (s *simulation) falls() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() < s.fallChance
}

func (s *simulation) run(ctx context.Context, name string) {
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(name))

	if _, err := s.manager.Join(id, name); err != nil {
		logger.Error("Simulated join failed", "player", name, "error", err)
		return
	}

	ticker := time.NewTicker(max(s.interval, time.Millisecond))
	defer ticker.Stop()

	for i := 0; i < s.jumps; i++ {
		select {
		case <-ctx.Done():
			s.manager.Leave(id)
			return
		case <-ticker.C:
		}

		if s.falls() {
			break
		}
		if _, err := s.manager.Land(id); err != nil {
			logger.Warning("Simulated landing failed", "player", name, "error", err)
		}
	}

	if _, err := s.manager.Fall(id); err != nil {
		logger.Error("Failed to end simulated run", "player", name, "error", err)
	}
}
