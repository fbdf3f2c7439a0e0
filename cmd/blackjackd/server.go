package main

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/cardroom/blackjack/cmd/blackjackd/shared"
	"github.com/cardroom/blackjack/internal/game"
	"github.com/cardroom/blackjack/internal/ledger"
	"github.com/cardroom/blackjack/internal/server"
)

// ServerCmd runs the WebSocket room server.
type ServerCmd struct {
	Config    string `kong:"default='blackjack.hcl',help='Path to HCL config file'"`
	Addr      string `kong:"help='Listen address, overrides config'"`
	Debug     bool   `kong:"help='Enable debug logging'"`
	LogToFile bool   `kong:"help='Write logs to the configured log file instead of stderr'"`
	Seed      *int64 `kong:"help='Deterministic RNG seed (optional)'"`
}

func (c *ServerCmd) Run() error {
	cfg, err := server.LoadServerConfig(c.Config)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var logger *log.Logger
	cleanup := func() {}
	if c.LogToFile {
		logger, cleanup = shared.SetupFileLogger(cfg.Server.LogFile, c.Debug)
	} else {
		logger = shared.SetupLogger(c.Debug)
	}
	defer cleanup()
	if !c.Debug {
		if level, err := log.ParseLevel(cfg.Server.LogLevel); err == nil {
			logger.SetLevel(level)
		}
	}

	addr := cfg.GetServerAddress()
	if c.Addr != "" {
		addr = c.Addr
	}

	ctx := shared.SetupSignalHandlerWithLogger(logger)

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	var opts []game.Option
	if c.Seed != nil {
		logger.Info("Using deterministic seed", "seed", *c.Seed)
		opts = append(opts, game.WithSeed(*c.Seed))
	}

	service := server.NewRoomService(cfg.GameConfig(), store, logger, opts...)
	srv := server.NewServer(addr, service, logger)

	rules := cfg.GameConfig()
	logger.Info("Starting blackjack server",
		"addr", addr,
		"min_players", rules.MinPlayers,
		"max_players", rules.MaxPlayers,
		"starting_balance", rules.StartingBalance,
		"turn_timeout", rules.TurnTimeout,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down server...")
		return srv.Stop()
	})
	return g.Wait()
}

// LeaderboardCmd prints the persisted top scores.
type LeaderboardCmd struct {
	Config string `kong:"default='blackjack.hcl',help='Path to HCL config file'"`
	Limit  int    `kong:"default='10',help='Number of entries to show'"`
}

func (c *LeaderboardCmd) Run() error {
	logger := shared.SetupLogger(false)

	cfg, err := server.LoadServerConfig(c.Config)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	entries, err := store.Top(ctx, c.Limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		logger.Info("Leaderboard is empty")
		return nil
	}
	for i, e := range entries {
		logger.Info("Leaderboard entry", "rank", i+1, "player", e.Username, "score", e.Score)
	}
	return nil
}

// openStore builds the ledger backend from config: Redis when a redis
// block is present, in-memory otherwise.
func openStore(ctx context.Context, cfg *server.ServerConfig, logger *log.Logger) (ledger.Store, func(), error) {
	if cfg.Redis == nil {
		logger.Info("No redis configured, balances are in-memory only")
		return ledger.NewMemory(), func() {}, nil
	}
	logger.Info("Connecting to redis", "addr", cfg.Redis.Addr)
	store, err := ledger.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { _ = store.Close() }, nil
}
