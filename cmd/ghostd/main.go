package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ghostrun/ghostnet/internal/config"
	"github.com/ghostrun/ghostnet/internal/console"
	"github.com/ghostrun/ghostnet/internal/core/event"
	coresys "github.com/ghostrun/ghostnet/internal/core/system"
	"github.com/ghostrun/ghostnet/internal/handler"
	gonet "github.com/ghostrun/ghostnet/internal/net"
	"github.com/ghostrun/ghostnet/internal/net/packet"
	"github.com/ghostrun/ghostnet/internal/system"
	"github.com/ghostrun/ghostnet/internal/world"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config
	cfgPath := "config/ghostnet.toml"
	if p := os.Getenv("GHOSTNET_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := console.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	console.Banner("ghostd", "player replication server")
	console.Section("Settings")
	console.Stat("broadcast interval", cfg.Server.BroadcastInterval)
	console.Stat("inactivity timeout", cfg.Server.InactivityTimeout)
	console.Stat("tick rate", cfg.Server.TickRate)
	fmt.Println()

	// 3. World state, event bus and connection table
	sessions := world.NewSessions()
	highscore := &world.Highscore{}
	bus := event.NewBus()
	store := gonet.NewSessionStore()

	// 4. Packet handlers
	pktReg := packet.NewRegistry(log)
	deps := &handler.Deps{
		Sessions:  sessions,
		Highscore: highscore,
		Out:       store,
		Bus:       bus,
		Log:       log,
	}
	handler.RegisterAll(pktReg, deps)
	handler.SubscribeAll(deps)

	// 5. Network server
	perSecond, burst := cfg.RateLimit.Limit()
	netServer, err := gonet.NewServer(cfg.Server.BindAddress, gonet.SessionConfig{
		InQueueSize:      cfg.Server.InQueueSize,
		OutQueueSize:     cfg.Server.OutQueueSize,
		WriteTimeout:     cfg.Server.WriteTimeout.Duration,
		PacketsPerSecond: perSecond,
		Burst:            burst,
	}, log)
	if err != nil {
		return fmt.Errorf("net server: %w", err)
	}
	go netServer.AcceptLoop()

	// 6. Systems
	runner := coresys.NewRunner()
	runner.Register(system.NewInputSystem(netServer.NewSessions(), pktReg, store, cfg.Server.MaxPacketsPerTick, log))
	runner.Register(system.NewEventSystem(bus))
	runner.Register(system.NewReaperSystem(sessions, store, cfg.Server.InactivityTimeout.Duration, log))
	runner.Register(system.NewBroadcastSystem(sessions, store, cfg.Server.BroadcastInterval.Duration, log))
	runner.Register(system.NewOutputSystem(store))

	// 7. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Server.TickRate.Duration)
	defer ticker.Stop()

	console.Section("Ready")
	console.Ready(fmt.Sprintf("listening on %s", netServer.Addr().String()))
	console.Ready(fmt.Sprintf("game loop running (tick: %s)", cfg.Server.TickRate))
	fmt.Println()

	last := time.Now()
	for {
		select {
		case now := <-ticker.C:
			runner.Tick(now.Sub(last))
			last = now
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			netServer.Shutdown()
			store.ForEach(func(s *gonet.Session) {
				s.Close()
			})
			log.Info("server stopped",
				zap.Int("players", sessions.Len()),
				zap.Uint64("highscore", highscore.Best()),
			)
			return nil
		}
	}
}
