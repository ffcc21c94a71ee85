package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ghostrun/ghostnet/internal/client"
	"github.com/ghostrun/ghostnet/internal/config"
	"github.com/ghostrun/ghostnet/internal/console"
	"github.com/ghostrun/ghostnet/internal/core/event"
	coresys "github.com/ghostrun/ghostnet/internal/core/system"
	"github.com/ghostrun/ghostnet/internal/data"
	gonet "github.com/ghostrun/ghostnet/internal/net"
	"github.com/ghostrun/ghostnet/internal/net/packet"
	"github.com/ghostrun/ghostnet/internal/sim"
	"github.com/ghostrun/ghostnet/internal/system"
	"go.uber.org/zap"
)

const (
	maxPacketsPerTick = 64
	pingInterval      = 5 * time.Second
)

var errConnectionLost = errors.New("connection to server lost")

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

	console.Banner("ghostclient", "headless replication client")

	// 3. Data
	console.Section("Data")
	sprites, err := data.LoadSpriteTable(cfg.Client.SpriteTable)
	if err != nil {
		return fmt.Errorf("load sprite table: %w", err)
	}
	console.Stat("ghost sprites", sprites.Count())
	console.Stat("level length", cfg.Client.LevelLength)
	fmt.Println()

	// 4. Local simulation and replication
	bus := event.NewBus()
	level := sim.NewWorld(sim.DefaultConfig(cfg.Client.LevelLength), bus, log)

	perSecond, burst := cfg.RateLimit.Limit()
	sessCfg := gonet.SessionConfig{
		InQueueSize:      cfg.Client.InQueueSize,
		OutQueueSize:     cfg.Client.OutQueueSize,
		WriteTimeout:     cfg.Server.WriteTimeout.Duration,
		PacketsPerSecond: perSecond,
		Burst:            burst,
	}
	dial := func(ctx context.Context) (client.Conn, error) {
		sess, err := gonet.Dial(ctx, cfg.Client.ServerAddress, sessCfg, log)
		if err != nil {
			return nil, err
		}
		return sess, nil
	}

	ctrl := client.NewController(dial, level, log)
	label := client.NewLabel(log)
	highscore := client.NewHighscoreReconciler(label, ctrl, log)
	ghosts := client.NewGhosts(level, sprites, log)

	pktReg := packet.NewRegistry(log)
	client.NewRouter(ctrl, ghosts, highscore, log).Register(pktReg)
	event.Subscribe(bus, func(e event.LevelFinished) {
		highscore.Finish(e.ElapsedSeconds)
	})

	lostCh := make(chan struct{})
	ctrl.OnLost(func() { close(lostCh) })

	// 5. Connect
	console.Section("Server")
	dialCtx, cancel := context.WithTimeout(context.Background(), cfg.Client.DialTimeout.Duration)
	err = ctrl.Start(dialCtx)
	cancel()
	if err != nil {
		return err
	}
	console.OK(fmt.Sprintf("connected to %s", cfg.Client.ServerAddress))

	// 6. Systems; the submit system follows the simulation within PhaseUpdate.
	var sincePing time.Duration
	runner := coresys.NewRunner()
	runner.Register(client.NewInputSystem(ctrl, pktReg, maxPacketsPerTick, log))
	runner.Register(system.NewEventSystem(bus))
	runner.Register(level)
	runner.Register(client.NewSubmitSystem(ctrl, level, cfg.Client.SubmitInterval.Duration))
	runner.Register(coresys.Func{P: coresys.PhaseUpdate, Fn: func(dt time.Duration) {
		sincePing += dt
		if sincePing >= pingInterval {
			sincePing = 0
			ctrl.Ping()
		}
	}})
	runner.Register(client.NewOutputSystem(ctrl))

	// 7. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Client.TickRate.Duration)
	defer ticker.Stop()

	console.Ready(fmt.Sprintf("running (tick: %s, submit: %s)", cfg.Client.TickRate, cfg.Client.SubmitInterval))
	fmt.Println()

	last := time.Now()
	for {
		select {
		case now := <-ticker.C:
			runner.Tick(now.Sub(last))
			last = now
		case <-lostCh:
			return errConnectionLost
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			ctrl.Leave(cfg.Client.LeaveTimeout.Duration)
			log.Info("client stopped",
				zap.String("highscore", label.Text()),
				zap.Int("ghosts", ghosts.Len()),
				zap.Duration("rtt", ctrl.RTT()),
			)
			return nil
		}
	}
}
