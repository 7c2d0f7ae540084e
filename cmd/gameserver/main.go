// Command gameserver is the composition root: it loads configuration,
// constructs the LoginAuth transport cipher, the Dispatcher
// with its opcode table, the World, and the accept loop, then runs
// until a shutdown signal arrives.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/la2go/mmocore/internal/config"
	"github.com/la2go/mmocore/internal/constants"
	"github.com/la2go/mmocore/internal/crypto"
	"github.com/la2go/mmocore/internal/dispatcher"
	"github.com/la2go/mmocore/internal/handlers"
	"github.com/la2go/mmocore/internal/server"
	"github.com/la2go/mmocore/internal/store"
	"github.com/la2go/mmocore/internal/world"
)

const configPath = "config/gameserver.yaml"

// demoMapID and demoMapSize bootstrap a single open map so the server
// can accept LoginAuth/Spawn traffic without a real map-file parser,
// which §1 of the specification places out of scope (MapLoader is a
// consumed interface, §6.5).
const (
	demoMapID          = 1002
	demoMapW, demoMapH = 256, 256
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
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	path := configPath
	if p := os.Getenv("MMOCORE_CONFIG"); p != "" {
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	slog.Info("config loaded",
		"bind", cfg.BindAddress, "port", cfg.Port, "max_clients", cfg.MaxClients, "tick_hz", cfg.TickHz)

	loader := world.NewDemoMapLoader(demoMapID, demoMapW, demoMapH)
	maps, err := loader.All()
	if err != nil {
		return fmt.Errorf("loading maps: %w", err)
	}
	w := world.New(maps)

	transport, err := crypto.NewTransportCipher(
		padBytes(cfg.TransportCipher.Key, crypto.TransportCipherKeySize),
		padBytes(cfg.TransportCipher.Salt, crypto.TransportCipherSaltSize),
		cfg.TransportCipher.IP,
	)
	if err != nil {
		return fmt.Errorf("constructing transport cipher: %w", err)
	}

	playerStore := store.NewInMemory()
	h := handlers.New(transport, playerStore)

	d := dispatcher.New(w, cfg.InboundHighWater, cfg.InboundLowWater)
	d.Register(constants.OpLoginAuth, h.LoginAuth)
	d.Register(constants.OpLoginGame, h.LoginGame)
	d.Register(constants.OpTalk, h.Talk)
	d.Register(constants.OpAction, h.Action)

	srv := server.New(cfg, d, w)
	slog.Info("game server starting")
	return srv.Run(ctx)
}

// padBytes expands a configured key/salt string to the §6.3 fixed
// width, right-padding with zeroes. Production deployments supply the
// full width directly in config.
func padBytes(s string, width int) []byte {
	b := make([]byte, width)
	copy(b, s)
	return b
}
