package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"citysim/internal/config"
	"citysim/internal/game"
	"citysim/internal/observability"
	"citysim/internal/physics"
	"citysim/internal/world"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	configPath = flag.String("config", "physics.yaml", "Physics YAML (missing file uses defaults)")
	layoutPath = flag.String("layout", "city.yaml", "City layout YAML (missing file uses defaults)")
	dumpLayout = flag.String("dump-layout", "", "Write the effective layout to this path and exit")
	cars       = flag.Int("cars", 6, "Number of parked cars")
	debugAddr  = flag.String("debug-addr", "", "Serve /metrics, /debug/physics and pprof on this address")
	width      = flag.Int("width", 1280, "Window width")
	height     = flag.Int("height", 720, "Window height")
)

func main() {
	flag.Parse()

	// Change working directory to executable location for deployed builds.
	// Skip this for "go run" which puts the binary in a temp directory.
	if execPath, err := os.Executable(); err == nil {
		execDir := filepath.Dir(execPath)
		if !strings.Contains(execDir, "go-build") {
			os.Chdir(execDir)
		}
	}

	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Config: %v", err)
	}
	cfg = config.PhysicsFromEnv(cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Config: %v", err)
	}

	layout, err := world.LoadLayout(*layoutPath)
	if err != nil {
		log.Fatalf("Layout: %v", err)
	}
	if *dumpLayout != "" {
		if err := world.SaveLayout(*dumpLayout, layout); err != nil {
			log.Fatalf("Layout: %v", err)
		}
		log.Printf("Layout written to %s", *dumpLayout)
		return
	}

	reg := prometheus.NewRegistry()
	w, err := physics.NewWorld(cfg, physics.WithMetrics(physics.NewMetrics(reg)))
	if err != nil {
		log.Fatalf("Physics: %v", err)
	}
	city, err := world.Populate(w, layout)
	if err != nil {
		log.Fatalf("City: %v", err)
	}
	g, err := game.New(w, city, *cars)
	if err != nil {
		log.Fatalf("Game: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if *debugAddr != "" {
		obs := observability.DefaultConfig()
		obs.ListenAddr = *debugAddr
		obs.Board = g.Board
		obs.Gatherer = reg
		if _, err := observability.Start(ctx, obs); err != nil {
			log.Fatalf("Debug server: %v", err)
		}
	}

	g.Run(int32(*width), int32(*height))
}
