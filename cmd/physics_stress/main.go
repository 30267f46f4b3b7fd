// Stress test for the physics core: a generated city full of falling,
// sliding bodies, timed tick by tick.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"citysim/internal/config"
	"citysim/internal/minimap"
	"citysim/internal/observability"
	"citysim/internal/physics"
	"citysim/internal/world"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	counts     = flag.String("counts", "100,500,1000,2000,5000", "Comma separated dynamic body counts")
	ticks      = flag.Int("ticks", 300, "Timed ticks per run")
	warmup     = flag.Int("warmup", 30, "Untimed ticks before measuring")
	configPath = flag.String("config", "physics.yaml", "Physics YAML (missing file uses defaults)")
	layoutPath = flag.String("layout", "city.yaml", "City layout YAML (missing file uses defaults)")
	workers    = flag.Int("workers", 0, "Override integration workers (0 keeps config)")
	multiCell  = flag.Bool("multicell", false, "Register bodies in every overlapped grid cell")
	seed       = flag.Int64("seed", 42, "Seed for body placement")
	pngPath    = flag.String("png", "", "Write a minimap of the last run to this PNG")
	metrics    = flag.String("metrics", "", "Serve /metrics and /debug/physics on this address while running")
	naive      = flag.Bool("naive", true, "Also time a naive O(n²) pair count for comparison")
	verbose    = flag.Bool("v", false, "Keep physics logging")
)

type result struct {
	count      int
	statics    int
	avg, p99   time.Duration
	worst      time.Duration
	collisions int
	cells      int
	grounded   int
	naiveTime  time.Duration
	naivePairs int
}

func main() {
	flag.Parse()
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Config: %v", err)
	}
	cfg = config.PhysicsFromEnv(cfg)
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if *multiCell {
		cfg.MultiCell = true
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Config: %v", err)
	}

	layout, err := world.LoadLayout(*layoutPath)
	if err != nil {
		log.Fatalf("Layout: %v", err)
	}

	ns, err := parseCounts(*counts)
	if err != nil {
		log.Fatalf("Counts: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	m := physics.NewMetrics(reg)
	board := &observability.Board{}
	if *metrics != "" {
		obs := observability.DefaultConfig()
		obs.ListenAddr = *metrics
		obs.Board = board
		obs.Gatherer = reg
		obs.DisableLogging = true
		if _, err := observability.Start(ctx, obs); err != nil {
			log.Fatalf("Debug server: %v", err)
		}
	}

	fmt.Printf("workers=%d multicell=%v grid=%.0fm blocks=%dx%d ticks=%d\n\n",
		cfg.Workers, cfg.MultiCell, cfg.GridSize, layout.BlocksX, layout.BlocksZ, *ticks)

	var last *physics.World
	for _, n := range ns {
		if ctx.Err() != nil {
			break
		}
		w, res, err := run(ctx, cfg, layout, n, m, board)
		if err != nil {
			log.Fatalf("%d bodies: %v", n, err)
		}
		last = w
		report(res)
	}

	if *pngPath != "" && last != nil {
		if err := minimap.SavePNG(*pngPath, last, minimap.Options{Size: 1024, ShowGrid: true}); err != nil {
			log.Fatalf("Minimap: %v", err)
		}
		fmt.Printf("\nminimap written to %s\n", *pngPath)
	}
}

func run(ctx context.Context, cfg config.Physics, layout world.Layout, n int, m *physics.Metrics, board *observability.Board) (*physics.World, result, error) {
	var logger *log.Logger
	if *verbose {
		logger = log.Default()
	} else {
		logger = log.New(io.Discard, "", 0)
	}
	w, err := physics.NewWorld(cfg, physics.WithMetrics(m), physics.WithLogger(logger))
	if err != nil {
		return nil, result{}, err
	}
	city, err := world.Populate(w, layout)
	if err != nil {
		return nil, result{}, err
	}
	bodies, err := spawn(w, city, n, rand.New(rand.NewSource(*seed)))
	if err != nil {
		return nil, result{}, err
	}

	const dt = float32(1.0 / 60.0)
	for i := 0; i < *warmup; i++ {
		w.Update(dt)
	}

	times := make([]time.Duration, 0, *ticks)
	for i := 0; i < *ticks && ctx.Err() == nil; i++ {
		start := time.Now()
		w.Update(dt)
		times = append(times, time.Since(start))
		board.Publish(w.Stats())
	}

	res := summarize(times)
	stats := w.Stats()
	res.count = n
	res.statics = stats.Statics
	res.collisions = stats.Collisions
	res.cells = stats.Cells
	for _, b := range bodies {
		if b.Grounded {
			res.grounded++
		}
	}
	if *naive {
		res.naiveTime, res.naivePairs = naivePairs(w.Bodies())
	}
	return w, res, nil
}

// spawn drops n bodies over the streets with a random shove.
func spawn(w *physics.World, city *world.City, n int, rng *rand.Rand) ([]*physics.Body, error) {
	box, err := physics.NewBoxCollider(rl.Vector3{X: 0.5, Y: 0.5, Z: 0.5})
	if err != nil {
		return nil, err
	}
	out := make([]*physics.Body, 0, n)
	for i := 0; i < n; i++ {
		col := box
		if i%2 == 1 {
			col, err = physics.NewSphereCollider(0.3 + rng.Float32()*0.4)
			if err != nil {
				return nil, err
			}
		}
		at := city.SpawnPoints[rng.Intn(len(city.SpawnPoints))]
		at.X += rng.Float32()*8 - 4
		at.Z += rng.Float32()*8 - 4
		at.Y = 1 + rng.Float32()*10
		b, err := w.AddBody(physics.BodyDef{
			Tag:      "crate",
			Position: at,
			Velocity: rl.Vector3{X: rng.Float32()*10 - 5, Z: rng.Float32()*10 - 5},
			Mass:     0.5 + rng.Float32()*5,
			Collider: col,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func summarize(times []time.Duration) result {
	if len(times) == 0 {
		return result{}
	}
	sorted := append([]time.Duration(nil), times...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	var total time.Duration
	for _, t := range sorted {
		total += t
	}
	return result{
		avg:   total / time.Duration(len(sorted)),
		p99:   sorted[(len(sorted)*99)/100],
		worst: sorted[len(sorted)-1],
	}
}

// naivePairs counts overlapping bounding boxes the slow way.
func naivePairs(bodies []*physics.Body) (time.Duration, int) {
	start := time.Now()
	pairs := 0
	for i := 0; i < len(bodies); i++ {
		a := bodies[i].Bounds()
		for j := i + 1; j < len(bodies); j++ {
			if a.Intersects(bodies[j].Bounds()) {
				pairs++
			}
		}
	}
	return time.Since(start), pairs
}

func report(r result) {
	line := fmt.Sprintf("%5d bodies (%4d statics): avg %8v p99 %8v max %8v | %5d contacts %4d cells %5d grounded",
		r.count, r.statics, r.avg.Round(time.Microsecond), r.p99.Round(time.Microsecond),
		r.worst.Round(time.Microsecond), r.collisions, r.cells, r.grounded)
	if r.naiveTime > 0 {
		line += fmt.Sprintf(" | naive %10v (%d pairs)", r.naiveTime.Round(time.Microsecond), r.naivePairs)
	}
	fmt.Println(line)
}

func parseCounts(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("bad count %q", part)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no counts in %q", s)
	}
	return out, nil
}
