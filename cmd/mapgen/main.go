package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"rmxp-autotile/internal/autotile"
	"rmxp-autotile/internal/brush"
	"rmxp-autotile/internal/maps"
)

// Terrain groups, in block order inside terrain.tsx.
const (
	gWater = iota
	gSand
	gGrass
	gForest
	gRock
	numGroups
)

var groupNames = [numGroups]string{"water", "sand", "grass", "forest", "rock"}

const (
	terrainFile = "terrain.tsx"
	roadFile    = "autotiles/road.tsx"
	keysFile    = "keys.tsx"
)

type genOptions struct {
	Name string
	W, H int
	Seed int64
}

func main() {
	seed := flag.Int64("seed", 0, "random seed (0 = random)")
	size := flag.String("size", "64x48", "map size as WxH")
	name := flag.String("name", "Generated", "document name")
	out := flag.String("out", "", "output file (default: stdout)")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	w, h, err := parseSize(*size)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	log.Info().Int("width", w).Int("height", h).Str("name", *name).Int64("seed", *seed).Msg("Generating document")

	doc, err := generate(genOptions{Name: *name, W: w, H: h, Seed: *seed})
	if err != nil {
		log.Fatal().Err(err).Msg("Generation failed")
	}

	if *out == "" {
		data, err := doc.Marshal()
		if err != nil {
			log.Fatal().Err(err).Msg("Marshal failed")
		}
		os.Stdout.Write(data)
		os.Stdout.WriteString("\n")
	} else {
		if err := doc.Save(*out); err != nil {
			log.Fatal().Err(err).Msg("Write failed")
		}
		log.Info().Str("path", *out).Msg("Document written")
	}

	counts := groupCounts(doc)
	total := w * h
	fmt.Fprintf(os.Stderr, "\nTerrain distribution:\n")
	for g := 0; g < numGroups; g++ {
		fmt.Fprintf(os.Stderr, "  %-8s %5d (%5.1f%%)\n", groupNames[g], counts[g], float64(counts[g])/float64(total)*100)
	}
}

func parseSize(s string) (int, int, error) {
	parts := strings.SplitN(s, "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid size %q (expected WxH)", s)
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil || w < 10 {
		return 0, 0, fmt.Errorf("invalid width %q (minimum 10)", parts[0])
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil || h < 10 {
		return 0, 0, fmt.Errorf("invalid height %q (minimum 10)", parts[1])
	}
	return w, h, nil
}

// generate builds a document whose ground layer holds noise-driven terrain and
// whose paths layer holds trails painted with a source-mapped road brush.
func generate(opts genOptions) (*maps.Document, error) {
	doc := maps.NewDocument(opts.Name, opts.W, opts.H)

	terrain := maps.NewTileset("terrain", terrainFile, numGroups*autotile.TilesPerGroup)
	terrain.Columns = 8
	road := maps.NewTileset("road", roadFile, autotile.TilesPerGroup)
	road.Columns = 8
	keys := maps.NewTileset("keys", keysFile, 1)
	for _, ts := range []*maps.Tileset{terrain, road, keys} {
		if err := doc.AddTileset(ts); err != nil {
			return nil, err
		}
	}
	if err := brush.AssignSource(keys, 0, roadFile, 0); err != nil {
		return nil, err
	}
	doc.AddLayer("ground", maps.TileLayer)
	doc.AddLayer("paths", maps.TileLayer)
	doc.AddLayer("events", maps.ObjectLayer)

	// Terrain: place each group's first tile, then resolve the whole layer.
	elevation := NewNoiseMap(opts.Seed, elevationOctaves, 1.0)
	moisture := NewNoiseMap(opts.Seed+1, moistureOctaves, 1.0)
	edit := doc.Layer("ground").Edit()
	for y := 0; y < opts.H; y++ {
		for x := 0; x < opts.W; x++ {
			g := classifyTerrain(elevation.Get(x, y), moisture.Get(x, y))
			ref, _ := terrain.Tile(g * autotile.TilesPerGroup)
			edit.SetCell(x, y, autotile.Cell{Tile: ref})
		}
	}
	if err := edit.Apply(); err != nil {
		return nil, fmt.Errorf("place terrain: %w", err)
	}

	tool := brush.NewTool(doc)
	if err := tool.SelectLayer("ground"); err != nil {
		return nil, err
	}
	if _, err := tool.RefreshLayer(); err != nil {
		return nil, fmt.Errorf("resolve terrain: %w", err)
	}

	// Trails: paint with the key tile so the road group comes from road.tsx.
	if err := tool.SelectLayer("paths"); err != nil {
		return nil, err
	}
	key, _ := keys.Tile(0)
	tool.SetBrush(key)
	rng := rand.New(rand.NewSource(opts.Seed + 100))
	paint := func(x, y int) error {
		_, err := tool.OnPrimaryAction(x, y)
		return err
	}
	if err := carveTrails(opts.W, opts.H, opts.W/2, opts.H/2, rng, paint); err != nil {
		return nil, fmt.Errorf("carve trails: %w", err)
	}
	return doc, nil
}

func classifyTerrain(elev, moist float64) int {
	switch {
	case elev < 0.30:
		return gWater
	case elev < 0.36:
		return gSand
	case elev < 0.68:
		if moist > 0.55 {
			return gForest
		}
		return gGrass
	default:
		return gRock
	}
}

// groupCounts tallies ground cells per terrain group.
func groupCounts(doc *maps.Document) [numGroups]int {
	var counts [numGroups]int
	ground := doc.Layer("ground")
	for y := 0; y < doc.Height; y++ {
		for x := 0; x < doc.Width; x++ {
			c, ok := ground.Cell(x, y)
			if !ok || c.Tile.Tileset != terrainFile {
				continue
			}
			if g := c.Tile.ID / autotile.TilesPerGroup; g < numGroups {
				counts[g]++
			}
		}
	}
	return counts
}

func carveTrails(w, h, startX, startY int, rng *rand.Rand, paint func(x, y int) error) error {
	// Generate 2-3 edge target points
	numTrails := 2 + rng.Intn(2)

	type point struct{ x, y int }
	targets := make([]point, numTrails)

	for i := 0; i < numTrails; i++ {
		switch rng.Intn(4) {
		case 0: // North edge
			targets[i] = point{borderClamp(rng.Intn(w), w), 1}
		case 1: // South edge
			targets[i] = point{borderClamp(rng.Intn(w), w), h - 2}
		case 2: // East edge
			targets[i] = point{w - 2, borderClamp(rng.Intn(h), h)}
		case 3: // West edge
			targets[i] = point{1, borderClamp(rng.Intn(h), h)}
		}
	}

	if err := paint(startX, startY); err != nil {
		return err
	}
	for _, target := range targets {
		if err := carveTrail(w, h, startX, startY, target.x, target.y, rng, paint); err != nil {
			return err
		}
	}
	return nil
}

func borderClamp(v, limit int) int {
	if v < 4 {
		return 4
	}
	if v >= limit-4 {
		return limit - 5
	}
	return v
}

func carveTrail(w, h, sx, sy, tx, ty int, rng *rand.Rand, paint func(x, y int) error) error {
	x, y := sx, sy

	for steps := 0; steps < w*h; steps++ {
		if x == tx && y == ty {
			break
		}

		// Determine primary direction toward target
		dx, dy := 0, 0
		distX := tx - x
		distY := ty - y

		// Bias toward the axis with more distance
		if abs(distX) > abs(distY) {
			dx = sign(distX)
			// Random lateral drift
			if rng.Float64() < 0.3 {
				dy = sign(distY)
				if dy == 0 {
					dy = rng.Intn(2)*2 - 1
				}
				dx = 0
			}
		} else {
			dy = sign(distY)
			if rng.Float64() < 0.3 {
				dx = sign(distX)
				if dx == 0 {
					dx = rng.Intn(2)*2 - 1
				}
				dy = 0
			}
		}

		nx, ny := x+dx, y+dy
		if nx < 1 || nx >= w-1 || ny < 1 || ny >= h-1 {
			continue
		}
		if err := paint(nx, ny); err != nil {
			return err
		}
		x, y = nx, ny
	}
	return nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	if x > 0 {
		return 1
	}
	if x < 0 {
		return -1
	}
	return 0
}
