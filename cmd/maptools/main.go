package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/zyedidia/generic/mapset"

	"rmxp-autotile/internal/autotile"
	"rmxp-autotile/internal/brush"
	"rmxp-autotile/internal/maps"
	"rmxp-autotile/internal/render"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "validate":
		if len(args) != 1 {
			fmt.Fprintln(os.Stderr, "Usage: maptools validate <doc>")
			os.Exit(1)
		}
		os.Exit(runValidate(args[0]))
	case "viz":
		if len(args) < 1 || len(args) > 2 {
			fmt.Fprintln(os.Stderr, "Usage: maptools viz <doc> [layer]")
			os.Exit(1)
		}
		layer := ""
		if len(args) == 2 {
			layer = args[1]
		}
		os.Exit(runViz(args[0], layer))
	case "stats":
		if len(args) != 1 {
			fmt.Fprintln(os.Stderr, "Usage: maptools stats <doc>")
			os.Exit(1)
		}
		os.Exit(runStats(args[0]))
	case "paint", "erase":
		os.Exit(runEdit(cmd, args))
	case "assign":
		os.Exit(runAssign(args))
	case "refresh":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "Usage: maptools refresh <doc> <layer>")
			os.Exit(1)
		}
		os.Exit(runRefresh(args[0], args[1]))
	case "all":
		if len(args) != 1 {
			fmt.Fprintln(os.Stderr, "Usage: maptools all <docs-dir>")
			os.Exit(1)
		}
		os.Exit(runAll(args[0]))
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: maptools <command> <args>

Commands:
  validate <doc>                                   Check structure and every autotile key tile
  viz      <doc> [layer]                           Print a tile layer as colored variant indices
  stats    <doc>                                   Show groups, variant use and stale cells
  paint    [-no-neighbors] <doc> <layer> <x> <y> <tileset> <id>
                                                   Paint the group of a brush tile at (x,y)
  erase    [-no-neighbors] <doc> <layer> <x> <y>   Erase (x,y) and refresh its neighbors
  assign   <doc> <tileset> <id> <source> [startId] Make a tile an autotile key for <source>
  refresh  <doc> <layer>                           Re-resolve every cell of a layer
  all      <docs-dir>                              Run validate + viz + stats for all documents`)
}

// --- validate ---

func runValidate(path string) int {
	doc, err := maps.LoadDocument(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
		return 1
	}
	fmt.Printf("Validating %q...\n", doc.Name)

	problems := 0
	for _, ts := range doc.AttachedTilesets() {
		for _, id := range ts.MetaIDs() {
			info, ok := autotile.ResolveSourceMapping(ts.Meta(id))
			if !ok {
				continue
			}
			_, err := autotile.ResolveTarget(autotile.MappedSource{Info: info}, doc, doc)
			if err != nil {
				fmt.Printf("  ERROR: key tile %s#%d: %v\n", ts.Name(), id, err)
				problems++
			}
		}
	}
	for _, l := range doc.Layers {
		if !l.IsTileLayer() {
			continue
		}
		if n := len(staleCells(doc, l)); n > 0 {
			fmt.Printf("  WARN: layer %q has %d cells that differ from their resolved variant\n", l.Name, n)
		}
	}

	if problems > 0 {
		fmt.Printf("\n%d error(s) found\n", problems)
		return 1
	}
	fmt.Printf("  OK (%dx%d, %d layers, %d tilesets)\n", doc.Width, doc.Height, len(doc.Layers), len(doc.AttachedTilesets()))
	return 0
}

// staleCells lists the occupied cells of l whose tile is not the variant
// their neighborhood resolves to.
func staleCells(doc *maps.Document, l *maps.Layer) []autotile.Point {
	var out []autotile.Point
	for y := 0; y < doc.Height; y++ {
		for x := 0; x < doc.Width; x++ {
			c, ok := l.Cell(x, y)
			if !ok {
				continue
			}
			key, ok := autotile.GroupKeyOf(c.Tile)
			if !ok {
				continue
			}
			ts, ok := doc.TilesetByID(c.Tile.Tileset)
			if !ok || !autotile.Holds(ts, key.StartID) {
				continue
			}
			if ref, ok := autotile.Resolve(l, x, y, key, ts); ok && ref != c.Tile {
				out = append(out, autotile.Point{X: x, Y: y})
			}
		}
	}
	return out
}

// --- viz ---

func tileLayer(doc *maps.Document, name string) (*maps.Layer, error) {
	if name == "" {
		for _, l := range doc.Layers {
			if l.IsTileLayer() {
				return l, nil
			}
		}
		return nil, errors.New("document has no tile layer")
	}
	l := doc.Layer(name)
	if l == nil {
		return nil, fmt.Errorf("layer %q not found", name)
	}
	if !l.IsTileLayer() {
		return nil, fmt.Errorf("layer %q is not a tile layer", name)
	}
	return l, nil
}

func runViz(path, layerName string) int {
	doc, err := maps.LoadDocument(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	l, err := tileLayer(doc, layerName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Printf("%s / %s (%dx%d)\n", doc.Name, l.Name, doc.Width, doc.Height)
	var sb strings.Builder
	for y := 0; y < doc.Height; y++ {
		sb.Reset()
		for x := 0; x < doc.Width; x++ {
			c, _ := l.Cell(x, y)
			g := render.TileGlyph(c)
			for _, r := range g.Text {
				render.WriteCellSGR(&sb, render.Cell{
					Ch:  r,
					FgR: g.FgR, FgG: g.FgG, FgB: g.FgB,
					BgR: g.BgR, BgG: g.BgG, BgB: g.BgB,
				})
			}
		}
		sb.WriteString(render.Reset)
		fmt.Println(sb.String())
	}
	return 0
}

// --- stats ---

func runStats(path string) int {
	doc, err := maps.LoadDocument(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	total := doc.Width * doc.Height
	fmt.Printf("%s (%dx%d = %d cells)\n", doc.Name, doc.Width, doc.Height, total)

	for _, l := range doc.Layers {
		if !l.IsTileLayer() {
			fmt.Printf("\nLayer %q: object layer\n", l.Name)
			continue
		}
		groups := mapset.New[autotile.GroupKey]()
		var variants [autotile.TilesPerGroup]int
		occupied := 0
		for y := 0; y < doc.Height; y++ {
			for x := 0; x < doc.Width; x++ {
				c, ok := l.Cell(x, y)
				if !ok {
					continue
				}
				occupied++
				if key, ok := autotile.GroupKeyOf(c.Tile); ok {
					groups.Put(key)
					variants[c.Tile.ID-key.StartID]++
				}
			}
		}

		fmt.Printf("\nLayer %q: %d/%d occupied (%.1f%%), %d groups, %d stale\n",
			l.Name, occupied, total, float64(occupied)/float64(total)*100, groups.Size(), len(staleCells(doc, l)))

		var keys []autotile.GroupKey
		groups.Each(func(k autotile.GroupKey) {
			keys = append(keys, k)
		})
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		for _, k := range keys {
			fmt.Printf("  group %s\n", k)
		}

		for v, n := range variants {
			if n == 0 || occupied == 0 {
				continue
			}
			pct := float64(n) / float64(occupied) * 100
			bar := strings.Repeat("█", int(pct/2))
			fmt.Printf("  variant %2d %4d (%5.1f%%) %s\n", v, n, pct, bar)
		}
	}
	return 0
}

// --- paint / erase ---

func runEdit(cmd string, args []string) int {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	noNeighbors := fs.Bool("no-neighbors", false, "only write the edited cell")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	rest := fs.Args()
	want := 4
	if cmd == "paint" {
		want = 6
	}
	if len(rest) != want {
		if cmd == "paint" {
			fmt.Fprintln(os.Stderr, "Usage: maptools paint [-no-neighbors] <doc> <layer> <x> <y> <tileset> <id>")
		} else {
			fmt.Fprintln(os.Stderr, "Usage: maptools erase [-no-neighbors] <doc> <layer> <x> <y>")
		}
		return 1
	}

	path := rest[0]
	x, errX := strconv.Atoi(rest[2])
	y, errY := strconv.Atoi(rest[3])
	if errX != nil || errY != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid coordinates %q,%q\n", rest[2], rest[3])
		return 1
	}

	doc, err := maps.LoadDocument(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if x < 0 || y < 0 || x >= doc.Width || y >= doc.Height {
		fmt.Fprintf(os.Stderr, "Error: (%d,%d) is outside the %dx%d map\n", x, y, doc.Width, doc.Height)
		return 1
	}
	tool := brush.NewTool(doc)
	if err := tool.SelectLayer(rest[1]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	tool.SetNeighborUpdates(!*noNeighbors)

	var res autotile.Result
	if cmd == "paint" {
		ts := doc.FindTileset(rest[4])
		if ts == nil {
			fmt.Fprintf(os.Stderr, "Error: tileset %q not found\n", rest[4])
			return 1
		}
		id, err := strconv.Atoi(rest[5])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid tile id %q\n", rest[5])
			return 1
		}
		ref, ok := ts.Tile(id)
		if !ok {
			fmt.Fprintf(os.Stderr, "Error: tile %d out of range for tileset %q\n", id, ts.Name())
			return 1
		}
		tool.SetBrush(ref)
		res, err = tool.OnPrimaryAction(x, y)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	} else {
		res, err = tool.OnSecondaryAction(x, y)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	if err := doc.Save(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("%s (%d,%d): %d cells written\n", cmd, x, y, res.Touched.Size())
	return 0
}

// --- assign ---

func runAssign(args []string) int {
	if len(args) < 4 || len(args) > 5 {
		fmt.Fprintln(os.Stderr, "Usage: maptools assign <doc> <tileset> <id> <source-path> [startId]")
		return 1
	}
	path := args[0]
	doc, err := maps.LoadDocument(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	ts := doc.FindTileset(args[1])
	if ts == nil {
		fmt.Fprintf(os.Stderr, "Error: tileset %q not found\n", args[1])
		return 1
	}
	id, err := strconv.Atoi(args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid tile id %q\n", args[2])
		return 1
	}
	var start any
	if len(args) == 5 {
		start = args[4]
	}
	if err := brush.AssignSource(ts, id, args[3], start); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if err := doc.Save(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	v, _ := ts.Meta(id).Property(autotile.PropStartID)
	fmt.Printf("%s#%d -> %s startId=%v\n", ts.Name(), id, args[3], v)
	return 0
}

// --- refresh ---

func runRefresh(path, layerName string) int {
	doc, err := maps.LoadDocument(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	tool := brush.NewTool(doc)
	if err := tool.SelectLayer(layerName); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	n, err := tool.RefreshLayer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if err := doc.Save(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("Refreshed %d cells in %q\n", n, layerName)
	return 0
}

// --- all ---

func runAll(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading directory: %v\n", err)
		return 1
	}

	code := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		fmt.Printf("\n=== VALIDATE: %s ===\n", entry.Name())
		if runValidate(path) != 0 {
			code = 1
			continue
		}
		fmt.Printf("\n=== VIZ: %s ===\n", entry.Name())
		runViz(path, "")
		fmt.Printf("\n=== STATS: %s ===\n", entry.Name())
		runStats(path)
	}
	return code
}
