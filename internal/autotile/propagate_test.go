package autotile

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTerrain() (*fakeTileset, *fakeDoc) {
	ts := &fakeTileset{id: grass.Tileset, file: grass.Tileset, name: "terrain", count: 96}
	return ts, &fakeDoc{tilesets: []*fakeTileset{ts}}
}

func TestPaintScenario(t *testing.T) {
	ts, doc := newTerrain()
	target := Target{Key: grass, Tileset: ts}
	g := newMemGrid(4, 4)

	if _, err := Paint(g, doc, 1, 1, target, DefaultOptions()); err != nil {
		t.Fatalf("Paint(1,1) error = %v", err)
	}
	if got := g.variantAt(1, 1); got != VariantFor(0) || got != 46 {
		t.Fatalf("isolated (1,1) variant = %d, want 46", got)
	}

	if _, err := Paint(g, doc, 1, 0, target, DefaultOptions()); err != nil {
		t.Fatalf("Paint(1,0) error = %v", err)
	}
	// (1,1) lies south of (1,0); (1,0) lies north of (1,1).
	if got, want := g.variantAt(1, 0), VariantFor(MaskS); got != want || got != 42 {
		t.Errorf("(1,0) variant = %d, want %d", got, want)
	}
	if got, want := g.variantAt(1, 1), VariantFor(MaskN); got != want || got != 44 {
		t.Errorf("(1,1) variant = %d, want %d", got, want)
	}
}

func TestPaintIdempotent(t *testing.T) {
	ts, doc := newTerrain()
	target := Target{Key: grass, Tileset: ts}
	g := newMemGrid(5, 5)
	fill(g, grass, []string{
		".##..",
		".#...",
		"###..",
		".....",
		".....",
	})

	if _, err := Paint(g, doc, 2, 1, target, DefaultOptions()); err != nil {
		t.Fatalf("Paint() error = %v", err)
	}
	first := g.snapshot()
	if _, err := Paint(g, doc, 2, 1, target, DefaultOptions()); err != nil {
		t.Fatalf("Paint() error = %v", err)
	}
	if diff := cmp.Diff(first, g.snapshot()); diff != "" {
		t.Errorf("second paint changed the grid (-first +second):\n%s", diff)
	}
}

func TestPaintAndEraseStayInsideBlock(t *testing.T) {
	ts, doc := newTerrain()
	water := GroupKey{Tileset: grass.Tileset, StartID: 48}
	target := Target{Key: grass, Tileset: ts}

	pattern := []string{
		"#######",
		"#.###.#",
		"##...##",
		"#.#.#.#",
		"##...##",
		"#.###.#",
		"#######",
	}
	outside := func(m map[Point]Cell) map[Point]Cell {
		out := make(map[Point]Cell)
		for p, c := range m {
			if p.X < 2 || p.X > 4 || p.Y < 2 || p.Y > 4 {
				out[p] = c
			}
		}
		return out
	}

	ops := []struct {
		name string
		run  func(g *memGrid) (Result, error)
	}{
		{"paint", func(g *memGrid) (Result, error) { return Paint(g, doc, 3, 3, target, DefaultOptions()) }},
		{"erase", func(g *memGrid) (Result, error) { return Erase(g, doc, 3, 3, DefaultOptions()) }},
	}
	for _, op := range ops {
		t.Run(op.name, func(t *testing.T) {
			g := newMemGrid(7, 7)
			fill(g, grass, pattern)
			fill(g, water, []string{"", "", "", "...#"})
			before := outside(g.snapshot())

			res, err := op.run(g)
			if err != nil {
				t.Fatalf("%s error = %v", op.name, err)
			}
			if diff := cmp.Diff(before, outside(g.snapshot())); diff != "" {
				t.Errorf("%s changed cells outside the 3x3 block:\n%s", op.name, diff)
			}
			res.Touched.Each(func(p Point) {
				if p.X < 2 || p.X > 4 || p.Y < 2 || p.Y > 4 {
					t.Errorf("%s reported touching %v", op.name, p)
				}
			})
		})
	}
}

func TestEraseRefreshesNeighborsFromOwnGroup(t *testing.T) {
	_, doc := newTerrain()
	water := GroupKey{Tileset: grass.Tileset, StartID: 48}
	g := newMemGrid(3, 3)
	fill(g, grass, []string{
		"##.",
		"###",
		"#..",
	})
	fill(g, water, []string{
		"..#",
		"",
		".##",
	})

	if _, err := Erase(g, doc, 1, 1, DefaultOptions()); err != nil {
		t.Fatalf("Erase() error = %v", err)
	}
	if _, ok := g.Cell(1, 1); ok {
		t.Fatal("center cell still occupied after Erase")
	}
	for _, d := range Directions {
		x, y := 1+d.DX, 1+d.DY
		c, ok := g.Cell(x, y)
		if !ok {
			t.Fatalf("neighbor (%d,%d) was cleared", x, y)
		}
		own, _ := GroupKeyOf(c.Tile)
		want := own.StartID + VariantFor(ComputeMask(g, x, y, own))
		if c.Tile.ID != want {
			t.Errorf("neighbor (%d,%d) = %d, want %d from its own group %v", x, y, c.Tile.ID, want, own)
		}
	}
	// The water tile at (2,0) touches no other water once the center is gone.
	if got := g.variantAt(2, 0); got != 46 {
		t.Errorf("(2,0) variant = %d, want 46", got)
	}
}

func TestRefreshPreservesFlags(t *testing.T) {
	ts, doc := newTerrain()
	g := newMemGrid(3, 3)
	g.SetCell(0, 1, Cell{Tile: TileRef{grass.Tileset, 0}, Flags: FlipH | FlipD})

	if _, err := Paint(g, doc, 1, 1, Target{Key: grass, Tileset: ts}, DefaultOptions()); err != nil {
		t.Fatalf("Paint() error = %v", err)
	}
	c, _ := g.Cell(0, 1)
	if c.Flags != FlipH|FlipD {
		t.Errorf("neighbor flags = %b, want %b", c.Flags, FlipH|FlipD)
	}
	if c.Tile.ID != VariantFor(MaskE) {
		t.Errorf("neighbor variant = %d, want %d", c.Tile.ID, VariantFor(MaskE))
	}
	center, _ := g.Cell(1, 1)
	if center.Flags != 0 {
		t.Errorf("painted cell flags = %b, want 0", center.Flags)
	}
}

func TestNeighborUpdatesDisabled(t *testing.T) {
	ts, doc := newTerrain()
	g := newMemGrid(3, 3)
	fill(g, grass, []string{
		"###",
		"#.#",
		"###",
	})
	before := g.snapshot()
	opts := Options{NeighborUpdates: false}

	res, err := Paint(g, doc, 1, 1, Target{Key: grass, Tileset: ts}, opts)
	if err != nil {
		t.Fatalf("Paint() error = %v", err)
	}
	if res.Touched.Size() != 1 || !res.Touched.Has(Point{1, 1}) {
		t.Errorf("Paint touched %d cells, want only the center", res.Touched.Size())
	}
	if got := g.variantAt(1, 1); got != 0 {
		t.Errorf("center variant = %d, want 0 (surrounded)", got)
	}
	for p, c := range before {
		if got, _ := g.Cell(p.X, p.Y); got != c {
			t.Errorf("neighbor %v changed to %v with neighbor updates off", p, got)
		}
	}

	if _, err := Erase(g, doc, 1, 1, opts); err != nil {
		t.Fatalf("Erase() error = %v", err)
	}
	if diff := cmp.Diff(before, g.snapshot()); diff != "" {
		t.Errorf("erase with neighbor updates off changed neighbors:\n%s", diff)
	}
}

func TestOffGridCenterNotTouched(t *testing.T) {
	ts, doc := newTerrain()
	target := Target{Key: grass, Tileset: ts}

	tests := []struct {
		name string
		x, y int
		run  func(g *memGrid, x, y int) (Result, error)
	}{
		{"paint east of edge", 3, 1, func(g *memGrid, x, y int) (Result, error) {
			return Paint(g, doc, x, y, target, DefaultOptions())
		}},
		{"paint above edge", 1, -1, func(g *memGrid, x, y int) (Result, error) {
			return Paint(g, doc, x, y, target, DefaultOptions())
		}},
		{"erase west of edge", -1, 1, func(g *memGrid, x, y int) (Result, error) {
			return Erase(g, doc, x, y, DefaultOptions())
		}},
		{"erase empty cell", 1, 1, func(g *memGrid, x, y int) (Result, error) {
			return Erase(g, doc, x, y, Options{})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newMemGrid(3, 3)
			fill(g, grass, []string{"#.#"})
			res, err := tt.run(g, tt.x, tt.y)
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if res.Touched.Has(Point{tt.x, tt.y}) {
				t.Errorf("Touched lists (%d,%d), which was never written", tt.x, tt.y)
			}
			if _, ok := g.Cell(tt.x, tt.y); ok {
				t.Errorf("(%d,%d) is occupied", tt.x, tt.y)
			}
		})
	}
}

func TestPaintSourceMappedGroup(t *testing.T) {
	main := &fakeTileset{id: "main.tsx", file: "main.tsx", name: "main", count: 16}
	water := &fakeTileset{id: "/ts/water.tsx", file: "/ts/water.tsx", name: "water", count: 144}
	doc := &fakeDoc{tilesets: []*fakeTileset{main, water}}

	key := props{PropAutotileKey: true, PropSourceTileset: "/ts/water.tsx", PropStartID: 96}
	target, err := ResolveTarget(SourceOf(TileRef{"main.tsx", 3}, key), doc, doc)
	if err != nil {
		t.Fatalf("ResolveTarget() error = %v", err)
	}

	g := newMemGrid(4, 4)
	for _, p := range []Point{{1, 1}, {2, 1}, {2, 2}} {
		if _, err := Paint(g, doc, p.X, p.Y, target, DefaultOptions()); err != nil {
			t.Fatalf("Paint(%v) error = %v", p, err)
		}
	}
	for p, c := range g.snapshot() {
		if c.Tile.Tileset != water.id || c.Tile.ID < 96 || c.Tile.ID >= 144 {
			t.Errorf("cell %v = %v, want a tile of %s in [96,144)", p, c.Tile, water.id)
		}
	}
	if got, want := g.variantAt(2, 1), VariantFor(MaskS|MaskW); got != want {
		t.Errorf("(2,1) variant = %d, want %d", got, want)
	}
}

func TestPaintAbortsWithoutWrites(t *testing.T) {
	small := &fakeTileset{id: "small.tsx", file: "small.tsx", name: "small", count: 40}
	holey := &holeyTileset{fakeTileset: fakeTileset{id: "holey.tsx", name: "holey", count: 48}, missing: 46}
	doc := &fakeDoc{tilesets: []*fakeTileset{small, &holey.fakeTileset}}

	tests := []struct {
		name   string
		target Target
		check  func(error) bool
	}{
		{
			"undersized",
			Target{Key: GroupKey{"small.tsx", 0}, Tileset: small},
			func(err error) bool { var e *UndersizedTilesetError; return errors.As(err, &e) },
		},
		{
			"unresolved variant",
			Target{Key: GroupKey{"holey.tsx", 0}, Tileset: holey},
			func(err error) bool { var e *UnresolvedTileError; return errors.As(err, &e) && e.ID == 46 },
		},
		{
			"no tileset",
			Target{Key: GroupKey{"gone.tsx", 0}},
			func(err error) bool { var e *MissingTilesetError; return errors.As(err, &e) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newMemGrid(3, 3)
			fill(g, grass, []string{"#.#"})
			before := g.snapshot()

			_, err := Paint(g, doc, 1, 1, tt.target, DefaultOptions())
			if !tt.check(err) {
				t.Fatalf("Paint() error = %v", err)
			}
			if diff := cmp.Diff(before, g.snapshot()); diff != "" {
				t.Errorf("failed paint wrote to the grid:\n%s", diff)
			}
		})
	}
}

func TestRefreshSkipsUnusableCells(t *testing.T) {
	short := &fakeTileset{id: "short.tsx", count: 60}
	doc := &fakeDoc{tilesets: []*fakeTileset{short}}
	g := newMemGrid(3, 3)
	g.SetCell(1, 1, Cell{Tile: TileRef{"short.tsx", 50}})
	g.SetCell(0, 0, Cell{Tile: TileRef{"unknown.tsx", 3}})

	if Refresh(g, doc, 1, 1) {
		t.Error("Refresh rewrote a cell whose tileset ends inside its group")
	}
	if Refresh(g, doc, 0, 0) {
		t.Error("Refresh rewrote a cell from an unknown tileset")
	}
	if Refresh(g, doc, 2, 2) {
		t.Error("Refresh rewrote an empty cell")
	}
	if Refresh(g, doc, -1, 5) {
		t.Error("Refresh rewrote an off-grid cell")
	}
}

// holeyTileset reports one local id as missing.
type holeyTileset struct {
	fakeTileset
	missing int
}

func (t *holeyTileset) Tile(id int) (TileRef, bool) {
	if id == t.missing {
		return TileRef{}, false
	}
	return t.fakeTileset.Tile(id)
}
