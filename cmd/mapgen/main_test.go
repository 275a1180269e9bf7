package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"rmxp-autotile/internal/autotile"
	"rmxp-autotile/internal/maps"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		w, h    int
		wantErr bool
	}{
		{"64x48", 64, 48, false},
		{"10x10", 10, 10, false},
		{"9x10", 0, 0, true},
		{"64", 0, 0, true},
		{"ax10", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			w, h, err := parseSize(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseSize(%q) error = %v", tt.in, err)
			}
			if w != tt.w || h != tt.h {
				t.Errorf("parseSize(%q) = %d,%d", tt.in, w, h)
			}
		})
	}
}

func TestClassifyTerrain(t *testing.T) {
	tests := []struct {
		elev, moist float64
		want        int
	}{
		{0.1, 0.9, gWater},
		{0.33, 0.2, gSand},
		{0.5, 0.2, gGrass},
		{0.5, 0.8, gForest},
		{0.9, 0.5, gRock},
	}
	for _, tt := range tests {
		if got := classifyTerrain(tt.elev, tt.moist); got != tt.want {
			t.Errorf("classifyTerrain(%v,%v) = %s, want %s", tt.elev, tt.moist, groupNames[got], groupNames[tt.want])
		}
	}
}

// assertResolved fails for any occupied cell that is not the variant its
// neighborhood resolves to.
func assertResolved(t *testing.T, doc *maps.Document, layer string) int {
	t.Helper()
	l := doc.Layer(layer)
	occupied := 0
	for y := 0; y < doc.Height; y++ {
		for x := 0; x < doc.Width; x++ {
			c, ok := l.Cell(x, y)
			if !ok {
				continue
			}
			occupied++
			key, _ := autotile.GroupKeyOf(c.Tile)
			ts, ok := doc.TilesetByID(c.Tile.Tileset)
			if !ok {
				t.Fatalf("%s (%d,%d) uses unattached tileset %q", layer, x, y, c.Tile.Tileset)
			}
			if want, _ := autotile.Resolve(l, x, y, key, ts); want != c.Tile {
				t.Errorf("%s (%d,%d) = %v, want %v", layer, x, y, c.Tile, want)
			}
		}
	}
	return occupied
}

func TestGenerate(t *testing.T) {
	doc, err := generate(genOptions{Name: "gen", W: 24, H: 18, Seed: 7})
	if err != nil {
		t.Fatalf("generate() error = %v", err)
	}

	if n := assertResolved(t, doc, "ground"); n != 24*18 {
		t.Errorf("ground has %d occupied cells, want every cell", n)
	}
	if n := assertResolved(t, doc, "paths"); n == 0 {
		t.Error("no trails painted")
	}

	paths := doc.Layer("paths")
	for y := 0; y < doc.Height; y++ {
		for x := 0; x < doc.Width; x++ {
			if c, ok := paths.Cell(x, y); ok && c.Tile.Tileset != roadFile {
				t.Fatalf("trail cell (%d,%d) uses %q, want the road tileset", x, y, c.Tile.Tileset)
			}
		}
	}

	counts := groupCounts(doc)
	sum := 0
	for _, n := range counts {
		sum += n
	}
	if sum != 24*18 {
		t.Errorf("group counts sum to %d", sum)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	a, err := generate(genOptions{Name: "gen", W: 16, H: 12, Seed: 42})
	if err != nil {
		t.Fatal(err)
	}
	b, err := generate(genOptions{Name: "gen", W: 16, H: 12, Seed: 42})
	if err != nil {
		t.Fatal(err)
	}
	ja, _ := a.Marshal()
	jb, _ := b.Marshal()
	if diff := cmp.Diff(string(ja), string(jb)); diff != "" {
		t.Errorf("same seed produced different documents (-a +b):\n%s", diff)
	}
}
