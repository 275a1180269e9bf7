package autotile

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestGroupKeyOf(t *testing.T) {
	tests := []struct {
		name   string
		ref    TileRef
		want   GroupKey
		wantOK bool
	}{
		{"empty", TileRef{}, GroupKey{}, false},
		{"first tile", TileRef{"a.tsx", 0}, GroupKey{"a.tsx", 0}, true},
		{"last of first block", TileRef{"a.tsx", 47}, GroupKey{"a.tsx", 0}, true},
		{"first of second block", TileRef{"a.tsx", 48}, GroupKey{"a.tsx", 48}, true},
		{"third block", TileRef{"a.tsx", 130}, GroupKey{"a.tsx", 96}, true},
		{"negative id", TileRef{"a.tsx", -1}, GroupKey{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := GroupKeyOf(tt.ref)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("GroupKeyOf(%v) = %v, %v; want %v, %v", tt.ref, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestBelongsTo(t *testing.T) {
	key := GroupKey{"a.tsx", 48}
	tests := []struct {
		name string
		ref  TileRef
		want bool
	}{
		{"empty", TileRef{}, false},
		{"other tileset", TileRef{"b.tsx", 50}, false},
		{"below block", TileRef{"a.tsx", 47}, false},
		{"block start", TileRef{"a.tsx", 48}, true},
		{"block end", TileRef{"a.tsx", 95}, true},
		{"past block", TileRef{"a.tsx", 96}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BelongsTo(tt.ref, key); got != tt.want {
				t.Errorf("BelongsTo(%v, %v) = %v, want %v", tt.ref, key, got, tt.want)
			}
		})
	}
}

func TestResolveSourceMapping(t *testing.T) {
	tests := []struct {
		name   string
		props  Properties
		want   SourceInfo
		wantOK bool
	}{
		{"nil properties", nil, SourceInfo{}, false},
		{"no key flag", props{PropSourceTileset: "/ts/water.tsx"}, SourceInfo{}, false},
		{"key flag false", props{PropAutotileKey: false, PropSourceTileset: "/ts/water.tsx"}, SourceInfo{}, false},
		{"missing source", props{PropAutotileKey: true}, SourceInfo{}, false},
		{"source not a string", props{PropAutotileKey: true, PropSourceTileset: 12}, SourceInfo{}, false},
		{"empty source", props{PropAutotileKey: true, PropSourceTileset: ""}, SourceInfo{}, false},
		{
			"defaults",
			props{PropAutotileKey: true, PropSourceTileset: "/ts/water.tsx"},
			SourceInfo{TilesetPath: "/ts/water.tsx"},
			true,
		},
		{
			"full",
			props{
				PropAutotileKey:    true,
				PropSourceTileset:  "/ts/water.tsx",
				PropSourceBasename: "water.tsx",
				PropStartID:        96,
			},
			SourceInfo{TilesetPath: "/ts/water.tsx", Basename: "water.tsx", StartID: 96},
			true,
		},
		{
			"negative start",
			props{PropAutotileKey: true, PropSourceTileset: "/ts/water.tsx", PropStartID: -5},
			SourceInfo{TilesetPath: "/ts/water.tsx"},
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveSourceMapping(tt.props)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ResolveSourceMapping() = %+v, %v; want %+v, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParseStartID(t *testing.T) {
	tests := []struct {
		in   any
		want int
	}{
		{nil, 0},
		{"", 0},
		{" 48 ", 48},
		{"abc", 0},
		{"-3", 0},
		{96, 96},
		{int64(144), 144},
		{float64(48), 48},
		{12.9, 12},
		{math.NaN(), 0},
		{math.Inf(1), 0},
		{json.Number("192"), 192},
		{true, 1},
		{false, 0},
		{"0x60", 96},
		{"0o140", 96},
		{"0b110000", 48},
		{"0xzz", 0},
		{"1e400", 0},
		{1e10, math.MaxInt32},
		{"5000000000", math.MaxInt32},
		{"0xffffffffffffffffff", math.MaxInt32},
		{int64(math.MaxInt64), math.MaxInt32},
	}
	for _, tt := range tests {
		if got := ParseStartID(tt.in); got != tt.want {
			t.Errorf("ParseStartID(%#v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestLookupTileset(t *testing.T) {
	exact := &fakeTileset{id: "a", file: "/maps/tilesets/water.tsx", name: "water"}
	other := &fakeTileset{id: "b", file: `C:\rmxp\grass.tsx`, name: "grass"}
	embedded := &fakeTileset{id: "c", name: "embedded"}
	doc := &fakeDoc{tilesets: []*fakeTileset{embedded, other, exact}}

	tests := []struct {
		name     string
		path     string
		basename string
		want     *fakeTileset
	}{
		{"exact path", "/maps/tilesets/water.tsx", "", exact},
		{"basename slash", "/elsewhere/water.tsx", "water.tsx", exact},
		{"basename backslash", "/elsewhere/grass.tsx", "grass.tsx", other},
		{"no basename, no match", "/elsewhere/water.tsx", "", nil},
		{"unknown basename", "/elsewhere/lava.tsx", "lava.tsx", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LookupTileset(doc, tt.path, tt.basename)
			if tt.want == nil {
				var missing *MissingTilesetError
				if !errors.As(err, &missing) {
					t.Fatalf("LookupTileset() error = %v, want MissingTilesetError", err)
				}
				if missing.Path != tt.path || missing.Basename != tt.basename {
					t.Errorf("MissingTilesetError = %+v, want path %q basename %q", missing, tt.path, tt.basename)
				}
				return
			}
			if err != nil {
				t.Fatalf("LookupTileset() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("LookupTileset() = %s, want %s", got.Name(), tt.want.Name())
			}
		})
	}
}

func TestResolveTarget(t *testing.T) {
	main := &fakeTileset{id: "main.tsx", file: "main.tsx", name: "main", count: 96}
	water := &fakeTileset{id: "/ts/water.tsx", file: "/ts/water.tsx", name: "water", count: 144}
	doc := &fakeDoc{tilesets: []*fakeTileset{main, water}}

	t.Run("default source", func(t *testing.T) {
		src := SourceOf(TileRef{"main.tsx", 60}, nil)
		if _, ok := src.(DefaultSource); !ok {
			t.Fatalf("SourceOf() = %T, want DefaultSource", src)
		}
		got, err := ResolveTarget(src, doc, doc)
		if err != nil {
			t.Fatalf("ResolveTarget() error = %v", err)
		}
		if got.Key != (GroupKey{"main.tsx", 48}) || got.Tileset != main {
			t.Errorf("ResolveTarget() = %+v", got)
		}
	})

	t.Run("mapped source ignores key tile id", func(t *testing.T) {
		p := props{PropAutotileKey: true, PropSourceTileset: "/ts/water.tsx", PropStartID: 96}
		src := SourceOf(TileRef{"main.tsx", 7}, p)
		got, err := ResolveTarget(src, doc, doc)
		if err != nil {
			t.Fatalf("ResolveTarget() error = %v", err)
		}
		if got.Key != (GroupKey{"/ts/water.tsx", 96}) || got.Tileset != water {
			t.Errorf("ResolveTarget() = %+v", got)
		}
	})

	t.Run("mapped source missing", func(t *testing.T) {
		p := props{PropAutotileKey: true, PropSourceTileset: "/ts/lava.tsx", PropSourceBasename: "lava.tsx"}
		_, err := ResolveTarget(SourceOf(TileRef{"main.tsx", 7}, p), doc, doc)
		var missing *MissingTilesetError
		if !errors.As(err, &missing) {
			t.Fatalf("ResolveTarget() error = %v, want MissingTilesetError", err)
		}
	})

	t.Run("undersized", func(t *testing.T) {
		p := props{PropAutotileKey: true, PropSourceTileset: "/ts/water.tsx", PropStartID: 100}
		_, err := ResolveTarget(SourceOf(TileRef{"main.tsx", 7}, p), doc, doc)
		var under *UndersizedTilesetError
		if !errors.As(err, &under) {
			t.Fatalf("ResolveTarget() error = %v, want UndersizedTilesetError", err)
		}
		if under.Want != 148 || under.Got != 144 {
			t.Errorf("UndersizedTilesetError = %+v, want 148 vs 144", under)
		}
	})

	t.Run("start far past the tileset end", func(t *testing.T) {
		p := props{PropAutotileKey: true, PropSourceTileset: "/ts/water.tsx", PropStartID: 1e10}
		_, err := ResolveTarget(SourceOf(TileRef{"main.tsx", 7}, p), doc, doc)
		var under *UndersizedTilesetError
		if !errors.As(err, &under) {
			t.Fatalf("ResolveTarget() error = %v, want UndersizedTilesetError", err)
		}
		if under.StartID != math.MaxInt32 || under.Got != 144 {
			t.Errorf("UndersizedTilesetError = %+v", under)
		}
	})

	t.Run("default source in unknown tileset", func(t *testing.T) {
		_, err := ResolveTarget(SourceOf(TileRef{"gone.tsx", 0}, nil), doc, doc)
		var missing *MissingTilesetError
		if !errors.As(err, &missing) {
			t.Fatalf("ResolveTarget() error = %v, want MissingTilesetError", err)
		}
	})
}
