package provider

import (
	"testing"

	"github.com/paulmach/orb/maptile"
)

func TestTileURL(t *testing.T) {
	p := Provider{
		Name:        "test",
		URLTemplate: "https://tiles.example.com/{z}/{x}/{y}.png",
	}

	got := p.TileURL(maptile.New(534, 356, 10))
	want := "https://tiles.example.com/10/534/356.png"
	if got != want {
		t.Errorf("TileURL = %q, want %q", got, want)
	}
}

func TestLookup(t *testing.T) {
	p, err := Lookup(ProviderOSM, nil)
	if err != nil {
		t.Fatalf("Lookup(osm): %v", err)
	}
	if p.Name != ProviderOSM {
		t.Errorf("got provider %q", p.Name)
	}

	custom := []Provider{{Name: "mine", URLTemplate: "https://my.example.com/{z}/{x}/{y}.png", RequiresKey: true}}
	p, err = Lookup("mine", custom)
	if err != nil {
		t.Fatalf("Lookup(mine): %v", err)
	}
	if !p.RequiresKey {
		t.Error("custom provider lost RequiresKey")
	}

	if _, err := Lookup("nope", custom); err == nil {
		t.Error("unknown provider accepted")
	}
}

func TestValidate(t *testing.T) {
	valid := Provider{Name: "ok", URLTemplate: "https://x.example.com/{z}/{x}/{y}.png"}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid provider rejected: %v", err)
	}

	tests := []struct {
		name string
		p    Provider
	}{
		{"missing name", Provider{URLTemplate: "https://x.example.com/{z}/{x}/{y}.png"}},
		{"missing url", Provider{Name: "x"}},
		{"missing placeholder", Provider{Name: "x", URLTemplate: "https://x.example.com/{z}/{x}.png"}},
		{"bad extension", Provider{Name: "x", URLTemplate: "https://x.example.com/{z}/{x}/{y}.png", TileExt: "gif"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.p.Validate(); err == nil {
				t.Error("invalid provider accepted")
			}
		})
	}
}

func TestValidateZoom(t *testing.T) {
	p := Provider{Name: "x", URLTemplate: "https://x.example.com/{z}/{x}/{y}.png", MaxZoom: 17}

	if err := p.ValidateZoom(17); err != nil {
		t.Errorf("max zoom rejected: %v", err)
	}
	if err := p.ValidateZoom(18); err == nil {
		t.Error("zoom above provider maximum accepted")
	}
	if err := p.ValidateZoom(-1); err == nil {
		t.Error("negative zoom accepted")
	}
}

func TestBuiltInCatalogIsValid(t *testing.T) {
	for _, p := range BuiltIn() {
		if err := p.Validate(); err != nil {
			t.Errorf("built-in provider %q invalid: %v", p.Name, err)
		}
	}
}

func TestBuiltInIncludesKeyedProvider(t *testing.T) {
	p, err := Lookup(ProviderStadiaMaps, nil)
	if err != nil {
		t.Fatalf("Lookup(stadia): %v", err)
	}
	if !p.RequiresKey {
		t.Error("stadia must require an API key")
	}

	keyed := false
	for _, p := range BuiltIn() {
		if p.RequiresKey {
			keyed = true
		}
	}
	if !keyed {
		t.Error("built-in catalog has no keyed provider")
	}
}
