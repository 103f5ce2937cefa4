package imagegen

import (
	"context"
	"testing"

	"github.com/hpungsan/slidecraft/internal/config"
	"github.com/hpungsan/slidecraft/internal/logging"
	"github.com/hpungsan/slidecraft/internal/storage"
)

func TestNew_SelectsProvider(t *testing.T) {
	store, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	cfg := config.DefaultConfig()

	tests := []struct {
		provider     string
		materializer string
		check        func(Generator) bool
	}{
		{"none", "", func(g Generator) bool { _, ok := g.(Disabled); return ok }},
		{"hosted", "", func(g Generator) bool { _, ok := g.(*Hosted); return ok }},
		{"pipeline", "relay", func(g Generator) bool {
			p, ok := g.(*Pipeline)
			if !ok {
				return false
			}
			_, ok = p.materializer.(*Relay)
			return ok
		}},
		{"pipeline", "storage", func(g Generator) bool {
			p, ok := g.(*Pipeline)
			if !ok {
				return false
			}
			_, ok = p.materializer.(*StorageMaterializer)
			return ok
		}},
	}
	for _, tt := range tests {
		cfg.Images.Provider = tt.provider
		cfg.Images.Materializer = tt.materializer
		g, err := New(cfg, store, nil, logging.Discard())
		if err != nil {
			t.Fatalf("New(%s/%s) error = %v", tt.provider, tt.materializer, err)
		}
		if !tt.check(g) {
			t.Errorf("New(%s/%s) = %T", tt.provider, tt.materializer, g)
		}
	}

	cfg.Images.Provider = "pipeline"
	cfg.Images.Materializer = ""
	g, err := New(cfg, store, nil, logging.Discard())
	if err != nil {
		t.Fatalf("New(pipeline/default) error = %v", err)
	}
	if _, ok := g.(*Pipeline).materializer.(*StorageMaterializer); !ok {
		t.Errorf("default materializer with a store = %T, want storage", g.(*Pipeline).materializer)
	}
	g, err = New(cfg, nil, nil, logging.Discard())
	if err != nil {
		t.Fatalf("New(pipeline/default, no store) error = %v", err)
	}
	if _, ok := g.(*Pipeline).materializer.(*Relay); !ok {
		t.Errorf("default materializer without a store = %T, want relay", g.(*Pipeline).materializer)
	}
	if config.DefaultConfig().Images.Materializer != "storage" {
		t.Errorf("default config materializer = %q, want storage", config.DefaultConfig().Images.Materializer)
	}

	cfg.Images.Provider = "dall-e"
	if _, err := New(cfg, store, nil, logging.Discard()); err == nil {
		t.Error("New(unknown provider) expected error")
	}
	cfg.Images.Provider = "pipeline"
	cfg.Images.Materializer = "ftp"
	if _, err := New(cfg, store, nil, logging.Discard()); err == nil {
		t.Error("New(unknown materializer) expected error")
	}
}

func TestDisabled(t *testing.T) {
	if url, ok := (Disabled{}).Generate(context.Background(), "x"); ok || url != "" {
		t.Errorf("Disabled.Generate() = %q, %v", url, ok)
	}
}
