package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Server.Addr != ":8080" {
		t.Errorf("Expected addr :8080, got %s", cfg.Server.Addr)
	}
	if cfg.Server.TickRate != 60 {
		t.Errorf("Expected tick rate 60, got %d", cfg.Server.TickRate)
	}
	if cfg.World.GravityY != -9.81 {
		t.Errorf("Expected gravity -9.81, got %f", cfg.World.GravityY)
	}
	if cfg.Terrain.Resolution != 128 || cfg.Terrain.MaxHeight != 50.0 {
		t.Errorf("Unexpected terrain defaults: %+v", cfg.Terrain)
	}
	if cfg.Tank.MaxAmmo != 5 || cfg.Tank.ReloadTime != 3.0 {
		t.Errorf("Unexpected tank defaults: %+v", cfg.Tank)
	}
	if cfg.Tank.AntiSinkFactor != 1.02 || cfg.Tank.SinkVelocityMin != -5.0 {
		t.Errorf("Unexpected anti-sink defaults: %+v", cfg.Tank)
	}
	if cfg.Projectile.Speed != 50.0 || cfg.Projectile.Lifetime != 5.0 {
		t.Errorf("Unexpected projectile defaults: %+v", cfg.Projectile)
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := []byte(`
server:
  addr: ":9090"
tank:
  max_ammo: 8
terrain:
  seed: 77
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("Unexpected write error: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Unexpected load error: %v", err)
	}

	// Переопределенные значения из файла
	if cfg.Server.Addr != ":9090" {
		t.Errorf("Expected addr :9090, got %s", cfg.Server.Addr)
	}
	if cfg.Tank.MaxAmmo != 8 {
		t.Errorf("Expected max ammo 8, got %d", cfg.Tank.MaxAmmo)
	}
	if cfg.Terrain.Seed != 77 {
		t.Errorf("Expected seed 77, got %d", cfg.Terrain.Seed)
	}

	// Незатронутые поля остаются дефолтными
	if cfg.Tank.ReloadTime != 3.0 {
		t.Errorf("Expected default reload time, got %f", cfg.Tank.ReloadTime)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for missing config file")
	}
}
