// Package config загружает конфигурацию симуляции через viper.
// Все тюнинги имеют дефолты: пустой путь к файлу дает рабочую
// конфигурацию.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// ServerConfig настройки процесса
type ServerConfig struct {
	Addr     string `mapstructure:"addr"`
	TickRate int    `mapstructure:"tick_rate"`
	LogLevel string `mapstructure:"log_level"`
}

// WorldConfig глобальные настройки физики мира
type WorldConfig struct {
	GravityY         float64 `mapstructure:"gravity_y"`
	MaxDelta         float64 `mapstructure:"max_delta"`
	SubStep          float64 `mapstructure:"sub_step"`
	MaxSubSteps      int     `mapstructure:"max_sub_steps"`
	SolverIterations int     `mapstructure:"solver_iterations"`
}

// TerrainConfig параметры генерации террейна
type TerrainConfig struct {
	Size       float64 `mapstructure:"size"`
	Resolution int     `mapstructure:"resolution"`
	MaxHeight  float64 `mapstructure:"max_height"`
	Seed       int64   `mapstructure:"seed"`
	PropCount  int     `mapstructure:"prop_count"`
}

// TankConfig тюнинг контроллера машины
type TankConfig struct {
	Mass          float64 `mapstructure:"mass"`
	Speed         float64 `mapstructure:"speed"`
	ForceScale    float64 `mapstructure:"force_scale"`
	ReverseFactor float64 `mapstructure:"reverse_factor"`
	TurnSpeed     float64 `mapstructure:"turn_speed"`
	MaxSpeed      float64 `mapstructure:"max_speed"`
	MaxHealth     float64 `mapstructure:"max_health"`
	MaxAmmo       int     `mapstructure:"max_ammo"`
	ReloadTime    float64 `mapstructure:"reload_time"`

	// Анти-провал: политика нормативна, константы — тюнинг под
	// жесткость конкретного движка
	AntiSinkFactor   float64 `mapstructure:"anti_sink_factor"`
	SinkVelocityMin  float64 `mapstructure:"sink_velocity_min"`
	TurretPitchLimit float64 `mapstructure:"turret_pitch_limit"`
}

// ProjectileConfig параметры снаряда
type ProjectileConfig struct {
	Speed    float64 `mapstructure:"speed"`
	Damage   float64 `mapstructure:"damage"`
	Lifetime float64 `mapstructure:"lifetime"`
	Mass     float64 `mapstructure:"mass"`
	Radius   float64 `mapstructure:"radius"`
}

// Config корневая конфигурация
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	World      WorldConfig      `mapstructure:"world"`
	Terrain    TerrainConfig    `mapstructure:"terrain"`
	Tank       TankConfig       `mapstructure:"tank"`
	Projectile ProjectileConfig `mapstructure:"projectile"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.tick_rate", 60)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("world.gravity_y", -9.81)
	v.SetDefault("world.max_delta", 1.0/30.0)
	v.SetDefault("world.sub_step", 1.0/60.0)
	v.SetDefault("world.max_sub_steps", 4)
	v.SetDefault("world.solver_iterations", 4)

	v.SetDefault("terrain.size", 1000.0)
	v.SetDefault("terrain.resolution", 128)
	v.SetDefault("terrain.max_height", 50.0)
	v.SetDefault("terrain.seed", 1)
	v.SetDefault("terrain.prop_count", 40)

	v.SetDefault("tank.mass", 800.0)
	v.SetDefault("tank.speed", 15.0)
	v.SetDefault("tank.force_scale", 400.0)
	v.SetDefault("tank.reverse_factor", 0.7)
	v.SetDefault("tank.turn_speed", 1.5)
	v.SetDefault("tank.max_speed", 20.0)
	v.SetDefault("tank.max_health", 100.0)
	v.SetDefault("tank.max_ammo", 5)
	v.SetDefault("tank.reload_time", 3.0)
	v.SetDefault("tank.anti_sink_factor", 1.02)
	v.SetDefault("tank.sink_velocity_min", -5.0)
	v.SetDefault("tank.turret_pitch_limit", 45.0)

	v.SetDefault("projectile.speed", 50.0)
	v.SetDefault("projectile.damage", 25.0)
	v.SetDefault("projectile.lifetime", 5.0)
	v.SetDefault("projectile.mass", 2.0)
	v.SetDefault("projectile.radius", 0.2)
}

// Load читает конфигурацию из файла. Пустой путь — только дефолты.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("разбор конфигурации: %w", err)
	}
	return &cfg, nil
}

// Default конфигурация из одних дефолтов
func Default() *Config {
	cfg, _ := Load("")
	return cfg
}
