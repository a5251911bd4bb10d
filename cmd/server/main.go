package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"

	"x-tanks/internal/config"
	"x-tanks/internal/game"
	"x-tanks/internal/ident"
	"x-tanks/internal/physics"
	"x-tanks/internal/render"
	"x-tanks/internal/telemetry"
	"x-tanks/internal/transport/ws"
	"x-tanks/internal/world"
)

func main() {
	configPath := flag.String("config", "", "путь к файлу конфигурации")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.WithError(err).Fatal("ошибка загрузки конфигурации")
	}

	if level, err := logrus.ParseLevel(cfg.Server.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	srv, err := buildServer(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("ошибка инициализации сервера")
	}

	srv.Run()
}

// server собранная композиция: физический мир, сцена, реестр, цикл и
// сетевой хаб
type server struct {
	cfg        *config.Config
	logger     *logrus.Logger
	world      *physics.World
	scene      *render.Scene
	registry   *game.EntityRegistry
	classifier *game.Classifier
	ticker     *game.GameTicker
	hub        *ws.Hub
	recorder   *telemetry.Recorder
	ids        ident.Source

	tankParams       game.TankParams
	projectileParams game.ProjectileParams
	grid             *world.HeightGrid
	spawnPoints      []mgl64.Vec3
	nextSpawn        int

	// pendingInputs последний снапшот ввода каждого игрока; применяется
	// и сбрасывается на границе тика
	pendingInputs map[string]game.InputState
}

func buildServer(cfg *config.Config, logger *logrus.Logger) (*server, error) {
	physicsCfg := physics.Config{
		Gravity:          mgl64.Vec3{0, cfg.World.GravityY, 0},
		MaxDelta:         cfg.World.MaxDelta,
		SubStep:          cfg.World.SubStep,
		MaxSubSteps:      cfg.World.MaxSubSteps,
		SolverIterations: cfg.World.SolverIterations,
	}
	physicsWorld := physics.NewWorld(physicsCfg)

	scene := render.NewScene()
	registry := game.NewEntityRegistry(scene, physicsWorld, logger)

	classifier := game.NewClassifier(logger)
	classifier.Attach(physicsWorld)

	// Террейн: одна сетка высот питает и визуальную поверхность, и
	// коллизионную форму
	generator := world.NewGenerator(cfg.Terrain.Seed, logger)
	grid, surface, heightfield := generator.Generate(cfg.Terrain.Size, cfg.Terrain.Resolution, cfg.Terrain.MaxHeight)
	scene.Add(surface)

	ground := world.GroundBody("ground", heightfield, game.BodyTag{Role: game.RoleGround, EntityID: "ground"})
	physicsWorld.AddBody(ground)

	rng := rand.New(rand.NewSource(cfg.Terrain.Seed))
	spawnObstacles(cfg, registry, grid, rng, logger)

	spawnPoints := world.SpawnPoints(grid, rng, 16, 2.0)

	ticker := game.NewGameTicker(cfg.Server.TickRate, physicsWorld, registry, classifier, logger)

	srv := &server{
		cfg:              cfg,
		logger:           logger,
		world:            physicsWorld,
		scene:            scene,
		registry:         registry,
		classifier:       classifier,
		ticker:           ticker,
		hub:              ws.NewHub(logger),
		recorder:         telemetry.NewRecorder(logger),
		ids:              &ident.UUIDSource{},
		tankParams:       tankParamsFrom(cfg.Tank),
		projectileParams: projectileParamsFrom(cfg.Projectile),
		grid:             grid,
		spawnPoints:      spawnPoints,
		pendingInputs:    make(map[string]game.InputState),
	}

	ticker.OnPreStep(srv.applyInbound)
	ticker.OnCollisions(srv.handleCollisions)

	return srv, nil
}

func tankParamsFrom(cfg config.TankConfig) game.TankParams {
	params := game.DefaultTankParams()
	params.Mass = cfg.Mass
	params.Speed = cfg.Speed
	params.ForceScale = cfg.ForceScale
	params.ReverseFactor = cfg.ReverseFactor
	params.TurnSpeed = cfg.TurnSpeed
	params.MaxSpeed = cfg.MaxSpeed
	params.MaxHealth = cfg.MaxHealth
	params.MaxAmmo = cfg.MaxAmmo
	params.ReloadTime = cfg.ReloadTime
	params.AntiSinkFactor = cfg.AntiSinkFactor
	params.SinkVelocityMin = cfg.SinkVelocityMin
	// В конфигурации лимит в градусах
	params.TurretPitchLimit = cfg.TurretPitchLimit * math.Pi / 180.0
	return params
}

func projectileParamsFrom(cfg config.ProjectileConfig) game.ProjectileParams {
	return game.ProjectileParams{
		Speed:    cfg.Speed,
		Damage:   cfg.Damage,
		Lifetime: cfg.Lifetime,
		Mass:     cfg.Mass,
		Radius:   cfg.Radius,
	}
}

// spawnObstacles расставляет статические пропы по поверхности
func spawnObstacles(cfg *config.Config, registry *game.EntityRegistry, grid *world.HeightGrid, rng *rand.Rand, logger *logrus.Logger) {
	props := []world.PropType{world.PropTree, world.PropRock, world.PropBuilding}
	extent := cfg.Terrain.Size * 0.4

	for i := 0; i < cfg.Terrain.PropCount; i++ {
		prop := props[rng.Intn(len(props))]
		x := (rng.Float64()*2 - 1) * extent
		z := (rng.Float64()*2 - 1) * extent
		y := grid.HeightAt(x, z) + world.PropHalfExtents(prop).Y()

		id := fmt.Sprintf("prop-%d", i)
		obj := game.NewWorldObject(id, prop, mgl64.Vec3{x, y, z}, nil, logger)
		if err := registry.Add(obj); err != nil {
			logger.WithError(err).WithField("id", id).Warn("проп не добавлен")
		}
	}
}

// Run запускает игровой цикл и HTTP сервер, блокируется до сигнала
func (s *server) Run() {
	if err := s.ticker.Start(); err != nil {
		s.logger.WithError(err).Fatal("ошибка запуска игрового цикла")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.hub.HandleWS)
	mux.HandleFunc("/telemetry", func(w http.ResponseWriter, r *http.Request) {
		data, err := s.recorder.JSON()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, data)
	})

	httpServer := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		s.logger.WithField("addr", s.cfg.Server.Addr).Info("сервер запущен")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Fatal("ошибка HTTP сервера")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	s.logger.Info("остановка сервера")
	s.ticker.Stop()
	httpServer.Close()
}

// applyInbound применяет накопленные сетевые сообщения на границе тика
func (s *server) applyInbound(delta float64) {
	for _, inbound := range s.hub.DrainInbound() {
		switch msg := inbound.Message.(type) {
		case *ws.PlayerJoinedMessage:
			s.handleJoin(inbound.Client, msg)
		case *ws.PlayerLeftMessage:
			s.removeTank(msg.PlayerID)
			s.hub.Broadcast(msg)
		case *ws.PlayerUpdateMessage:
			s.handleUpdate(inbound.Client, msg)
		case *ws.PlayerInputMessage:
			s.pendingInputs[msg.PlayerID] = game.InputState{
				Forward:  msg.Forward,
				Backward: msg.Backward,
				Left:     msg.Left,
				Right:    msg.Right,
				TurretX:  msg.TurretX,
				TurretY:  msg.TurretY,
				Fire:     msg.Fire,
				Reload:   msg.Reload,
			}
		case *ws.ProjectileFiredMessage:
			s.handleFire(inbound.Client, msg)
		case *ws.ChatMessage:
			msg.ServerTime = ws.GetCurrentServerTime()
			s.hub.Broadcast(msg)
		}
	}

	// Разрывы соединений применяются здесь же: снятие танка мутирует
	// физический мир и не может идти из горутины чтения хаба
	for _, client := range s.hub.DrainDisconnected() {
		s.handleDisconnect(client)
	}

	s.applyInputs(delta)
	s.removeExpiredProjectiles()
	s.recorder.PrintSummary()
}

// applyInputs прогоняет контроллеры машин по последнему вводу игроков.
// Снапшот применяется ровно один раз: приращения прицела не должны
// накапливаться между тиками.
func (s *server) applyInputs(delta float64) {
	for playerID, input := range s.pendingInputs {
		delete(s.pendingInputs, playerID)

		entity, ok := s.registry.Get(playerID)
		if !ok {
			continue
		}
		tank, ok := entity.(*game.Tank)
		if !ok {
			continue
		}

		tank.Control(delta, input)

		if input.Fire && tank.Fire() {
			s.spawnProjectile(tank)
		}
	}
}

// spawnProjectile выпускает снаряд из дула танка
func (s *server) spawnProjectile(tank *game.Tank) {
	origin := tank.MuzzlePosition()
	direction := tank.AimDirection()

	id := s.ids.NewID("projectile")
	projectile := game.NewProjectile(id, tank.ID(), s.projectileParams, origin, direction)
	if err := s.registry.Add(projectile); err != nil {
		s.logger.WithError(err).Warn("снаряд не добавлен")
		return
	}

	s.recorder.RecordShot(tank.ID(), origin)

	s.hub.Broadcast(&ws.ProjectileFiredMessage{
		Type:         ws.MessageTypeProjectileFired,
		ProjectileID: id,
		OwnerID:      tank.ID(),
		Origin:       ws.Vector3{X: origin.X(), Y: origin.Y(), Z: origin.Z()},
		Direction:    ws.Vector3{X: direction.X(), Y: direction.Y(), Z: direction.Z()},
		Speed:        s.projectileParams.Speed,
		Damage:       s.projectileParams.Damage,
		ServerTime:   ws.GetCurrentServerTime(),
	})
}

func (s *server) handleJoin(client *ws.Client, msg *ws.PlayerJoinedMessage) {
	if _, exists := s.registry.Get(msg.PlayerID); exists {
		return
	}

	spawn := s.pickSpawn()
	tank := game.NewTank(msg.PlayerID, s.tankParams, spawn)
	if err := s.registry.Add(tank); err != nil {
		s.logger.WithError(err).Warn("танк не добавлен")
		return
	}

	s.logger.WithField("player", msg.PlayerID).Info("игрок вошел")

	// Сервер авторитетен по точке спавна и стартовому состоянию;
	// имя и цвет клиента ретранслируются как есть
	msg.Position = ws.Vector3{X: spawn.X(), Y: spawn.Y(), Z: spawn.Z()}
	msg.Rotation = ws.Quaternion{W: 1}
	msg.Health = s.tankParams.MaxHealth
	msg.ServerTime = ws.GetCurrentServerTime()
	s.hub.Broadcast(msg)
}

func (s *server) handleUpdate(client *ws.Client, msg *ws.PlayerUpdateMessage) {
	entity, ok := s.registry.Get(msg.PlayerID)
	if !ok {
		return
	}
	tank, ok := entity.(*game.Tank)
	if !ok {
		return
	}

	// Клиент авторитетен по своему трансформу; сервер зеркалит и
	// ретранслирует остальным
	tank.Body().Position = mgl64.Vec3{msg.Position.X, msg.Position.Y, msg.Position.Z}
	tank.Body().Orientation = mgl64.Quat{
		W: msg.Rotation.W,
		V: mgl64.Vec3{msg.Rotation.X, msg.Rotation.Y, msg.Rotation.Z},
	}
	tank.Body().LinearVelocity = mgl64.Vec3{msg.Velocity.X, msg.Velocity.Y, msg.Velocity.Z}

	msg.ServerTime = ws.GetCurrentServerTime()
	s.hub.BroadcastExcept(client, msg)
}

func (s *server) handleFire(client *ws.Client, msg *ws.ProjectileFiredMessage) {
	entity, ok := s.registry.Get(msg.OwnerID)
	if !ok {
		return
	}
	tank, ok := entity.(*game.Tank)
	if !ok || !tank.Fire() {
		return
	}

	origin := mgl64.Vec3{msg.Origin.X, msg.Origin.Y, msg.Origin.Z}
	direction := mgl64.Vec3{msg.Direction.X, msg.Direction.Y, msg.Direction.Z}

	id := s.ids.NewID("projectile")
	projectile := game.NewProjectile(id, msg.OwnerID, s.projectileParams, origin, direction)
	if err := s.registry.Add(projectile); err != nil {
		s.logger.WithError(err).Warn("снаряд не добавлен")
		return
	}

	s.recorder.RecordShot(msg.OwnerID, origin)

	// Скорость и урон всегда серверные, что бы ни прислал клиент
	msg.ProjectileID = id
	msg.Speed = s.projectileParams.Speed
	msg.Damage = s.projectileParams.Damage
	msg.ServerTime = ws.GetCurrentServerTime()
	s.hub.Broadcast(msg)
}

// handleCollisions применяет доменные события коллизий за тик
func (s *server) handleCollisions(events []game.CollisionEvent) {
	for _, event := range events {
		switch event.Kind {
		case game.CollisionProjectileTank:
			s.applyHit(event)
			s.registry.RemoveByID(event.ProjectileID)

		case game.CollisionProjectileObstacle, game.CollisionProjectileGround:
			s.registry.RemoveByID(event.ProjectileID)
		}
	}
}

func (s *server) applyHit(event game.CollisionEvent) {
	entity, ok := s.registry.Get(event.TankID)
	if !ok {
		return
	}
	tank, ok := entity.(*game.Tank)
	if !ok {
		return
	}

	tank.ApplyDamage(event.Damage)
	s.recorder.RecordHit(event.OwnerID, event.TankID, event.Damage, event.Point)

	if attacker, ok := s.registry.Get(event.OwnerID); ok {
		if attackerTank, ok := attacker.(*game.Tank); ok {
			attackerTank.AddDamageDealt(event.Damage)
		}
	}

	hit := &ws.PlayerHitMessage{
		Type:       ws.MessageTypePlayerHit,
		PlayerID:   event.TankID,
		AttackerID: event.OwnerID,
		Damage:     event.Damage,
		Health:     tank.Health(),
		ServerTime: ws.GetCurrentServerTime(),
	}

	if tank.IsDead() {
		hit.KillerID = event.OwnerID
		s.recorder.RecordKill(event.OwnerID, event.TankID, event.Point)

		spawn := s.pickSpawn()
		tank.Reset(&spawn)
	}

	s.hub.Broadcast(hit)
}

func (s *server) handleDisconnect(client *ws.Client) {
	if client.PlayerID == "" {
		return
	}
	s.removeTank(client.PlayerID)
	s.hub.Broadcast(&ws.PlayerLeftMessage{
		Type:       ws.MessageTypePlayerLeft,
		PlayerID:   client.PlayerID,
		ServerTime: ws.GetCurrentServerTime(),
	})
}

func (s *server) removeTank(playerID string) {
	s.registry.RemoveByID(playerID)
	s.logger.WithField("player", playerID).Info("игрок вышел")
}

func (s *server) removeExpiredProjectiles() {
	var expired []string
	s.registry.Each(func(e game.Entity) {
		if p, ok := e.(*game.Projectile); ok && p.IsExpired() {
			expired = append(expired, p.ID())
		}
	})
	for _, id := range expired {
		s.registry.RemoveByID(id)
	}
}

func (s *server) pickSpawn() mgl64.Vec3 {
	if len(s.spawnPoints) == 0 {
		return mgl64.Vec3{0, s.grid.HeightAt(0, 0) + 2.0, 0}
	}
	spawn := s.spawnPoints[s.nextSpawn%len(s.spawnPoints)]
	s.nextSpawn++
	return spawn
}
