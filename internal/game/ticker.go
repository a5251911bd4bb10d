package game

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"x-tanks/internal/physics"
)

// TickSystem интерфейс для всех игровых систем
type TickSystem interface {
	Update(delta float64) error
	GetName() string
	GetPriority() int // Приоритет выполнения (меньше = раньше)
}

// CollisionHandler получает доменные события коллизий, накопленные за
// физический шаг
type CollisionHandler func(events []CollisionEvent)

// PreStepHook вызывается до шага физики; место для применения ввода и
// сетевых команд на границе тика
type PreStepHook func(delta float64)

// GameTicker менеджер игрового цикла: на каждом тике применяет ввод,
// шагает физику, раздает события коллизий, обновляет сущности и
// прогоняет дополнительные системы по приоритету.
type GameTicker struct {
	targetTPS    int
	tickDuration time.Duration
	maxTickTime  time.Duration

	// isRunning и tickCount атомарные: статистику читают снаружи
	// горутины цикла
	isRunning    atomic.Bool
	tickCount    atomic.Uint64
	startTime    time.Time
	lastTickTime time.Time

	world      *physics.World
	registry   *EntityRegistry
	classifier *Classifier

	preStepHooks      []PreStepHook
	collisionHandlers []CollisionHandler

	systems      []TickSystem
	systemsMutex sync.RWMutex

	perfMonitor *PerformanceMonitor

	ctx    context.Context
	cancel context.CancelFunc

	// metricsMu защищает метрики тиков от конкурентного чтения GetStats
	metricsMu       sync.Mutex
	averageTickTime time.Duration
	maxObservedTick time.Duration
	slowTicks       uint64

	logger           *logrus.Entry
	warningThreshold time.Duration
}

// NewGameTicker создает игровой цикл с целевой частотой тиков
func NewGameTicker(targetTPS int, world *physics.World, registry *EntityRegistry, classifier *Classifier, logger *logrus.Logger) *GameTicker {
	if targetTPS <= 0 {
		targetTPS = 60
	}

	tickDuration := time.Second / time.Duration(targetTPS)
	maxTickTime := tickDuration * 2

	ctx, cancel := context.WithCancel(context.Background())

	return &GameTicker{
		targetTPS:    targetTPS,
		tickDuration: tickDuration,
		maxTickTime:  maxTickTime,
		world:        world,
		registry:     registry,
		classifier:   classifier,
		perfMonitor:  NewPerformanceMonitor(50, tickDuration/4),
		ctx:          ctx,
		cancel:       cancel,
		logger:       logger.WithField("system", "ticker"),
		// Предупреждение при 50% от времени тика
		warningThreshold: tickDuration / 2,
	}
}

// OnPreStep регистрирует хук, выполняемый до шага физики
func (gt *GameTicker) OnPreStep(hook PreStepHook) {
	gt.preStepHooks = append(gt.preStepHooks, hook)
}

// OnCollisions регистрирует обработчик событий коллизий тика
func (gt *GameTicker) OnCollisions(handler CollisionHandler) {
	gt.collisionHandlers = append(gt.collisionHandlers, handler)
}

// RegisterSystem добавляет дополнительную систему в игровой цикл
func (gt *GameTicker) RegisterSystem(system TickSystem) {
	gt.systemsMutex.Lock()
	defer gt.systemsMutex.Unlock()

	gt.systems = append(gt.systems, system)

	// Сортировка вставкой по приоритету (меньше = раньше)
	for i := len(gt.systems) - 1; i > 0; i-- {
		if gt.systems[i].GetPriority() < gt.systems[i-1].GetPriority() {
			gt.systems[i], gt.systems[i-1] = gt.systems[i-1], gt.systems[i]
		} else {
			break
		}
	}

	gt.perfMonitor.initSystemMetrics(system.GetName())

	gt.logger.WithFields(logrus.Fields{
		"name":     system.GetName(),
		"priority": system.GetPriority(),
	}).Info("зарегистрирована система")
}

// Start запускает игровой цикл в отдельной горутине
func (gt *GameTicker) Start() error {
	if !gt.isRunning.CompareAndSwap(false, true) {
		return nil
	}

	gt.startTime = time.Now()
	gt.lastTickTime = gt.startTime

	gt.logger.WithFields(logrus.Fields{
		"tps":  gt.targetTPS,
		"tick": gt.tickDuration,
	}).Info("запуск игрового цикла")

	go gt.gameLoop()

	return nil
}

// Stop останавливает игровой цикл
func (gt *GameTicker) Stop() {
	if !gt.isRunning.CompareAndSwap(true, false) {
		return
	}

	gt.logger.WithField("ticks", gt.tickCount.Load()).Info("остановка игрового цикла")

	gt.cancel()
}

func (gt *GameTicker) gameLoop() {
	ticker := time.NewTicker(gt.tickDuration)
	defer ticker.Stop()

	for {
		select {
		case <-gt.ctx.Done():
			return

		case tickTime := <-ticker.C:
			gt.executeTick(tickTime)
		}
	}
}

func (gt *GameTicker) executeTick(tickTime time.Time) {
	tickStart := time.Now()
	deltaTime := tickTime.Sub(gt.lastTickTime)

	if deltaTime > gt.tickDuration*2 {
		gt.logger.WithFields(logrus.Fields{
			"delta":    deltaTime,
			"expected": gt.tickDuration,
		}).Warn("большая задержка между тиками")
		gt.metricsMu.Lock()
		gt.slowTicks++
		gt.metricsMu.Unlock()
	}

	gt.lastTickTime = tickTime

	gt.Tick(deltaTime.Seconds())

	totalTickTime := time.Since(tickStart)
	gt.updateTickMetrics(totalTickTime)
	gt.checkPerformance(totalTickTime)
}

// Tick выполняет один тик симуляции. Выделен отдельно, чтобы цикл
// можно было крутить детерминированно, без реального времени.
func (gt *GameTicker) Tick(delta float64) {
	gt.tickCount.Add(1)

	for _, hook := range gt.preStepHooks {
		hook(delta)
	}

	gt.world.Step(delta)

	if gt.classifier != nil {
		if events := gt.classifier.Drain(); len(events) > 0 {
			for _, handler := range gt.collisionHandlers {
				handler(events)
			}
		}
	}

	gt.registry.Update(delta)

	gt.executeAllSystems(delta)
}

func (gt *GameTicker) executeAllSystems(delta float64) {
	gt.systemsMutex.RLock()
	systems := make([]TickSystem, len(gt.systems))
	copy(systems, gt.systems)
	gt.systemsMutex.RUnlock()

	for _, system := range systems {
		gt.executeSystem(system, delta)
	}
}

func (gt *GameTicker) executeSystem(system TickSystem, delta float64) {
	systemStart := time.Now()
	systemName := system.GetName()

	defer func() {
		if r := recover(); r != nil {
			gt.logger.WithField("name", systemName).Errorf("паника в системе: %v", r)
			gt.perfMonitor.recordError(systemName)
		}
	}()

	err := system.Update(delta)

	executionTime := time.Since(systemStart)
	gt.perfMonitor.recordExecution(systemName, executionTime)

	if err != nil {
		gt.logger.WithField("name", systemName).WithError(err).Error("ошибка в системе")
		gt.perfMonitor.recordError(systemName)
	}
}

// GetTickCount текущее количество выполненных тиков
func (gt *GameTicker) GetTickCount() uint64 {
	return gt.tickCount.Load()
}

// GetStats статистика игрового цикла
func (gt *GameTicker) GetStats() map[string]interface{} {
	tickCount := gt.tickCount.Load()
	uptime := time.Since(gt.startTime)
	actualTPS := 0.0
	if uptime > 0 {
		actualTPS = float64(tickCount) / uptime.Seconds()
	}

	gt.metricsMu.Lock()
	averageTickTime := gt.averageTickTime
	maxObservedTick := gt.maxObservedTick
	slowTicks := gt.slowTicks
	gt.metricsMu.Unlock()

	gt.systemsMutex.RLock()
	systemsCount := len(gt.systems)
	gt.systemsMutex.RUnlock()

	return map[string]interface{}{
		"target_tps":        gt.targetTPS,
		"actual_tps":        actualTPS,
		"tick_count":        tickCount,
		"uptime_seconds":    uptime.Seconds(),
		"average_tick_time": averageTickTime,
		"max_observed_tick": maxObservedTick,
		"slow_ticks":        slowTicks,
		"is_running":        gt.isRunning.Load(),
		"systems_count":     systemsCount,
		"entities_count":    gt.registry.Len(),
	}
}

// PerfMonitor монитор производительности систем
func (gt *GameTicker) PerfMonitor() *PerformanceMonitor {
	return gt.perfMonitor
}

func (gt *GameTicker) updateTickMetrics(tickTime time.Duration) {
	gt.metricsMu.Lock()
	defer gt.metricsMu.Unlock()

	if tickTime > gt.maxObservedTick {
		gt.maxObservedTick = tickTime
	}

	// Простое скользящее среднее
	if gt.averageTickTime == 0 {
		gt.averageTickTime = tickTime
	} else {
		gt.averageTickTime = (gt.averageTickTime*9 + tickTime) / 10
	}
}

func (gt *GameTicker) checkPerformance(tickTime time.Duration) {
	if tickTime > gt.maxTickTime {
		gt.logger.WithFields(logrus.Fields{
			"tick":   tickTime,
			"max":    gt.maxTickTime,
			"target": gt.tickDuration,
		}).Error("тик превысил максимальное время")
	} else if tickTime > gt.warningThreshold {
		gt.logger.WithFields(logrus.Fields{
			"tick":   tickTime,
			"target": gt.tickDuration,
		}).Warn("медленный тик")
	}
}
