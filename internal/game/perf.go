package game

import (
	"sync"
	"time"
)

// PerformanceMonitor отслеживает время выполнения каждой системы в
// скользящем окне последних тиков
type PerformanceMonitor struct {
	systemMetrics map[string]*SystemMetrics
	mutex         sync.RWMutex

	metricsWindow     int
	warningThreshold  time.Duration
	criticalThreshold time.Duration
}

// SystemMetrics метрики производительности одной системы
type SystemMetrics struct {
	Name              string
	LastExecutionTime time.Duration
	AverageTime       time.Duration
	MaxTime           time.Duration
	TotalExecutions   uint64
	Errors            uint64

	recentTimes  []time.Duration
	recentIndex  int
	windowFilled bool
}

// NewPerformanceMonitor создает монитор с окном усреднения
func NewPerformanceMonitor(windowSize int, warningThreshold time.Duration) *PerformanceMonitor {
	return &PerformanceMonitor{
		systemMetrics:     make(map[string]*SystemMetrics),
		metricsWindow:     windowSize,
		warningThreshold:  warningThreshold,
		criticalThreshold: warningThreshold * 2,
	}
}

func (pm *PerformanceMonitor) initSystemMetrics(systemName string) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	pm.systemMetrics[systemName] = &SystemMetrics{
		Name:        systemName,
		recentTimes: make([]time.Duration, pm.metricsWindow),
	}
}

func (pm *PerformanceMonitor) recordExecution(systemName string, executionTime time.Duration) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	metrics, exists := pm.systemMetrics[systemName]
	if !exists {
		return
	}

	metrics.LastExecutionTime = executionTime
	metrics.TotalExecutions++

	if executionTime > metrics.MaxTime {
		metrics.MaxTime = executionTime
	}

	metrics.recentTimes[metrics.recentIndex] = executionTime
	metrics.recentIndex = (metrics.recentIndex + 1) % pm.metricsWindow

	if !metrics.windowFilled && metrics.recentIndex == 0 {
		metrics.windowFilled = true
	}

	pm.recalculateAverage(metrics)
}

func (pm *PerformanceMonitor) recordError(systemName string) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	if metrics, exists := pm.systemMetrics[systemName]; exists {
		metrics.Errors++
	}
}

func (pm *PerformanceMonitor) recalculateAverage(metrics *SystemMetrics) {
	var total time.Duration
	var count int

	limit := pm.metricsWindow
	if !metrics.windowFilled {
		limit = metrics.recentIndex
	}

	for i := 0; i < limit; i++ {
		total += metrics.recentTimes[i]
		count++
	}

	if count > 0 {
		metrics.AverageTime = total / time.Duration(count)
	}
}

// GetSystemsStats срез метрик по всем системам
func (pm *PerformanceMonitor) GetSystemsStats() map[string]interface{} {
	pm.mutex.RLock()
	defer pm.mutex.RUnlock()

	systemsStats := make(map[string]interface{})

	for name, metrics := range pm.systemMetrics {
		systemsStats[name] = map[string]interface{}{
			"last_execution_time": metrics.LastExecutionTime,
			"average_time":        metrics.AverageTime,
			"max_time":            metrics.MaxTime,
			"total_executions":    metrics.TotalExecutions,
			"errors":              metrics.Errors,
		}
	}

	return systemsStats
}
