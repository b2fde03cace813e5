package scraper

import (
	"sort"
	"sync"
	"time"

	"github.com/wealthpath/pricewatch/internal/model"
)

// PlatformMetrics holds scrape counters for one platform within a run
type PlatformMetrics struct {
	Platform      model.Platform
	Successes     int
	Failures      int
	LastError     string
	TotalDuration time.Duration
}

// SuccessRate returns successes over attempts, or 1 when nothing was attempted.
func (m *PlatformMetrics) SuccessRate() float64 {
	total := m.Successes + m.Failures
	if total == 0 {
		return 1
	}
	return float64(m.Successes) / float64(total)
}

// MetricsCollector collects and aggregates scrape metrics
type MetricsCollector struct {
	mu                sync.RWMutex
	currentRun        map[model.Platform]*PlatformMetrics
	lastRun           map[model.Platform]*PlatformMetrics
	totalRuns         int
	successfulScrapes int
	failedScrapes     int
	lastRunTime       time.Time
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		currentRun: make(map[model.Platform]*PlatformMetrics),
		lastRun:    make(map[model.Platform]*PlatformMetrics),
	}
}

func (mc *MetricsCollector) entry(platform model.Platform) *PlatformMetrics {
	m, ok := mc.currentRun[platform]
	if !ok {
		m = &PlatformMetrics{Platform: platform}
		mc.currentRun[platform] = m
	}
	return m
}

// RecordSuccess records a scrape that produced a price
func (mc *MetricsCollector) RecordSuccess(platform model.Platform, duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	m := mc.entry(platform)
	m.Successes++
	m.TotalDuration += duration
	mc.successfulScrapes++
}

// RecordFailure records a scrape that failed or produced no price
func (mc *MetricsCollector) RecordFailure(platform model.Platform, duration time.Duration, err error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	m := mc.entry(platform)
	m.Failures++
	m.TotalDuration += duration
	if err != nil {
		m.LastError = err.Error()
	}
	mc.failedScrapes++
}

// FinishRun marks the current run as complete and moves metrics to lastRun
func (mc *MetricsCollector) FinishRun() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.totalRuns++
	mc.lastRunTime = time.Now()
	mc.lastRun = mc.currentRun
	mc.currentRun = make(map[model.Platform]*PlatformMetrics)
}

// GetLastRunMetrics returns a copy of the metrics from the last completed run
func (mc *MetricsCollector) GetLastRunMetrics() map[model.Platform]PlatformMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	result := make(map[model.Platform]PlatformMetrics, len(mc.lastRun))
	for k, v := range mc.lastRun {
		result[k] = *v
	}
	return result
}

// MetricsSummary provides an overview of scraping performance
type MetricsSummary struct {
	TotalRuns         int
	SuccessfulScrapes int
	FailedScrapes     int
	LastRunTime       time.Time
	LastRunSuccesses  int
	LastRunFailures   int
	LastRunDuration   time.Duration
}

func (mc *MetricsCollector) GetSummary() MetricsSummary {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	s := MetricsSummary{
		TotalRuns:         mc.totalRuns,
		SuccessfulScrapes: mc.successfulScrapes,
		FailedScrapes:     mc.failedScrapes,
		LastRunTime:       mc.lastRunTime,
	}
	for _, m := range mc.lastRun {
		s.LastRunSuccesses += m.Successes
		s.LastRunFailures += m.Failures
		s.LastRunDuration += m.TotalDuration
	}
	return s
}

// PlatformHealth is the per-platform part of HealthStatus
type PlatformHealth struct {
	Status      string  `json:"status"`
	Successes   int     `json:"successes"`
	Failures    int     `json:"failures"`
	SuccessRate float64 `json:"successRate"`
	LastError   string  `json:"lastError,omitempty"`
}

// HealthStatus represents the health of the scraper system
type HealthStatus struct {
	Healthy            bool                      `json:"healthy"`
	LastRunTime        *time.Time                `json:"lastRunTime"`
	NextRunTime        *time.Time                `json:"nextRunTime"`
	TotalRuns          int                       `json:"totalRuns"`
	UnhealthyPlatforms []string                  `json:"unhealthyPlatforms,omitempty"`
	Platforms          map[string]PlatformHealth `json:"platforms"`
	Message            string                    `json:"message,omitempty"`
}

// GetHealthStatus reports the last completed run. A platform is unhealthy below a
// 70% success rate; the scraper is healthy while no platform is unhealthy.
func (mc *MetricsCollector) GetHealthStatus(nextRunTime time.Time) HealthStatus {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	status := HealthStatus{
		TotalRuns: mc.totalRuns,
		Platforms: make(map[string]PlatformHealth),
	}
	if !mc.lastRunTime.IsZero() {
		t := mc.lastRunTime
		status.LastRunTime = &t
	}
	if !nextRunTime.IsZero() {
		status.NextRunTime = &nextRunTime
	}

	for platform, m := range mc.lastRun {
		h := PlatformHealth{
			Status:      "healthy",
			Successes:   m.Successes,
			Failures:    m.Failures,
			SuccessRate: m.SuccessRate(),
			LastError:   m.LastError,
		}
		if h.SuccessRate < 0.7 {
			h.Status = "unhealthy"
			status.UnhealthyPlatforms = append(status.UnhealthyPlatforms, string(platform))
		}
		status.Platforms[string(platform)] = h
	}
	sort.Strings(status.UnhealthyPlatforms)

	switch {
	case mc.totalRuns == 0:
		status.Healthy = true
		status.Message = "No price check runs recorded yet"
	case len(status.UnhealthyPlatforms) == 0:
		status.Healthy = true
		status.Message = "Scraper is operating normally"
	default:
		status.Message = "Some platforms are experiencing issues"
	}

	return status
}
