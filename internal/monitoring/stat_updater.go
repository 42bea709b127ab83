package monitoring

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/lmoren/listly-be/internal/models"
	"github.com/lmoren/listly-be/internal/services"
	ws "github.com/lmoren/listly-be/internal/websocket"
)

// StatUpdater periodically samples host CPU and memory, keeps the latest
// snapshot for the stats endpoint and broadcasts it to websocket clients.
type StatUpdater struct {
	hub      Broadcaster
	eventSvc services.EventServiceProvider
	ticker   *time.Ticker
	done     chan bool

	mu     sync.RWMutex
	latest models.HostStats

	lastCPUAlert time.Time
}

// Broadcaster is the piece of the hub the updater needs.
type Broadcaster interface {
	BroadcastAll(message []byte)
}

// NewStatUpdater creates a new StatUpdater.
func NewStatUpdater(hub Broadcaster, eventSvc services.EventServiceProvider) *StatUpdater {
	return &StatUpdater{
		hub:      hub,
		eventSvc: eventSvc,
		done:     make(chan bool),
	}
}

// Run starts the periodic updates.
func (su *StatUpdater) Run() {
	log.Info().Msg("Starting background stat updater...")
	su.ticker = time.NewTicker(15 * time.Second)
	defer su.ticker.Stop()

	// Run once immediately on start
	su.sample()

	for {
		select {
		case <-su.done:
			log.Info().Msg("Stopping background stat updater.")
			return
		case <-su.ticker.C:
			su.sample()
		}
	}
}

// Stop halts the periodic updates.
func (su *StatUpdater) Stop() {
	su.done <- true
}

// Latest returns the most recent snapshot.
func (su *StatUpdater) Latest() models.HostStats {
	su.mu.RLock()
	defer su.mu.RUnlock()
	return su.latest
}

func (su *StatUpdater) sample() {
	stats := models.HostStats{SampledAt: time.Now().UTC()}

	// cpu.Percent with a zero interval compares against the previous call,
	// which matches the ticker cadence after the first sample.
	cpuPercents, err := cpu.Percent(0, false)
	if err != nil {
		log.Warn().Err(err).Msg("StatUpdater: failed to sample CPU")
	} else if len(cpuPercents) > 0 {
		stats.CPUPercent = cpuPercents[0]
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		log.Warn().Err(err).Msg("StatUpdater: failed to sample memory")
	} else {
		stats.MemoryPercent = vm.UsedPercent
		stats.MemoryUsedMB = vm.Used / 1024 / 1024
		stats.MemoryTotalMB = vm.Total / 1024 / 1024
	}

	su.mu.Lock()
	su.latest = stats
	su.mu.Unlock()

	if su.hub != nil {
		su.hub.BroadcastAll(ws.NewMessage(ws.ActionSystemStats, stats))
	}
	su.checkAndAlertForHighCPU(stats)
}

func (su *StatUpdater) checkAndAlertForHighCPU(stats models.HostStats) {
	const highCPUThreshold = 90.0
	const alertCooldown = 15 * time.Minute

	if stats.CPUPercent <= highCPUThreshold || su.eventSvc == nil {
		return
	}
	if time.Since(su.lastCPUAlert) < alertCooldown {
		return
	}

	msg := fmt.Sprintf("High CPU usage (%.1f%%) on the backend host.", stats.CPUPercent)
	if err := su.eventSvc.CreateEvent(context.Background(), "system.alert.cpu", "warn", msg, nil); err != nil {
		log.Error().Err(err).Msg("StatUpdater: failed to record CPU alert")
		return
	}
	su.lastCPUAlert = time.Now()
}
