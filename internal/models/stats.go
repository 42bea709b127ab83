package models

import "time"

// HostStats is a point-in-time snapshot of the machine the backend runs on.
type HostStats struct {
	CPUPercent    float64   `json:"cpuPercent"`
	MemoryPercent float64   `json:"memoryPercent"`
	MemoryUsedMB  uint64    `json:"memoryUsedMb"`
	MemoryTotalMB uint64    `json:"memoryTotalMb"`
	SampledAt     time.Time `json:"sampledAt"`
}
