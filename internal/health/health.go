package health

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/disk"

	"field-agent/internal/store"
)

// lowDiskPercent marks the device as degraded: screenshots and the cache
// need room to be written
const lowDiskPercent = 95.0

type HealthChecker struct {
	kv      store.KV
	dataDir string
	driver  string
}

type HealthStatus struct {
	Status string      `json:"status"`
	Store  StoreHealth `json:"store"`
	Disk   *DiskHealth `json:"disk,omitempty"`
}

type StoreHealth struct {
	Driver       string `json:"driver"`
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
	Error        string `json:"error,omitempty"`
}

type DiskHealth struct {
	Path        string  `json:"path"`
	TotalBytes  uint64  `json:"total_bytes"`
	FreeBytes   uint64  `json:"free_bytes"`
	UsedPercent float64 `json:"used_percent"`
}

func NewHealthChecker(kv store.KV, driver, dataDir string) *HealthChecker {
	return &HealthChecker{kv: kv, driver: driver, dataDir: dataDir}
}

// CheckBasic pings the store and reads disk usage of the data directory.
// Status is "unhealthy" when the store is down and "degraded" when the disk
// is nearly full.
func (h *HealthChecker) CheckBasic(ctx context.Context) HealthStatus {
	storeHealth := h.checkStore(ctx)
	diskHealth := h.checkDisk(ctx)

	status := "healthy"
	switch {
	case storeHealth.Status != "healthy":
		status = "unhealthy"
	case diskHealth != nil && diskHealth.UsedPercent >= lowDiskPercent:
		status = "degraded"
	}

	return HealthStatus{
		Status: status,
		Store:  storeHealth,
		Disk:   diskHealth,
	}
}

func (h *HealthChecker) checkStore(ctx context.Context) StoreHealth {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.kv.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return StoreHealth{
			Driver:       h.driver,
			Status:       "unhealthy",
			ResponseTime: responseTime,
			Error:        err.Error(),
		}
	}

	return StoreHealth{
		Driver:       h.driver,
		Status:       "healthy",
		ResponseTime: responseTime,
	}
}

// checkDisk returns nil when usage cannot be read (e.g. sandboxed devices)
func (h *HealthChecker) checkDisk(ctx context.Context) *DiskHealth {
	usage, err := disk.UsageWithContext(ctx, h.dataDir)
	if err != nil {
		return nil
	}
	return &DiskHealth{
		Path:        h.dataDir,
		TotalBytes:  usage.Total,
		FreeBytes:   usage.Free,
		UsedPercent: usage.UsedPercent,
	}
}
