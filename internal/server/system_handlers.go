package server

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/frontier/internal/database"
)

// SystemHandlers handles health and host-level monitoring endpoints.
type SystemHandlers struct {
	log         zerolog.Logger
	startupTime time.Time
	historyDB   *database.DB
	cacheDB     *database.DB
}

// NewSystemHandlers creates system handlers.
func NewSystemHandlers(log zerolog.Logger, historyDB, cacheDB *database.DB) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("handler", "system").Logger(),
		startupTime: time.Now(),
		historyDB:   historyDB,
		cacheDB:     cacheDB,
	}
}

// HandleHealth handles GET /api/system/health. Pings both databases; any
// failure flips the overall status and the HTTP code.
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	databases := map[string]string{}
	healthy := true
	for _, db := range []*database.DB{h.historyDB, h.cacheDB} {
		if db == nil {
			continue
		}
		if err := db.QuickCheck(ctx); err != nil {
			databases[db.Name()] = err.Error()
			healthy = false
		} else {
			databases[db.Name()] = "ok"
		}
	}

	status := "ok"
	code := http.StatusOK
	if !healthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	h.writeJSON(w, code, map[string]interface{}{
		"data": map[string]interface{}{
			"status":         status,
			"databases":      databases,
			"uptime_seconds": int(time.Since(h.startupTime).Seconds()),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleInfo handles GET /api/system/info with host resource usage.
func (h *SystemHandlers) HandleInfo(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"go_version":    runtime.Version(),
		"num_goroutine": runtime.NumGoroutine(),
		"num_cpu":       runtime.NumCPU(),
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		info["memory_used_percent"] = vm.UsedPercent
		info["memory_total_mb"] = vm.Total / 1024 / 1024
	}
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		info["cpu_percent"] = percents[0]
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": info,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
