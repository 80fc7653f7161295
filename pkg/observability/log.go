package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by logging at debug level.
type LogHooks struct {
	Logger *log.Logger
}

// NewLogHooks returns hooks that log to logger. The CLI installs them for
// --verbose runs.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{Logger: logger}
}

func (h *LogHooks) OnViewStart(_ context.Context, view string, nodeCount int) {
	h.Logger.Debug("view start", "view", view, "nodes", nodeCount)
}

func (h *LogHooks) OnViewComplete(_ context.Context, view string, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("view failed", "view", view, "duration", d, "err", err)
		return
	}
	h.Logger.Debug("view done", "view", view, "duration", d)
}

func (h *LogHooks) OnRenderStart(_ context.Context, format string) {
	h.Logger.Debug("render start", "format", format)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, format string, d time.Duration, err error) {
	h.Logger.Debug("render done", "format", format, "duration", d, "err", err)
}

func (h *LogHooks) OnLoadStart(_ context.Context, backend string) {
	h.Logger.Debug("load start", "backend", backend)
}

func (h *LogHooks) OnLoadComplete(_ context.Context, backend string, nodeCount int, d time.Duration, err error) {
	h.Logger.Debug("load done", "backend", backend, "nodes", nodeCount, "duration", d, "err", err)
}

func (h *LogHooks) OnMalformed(_ context.Context, backend, record, field string) {
	h.Logger.Debug("malformed field dropped", "backend", backend, "record", record, "field", field)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.Logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.Logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, route string) {
	h.Logger.Debug("request", "method", method, "route", route)
}

func (h *LogHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.Logger.Debug("response", "method", method, "route", route, "status", status, "duration", d)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ StoreHooks    = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ APIHooks      = (*LogHooks)(nil)
)
