package observability

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes every pipeline, cache and HTTP event to a logger at debug
// level. Failed decode, sort and encode steps are logged at warn level.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks that log to logger. A nil logger discards.
func NewLogHooks(logger *log.Logger) *LogHooks {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &LogHooks{logger: logger.WithPrefix("hooks")}
}

func (h *LogHooks) step(step string, err error, keyvals ...any) {
	if err != nil {
		h.logger.Warn(step+" failed", append(keyvals, "err", err)...)
		return
	}
	h.logger.Debug(step, keyvals...)
}

func (h *LogHooks) OnDecodeComplete(_ context.Context, nodeCount int, d time.Duration, err error) {
	h.step("decode", err, "nodes", nodeCount, "took", d)
}

func (h *LogHooks) OnPassStart(_ context.Context, pass string, nodeCount int) {
	h.logger.Debug("pass start", "pass", pass, "nodes", nodeCount)
}

func (h *LogHooks) OnPassComplete(_ context.Context, pass string, changes int, d time.Duration) {
	h.logger.Debug("pass done", "pass", pass, "changes", changes, "took", d)
}

func (h *LogHooks) OnSortComplete(_ context.Context, nodeCount int, d time.Duration, err error) {
	h.step("sort", err, "nodes", nodeCount, "took", d)
}

func (h *LogHooks) OnEncodeComplete(_ context.Context, size int, d time.Duration, err error) {
	h.step("encode", err, "bytes", size, "took", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, route string) {
	h.logger.Debug("request", "method", method, "route", route)
}

func (h *LogHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.logger.Debug("response", "method", method, "route", route, "status", status, "took", d)
}
