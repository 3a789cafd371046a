// Package zap adapts a *zap.Logger to querycache.Logger.
package zap

import (
	"sort"

	"github.com/unkn0wn-root/querycache"
	"go.uber.org/zap"
)

type ZapLogger struct{ L *zap.Logger }

var _ querycache.Logger = ZapLogger{}

// New returns an adapter logging under the given component name.
func New(l *zap.Logger, component string) ZapLogger {
	if component != "" {
		l = l.Named(component)
	}
	return ZapLogger{L: l}
}

func (z ZapLogger) Debug(msg string, f querycache.Fields) { z.L.Debug(msg, zf(f)...) }
func (z ZapLogger) Info(msg string, f querycache.Fields)  { z.L.Info(msg, zf(f)...) }
func (z ZapLogger) Warn(msg string, f querycache.Fields)  { z.L.Warn(msg, zf(f)...) }
func (z ZapLogger) Error(msg string, f querycache.Fields) { z.L.Error(msg, zf(f)...) }

// zf converts fields in key order so console output is stable.
func zf(f querycache.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]zap.Field, 0, len(f))
	for _, k := range keys {
		if err, ok := f[k].(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, f[k]))
	}
	return out
}
