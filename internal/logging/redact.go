package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field keys treated as user content.
const (
	KeyQuery   = "query"
	KeyAnswer  = "answer"
	KeyPrompt  = "prompt"
	KeyContext = "context"
)

// Query tags a user query. It is hashed by the redacting core unless queries
// are explicitly allowed.
func Query(q string) zap.Field { return zap.String(KeyQuery, q) }

// Answer tags generated text. It is always hashed.
func Answer(a string) zap.Field { return zap.String(KeyAnswer, a) }

// Redact returns a short stable digest of s, enough to correlate log lines
// without revealing content.
func Redact(s string) string {
	sum := sha256.Sum256([]byte(s))
	return "sha256:" + hex.EncodeToString(sum[:4])
}

type redactingCore struct {
	zapcore.Core
	sensitive map[string]struct{}
}

// NewRedactingCore wraps core so sensitive keys are replaced by their digest,
// both in fields bound with With and fields passed on each entry. Map values
// (the details maps some call sites pass through zap.Any) are scrubbed one
// level deep.
func NewRedactingCore(core zapcore.Core, revealQueries bool) zapcore.Core {
	sensitive := map[string]struct{}{
		KeyAnswer:  {},
		KeyPrompt:  {},
		KeyContext: {},
	}
	if !revealQueries {
		sensitive[KeyQuery] = struct{}{}
	}
	return &redactingCore{Core: core, sensitive: sensitive}
}

func (c *redactingCore) With(fields []zapcore.Field) zapcore.Core {
	return &redactingCore{Core: c.Core.With(c.scrub(fields)), sensitive: c.sensitive}
}

func (c *redactingCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *redactingCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	return c.Core.Write(ent, c.scrub(fields))
}

func (c *redactingCore) scrub(fields []zapcore.Field) []zapcore.Field {
	out := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		if _, ok := c.sensitive[f.Key]; ok {
			out[i] = zap.String(f.Key, Redact(fieldString(f)))
			continue
		}
		if m, ok := f.Interface.(map[string]interface{}); ok && f.Type == zapcore.ReflectType {
			out[i] = zap.Any(f.Key, c.scrubMap(m))
			continue
		}
		out[i] = f
	}
	return out
}

func (c *redactingCore) scrubMap(m map[string]interface{}) map[string]interface{} {
	clean := make(map[string]interface{}, len(m))
	for k, v := range m {
		if _, ok := c.sensitive[k]; ok {
			clean[k] = Redact(fmt.Sprint(v))
			continue
		}
		clean[k] = v
	}
	return clean
}

func fieldString(f zapcore.Field) string {
	switch f.Type {
	case zapcore.StringType:
		return f.String
	case zapcore.StringerType, zapcore.ReflectType, zapcore.ErrorType:
		return fmt.Sprint(f.Interface)
	default:
		return fmt.Sprint(f.Integer, f.String, f.Interface)
	}
}
