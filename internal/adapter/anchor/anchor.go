// Package anchor mirrors audit entries to an external immutable-log
// service. Anchoring is best-effort: the trail's source of truth stays in
// the engine, and a down sink only costs the verified flag.
package anchor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"yield-vault-engine/internal/core/domain"

	"github.com/rs/zerolog"
)

// NoopSink accepts every entry without calling out anywhere, used when no
// anchoring endpoint is configured.
type NoopSink struct{}

// NewNoopSink creates a sink that anchors nothing.
func NewNoopSink() *NoopSink { return &NoopSink{} }

// Anchor returns a deterministic local reference for the entry.
func (s *NoopSink) Anchor(ctx context.Context, entry *domain.AuditEntry) (string, error) {
	return "local:" + digest(entry), nil
}

// LogSink writes the entry digest to the structured log instead of an
// external service. Useful in development and as a template for real
// sinks.
type LogSink struct {
	log zerolog.Logger
}

// NewLogSink creates a sink that anchors entries into the log stream.
func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log}
}

// Anchor logs the entry digest and returns it as the reference.
func (s *LogSink) Anchor(ctx context.Context, entry *domain.AuditEntry) (string, error) {
	ref := digest(entry)
	s.log.Info().
		Uint64("entry_id", entry.ID).
		Str("digest", ref).
		Msg("audit entry anchored")
	return "log:" + ref, nil
}

// digest is a stable fingerprint over the entry's immutable fields.
func digest(entry *domain.AuditEntry) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%s|%s|%s|%s|%t|%s|%d",
		entry.ID, entry.Actor, entry.Action, entry.Category,
		entry.Payload, entry.Success, entry.Reason, entry.Timestamp.UnixNano())
	return hex.EncodeToString(h.Sum(nil))
}
