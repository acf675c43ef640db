// Package extract turns a free-text deployment request into a normalized
// application identifier. The primary path asks a hosted model; pattern
// matching and a fixed default are successive fallbacks, so extraction
// always yields some identifier and never fails the pipeline.
package extract

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// DefaultIdentifier is returned when neither the model nor any pattern
// produces a usable name.
const DefaultIdentifier = "new-app"

// maxIdentifierLen caps identifiers at the DNS label limit, since the
// identifier becomes repository, descriptor and network names downstream.
const maxIdentifierLen = 63

// Strategy produces a candidate identifier for a request. An error or empty
// result makes the extractor fall through to the next strategy.
type Strategy interface {
	Extract(ctx context.Context, request string) (string, error)
}

// namePatterns is the ordered fallback list. First match wins; the order is
// observable behavior (ambiguous requests resolve to the earliest pattern)
// and must not be reordered silently.
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`called\s+["']?([a-z0-9][a-z0-9_-]*)`),
	regexp.MustCompile(`named\s+["']?([a-z0-9][a-z0-9_-]*)`),
	regexp.MustCompile(`["']([a-z0-9][a-z0-9_-]*)["']`),
	regexp.MustCompile(`([a-z0-9][a-z0-9_-]*)\s+service`),
	regexp.MustCompile(`([a-z0-9][a-z0-9_-]*)\s+app\b`),
	regexp.MustCompile(`deploy\s+(?:my\s+|a\s+|an\s+|the\s+|new\s+)*([a-z0-9][a-z0-9_-]*)`),
	regexp.MustCompile(`create\s+(?:my\s+|a\s+|an\s+|the\s+|new\s+)*([a-z0-9][a-z0-9_-]*)`),
}

// Extractor resolves application identifiers from natural-language requests.
type Extractor struct {
	model  Strategy
	logger *slog.Logger
}

// New constructs an Extractor. The model strategy may be nil, in which case
// only pattern matching and the default are used.
func New(model Strategy, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{model: model, logger: logger}
}

// Extract returns the application identifier for the request. It never
// returns an empty string and never fails: model errors are logged and
// absorbed, pattern matching covers the rest, and DefaultIdentifier is the
// final answer when nothing matches.
func (e *Extractor) Extract(ctx context.Context, request string) string {
	if e.model != nil {
		answer, err := e.model.Extract(ctx, request)
		switch {
		case err != nil:
			e.logger.Warn("model extraction failed, falling back to patterns", "error", err)
		default:
			if name := Normalize(answer); name != "" {
				e.logger.Debug("model extraction succeeded", "name", name)
				return name
			}
			e.logger.Warn("model returned no usable name, falling back to patterns")
		}
	}

	if name := matchPatterns(request); name != "" {
		e.logger.Debug("pattern extraction succeeded", "name", name)
		return name
	}

	e.logger.Warn("no name recognized in request, using default identifier", "default", DefaultIdentifier)
	return DefaultIdentifier
}

// matchPatterns runs the fixed pattern list against the lowercased request
// and returns the first normalized match.
func matchPatterns(request string) string {
	lowered := strings.ToLower(request)
	for _, pattern := range namePatterns {
		m := pattern.FindStringSubmatch(lowered)
		if len(m) < 2 {
			continue
		}
		if name := Normalize(m[1]); name != "" {
			return name
		}
	}
	return ""
}

// Normalize reduces a raw candidate to the identifier form [a-z0-9-]+:
// lowercase, separators mapped to hyphens, everything else dropped, repeated
// hyphens collapsed, leading/trailing hyphens trimmed, length clamped to a
// DNS label.
func Normalize(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == ' ':
			b.WriteByte('-')
		}
	}

	name := b.String()
	for strings.Contains(name, "--") {
		name = strings.ReplaceAll(name, "--", "-")
	}
	name = strings.Trim(name, "-")
	if len(name) > maxIdentifierLen {
		name = strings.TrimRight(name[:maxIdentifierLen], "-")
	}
	return name
}
