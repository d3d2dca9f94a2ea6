// Package images generates page illustrations through DashScope's
// text-to-image service.
//
// Illustration is best-effort enrichment: a disabled or failing synthesizer
// never blocks or fails story generation.
package images

import "context"

// Synthesizer is the illustration contract consumed by the enrichment
// service. Implementations must be safe for concurrent use.
type Synthesizer interface {
	// Enabled reports whether the synthesizer is configured. When false,
	// enrichment skips image generation entirely.
	Enabled() bool

	// Synthesize renders one illustration for prompt and returns its URL.
	Synthesize(ctx context.Context, prompt string) (string, error)
}
