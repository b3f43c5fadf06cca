package testsupport

import (
	"context"
	"testing"

	"github.com/kelno/audio-journal-transcriber/internal/bundle"
	"github.com/kelno/audio-journal-transcriber/internal/config"
	"github.com/kelno/audio-journal-transcriber/internal/logging"
)

// StubProber reports a fixed duration for every audio file.
type StubProber struct {
	Seconds float64
}

// Duration implements bundle.AudioProber.
func (p StubProber) Duration(context.Context, string) (float64, error) {
	if p.Seconds > 0 {
		return p.Seconds, nil
	}
	return 60, nil
}

// NewStore builds a bundle store over the config's store directory with a
// stubbed prober.
func NewStore(t testing.TB, cfg *config.Config) *bundle.Store {
	t.Helper()
	return bundle.NewStore(cfg.Paths.StoreDir, StubProber{}, logging.NewNop())
}
