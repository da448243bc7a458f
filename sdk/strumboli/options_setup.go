package strumboli

import (
	"time"

	"github.com/strumboli/strumboli/internal/logger"
	"github.com/strumboli/strumboli/sdk/contracts"
)

// applyDefaultOptions sets default values for ClientOptions if not explicitly provided.
func applyDefaultOptions(opts ...contracts.Option) contracts.ClientOptions {
	options := &contracts.ClientOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}
	if options.LogLevel == 0 {
		options.LogLevel = contracts.InfoLevel
	}
	if options.Backend == "" {
		options.Backend = contracts.BackendRTMidi
	}
	if options.ClientName == "" {
		options.ClientName = "strumboli"
	}
	if options.DefaultDuration == 0 {
		options.DefaultDuration = 1500 * time.Millisecond
	}

	options.Logger.SetLevel(options.LogLevel)
	return *options
}
