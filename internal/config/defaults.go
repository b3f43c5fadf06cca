package config

const (
	defaultInputDir            = "~/recordings/inbox"
	defaultStoreDir            = "~/recordings/bundles"
	defaultLogDir              = "~/.local/share/transcriber/logs"
	defaultAudioBaseURL        = "http://localhost:8080/v1/"
	defaultAudioModel          = "whisper-1"
	defaultAudioTimeoutSeconds = 600
	defaultTextBaseURL         = "http://localhost:8080/api/"
	defaultTextTimeoutSeconds  = 120
	defaultStableDelaySeconds  = 5.0
	defaultRetryInitialSeconds = 1.0
	defaultRetryMaxSeconds     = 3600.0
	defaultNotifyTimeout       = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InputDir: defaultInputDir,
			StoreDir: defaultStoreDir,
			LogDir:   defaultLogDir,
		},
		Audio: Audio{
			BaseURL:        defaultAudioBaseURL,
			Model:          defaultAudioModel,
			TimeoutSeconds: defaultAudioTimeoutSeconds,
		},
		Text: Text{
			BaseURL:        defaultTextBaseURL,
			TimeoutSeconds: defaultTextTimeoutSeconds,
		},
		Daemon: Daemon{
			StableDelaySeconds:  defaultStableDelaySeconds,
			RetryInitialSeconds: defaultRetryInitialSeconds,
			RetryMaxSeconds:     defaultRetryMaxSeconds,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
