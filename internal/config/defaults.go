package config

const (
	defaultLibraryDir             = "~/Pictures/Strobe"
	defaultLogDir                 = "~/.local/share/strobe/logs"
	defaultAPIBind                = "127.0.0.1:7512"
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultLogRetentionDays       = 30
	defaultMaxAgeDays             = 7
	defaultMaxPairCount           = 500
	defaultCleanupIntervalMinutes = 60
	defaultCountdownSeconds       = 3
	defaultMinimumDisplaySeconds  = 10
	defaultErrorRecoverySeconds   = 2
	defaultDisplaySeconds         = 5
	defaultRescanSeconds          = 10
	defaultPrefetchWindow         = 5
	defaultNotifyRequestTimeout   = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir: defaultLibraryDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		Retention: Retention{
			MaxAgeDays:             defaultMaxAgeDays,
			MaxPairCount:           defaultMaxPairCount,
			AutomaticCleanup:       true,
			CleanupIntervalMinutes: defaultCleanupIntervalMinutes,
		},
		Capture: Capture{
			CountdownSeconds:      defaultCountdownSeconds,
			MinimumDisplaySeconds: defaultMinimumDisplaySeconds,
			ErrorRecoverySeconds:  defaultErrorRecoverySeconds,
		},
		Slideshow: Slideshow{
			DisplaySeconds: defaultDisplaySeconds,
			RescanSeconds:  defaultRescanSeconds,
			PrefetchWindow: defaultPrefetchWindow,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			PairReady:      true,
			Cleanup:        true,
			Errors:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
