package config

const (
	defaultConfigPath         = "~/.config/mkvauto/config.toml"
	projectConfigName         = "mkvauto.toml"
	defaultLibraryDir         = "~/Media"
	defaultLogDir             = "~/.local/share/mkvauto/logs"
	defaultStateDir           = "~/.local/share/mkvauto"
	defaultMoviesDir          = "Movies"
	defaultTVDir              = "TV Shows"
	defaultMakemkvBinary      = "makemkvcon"
	defaultFFprobeBinary      = "ffprobe"
	defaultEjectBinary        = "eject"
	defaultOpticalDrive       = "/dev/sr0"
	defaultInfoTimeout        = 300
	defaultMinLength          = 600
	defaultMinEpisodeDuration = 18
	defaultMaxEpisodeDuration = 70
	defaultMinMovieDuration   = 75
	defaultTieBreakDuration   = 90
	defaultFallbackGiBPerHour = 1.0
	defaultCheckInterval      = 5
	defaultRetryCount         = 3
	defaultRetryDelay         = 10
	defaultSettleDelay        = 3
	defaultDiscDBBackend      = "json"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogMaxSizeMB       = 10
	defaultLogMaxBackups      = 5
	defaultLogRetentionDays   = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir: defaultLibraryDir,
			LogDir:     defaultLogDir,
			StateDir:   defaultStateDir,
		},
		Library: Library{
			MoviesDir: defaultMoviesDir,
			TVDir:     defaultTVDir,
		},
		MakeMKV: MakeMKV{
			Binary:        defaultMakemkvBinary,
			FFprobeBinary: defaultFFprobeBinary,
			EjectBinary:   defaultEjectBinary,
			OpticalDrive:  defaultOpticalDrive,
			InfoTimeout:   defaultInfoTimeout,
			MinLength:     defaultMinLength,
		},
		Detection: Detection{
			MinEpisodeDuration: defaultMinEpisodeDuration,
			MaxEpisodeDuration: defaultMaxEpisodeDuration,
			MinMovieDuration:   defaultMinMovieDuration,
			TieBreakDuration:   defaultTieBreakDuration,
			MinTitleSeconds:    defaultMinLength,
			AutoEject:          true,
			FallbackGiBPerHour: defaultFallbackGiBPerHour,
			ForcedTypes:        map[string]string{},
		},
		DiscDB: DiscDB{
			Backend: defaultDiscDBBackend,
		},
		Service: Service{
			CheckInterval: defaultCheckInterval,
			RetryCount:    defaultRetryCount,
			RetryDelay:    defaultRetryDelay,
			SettleDelay:   defaultSettleDelay,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			MaxSizeMB:     defaultLogMaxSizeMB,
			MaxBackups:    defaultLogMaxBackups,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
