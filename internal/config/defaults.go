package config

const (
	defaultOutputDir              = "."
	defaultLogDir                 = "~/.local/share/luamaker/logs"
	defaultAppInfoBaseURL         = "https://steamui.com"
	defaultAppInfoRequestTimeout  = 30
	defaultSteamCmdDir            = "~/.local/share/luamaker/steamcmd"
	defaultSteamCmdDownloadURL    = "https://steamcdn-a.akamaihd.net/client/installer/steamcmd.zip"
	defaultSteamCmdTimeoutSeconds = 120
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		AppInfo: AppInfo{
			BaseURL:        defaultAppInfoBaseURL,
			RequestTimeout: defaultAppInfoRequestTimeout,
		},
		SteamCmd: SteamCmd{
			Enabled:     true,
			Dir:         defaultSteamCmdDir,
			DownloadURL: defaultSteamCmdDownloadURL,
			Timeout:     defaultSteamCmdTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
