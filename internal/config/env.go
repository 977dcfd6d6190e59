package config

import (
	"os"
	"strconv"
	"time"
)

type envVar struct {
	name  string
	desc  string
	apply func(*Config, string)
}

var supportedEnvVars = []envVar{
	{
		// Only here for documentation purposes.  Does not override any values in the config as this environment variable
		// points to where the config should be loaded.  It is handled prior to loading the config.
		name:  "HAVEN_CONFIG_PATH",
		desc:  "Sets the path to the config file.  Default: OS-specific config directory",
		apply: func(c *Config, s string) {}, // Special case, no-op
	},
	{
		name:  "HAVEN_CONFIG_REMOTE_ENDPOINT",
		desc:  "Sets the GraphQL endpoint of the media library API.  Default: http://localhost:8080/graphql",
		apply: func(c *Config, s string) { c.Remote.Endpoint = s },
	},
	{
		name:  "HAVEN_CONFIG_REMOTE_TOKEN",
		desc:  "Sets the bearer token used against the media library API.  Default: None",
		apply: func(c *Config, s string) { c.Remote.Token = s },
	},
	{
		name:  "HAVEN_CONFIG_PLAYER_TYPE",
		desc:  "Sets the video player type.  Should be one of `mpv` or `custom`.  Default: mpv",
		apply: func(c *Config, s string) { c.Player.Type = s },
	},
	{
		name:  "HAVEN_CONFIG_PLAYER_PATH",
		desc:  "Sets the path to a video player binary.  Default: mpv",
		apply: func(c *Config, s string) { c.Player.Path = s },
	},
	{
		name:  "HAVEN_CONFIG_PLAYER_ARGS",
		desc:  "Sets additional video player arguments.  Default: None",
		apply: func(c *Config, s string) { c.Player.Args = s },
	},
	{
		name: "HAVEN_CONFIG_PLAYER_ADAPTIVE_STREAMING",
		desc: "Whether the player may be handed DASH manifests.  Default: true",
		apply: func(c *Config, s string) {
			if v, err := strconv.ParseBool(s); err == nil {
				c.Player.AdaptiveStreaming = &v
			}
		},
	},
	{
		name:  "HAVEN_CONFIG_PLAYER_SOCKET_PATH",
		desc:  "Sets the player IPC socket path.  Default: OS-specific",
		apply: func(c *Config, s string) { c.Player.SocketPath = s },
	},
	{
		name: "HAVEN_CONFIG_CAPTIONS_ENABLED",
		desc: "Sets the stored caption preference.  Default: true",
		apply: func(c *Config, s string) {
			if v, err := strconv.ParseBool(s); err == nil {
				c.Captions.Enabled = &v
			}
		},
	},
	{
		name: "HAVEN_CONFIG_PROGRESS_WATCHED_THRESHOLD",
		desc: "Percentage that must be exceeded for a video to count as watched.  Default: 95",
		apply: func(c *Config, s string) {
			if v, err := strconv.Atoi(s); err == nil {
				c.Progress.WatchedThreshold = v
			}
		},
	},
	{
		name: "HAVEN_CONFIG_HEARTBEAT_INTERVAL",
		desc: "Minimum wall-clock time between liveness heartbeats, e.g. `60s`.  Default: 60s",
		apply: func(c *Config, s string) {
			if v, err := time.ParseDuration(s); err == nil {
				c.Heartbeat.Interval = v
			}
		},
	},
	{
		name: "HAVEN_CONFIG_ANALYTICS_FORWARD",
		desc: "Forward engagement events to the media library API.  Default: false",
		apply: func(c *Config, s string) {
			if v, err := strconv.ParseBool(s); err == nil {
				c.Analytics.Forward = v
			}
		},
	},
	{
		name:  "HAVEN_CONFIG_ACTION_LOG_PATH",
		desc:  "Sets the watch-completion database path.  Default: OS-specific",
		apply: func(c *Config, s string) { c.ActionLog.Path = s },
	},
	{
		name:  "HAVEN_CONFIG_METRICS_LISTEN_ADDR",
		desc:  "Enables the prometheus listener on the given address.  Default: disabled",
		apply: func(c *Config, s string) { c.Metrics.ListenAddr = s },
	},
	{
		name:  "HAVEN_CONFIG_LOGGING_LEVEL",
		desc:  "Sets the logging level.  One of: trace, debug, info, warn, error.  Default: info",
		apply: func(c *Config, s string) { c.Logging.Level = s },
	},
	{
		name:  "HAVEN_CONFIG_LOGGING_FILE_PATH",
		desc:  "Sets the logging file path.  Default: OS-specific",
		apply: func(c *Config, s string) { c.Logging.FilePath = s },
	},
}

func applyEnvVarOverrides(c *Config) {
	for _, envVar := range supportedEnvVars {
		if value := os.Getenv(envVar.name); value != "" {
			envVar.apply(c, value)
		}
	}
}
