package params

import "time"

type WebDaemonConfig struct {
	ListenerConfig `yaml:",inline" mapstructure:",squash"`

	// CountCacheTTL is how long tile count responses are memoized.
	CountCacheTTL time.Duration `yaml:"countCacheTTL" mapstructure:"countCacheTTL"`

	// MaxListTiles limits the tiles a single /tiles request may stream.
	MaxListTiles int `yaml:"maxListTiles" mapstructure:"maxListTiles"`

	// MaxIndexBytes limits the body of a POST /index request.
	MaxIndexBytes int64 `yaml:"maxIndexBytes" mapstructure:"maxIndexBytes"`
}

func DefaultWebListenerConfig() ListenerConfig {
	return ListenerConfig{
		Network: "tcp",
		Address: "localhost:3000",
	}
}

func DefaultWebDaemonConfig() *WebDaemonConfig {
	return &WebDaemonConfig{
		ListenerConfig: DefaultWebListenerConfig(),
		CountCacheTTL:  10 * time.Minute,
		MaxListTiles:   1_000_000,
		MaxIndexBytes:  32 << 20,
	}
}

func DefaultTestWebDaemonConfig() *WebDaemonConfig {
	d := DefaultWebDaemonConfig()
	d.Address = "localhost:3333"
	d.MaxListTiles = 10_000
	return d
}
