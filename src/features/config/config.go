package config

// Config holds the application configuration.
type Config struct {
	Targets []string `yaml:"targets" validate:"required,min=1"`
	State   State    `yaml:"state"`
	Trail   Trail    `yaml:"trail"`
	Monitor Monitor  `yaml:"monitor"`
	Logger  Logger   `yaml:"logger"`
	Server  Server   `yaml:"server"`
}

// State holds the durable state file location.
type State struct {
	Path string `yaml:"path" validate:"required"`
}

// Trail holds the audit trail location.
type Trail struct {
	Path string `yaml:"path" validate:"required"`
}

// Monitor tunes the change-detection engine.
type Monitor struct {
	// IgnoreHidden excludes paths whose final name component starts
	// with a dot, during baseline and live monitoring alike.
	IgnoreHidden bool `yaml:"ignore_hidden"`
	// ChunkSize is the hashing read size in bytes; zero means 1 MiB.
	ChunkSize int `yaml:"chunk_size"`
}

// Logger holds the configuration for app logging.
type Logger struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Server holds the status/metrics HTTP server configuration.
type Server struct {
	Enabled     bool   `yaml:"enabled"`
	PrintRoutes bool   `yaml:"show_routes"`
	Port        uint32 `yaml:"port"`
}
