package config

// createDefaultConfig creates a new Config with sensible default values.
func createDefaultConfig() *Config {
	return &Config{
		Targets: []string{"."},
		State: State{
			Path: "./vigil_state.json",
		},
		Trail: Trail{
			Path: "./vigil.log",
		},
		Monitor: Monitor{
			IgnoreHidden: true,
			ChunkSize:    1 << 20,
		},
		Logger: Logger{
			Level:  "info",
			Format: "text",
		},
		Server: Server{
			Enabled:     false,
			PrintRoutes: false,
			Port:        9135,
		},
	}
}
