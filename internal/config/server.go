package config

// Demo account accepted by the stub target unless overridden
const (
	DefaultDemoEmail    = "demo@aicodementor.com"
	DefaultDemoPassword = "demo123"
)

// ServerConfig holds configuration for the stub target server
type ServerConfig struct {
	Port         string
	DemoEmail    string
	DemoPassword string
}

// LoadServerConfig loads stub server configuration from environment variables
func LoadServerConfig(getenv func(string) string) ServerConfig {
	port := getenv("PORT")
	if port == "" {
		port = "3000" // Same port the scenarios expect by default
	}

	cfg := ServerConfig{
		Port:         port,
		DemoEmail:    getenv("DEMO_EMAIL"),
		DemoPassword: getenv("DEMO_PASSWORD"),
	}
	if cfg.DemoEmail == "" {
		cfg.DemoEmail = DefaultDemoEmail
	}
	if cfg.DemoPassword == "" {
		cfg.DemoPassword = DefaultDemoPassword
	}

	return cfg
}
