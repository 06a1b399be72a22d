package config

import (
	"errors"
	"os"
	"strings"
	"time"
)

// Config holds everything read from the environment at startup. A .env file
// is honored when present (loaded by the caller via godotenv).
type Config struct {
	APIKey     string
	Model      string
	UploadDir  string
	SeedFiles  []string
	RunTimeout time.Duration
	Port       string
	MockMode   bool
}

func defaultConfig() Config {
	return Config{
		Model:      "gpt-4o-mini",
		UploadDir:  "./uploads",
		SeedFiles:  []string{"sample_chess_1.pdf"},
		RunTimeout: 5 * time.Minute,
		Port:       "8080",
	}
}

// Load reads the configuration from environment variables on top of the
// defaults. It does not validate; call Validate afterwards.
func Load() (Config, error) {
	c := defaultConfig()

	c.APIKey = os.Getenv("OPENAI_API_KEY")
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("UPLOAD_DIR"); v != "" {
		c.UploadDir = v
	}
	if v := os.Getenv("SEED_FILES"); v != "" {
		c.SeedFiles = c.SeedFiles[:0]
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				c.SeedFiles = append(c.SeedFiles, p)
			}
		}
	}
	if v := os.Getenv("RUN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, errors.New("invalid RUN_TIMEOUT: " + v)
		}
		c.RunTimeout = d
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Port = v
	}
	c.MockMode = os.Getenv("MOCK_PROVIDER") == "1"

	return c, nil
}

func (c Config) Validate() error {
	if c.APIKey == "" && !c.MockMode {
		return errors.New("missing OPENAI_API_KEY (set MOCK_PROVIDER=1 to run without the remote service)")
	}
	if c.UploadDir == "" {
		return errors.New("missing UPLOAD_DIR")
	}
	if len(c.SeedFiles) == 0 {
		return errors.New("missing SEED_FILES")
	}
	if c.RunTimeout < 0 {
		return errors.New("RUN_TIMEOUT must be >= 0")
	}
	return nil
}
