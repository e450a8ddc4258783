package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultEndpointURL      = "YOUR_FASTAPI_NGROK_URL_HERE/generate"
	DefaultModelID          = "google/gemma-2-2b-jpn-it"
	DefaultTunnelRegion     = "jp"
	DefaultTimeout          = 120 * time.Second
	DefaultMaxNewTokens     = 512
	DefaultTemperature      = 0.7
	DefaultTopP             = 0.9
	DefaultHTTPPort         = "3000"
	DefaultInferencePort    = 8000
	DefaultInferenceCommand = "python -m uvicorn app:app --host 0.0.0.0 --port {port}"
)

// Config holds every setting the forwarder and its operator tooling read at start.
type Config struct {
	EndpointURL string
	ModelID     string

	// Outbound call. Zero Timeout disables the deadline.
	Timeout      time.Duration
	MaxNewTokens int
	Temperature  float64
	TopP         float64

	// Dev tooling
	HTTPPort         string
	TunnelToken      string
	TunnelRegion     string
	InferencePort    int
	InferenceCommand string
}

// Init loads .env.<FORWARDER_ENV>.local and .env.<FORWARDER_ENV> from dir into the process
// environment. Files that do not exist are skipped; variables already set win.
func Init(dir string) ([]string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(wd, "config")
	}

	env, exists := os.LookupEnv("FORWARDER_ENV")
	if !exists {
		env = "dev"
	}

	var loaded []string
	for _, name := range []string{".env." + env + ".local", ".env." + env} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return loaded, fmt.Errorf("load %s: %w", path, err)
		}
		loaded = append(loaded, path)
	}
	return loaded, nil
}

// Load reads the configuration from the environment, applying defaults.
func Load() (*Config, error) {
	cfg := &Config{
		EndpointURL:      getEnv("FASTAPI_ENDPOINT_URL", DefaultEndpointURL),
		ModelID:          getEnv("MODEL_ID", DefaultModelID),
		HTTPPort:         getEnv("HTTP_SERVER_PORT", DefaultHTTPPort),
		TunnelToken:      os.Getenv("NGROK_TOKEN"),
		TunnelRegion:     getEnv("NGROK_REGION", DefaultTunnelRegion),
		InferenceCommand: getEnv("INFERENCE_COMMAND", DefaultInferenceCommand),
	}

	var err error
	if cfg.Timeout, err = getDurationEnv("GENERATION_TIMEOUT", DefaultTimeout); err != nil {
		return nil, err
	}
	if cfg.MaxNewTokens, err = getIntEnv("GENERATION_MAX_NEW_TOKENS", DefaultMaxNewTokens); err != nil {
		return nil, err
	}
	if cfg.Temperature, err = getFloatEnv("GENERATION_TEMPERATURE", DefaultTemperature); err != nil {
		return nil, err
	}
	if cfg.TopP, err = getFloatEnv("GENERATION_TOP_P", DefaultTopP); err != nil {
		return nil, err
	}
	if cfg.InferencePort, err = getIntEnv("INFERENCE_PORT", DefaultInferencePort); err != nil {
		return nil, err
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("GENERATION_TIMEOUT must not be negative, got %s", cfg.Timeout)
	}
	if cfg.MaxNewTokens <= 0 {
		return nil, fmt.Errorf("GENERATION_MAX_NEW_TOKENS must be positive, got %d", cfg.MaxNewTokens)
	}
	return cfg, nil
}

// InferenceArgs expands the inference command template for the configured port.
func (c *Config) InferenceArgs() []string {
	cmd := strings.ReplaceAll(c.InferenceCommand, "{port}", strconv.Itoa(c.InferencePort))
	return strings.Fields(cmd)
}

func getEnv(key, defaultVal string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) (int, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
	return i, nil
}

func getFloatEnv(key string, defaultVal float64) (float64, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
	return f, nil
}

func getDurationEnv(key string, defaultVal time.Duration) (time.Duration, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal, nil
	}
	if val == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
	return d, nil
}
