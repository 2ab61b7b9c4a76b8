package config

import (
	"os"
	"strconv"
	"strings"
)

// LoadEnv loads environment variables from a .env file if one is present.
// Variables already set in the environment are never overwritten.
func LoadEnv() error {
	// Try the current directory first, then parent directories
	envPaths := []string{".env", "../.env", "../../.env"}

	for _, envPath := range envPaths {
		if data, err := os.ReadFile(envPath); err == nil {
			lines := strings.Split(string(data), "\n")
			for _, line := range lines {
				line = strings.TrimSpace(line)
				if line == "" || strings.HasPrefix(line, "#") {
					continue
				}

				parts := strings.SplitN(line, "=", 2)
				if len(parts) == 2 {
					key := strings.TrimSpace(parts[0])
					value := strings.TrimSpace(parts[1])

					if os.Getenv(key) == "" {
						os.Setenv(key, value)
					}
				}
			}
			break // Successfully loaded, don't try other paths
		}
	}
	return nil
}

// GetEnv gets environment variable with default
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt gets integer environment variable with default
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvBool gets boolean environment variable with default
func GetEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return defaultValue
}

// Directory and processing defaults for the pipeline.

// RawDir is where the downloaded quarterly zip archives live.
func RawDir() string { return GetEnv("FEDSCOPE_RAW_DIR", "fedscope_data") }

// ExtractedDir is where archives are unpacked, one directory per quarter.
func ExtractedDir() string {
	return GetEnv("FEDSCOPE_EXTRACTED_DIR", "fedscope_data/extracted")
}

// OutputDir is where the denormalized per-quarter artifacts are written.
func OutputDir() string { return GetEnv("FEDSCOPE_OUTPUT_DIR", "fedscope_data/output") }

// Workers is the size of the dataset worker pool.
func Workers() int { return GetEnvInt("FEDSCOPE_WORKERS", 4) }
