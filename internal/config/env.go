package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// loadEnvFiles loads .env files in order of precedence. godotenv never
// overwrites a variable that is already set, so the first file wins and the
// real environment beats all of them.
func loadEnvFiles() {
	envFiles := []string{
		".env.local",
		".env",
	}
	homeDir, _ := os.UserHomeDir()
	envFiles = append(envFiles, filepath.Join(homeDir, ".codetrend", ".env"))

	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			_ = godotenv.Load(file)
		}
	}
}

// GetString returns the variable or defaultVal when unset.
func GetString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// GetBool returns the variable parsed as a bool, or defaultVal.
func GetBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
