package utils

import (
	"os"
	"strconv"
	"strings"
)

// GetEnv reads an environment variable, returning fallback when it is unset or blank.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

// GetEnvFloat parses a float environment variable, returning fallback on absence or parse failure.
func GetEnvFloat(key string, fallback float64) float64 {
	raw := GetEnv(key, "")
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return value
}

// CreateFolder creates the folder and any missing parents.
func CreateFolder(folderPath string) error {
	return os.MkdirAll(folderPath, 0755)
}
