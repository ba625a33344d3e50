package config

import (
	"errors"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// loadEnvFile loads .env/.env.local into the process environment.
// The first existing file wins; variables already set are never overridden.
func loadEnvFile() error {
	for _, envPath := range []string{".env", ".env.local"} {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err != nil {
			return err
		}
		slog.Debug("Loaded environment variables", "path", envPath)
		return nil
	}
	return errors.New("no .env file found")
}
