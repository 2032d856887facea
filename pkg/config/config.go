// Package config loads deployment-wide settings from the environment, with
// an optional .env file for development.
package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	// Local inventory store.
	DatabasePath  string
	ListenAddress string

	// Key for encrypting instance credentials at rest. Must be 32 bytes.
	EncryptionKey string

	// Transport policy for remote SQL Server connections. Deployment-wide,
	// not per instance.
	MssqlEncrypt   bool
	MssqlTrustCert bool
}

func Load() (*Config, error) {
	// Best effort; settings may come straight from the environment.
	godotenv.Load()

	config := &Config{
		DatabasePath:  getEnvOrDefault("SQL_INVENTORY_DB", "/tmp/sql-inventory.sqlite3"),
		ListenAddress: getEnvOrDefault("LISTEN_ADDR", "0.0.0.0:3000"),
		EncryptionKey: os.Getenv("ENCRYPTION_KEY"),

		MssqlEncrypt:   os.Getenv("MSSQL_ENCRYPT") == "true",
		MssqlTrustCert: os.Getenv("MSSQL_TRUST_SERVER_CERTIFICATE") != "false",
	}

	if config.EncryptionKey == "" {
		return nil, errors.New("ENCRYPTION_KEY is required")
	}

	return config, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
