package models

import (
	"os"

	"github.com/rs/zerolog"
)

// Env instance variables
type Env struct {
	// ConfigFile Overrides the default config file location
	ConfigFile string

	// Password Credential paired with Config.Username on authenticated
	// clusters; never persisted to the config file
	Password string
}

// NewEnv Constructor
func NewEnv() *Env {
	switch os.Getenv("LOG_LEVEL") {
	case "DEBUG":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	return &Env{
		ConfigFile: os.Getenv("MOZART_CONFIG"),
		Password:   os.Getenv("MOZART_PASSWORD"),
	}
}
