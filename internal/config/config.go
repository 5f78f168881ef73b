package config

import (
	"os"
	"time"

	"github.com/moneymap-app/moneymap-backend/internal/dto"
)

type Config struct {
	ProjectID        string
	Region           string
	LogLevel         string
	PlaidClientID    string
	PlaidSecret      string
	PlaidEnvironment dto.PlaidEnvironment
	KMSKeyName       string
	VertexModel      string
	DemoMode         bool
	RefreshInterval  time.Duration
}

func New() *Config {
	return &Config{
		ProjectID:        os.Getenv("PROJECTID"),
		Region:           os.Getenv("REGION"),
		LogLevel:         os.Getenv("LOGLEVEL"),
		PlaidClientID:    os.Getenv("PLAIDCLIENTID"),
		PlaidSecret:      os.Getenv("PLAIDSECRET"),
		PlaidEnvironment: getPlaidEnvironment(os.Getenv("PLAIDENVIRONMENT")),
		KMSKeyName:       os.Getenv("KMSKEYNAME"),
		VertexModel:      os.Getenv("VERTEXMODEL"),
		DemoMode:         os.Getenv("DEMOMODE") == "true",
		RefreshInterval:  getRefreshInterval(os.Getenv("REFRESHINTERVAL")),
	}
}

func getPlaidEnvironment(env string) dto.PlaidEnvironment {
	switch env {
	case "sandbox":
		return dto.PlaidSandbox
	case "development":
		return dto.PlaidDevelopment
	default: // "production"
		return dto.PlaidProduction
	}
}

func getRefreshInterval(raw string) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}
