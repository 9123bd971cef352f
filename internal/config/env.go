package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Env struct {
	AppAddr       string
	GinMode       string
	SheetAPIURL   string
	DBDSN         string
	JWTSecret     string
	AdminPassword string
	AdminPIN      string
	AdminWhatsApp string
	BankName      string
}

// LoadEnv reads configuration from the environment, with a .env file as an
// optional source for local development.
func LoadEnv() Env {
	_ = godotenv.Load()

	return Env{
		AppAddr:       getEnv("APP_ADDR", ":8080"),
		GinMode:       strings.TrimSpace(os.Getenv("GIN_MODE")),
		SheetAPIURL:   getEnv("SHEET_API_URL", ""),
		DBDSN:         strings.TrimSpace(os.Getenv("DB_DSN")),
		JWTSecret:     getEnv("JWT_SECRET", "super-secret-key-change-me"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin"),
		AdminPIN:      getEnv("ADMIN_PIN", "1123"),
		AdminWhatsApp: getEnv("ADMIN_WHATSAPP", "94777402886"),
		BankName:      getEnv("BANK_NAME", "Hatton National Bank (HNB)"),
	}
}

func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}
