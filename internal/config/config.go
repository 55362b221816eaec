package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Port        int
	JWTSecret   string
	DatabaseURL string
	CORSOrigins []string

	StripeSecretKey string
	StripePlanID    string

	VisionServiceURL string

	ResendAPIKey string
	EmailFrom    string

	TrialSweepSchedule string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	port, _ := strconv.Atoi(getEnv("PORT", "4001"))

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	dbURL := getEnv("DATABASE_URL", "")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	origins := strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	return &Config{
		Port:               port,
		JWTSecret:          jwtSecret,
		DatabaseURL:        dbURL,
		CORSOrigins:        origins,
		StripeSecretKey:    getEnv("STRIPE_SECRET_KEY", ""),
		StripePlanID:       getEnv("STRIPE_PLAN_ID", "plan_metered_api"),
		VisionServiceURL:   getEnv("VISION_SERVICE_URL", ""),
		ResendAPIKey:       getEnv("RESEND_API_KEY", ""),
		EmailFrom:          getEnv("EMAIL_FROM", "FaceLens <noreply@facelens.dev>"),
		TrialSweepSchedule: getEnv("TRIAL_SWEEP_SCHEDULE", "@daily"),
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
