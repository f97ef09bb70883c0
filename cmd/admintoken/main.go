package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/flashgen/question-service/internal/auth/jwt"
)

func main() {
	var (
		subject = flag.String("subject", "", "Operator the token is issued to")
		role    = flag.String("role", jwt.RoleAdmin, "Role claim")
		ttl     = flag.Duration("ttl", 12*time.Hour, "Token lifetime")
		issuer  = flag.String("issuer", getEnv("APP_NAME", "question-service"), "Token issuer, must match APP_NAME of the API")
	)
	flag.Parse()

	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal().Msg("JWT_SECRET environment variable is required")
	}
	if *subject == "" {
		log.Fatal().Msg("-subject is required")
	}

	manager := jwt.NewManager(jwt.TokenConfig{Secret: []byte(secret), TTL: *ttl, Issuer: *issuer})
	token, err := manager.Issue(*subject, *role)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to sign token")
	}

	log.Info().Str("subject", *subject).Str("role", *role).Dur("ttl", *ttl).Msg("token issued")
	fmt.Println(token)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
