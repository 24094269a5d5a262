package app

import (
	"strings"

	"github.com/pagelift/outreach-backend/internal/pkg/logger"
	"github.com/pagelift/outreach-backend/internal/utils"
)

type Config struct {
	ServiceName  string
	Environment  string
	Version      string
	HTTPAddr     string
	AllowOrigins []string
	RedisAddr    string
}

func LoadConfig(log *logger.Logger) Config {
	origins := utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5173", log)
	return Config{
		ServiceName:  utils.GetEnv("SERVICE_NAME", "outreach-backend", log),
		Environment:  utils.GetEnv("APP_ENV", "development", log),
		Version:      utils.GetEnv("APP_VERSION", "dev", log),
		HTTPAddr:     utils.GetEnv("HTTP_ADDR", ":8080", log),
		AllowOrigins: splitOrigins(origins),
		RedisAddr:    utils.GetEnv("REDIS_ADDR", "", log),
	}
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
