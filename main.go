package main

import (
	"crypto/tls"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"assistant-api/api"
	"assistant-api/storage"
	"assistant-api/upstream"
)

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}
	logger := log.New()

	store := buildStore(logger)
	assistant := buildAssistant()

	e := echo.New()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	api.Register(e, store, assistant, logger)

	listenAddr := ":8080"
	if val, ok := os.LookupEnv("FUNCTIONS_CUSTOMHANDLER_PORT"); ok {
		listenAddr = ":" + val
	} else if val, ok := os.LookupEnv("PORT"); ok {
		listenAddr = ":" + val
	}

	e.Logger.Fatal(e.Start(listenAddr))
}

// buildStore connects to the task store. A connection failure is not fatal:
// the server keeps running and store-dependent endpoints fail per request.
func buildStore(logger *log.Logger) api.TaskStore {
	connStr := os.Getenv("STORAGE_CONNECTION_STRING")
	tasksTable := os.Getenv("TASKS_TABLE")
	if tasksTable == "" {
		tasksTable = "tasks"
	}
	queueName := os.Getenv("QUERY_EVENTS_QUEUE")

	if connStr == "" {
		logger.Warn("STORAGE_CONNECTION_STRING not set; task endpoints will fail per request")
		return storage.Unavailable{Err: errors.New("storage connection string not configured")}
	}
	s, err := storage.New(connStr, tasksTable, queueName)
	if err != nil {
		logger.WithField("error", err.Error()).Error("storage init failed; task endpoints will fail per request")
		return storage.Unavailable{Err: err}
	}

	redisConn := os.Getenv("REDIS_CONNECTION_STRING")
	if redisConn == "" {
		return s
	}
	redisOpts, err := redis.ParseURL(redisConn)
	if err != nil {
		parts := strings.Split(redisConn, ",")
		redisOpts = &redis.Options{Addr: parts[0]}
		for _, p := range parts[1:] {
			kv := strings.SplitN(p, "=", 2)
			if len(kv) != 2 {
				continue
			}
			switch strings.ToLower(kv[0]) {
			case "password":
				redisOpts.Password = kv[1]
			case "ssl":
				if strings.ToLower(kv[1]) == "true" {
					redisOpts.TLSConfig = &tls.Config{}
				}
			}
		}
	}
	ttl := 5 * time.Minute
	if v := os.Getenv("CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			log.Fatalf("invalid CACHE_TTL: %v", err)
		}
		ttl = d
	}
	return storage.NewCache(s, redis.NewClient(redisOpts), ttl)
}

func buildAssistant() api.Assistant {
	imageStrategy := upstream.StrategyRandom
	switch v := os.Getenv("IMAGE_STRATEGY"); v {
	case "", string(upstream.StrategyRandom):
	case string(upstream.StrategySearch):
		imageStrategy = upstream.StrategySearch
	default:
		log.Fatalf("invalid IMAGE_STRATEGY: %q", v)
	}

	return api.Assistant{
		Weather: &upstream.WeatherClient{APIKey: os.Getenv("OPENWEATHER_API_KEY")},
		Image: &upstream.ImageClient{
			AccessKey: os.Getenv("UNSPLASH_ACCESS_KEY"),
			Strategy:  imageStrategy,
		},
		News: &upstream.NewsClient{
			APIKey:  os.Getenv("NEWS_API_KEY"),
			Country: os.Getenv("NEWS_COUNTRY"),
		},
		Answer: &upstream.AnswerClient{APIKey: os.Getenv("GEMINI_API_KEY")},
	}
}
