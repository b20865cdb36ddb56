package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/xsync/server/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
	}
	port = configVar[int]{
		envKey:       "PORT",
		flagKey:      "port",
		defaultValue: 3000,
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	publicDir = configVar[string]{
		envKey:       "SERVER_PUBLIC_DIR",
		flagKey:      "public-dir",
		defaultValue: "public",
	}
	chatHistorySize = configVar[int]{
		envKey:       "SERVER_CHAT_HISTORY_SIZE",
		flagKey:      "chat-history-size",
		defaultValue: 200,
	}
	chatTextLimit = configVar[int]{
		envKey:       "SERVER_CHAT_TEXT_LIMIT",
		flagKey:      "chat-text-limit",
		defaultValue: 500,
	}
	chatSenderLimit = configVar[int]{
		envKey:       "SERVER_CHAT_SENDER_LIMIT",
		flagKey:      "chat-sender-limit",
		defaultValue: 40,
	}
	messageRate = configVar[float64]{
		envKey:       "SERVER_MESSAGE_RATE",
		flagKey:      "message-rate",
		defaultValue: 25,
	}
	youtubeAPIKeys = configVar[string]{
		envKey:       "YOUTUBE_API_KEYS",
		flagKey:      "youtube-api-keys",
		defaultValue: "",
	}
	catalogCacheTTL = configVar[time.Duration]{
		envKey:       "CATALOG_CACHE_TTL",
		flagKey:      "catalog-cache-ttl",
		defaultValue: 15 * time.Minute,
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "",
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
	}
)

func loadAppConfig() *app.AppConfig {
	pflag.String(host.flagKey, host.defaultValue, "Server host")
	pflag.Int(port.flagKey, port.defaultValue, "Server port")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.String(publicDir.flagKey, publicDir.defaultValue, "Static assets directory")
	pflag.Int(chatHistorySize.flagKey, chatHistorySize.defaultValue, "Messages kept per chat log")
	pflag.Int(chatTextLimit.flagKey, chatTextLimit.defaultValue, "Maximum chat message length")
	pflag.Int(chatSenderLimit.flagKey, chatSenderLimit.defaultValue, "Maximum chat sender name length")
	pflag.Float64(messageRate.flagKey, messageRate.defaultValue, "Inbound messages per second per connection")
	pflag.String(youtubeAPIKeys.flagKey, youtubeAPIKeys.defaultValue, "Comma-separated YouTube API keys")
	pflag.Duration(catalogCacheTTL.flagKey, catalogCacheTTL.defaultValue, "Catalog cache entry lifetime")
	pflag.String(redisHost.flagKey, redisHost.defaultValue, "Redis host (empty disables the catalog cache)")
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, "Redis port")
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, "Redis password")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	viper.BindEnv(host.flagKey, host.envKey)
	viper.BindEnv(port.flagKey, port.envKey)
	viper.BindEnv(logLevel.flagKey, logLevel.envKey)
	viper.BindEnv(publicDir.flagKey, publicDir.envKey)
	viper.BindEnv(chatHistorySize.flagKey, chatHistorySize.envKey)
	viper.BindEnv(chatTextLimit.flagKey, chatTextLimit.envKey)
	viper.BindEnv(chatSenderLimit.flagKey, chatSenderLimit.envKey)
	viper.BindEnv(messageRate.flagKey, messageRate.envKey)
	viper.BindEnv(youtubeAPIKeys.flagKey, youtubeAPIKeys.envKey)
	viper.BindEnv(catalogCacheTTL.flagKey, catalogCacheTTL.envKey)
	viper.BindEnv(redisHost.flagKey, redisHost.envKey)
	viper.BindEnv(redisPort.flagKey, redisPort.envKey)
	viper.BindEnv(redisPassword.flagKey, redisPassword.envKey)

	viper.SetDefault(host.flagKey, host.defaultValue)
	viper.SetDefault(port.flagKey, port.defaultValue)
	viper.SetDefault(logLevel.flagKey, logLevel.defaultValue)
	viper.SetDefault(publicDir.flagKey, publicDir.defaultValue)
	viper.SetDefault(chatHistorySize.flagKey, chatHistorySize.defaultValue)
	viper.SetDefault(chatTextLimit.flagKey, chatTextLimit.defaultValue)
	viper.SetDefault(chatSenderLimit.flagKey, chatSenderLimit.defaultValue)
	viper.SetDefault(messageRate.flagKey, messageRate.defaultValue)
	viper.SetDefault(youtubeAPIKeys.flagKey, youtubeAPIKeys.defaultValue)
	viper.SetDefault(catalogCacheTTL.flagKey, catalogCacheTTL.defaultValue)
	viper.SetDefault(redisHost.flagKey, redisHost.defaultValue)
	viper.SetDefault(redisPort.flagKey, redisPort.defaultValue)
	viper.SetDefault(redisPassword.flagKey, redisPassword.defaultValue)

	return &app.AppConfig{
		Host:            viper.GetString(host.flagKey),
		Port:            viper.GetInt(port.flagKey),
		LogLevel:        viper.GetString(logLevel.flagKey),
		PublicDir:       viper.GetString(publicDir.flagKey),
		ChatHistorySize: viper.GetInt(chatHistorySize.flagKey),
		ChatTextLimit:   viper.GetInt(chatTextLimit.flagKey),
		ChatSenderLimit: viper.GetInt(chatSenderLimit.flagKey),
		MessageRate:     viper.GetFloat64(messageRate.flagKey),
		YouTubeAPIKeys:  splitKeys(viper.GetString(youtubeAPIKeys.flagKey)),
		CatalogCacheTTL: viper.GetDuration(catalogCacheTTL.flagKey),
		RedisHost:       viper.GetString(redisHost.flagKey),
		RedisPort:       viper.GetInt(redisPort.flagKey),
		RedisPassword:   viper.GetString(redisPassword.flagKey),
	}
}

func splitKeys(raw string) []string {
	keys := make([]string, 0)
	for _, key := range strings.Split(raw, ",") {
		if key = strings.TrimSpace(key); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

func main() {
	ctx := context.Background()

	// same lookup order as the original deployment: .env first, then real env
	godotenv.Load()

	appConfig := loadAppConfig()

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	log.Fatal(app.Run(ctx, appConfig))
}
