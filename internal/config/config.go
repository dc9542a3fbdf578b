package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken string
	DBDSN         string
	Environment   string

	// Чат владельца пиццерии: туда летят уведомления, оттуда принимаются админ-команды
	AdminChatID int64

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// За сколько до слота клиент ещё может отменить бронь сам
	CancelCutoff time.Duration

	// Окно генерации слотов по умолчанию (время внутри дня)
	SlotWindowStart string
	SlotWindowEnd   string

	// Ежедневная автогенерация слотов на завтра
	AutoGenerate         bool
	AutoGenerateInterval time.Duration

	MigrationsPath string
	MetricsAddr    string
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	cfg := &Config{
		TelegramToken:   os.Getenv("TELEGRAM_TOKEN"),
		DBDSN:           os.Getenv("DB_DSN"),
		Environment:     os.Getenv("ENV"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		SlotWindowStart: os.Getenv("SLOT_WINDOW_START"),
		SlotWindowEnd:   os.Getenv("SLOT_WINDOW_END"),
		MigrationsPath:  os.Getenv("MIGRATIONS_PATH"),
		MetricsAddr:     os.Getenv("METRICS_ADDR"),
	}

	// Дефолтные значения
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = "localhost:6379"
	}
	if cfg.SlotWindowStart == "" {
		cfg.SlotWindowStart = "15:00"
	}
	if cfg.SlotWindowEnd == "" {
		cfg.SlotWindowEnd = "20:00"
	}
	if cfg.MigrationsPath == "" {
		cfg.MigrationsPath = "migrations"
	}
	if cfg.MetricsAddr == "" {
		cfg.MetricsAddr = ":9091"
	}

	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB %q: %w", v, err)
		}
		cfg.RedisDB = db
	}

	cfg.AutoGenerate = os.Getenv("AUTO_GENERATE") == "true"
	cfg.AutoGenerateInterval = 30 * time.Minute
	if v := os.Getenv("AUTO_GENERATE_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid AUTO_GENERATE_INTERVAL %q: %w", v, err)
		}
		cfg.AutoGenerateInterval = d
	}

	cutoff := 2 * time.Hour
	if v := os.Getenv("CANCEL_CUTOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid CANCEL_CUTOFF %q: %w", v, err)
		}
		cutoff = d
	}
	cfg.CancelCutoff = cutoff

	// Обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is required but not set")
	}

	adminStr := os.Getenv("ADMIN_CHAT_ID")
	if adminStr == "" {
		return nil, fmt.Errorf("ADMIN_CHAT_ID is required but not set")
	}
	adminID, err := strconv.ParseInt(adminStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_CHAT_ID %q: %w", adminStr, err)
	}
	cfg.AdminChatID = adminID

	log.Printf("Config loaded\n")

	return cfg, nil
}
