package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Flutterwave  FlutterwaveConfig
	Telegram     TelegramConfig
	Referrals    ReferralsConfig
	Resend       ResendConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREBOT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREBOT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOREBOT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREBOT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STOREBOT_DB_DSN"`
	Driver string `envconfig:"STOREBOT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOREBOT_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREBOT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOREBOT_DB_USER"`
	LegacyPassword string `envconfig:"STOREBOT_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREBOT_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREBOT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREBOT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREBOT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREBOT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREBOT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREBOT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOREBOT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREBOT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREBOT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREBOT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREBOT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREBOT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREBOT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREBOT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FlutterwaveConfig struct {
	SecretKey     string        `envconfig:"STOREBOT_FLW_SECRET_KEY"`
	WebhookSecret string        `envconfig:"STOREBOT_FLW_WEBHOOK_SECRET" required:"true"`
	RedirectURL   string        `envconfig:"STOREBOT_FLW_REDIRECT_URL"`
	Currency      string        `envconfig:"STOREBOT_FLW_CURRENCY" default:"NGN"`
	EventGuardTTL time.Duration `envconfig:"STOREBOT_FLW_EVENT_GUARD_TTL" default:"720h"`
}

type TelegramConfig struct {
	BotToken       string `envconfig:"STOREBOT_TG_BOT_TOKEN"`
	OpsChannelID   int64  `envconfig:"STOREBOT_TG_OPS_CHANNEL_ID"`
	MemberChatID   int64  `envconfig:"STOREBOT_TG_MEMBER_CHAT_ID"`
	SendDelayMS    int    `envconfig:"STOREBOT_TG_SEND_DELAY_MS" default:"1000"`
	RequestTimeout int    `envconfig:"STOREBOT_TG_REQUEST_TIMEOUT_SECONDS" default:"30"`
}

type ReferralsConfig struct {
	RewardAmount   int `envconfig:"STOREBOT_REFERRAL_REWARD_AMOUNT" default:"200"`
	PaidOrderQuota int `envconfig:"STOREBOT_REFERRAL_PAID_ORDER_QUOTA" default:"3"`
}

type ResendConfig struct {
	LifetimeCap int `envconfig:"STOREBOT_RESEND_LIFETIME_CAP" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STOREBOT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STOREBOT_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		"STOREBOT_DB_HOST": db.LegacyHost,
		"STOREBOT_DB_USER": db.LegacyUser,
		"STOREBOT_DB_NAME": db.LegacyName,
	}
	for _, env := range []string{"STOREBOT_DB_HOST", "STOREBOT_DB_USER", "STOREBOT_DB_NAME"} {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either STOREBOT_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
