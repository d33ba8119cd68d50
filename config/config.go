package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Schedule ScheduleConfig
}

type AppConfig struct {
	Port string
	Env  string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

// ScheduleConfig drives slot generation and the patient-facing listing
// window. All hours are on the canonical server clock (UTC).
type ScheduleConfig struct {
	DayStartHour       int
	DayEndHour         int
	SlotMinutes        int
	MaxPublicRangeDays int
	MaxGenerateDays    int
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	accessExpiry, err := time.ParseDuration(viper.GetString("JWT_ACCESS_EXPIRY"))
	if err != nil {
		accessExpiry = 15 * time.Minute
	}

	refreshExpiry, err := time.ParseDuration(viper.GetString("JWT_REFRESH_EXPIRY"))
	if err != nil {
		refreshExpiry = 7 * 24 * time.Hour
	}

	viper.SetDefault("SCHEDULE_DAY_START_HOUR", 9)
	viper.SetDefault("SCHEDULE_DAY_END_HOUR", 17)
	viper.SetDefault("SCHEDULE_SLOT_MINUTES", 30)
	viper.SetDefault("SCHEDULE_MAX_PUBLIC_RANGE_DAYS", 7)
	viper.SetDefault("SCHEDULE_MAX_GENERATE_DAYS", 30)

	config := &Config{
		App: AppConfig{
			Port: viper.GetString("APP_PORT"),
			Env:  viper.GetString("APP_ENV"),
		},
		DB: DBConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Name:     viper.GetString("DB_NAME"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:        viper.GetString("JWT_SECRET"),
			AccessExpiry:  accessExpiry,
			RefreshExpiry: refreshExpiry,
		},
		Schedule: ScheduleConfig{
			DayStartHour:       viper.GetInt("SCHEDULE_DAY_START_HOUR"),
			DayEndHour:         viper.GetInt("SCHEDULE_DAY_END_HOUR"),
			SlotMinutes:        viper.GetInt("SCHEDULE_SLOT_MINUTES"),
			MaxPublicRangeDays: viper.GetInt("SCHEDULE_MAX_PUBLIC_RANGE_DAYS"),
			MaxGenerateDays:    viper.GetInt("SCHEDULE_MAX_GENERATE_DAYS"),
		},
	}

	return config, nil
}

// DefaultScheduleConfig mirrors the clinic's standard working hours.
// Used when no explicit configuration is supplied (and by tests).
func DefaultScheduleConfig() ScheduleConfig {
	return ScheduleConfig{
		DayStartHour:       9,
		DayEndHour:         17,
		SlotMinutes:        30,
		MaxPublicRangeDays: 7,
		MaxGenerateDays:    30,
	}
}
