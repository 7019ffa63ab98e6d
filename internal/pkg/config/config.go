package config

import (
	"fmt"
	"os"
	"strconv"
)

// VietmapConfig holds credentials and endpoints for the Vietmap APIs
// (autocomplete, place detail, routing).
type VietmapConfig struct {
	APIKey  string
	BaseURL string
}

// SchedulerConfig points at the AI scheduling backend.
type SchedulerConfig struct {
	BaseURL string
}

// CalendarConfig holds the day window and pixel scale for the timeline view.
type CalendarConfig struct {
	DayStartHour        int
	DayEndHour          int
	HourHeightPx        int
	MinBlockPx          int
	DefaultVisitMinutes int
}

type Config struct {
	ServerPort string
	DataDir    string
	Vietmap    VietmapConfig
	Scheduler  SchedulerConfig
	Calendar   CalendarConfig
}

func Load() (*Config, error) {
	cfg := &Config{
		ServerPort: getEnvOrDefault("SERVER_PORT", "8091"),
		DataDir:    getEnvOrDefault("DATA_DIR", "./data"),
		Vietmap: VietmapConfig{
			APIKey:  os.Getenv("VIETMAP_API_KEY"),
			BaseURL: getEnvOrDefault("VIETMAP_BASE_URL", "https://maps.vietmap.vn"),
		},
		Scheduler: SchedulerConfig{
			BaseURL: getEnvOrDefault("SCHEDULER_BASE_URL", "http://127.0.0.1:8000"),
		},
		Calendar: CalendarConfig{
			DayStartHour:        getEnvIntOrDefault("CALENDAR_DAY_START_HOUR", 7),
			DayEndHour:          getEnvIntOrDefault("CALENDAR_DAY_END_HOUR", 19),
			HourHeightPx:        getEnvIntOrDefault("CALENDAR_HOUR_HEIGHT_PX", 80),
			MinBlockPx:          getEnvIntOrDefault("CALENDAR_MIN_BLOCK_PX", 20),
			DefaultVisitMinutes: getEnvIntOrDefault("CALENDAR_DEFAULT_VISIT_MINUTES", 60),
		},
	}

	if cfg.Vietmap.APIKey == "" {
		return nil, fmt.Errorf("VIETMAP_API_KEY environment variable is required")
	}
	if cfg.Calendar.DayEndHour <= cfg.Calendar.DayStartHour {
		return nil, fmt.Errorf("calendar day window is empty: start=%d end=%d",
			cfg.Calendar.DayStartHour, cfg.Calendar.DayEndHour)
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
