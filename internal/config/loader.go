package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"

	"github.com/example/room-scheduler/internal/scheduler"
)

const envPrefix = "SCHEDULER"

// Config captures environment driven configuration values for the scheduler service.
type Config struct {
	HTTPPort        int
	BaseURL         string
	SQLiteDSN       string
	StoreTimeout    time.Duration
	ShutdownTimeout time.Duration
	LogLevel        slog.Level
	Location        *time.Location
	Policy          scheduler.Policy
	RecurrenceLimit int
	// BootstrapAdminID and BootstrapAdminSecret register a managing employee on startup.
	BootstrapAdminID     string
	BootstrapAdminSecret string
}

// Load reads configuration from SCHEDULER_* environment variables, falling back
// to the optional file named by SCHEDULER_CONFIG_FILE and then to defaults.
//
// Missing and invalid keys are collected and reported together.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http_port", 8080)
	v.SetDefault("base_url", "")
	v.SetDefault("sqlite_dsn", "scheduler.db")
	v.SetDefault("store_timeout", "5s")
	v.SetDefault("shutdown_timeout", "10s")
	v.SetDefault("log_level", "info")
	v.SetDefault("timezone", "Europe/Warsaw")
	v.SetDefault("student_event_types", "generic")
	v.SetDefault("employee_event_types", "generic,exam,test")
	v.SetDefault("recurrence_limit", 400)

	if path := strings.TrimSpace(os.Getenv(envPrefix + "_CONFIG_FILE")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	port, err := strconv.Atoi(value(v, "http_port"))
	if err != nil || port <= 0 || port > 65535 {
		invalid = append(invalid, key("http_port"))
	} else {
		cfg.HTTPPort = port
	}

	cfg.BaseURL = value(v, "base_url")

	if cfg.SQLiteDSN = value(v, "sqlite_dsn"); cfg.SQLiteDSN == "" {
		missing = append(missing, key("sqlite_dsn"))
	}

	if cfg.StoreTimeout, err = positiveDuration(value(v, "store_timeout")); err != nil {
		invalid = append(invalid, key("store_timeout"))
	}
	if cfg.ShutdownTimeout, err = positiveDuration(value(v, "shutdown_timeout")); err != nil {
		invalid = append(invalid, key("shutdown_timeout"))
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(value(v, "log_level"))); err != nil {
		invalid = append(invalid, key("log_level"))
	}

	if cfg.Location, err = time.LoadLocation(value(v, "timezone")); err != nil {
		invalid = append(invalid, key("timezone"))
	}

	studentTypes, err := eventTypes(value(v, "student_event_types"))
	if err != nil {
		invalid = append(invalid, key("student_event_types"))
	}
	employeeTypes, err := eventTypes(value(v, "employee_event_types"))
	if err != nil {
		invalid = append(invalid, key("employee_event_types"))
	}
	cfg.Policy = scheduler.Policy{StudentTypes: studentTypes, EmployeeTypes: employeeTypes}

	limit, err := strconv.Atoi(value(v, "recurrence_limit"))
	if err != nil || limit <= 0 {
		invalid = append(invalid, key("recurrence_limit"))
	} else {
		cfg.RecurrenceLimit = limit
	}

	cfg.BootstrapAdminID = value(v, "bootstrap_admin_id")
	cfg.BootstrapAdminSecret = value(v, "bootstrap_admin_secret")
	if cfg.BootstrapAdminID != "" && cfg.BootstrapAdminSecret == "" {
		missing = append(missing, key("bootstrap_admin_secret"))
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required configuration is missing: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("configuration values are invalid: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func value(v *viper.Viper, name string) string {
	return strings.TrimSpace(v.GetString(name))
}

func key(name string) string {
	return envPrefix + "_" + strings.ToUpper(name)
}

func positiveDuration(raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, errors.New("duration must be positive")
	}
	return d, nil
}

func eventTypes(raw string) ([]scheduler.EventType, error) {
	var types []scheduler.EventType
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		t := scheduler.EventType(part)
		if !t.Valid() {
			return nil, fmt.Errorf("unknown event type %q", part)
		}
		types = append(types, t)
	}
	if len(types) == 0 {
		return nil, errors.New("at least one event type is required")
	}
	return types, nil
}
