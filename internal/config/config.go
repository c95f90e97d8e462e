package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/crop-et-sim/internal/domain"
)

// Output sinks.
const (
	SinkDatFile = "datfile"
	SinkSQLite  = "sqlite"
	SinkKafka   = "kafka"
)

// defaultClimateCacheDays holds roughly forty 30-year station series.
const defaultClimateCacheDays = 400000

// Config holds all simulator settings, populated from environment variables.
type Config struct {
	CellPropertiesPath string
	CellCropsPath      string
	CropParamsPath     string
	CuttingsPath       string
	SpatialParamsDir   string
	WeatherDir         string
	WeatherFileFormat  string
	RefET              domain.RefETType
	Window             domain.Window
	CropSkipList       []int
	CropTestList       []int

	OutputSink   string
	OutputDir    string
	SQLitePath   string
	KafkaBrokers []string
	KafkaTopic   string
	BatchSize    int

	Workers          int
	ClimateCacheDays int

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// LoadDotEnv sets variables from a dotenv file that are not already set in the
// environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	refet, err := parseRefET(sharedcfg.EnvOrDefault("REFET_TYPE", "etr"))
	if err != nil {
		return nil, err
	}

	start, err := parseDate("START_DATE")
	if err != nil {
		return nil, err
	}
	end, err := parseDate("END_DATE")
	if err != nil {
		return nil, err
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return nil, errors.New("END_DATE is before START_DATE")
	}

	skip, err := parseIntList("CROP_SKIP_LIST")
	if err != nil {
		return nil, err
	}
	test, err := parseIntList("CROP_TEST_LIST")
	if err != nil {
		return nil, err
	}

	workers, err := parsePositiveInt("WORKERS", runtime.NumCPU())
	if err != nil {
		return nil, err
	}
	cacheDays, err := parsePositiveInt("CLIMATE_CACHE_DAYS", defaultClimateCacheDays)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		CellPropertiesPath: os.Getenv("CELL_PROPERTIES_PATH"),
		CellCropsPath:      os.Getenv("CELL_CROPS_PATH"),
		CropParamsPath:     os.Getenv("CROP_PARAMS_PATH"),
		CuttingsPath:       os.Getenv("CUTTINGS_PATH"),
		SpatialParamsDir:   os.Getenv("SPATIAL_PARAMS_DIR"),
		WeatherDir:         os.Getenv("WEATHER_DIR"),
		WeatherFileFormat:  sharedcfg.EnvOrDefault("WEATHER_FILE_FORMAT", "%s_daily.txt"),
		RefET:              refet,
		Window:             domain.Window{Start: start, End: end},
		CropSkipList:       skip,
		CropTestList:       test,

		OutputSink:   strings.ToLower(sharedcfg.EnvOrDefault("OUTPUT_SINK", SinkDatFile)),
		OutputDir:    sharedcfg.EnvOrDefault("OUTPUT_DIR", "output"),
		SQLitePath:   sharedcfg.EnvOrDefault("SQLITE_PATH", "cropet.db"),
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "daily-crop-et"),
		BatchSize:    batchSize,

		Workers:          workers,
		ClimateCacheDays: cacheDays,

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.CellPropertiesPath == "" {
		return nil, errors.New("CELL_PROPERTIES_PATH is required")
	}
	if cfg.CellCropsPath == "" {
		return nil, errors.New("CELL_CROPS_PATH is required")
	}
	if cfg.CropParamsPath == "" {
		return nil, errors.New("CROP_PARAMS_PATH is required")
	}
	if cfg.WeatherDir == "" {
		return nil, errors.New("WEATHER_DIR is required")
	}
	if !strings.Contains(cfg.WeatherFileFormat, "%s") {
		return nil, errors.New("WEATHER_FILE_FORMAT must contain %s")
	}

	switch cfg.OutputSink {
	case SinkDatFile, SinkSQLite:
	case SinkKafka:
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
	default:
		return nil, fmt.Errorf("invalid OUTPUT_SINK %q", cfg.OutputSink)
	}

	return cfg, nil
}

func parseRefET(s string) (domain.RefETType, error) {
	switch strings.ToLower(s) {
	case "eto", "grass":
		return domain.RefETGrass, nil
	case "etr", "alfalfa":
		return domain.RefETAlfalfa, nil
	}
	return 0, fmt.Errorf("invalid REFET_TYPE %q", s)
}

func parseDate(key string) (time.Time, error) {
	s := os.Getenv(key)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	return t, nil
}

func parseIntList(key string) ([]int, error) {
	s := os.Getenv(key)
	if s == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		out = append(out, n)
	}
	return out, nil
}

func parsePositiveInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}
