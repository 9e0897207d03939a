package config

import (
	"fmt"
	"os"
	"path"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendSqlite   = "sqlite"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	// RFC3339, empty means the contest starts when the process starts
	LaunchAt          string        `yaml:"launch_at" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	SubmissionWindow  time.Duration `yaml:"submission_window" validate:"gt=0"`
	VotingWindow      time.Duration `yaml:"voting_window" validate:"gtfield=SubmissionWindow"`
	CountdownInterval time.Duration `yaml:"countdown_interval" validate:"gt=0"`

	Discord   Discord   `yaml:"discord"`
	Tally     Tally     `yaml:"tally"`
	RateLimit RateLimit `yaml:"rate_limit"`
	Storage   Storage   `yaml:"storage"`
	Http      Http      `yaml:"http"`
	Log       Log       `yaml:"log"`
}

type Discord struct {
	VoteEmojiName         string `yaml:"vote_emoji_name" validate:"required"`
	VoteEmojiId           string `yaml:"vote_emoji_id" validate:"required,numeric"`
	SubmissionChannelId   string `yaml:"submission_channel_id" validate:"required"`
	ConfirmationChannelId string `yaml:"confirmation_channel_id" validate:"required"`
	CountdownChannelId    string `yaml:"countdown_channel_id" validate:"required"`
	CommandPrefix         string `yaml:"command_prefix"`
}

type Tally struct {
	Concurrency   int           `yaml:"concurrency" validate:"gte=1"`
	LookupTimeout time.Duration `yaml:"lookup_timeout" validate:"gt=0"`
}

// RateLimit bounds how often a non-admin user may submit or run commands.
type RateLimit struct {
	PerMinute float64 `yaml:"per_minute" validate:"gte=0"` // 0 disables the limit
	Burst     float64 `yaml:"burst" validate:"gte=0"`
}

type Storage struct {
	Backend    string `yaml:"backend" validate:"oneof=file postgres sqlite"`
	DataDir    string `yaml:"data_dir"`    // file backend
	SqlitePath string `yaml:"sqlite_path"` // sqlite backend
}

type Http struct {
	Addr           string   `yaml:"addr"` // empty disables the ops server
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type Log struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type Pg struct {
	Host     string `yaml:"host" validate:"required"`
	Port     int    `yaml:"port" validate:"required"`
	User     string `yaml:"user" validate:"required"`
	Password string `yaml:"password"`
	Dbname   string `yaml:"dbname" validate:"required"`
	SslMode  string `yaml:"sslmode"`
}

type Private struct {
	DiscordToken string `yaml:"discord_token" validate:"required"`
	AdminId      string `yaml:"admin_id" validate:"required"`
	Pg           *Pg    `yaml:"pg"`
}

// Launch returns the configured launch instant or fallback when none is set.
func (c *Config) Launch(fallback time.Time) time.Time {
	if c.Public.LaunchAt == "" {
		return fallback
	}
	t, err := time.Parse(time.RFC3339, c.Public.LaunchAt)
	if err != nil {
		// rejected by validation already
		return fallback
	}
	return t
}

func setDefaults(public *Public) {
	if public.SubmissionWindow == 0 {
		public.SubmissionWindow = 7 * 24 * time.Hour
	}
	if public.VotingWindow == 0 {
		public.VotingWindow = 10 * 24 * time.Hour
	}
	if public.CountdownInterval == 0 {
		public.CountdownInterval = 10 * time.Minute
	}
	if public.Discord.CommandPrefix == "" {
		public.Discord.CommandPrefix = "!"
	}
	if public.Tally.Concurrency == 0 {
		public.Tally.Concurrency = 8
	}
	if public.Tally.LookupTimeout == 0 {
		public.Tally.LookupTimeout = 5 * time.Second
	}
	if public.Storage.Backend == "" {
		public.Storage.Backend = BackendFile
	}
	if public.Storage.DataDir == "" {
		public.Storage.DataDir = "./data"
	}
	if public.Storage.SqlitePath == "" {
		public.Storage.SqlitePath = "./data/contest.db"
	}
	if public.Log.Level == "" {
		public.Log.Level = "info"
	}
}

func loadPath(configPath string, output interface{}) error {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file does not exist: %s", configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("can't read config file %s: %w", configPath, err)
	}
	if err := yaml.Unmarshal(configFile, output); err != nil {
		return fmt.Errorf("can't unmarshal config file %s: %w", configPath, err)
	}
	return nil
}

// Load reads public.yaml and private.yaml from configFolder, applies
// defaults and validates the result.
func Load(configFolder string) (*Config, error) {
	var public Public
	if err := loadPath(path.Join(configFolder, "public.yaml"), &public); err != nil {
		return nil, err
	}
	var private Private
	if err := loadPath(path.Join(configFolder, "private.yaml"), &private); err != nil {
		return nil, err
	}
	if token := os.Getenv("DISCORD_TOKEN"); token != "" {
		private.DiscordToken = token
	}

	setDefaults(&public)
	cfg := &Config{Public: public, Private: private}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if public.Storage.Backend == BackendPostgres && private.Pg == nil {
		return nil, fmt.Errorf("invalid config: storage backend %q needs a pg section in private.yaml", BackendPostgres)
	}
	return cfg, nil
}

func MustLoad(configFolder string) *Config {
	cfg, err := Load(configFolder)
	if err != nil {
		panic(err.Error())
	}
	return cfg
}
