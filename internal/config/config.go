package config

import (
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const EnvPrefix = "RENTRENTO"

type Config struct {
	Server struct {
		Address        string        `yaml:"address" envconfig:"address"`
		ReadTimeout    time.Duration `yaml:"read_timeout" envconfig:"read_timeout"`
		WriteTimeout   time.Duration `yaml:"write_timeout" envconfig:"write_timeout"`
		IdleTimeout    time.Duration `yaml:"idle_timeout" envconfig:"idle_timeout"`
		RequestTimeout time.Duration `yaml:"request_timeout" envconfig:"request_timeout"`
		AllowedOrigins []string      `yaml:"allowed_origins" envconfig:"allowed_origins"`
	} `yaml:"server" envconfig:"server"`
	Database struct {
		// Driver is one of mysql, pgx, mongo or memory.
		Driver      string `yaml:"driver" envconfig:"driver"`
		URL         string `yaml:"url" envconfig:"url"`
		Name        string `yaml:"name" envconfig:"name"`
		AutoMigrate bool   `yaml:"auto_migrate" envconfig:"auto_migrate"`
	} `yaml:"database" envconfig:"database"`
	Auth struct {
		Secret   string        `yaml:"secret" envconfig:"secret"`
		TokenTTL time.Duration `yaml:"token_ttl" envconfig:"token_ttl"`
	} `yaml:"auth" envconfig:"auth"`
	Redis struct {
		// Addr empty means bookings are serialised in process only.
		Addr     string        `yaml:"addr" envconfig:"addr"`
		Password string        `yaml:"password" envconfig:"password"`
		DB       int           `yaml:"db" envconfig:"db"`
		LockTTL  time.Duration `yaml:"lock_ttl" envconfig:"lock_ttl"`
	} `yaml:"redis" envconfig:"redis"`
	Firebase struct {
		CredentialsFile string `yaml:"credentials_file" envconfig:"credentials_file"`
	} `yaml:"firebase" envconfig:"firebase"`
	Storage struct {
		Endpoint      string `yaml:"endpoint" envconfig:"endpoint"`
		Region        string `yaml:"region" envconfig:"region"`
		Bucket        string `yaml:"bucket" envconfig:"bucket"`
		AccessKey     string `yaml:"access_key" envconfig:"access_key"`
		SecretKey     string `yaml:"secret_key" envconfig:"secret_key"`
		PublicBaseURL string `yaml:"public_base_url" envconfig:"public_base_url"`
	} `yaml:"storage" envconfig:"storage"`
	Worker struct {
		FinisherInterval time.Duration `yaml:"finisher_interval" envconfig:"finisher_interval"`
	} `yaml:"worker" envconfig:"worker"`
	Log struct {
		Level  string `yaml:"level" envconfig:"level"`
		Format string `yaml:"format" envconfig:"format"`
	} `yaml:"log" envconfig:"log"`
}

func Default() Config {
	var cfg Config
	cfg.Server.Address = ":4001"
	cfg.Server.ReadTimeout = 5 * time.Second
	cfg.Server.WriteTimeout = 10 * time.Second
	cfg.Server.IdleTimeout = time.Minute
	cfg.Server.RequestTimeout = 5 * time.Second
	cfg.Server.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	cfg.Database.Driver = "memory"
	cfg.Database.Name = "renTrento"
	cfg.Auth.TokenTTL = 3 * time.Hour
	cfg.Redis.LockTTL = 10 * time.Second
	cfg.Storage.Region = "eu-south-1"
	cfg.Worker.FinisherInterval = time.Minute
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	return cfg
}

// Load reads the yaml file at path over the defaults and then applies
// RENTRENTO_* environment overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrap(err, "read config file")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrap(err, "unmarshal config data")
		}
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "apply environment")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Auth.Secret == "" {
		return errors.New("config: auth.secret is required")
	}
	switch c.Database.Driver {
	case "memory":
	case "mysql", "pgx", "mongo":
		if c.Database.URL == "" {
			return errors.Errorf("config: database.url is required for driver %q", c.Database.Driver)
		}
	default:
		return errors.Errorf("config: unknown database driver %q", c.Database.Driver)
	}
	if c.Server.Address == "" {
		return errors.New("config: server.address is required")
	}
	if c.Server.RequestTimeout <= 0 {
		return errors.New("config: server.request_timeout must be positive")
	}
	if c.Worker.FinisherInterval <= 0 {
		return errors.New("config: worker.finisher_interval must be positive")
	}
	return nil
}
