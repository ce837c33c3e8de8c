package config

import (
	"fmt"
	"github.com/ilyakaznacheev/cleanenv"
	"log"
	"sync"
	"time"
)

const (
	BackendFirebase = "firebase"
	BackendMongo    = "mongo"
	BackendMemory   = "memory"
)

type Config struct {
	Env     string `yaml:"env" env:"ENV" env-default:"local"`
	Backend string `yaml:"backend" env:"BACKEND" env-default:"firebase"`
	Listen  struct {
		BindIP string `yaml:"bind_ip" env:"LISTEN_BIND_IP" env-default:"127.0.0.1"`
		Port   string `yaml:"port" env:"LISTEN_PORT" env-default:"9100"`
	} `yaml:"listen"`
	Session struct {
		Secret     string        `yaml:"secret" env:"SESSION_SECRET" env-default:""`
		TTL        time.Duration `yaml:"ttl" env:"SESSION_TTL" env-default:"720h"`
		CookieName string        `yaml:"cookie_name" env-default:"wechat_session"`
		Secure     bool          `yaml:"secure" env:"SESSION_SECURE" env-default:"false"`
	} `yaml:"session"`
	Firebase struct {
		ProjectID        string `yaml:"project_id" env:"FIREBASE_PROJECT_ID" env-default:""`
		ApiKey           string `yaml:"api_key" env:"FIREBASE_API_KEY" env-default:""`
		CredentialsFile  string `yaml:"credentials_file" env:"GOOGLE_APPLICATION_CREDENTIALS" env-default:""`
		AuthEmulatorHost string `yaml:"auth_emulator_host" env:"FIREBASE_AUTH_EMULATOR_HOST" env-default:""`
	} `yaml:"firebase"`
	Mongo struct {
		Host     string `yaml:"host" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env-default:"27017"`
		User     string `yaml:"user" env-default:"admin"`
		Password string `yaml:"password" env:"MONGO_PASSWORD" env-default:"pass"`
		Database string `yaml:"database" env-default:"wechat"`
		Options  string `yaml:"options" env-default:"replicaSet=rs0"`
	} `yaml:"mongo"`
	Telegram struct {
		Enabled bool   `yaml:"enabled" env-default:"false"`
		ApiKey  string `yaml:"api_key" env:"TELEGRAM_API_KEY" env-default:""`
		AdminId int64  `yaml:"admin_id" env-default:"0"`
	} `yaml:"telegram"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("%s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
		if err = instance.Validate(); err != nil {
			log.Fatal(err)
		}
	})
	return instance
}

// Validate checks the settings that have no usable default.
func (c *Config) Validate() error {
	if c.Session.Secret == "" {
		return fmt.Errorf("session secret is required")
	}
	switch c.Backend {
	case BackendFirebase:
		if c.Firebase.ProjectID == "" {
			return fmt.Errorf("firebase project_id is required for the firebase backend")
		}
	case BackendMongo, BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.Firebase.ApiKey == "" && c.Firebase.AuthEmulatorHost == "" {
		return fmt.Errorf("firebase api_key is required for sign-in")
	}
	return nil
}
