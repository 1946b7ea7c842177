package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type SyncConfig struct {
	Env          string `yaml:"env" env-default:"local"`
	HTTPServer   `yaml:"http_server"`
	SyncDB       `yaml:"sync_db"`
	LogConfig    `yaml:"log_config"`
	LDAPService  `yaml:"ldap-service"`
	DuoService   `yaml:"duo-service"`
	KafkaService `yaml:"kafka-service"`
	Enrollment   `yaml:"enrollment"`
	AdminAPI     `yaml:"admin_api"`
}

type HTTPServer struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type SyncDB struct {
	Dsn            string `yaml:"dsn"`
	MigrationsPath string `yaml:"migrations_path"`
}

type LogConfig struct {
	LogLevel  string `yaml:"log_level" env-default:"info"`
	LogFormat string `yaml:"log_format" env-default:"text"`
	LogOutput string `yaml:"log_output" env-default:"stderr"`
}

type LDAPService struct {
	URL           string `yaml:"url"`
	BindDN        string `yaml:"bind_dn"`
	Password      string `yaml:"password"`
	Base          string `yaml:"base"`
	UsersGroupDN  string `yaml:"users_group_dn"`
	LockedGroupDN string `yaml:"locked_group_dn"`
	PageSize      uint32 `yaml:"page_size" env-default:"500"`
}

type DuoService struct {
	IKey         string `yaml:"ikey"`
	SKey         string `yaml:"skey"`
	APIHost      string `yaml:"api_host"`
	DirectoryKey string `yaml:"directory_key"`
}

type KafkaService struct {
	Host    string `yaml:"host"`
	Port    string `yaml:"port"`
	Topic   string `yaml:"topic" env-default:"mfa-jobs"`
	GroupID string `yaml:"group_id" env-default:"mfa-sync-service"`
}

type Enrollment struct {
	// Window is an ISO-8601 duration, e.g. P3D.
	Window        string        `yaml:"window" env-default:"P3D"`
	SyncInterval  time.Duration `yaml:"sync_interval" env-default:"1h"`
	SweepInterval time.Duration `yaml:"sweep_interval" env-default:"1h"`
	DryRun        bool          `yaml:"dry_run" env-default:"false"`
}

type AdminAPI struct {
	ReadToken   string `yaml:"read_token"`
	UnlockToken string `yaml:"unlock_token"`
}

func MustLoad() *SyncConfig {

	// Processing env config variable and file
	configPath := os.Getenv("MFA_CONFIG_PATH")

	if configPath == "" {
		log.Fatalf("MFA_CONFIG_PATH was not found\n")
	}

	if _, err := os.Stat(configPath); err != nil {
		log.Fatalf("failed to find config file: %v\n", err)
	}

	// YAML to struct object
	var cfg SyncConfig
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("failed to read config file: %v", err)
	}

	return &cfg
}
