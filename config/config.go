package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ServerPort int    `yaml:"server_port"`
	LogLevel   string `yaml:"log_level"`
	JWTSecret  string `yaml:"jwt_secret"`
	IDPrefix   string `yaml:"id_prefix"`

	// Persistence selects where records and users live: "json" or "postgres".
	Persistence string         `yaml:"persistence"`
	Data        DataConfig     `yaml:"data"`
	Database    DatabaseConfig `yaml:"database"`
	Storage     StorageConfig  `yaml:"storage"`
	MQ          MQConfig       `yaml:"mq"`
	Backup      BackupConfig   `yaml:"backup"`
	SMTP        SMTPConfig     `yaml:"smtp"`
}

type DataConfig struct {
	RecordsFile string `yaml:"records_file"`
	UsersFile   string `yaml:"users_file"`
	UploadDir   string `yaml:"upload_dir"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"db_name"`
	UseSSL   bool   `yaml:"use_ssl"`
}

type StorageConfig struct {
	// Backend is one of "local", "minio" or "gcs".
	Backend  string      `yaml:"backend"`
	LocalDir string      `yaml:"local_dir"`
	Minio    MinioConfig `yaml:"minio"`
	GCS      GCSConfig   `yaml:"gcs"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type GCSConfig struct {
	Bucket          string `yaml:"bucket"`
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

type MQConfig struct {
	// Backend is one of "memory", "rabbitmq" or "pubsub".
	Backend  string         `yaml:"backend"`
	Channel  string         `yaml:"channel"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	PubSub   PubSubConfig   `yaml:"pubsub"`
}

type RabbitMQConfig struct {
	URL             string `yaml:"url"`
	QueueDurable    bool   `yaml:"queue_durable"`
	QueueAutoDelete bool   `yaml:"queue_auto_delete"`
	PrefetchCount   int    `yaml:"prefetch_count"`
}

type PubSubConfig struct {
	ProjectID          string `yaml:"project_id"`
	CredentialsFile    string `yaml:"credentials_file"`
	SubscriptionSuffix string `yaml:"subscription_suffix"`
}

type BackupConfig struct {
	// Schedule is a cron expression; empty disables scheduled backups.
	Schedule    string `yaml:"schedule"`
	NotifyEmail string `yaml:"notify_email"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Sender   string `yaml:"sender"`
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	cfg := Defaults()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadYAML(path, &cfg); err != nil {
			fmt.Fprintf(os.Stderr, "ignoring config file %s: %v\n", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		ServerPort:  8080,
		LogLevel:    "info",
		JWTSecret:   "",
		IDPrefix:    "MAYOR'S OFFICE",
		Persistence: "json",
		Data: DataConfig{
			RecordsFile: "records.json",
			UsersFile:   "users.json",
			UploadDir:   "uploads",
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "recordkeeper",
			Password: "password",
			DBName:   "recordkeeper_db",
		},
		Storage: StorageConfig{
			Backend:  "local",
			LocalDir: "backups",
		},
		MQ: MQConfig{
			Backend: "memory",
			Channel: "record-events",
		},
		SMTP: SMTPConfig{
			Port: "587",
		},
	}
}

func loadYAML(path string, cfg *Config) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(buf, cfg)
}

func applyEnv(cfg *Config) {
	cfg.ServerPort = getEnvInt("SERVER_PORT", cfg.ServerPort)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.IDPrefix = getEnv("RECORD_ID_PREFIX", cfg.IDPrefix)
	cfg.Persistence = getEnv("PERSISTENCE", cfg.Persistence)

	cfg.Data.RecordsFile = getEnv("RECORDS_FILE", cfg.Data.RecordsFile)
	cfg.Data.UsersFile = getEnv("USERS_FILE", cfg.Data.UsersFile)
	cfg.Data.UploadDir = getEnv("UPLOAD_DIR", cfg.Data.UploadDir)

	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnvInt("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.DBName = getEnv("DB_NAME", cfg.Database.DBName)
	cfg.Database.UseSSL = getEnvBool("DB_USE_SSL", cfg.Database.UseSSL)

	cfg.Storage.Backend = getEnv("STORAGE_BACKEND", cfg.Storage.Backend)
	cfg.Storage.LocalDir = getEnv("BACKUP_DIR", cfg.Storage.LocalDir)
	cfg.Storage.Minio.Endpoint = getEnv("MINIO_ENDPOINT", cfg.Storage.Minio.Endpoint)
	cfg.Storage.Minio.AccessKey = getEnv("MINIO_ACCESS_KEY", cfg.Storage.Minio.AccessKey)
	cfg.Storage.Minio.SecretKey = getEnv("MINIO_SECRET_KEY", cfg.Storage.Minio.SecretKey)
	cfg.Storage.Minio.Bucket = getEnv("MINIO_BUCKET", cfg.Storage.Minio.Bucket)
	cfg.Storage.Minio.UseSSL = getEnvBool("MINIO_USE_SSL", cfg.Storage.Minio.UseSSL)
	cfg.Storage.GCS.Bucket = getEnv("GCS_BUCKET", cfg.Storage.GCS.Bucket)
	cfg.Storage.GCS.ProjectID = getEnv("GCS_PROJECT_ID", cfg.Storage.GCS.ProjectID)
	cfg.Storage.GCS.CredentialsFile = getEnv("GCS_CREDENTIALS_FILE", cfg.Storage.GCS.CredentialsFile)

	cfg.MQ.Backend = getEnv("MQ_BACKEND", cfg.MQ.Backend)
	cfg.MQ.Channel = getEnv("MQ_CHANNEL", cfg.MQ.Channel)
	cfg.MQ.RabbitMQ.URL = getEnv("RABBITMQ_URL", cfg.MQ.RabbitMQ.URL)
	cfg.MQ.RabbitMQ.QueueDurable = getEnvBool("RABBITMQ_QUEUE_DURABLE", cfg.MQ.RabbitMQ.QueueDurable)
	cfg.MQ.RabbitMQ.QueueAutoDelete = getEnvBool("RABBITMQ_QUEUE_AUTO_DELETE", cfg.MQ.RabbitMQ.QueueAutoDelete)
	cfg.MQ.RabbitMQ.PrefetchCount = getEnvInt("RABBITMQ_PREFETCH", cfg.MQ.RabbitMQ.PrefetchCount)
	cfg.MQ.PubSub.ProjectID = getEnv("PUBSUB_PROJECT_ID", cfg.MQ.PubSub.ProjectID)
	cfg.MQ.PubSub.CredentialsFile = getEnv("PUBSUB_CREDENTIALS_FILE", cfg.MQ.PubSub.CredentialsFile)
	cfg.MQ.PubSub.SubscriptionSuffix = getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", cfg.MQ.PubSub.SubscriptionSuffix)

	cfg.Backup.Schedule = getEnv("BACKUP_SCHEDULE", cfg.Backup.Schedule)
	cfg.Backup.NotifyEmail = getEnv("BACKUP_NOTIFY_EMAIL", cfg.Backup.NotifyEmail)

	cfg.SMTP.Host = getEnv("SMTP_HOST", cfg.SMTP.Host)
	cfg.SMTP.Port = getEnv("SMTP_PORT", cfg.SMTP.Port)
	cfg.SMTP.Username = getEnv("SMTP_USERNAME", cfg.SMTP.Username)
	cfg.SMTP.Password = getEnv("SMTP_PASSWORD", cfg.SMTP.Password)
	cfg.SMTP.Sender = getEnv("SMTP_SENDER", cfg.SMTP.Sender)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		if _, err := fmt.Sscanf(valueStr, "%d", &value); err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	switch strings.ToLower(strings.TrimSpace(valueStr)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaultValue
	}
}
