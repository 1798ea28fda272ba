package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App        AppConfig
	Service    ServiceConfig
	DB         DBConfig
	Redis      RedisConfig
	GCP        GCPConfig
	GCS        GCSConfig
	PubSub     PubSubConfig
	Tracking   TrackingConfig
	Detector   DetectorConfig
	Classifier ClassifierConfig
	Pipeline   PipelineConfig
	Ops        OpsConfig
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
	Env          string `envconfig:"WILDSCOPE_APP_ENV" required:"true"`
	LogLevel     string `envconfig:"WILDSCOPE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"WILDSCOPE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"WILDSCOPE_SERVICE_KIND" default:"detection-worker"`
}

type DBConfig struct {
	DSN    string `envconfig:"WILDSCOPE_DB_DSN"`
	Driver string `envconfig:"WILDSCOPE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"WILDSCOPE_DB_HOST"`
	LegacyPort     int    `envconfig:"WILDSCOPE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"WILDSCOPE_DB_USER"`
	LegacyPassword string `envconfig:"WILDSCOPE_DB_PASSWORD"`
	LegacyName     string `envconfig:"WILDSCOPE_DB_NAME"`
	LegacySSLMode  string `envconfig:"WILDSCOPE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"WILDSCOPE_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"WILDSCOPE_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"WILDSCOPE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"WILDSCOPE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"WILDSCOPE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"WILDSCOPE_REDIS_ADDR"`
	Password     string        `envconfig:"WILDSCOPE_REDIS_PASSWORD"`
	DB           int           `envconfig:"WILDSCOPE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"WILDSCOPE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"WILDSCOPE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"WILDSCOPE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"WILDSCOPE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"WILDSCOPE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"WILDSCOPE_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"WILDSCOPE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"WILDSCOPE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"WILDSCOPE_GCS_BUCKET_NAME" required:"true"`
}

type PubSubConfig struct {
	ImageTopic        string `envconfig:"WILDSCOPE_PUBSUB_IMAGE_TOPIC"`
	ImageSubscription string `envconfig:"WILDSCOPE_PUBSUB_IMAGE_SUBSCRIPTION" required:"true"`
}

// TrackingConfig controls the low-latency status store polled by uploaders.
type TrackingConfig struct {
	KeyPrefix string        `envconfig:"WILDSCOPE_TRACKING_KEY_PREFIX" default:"sensor-tracking"`
	TTL       time.Duration `envconfig:"WILDSCOPE_TRACKING_TTL" default:"720h"`
}

type DetectorConfig struct {
	BaseURL             string        `envconfig:"WILDSCOPE_DETECTOR_URL" required:"true"`
	ConfidenceThreshold float64       `envconfig:"WILDSCOPE_DETECTOR_THRESHOLD" default:"0.6"`
	Timeout             time.Duration `envconfig:"WILDSCOPE_DETECTOR_TIMEOUT" default:"120s"`
}

type ClassifierConfig struct {
	BaseURL             string        `envconfig:"WILDSCOPE_CLASSIFIER_URL" required:"true"`
	ConfidenceThreshold float64       `envconfig:"WILDSCOPE_CLASSIFIER_THRESHOLD" default:"0.5"`
	TopK                int           `envconfig:"WILDSCOPE_CLASSIFIER_TOP_K" default:"5"`
	Timeout             time.Duration `envconfig:"WILDSCOPE_CLASSIFIER_TIMEOUT" default:"60s"`
}

// PipelineConfig carries the scoring and cropping knobs. SharpnessScale is
// an empirical normalization constant for typical camera-trap imagery, not
// a universal constant; tune per deployment.
type PipelineConfig struct {
	ReviewCutoff    float64 `envconfig:"WILDSCOPE_PIPELINE_REVIEW_CUTOFF" default:"0.8"`
	SharpnessScale  float64 `envconfig:"WILDSCOPE_PIPELINE_SHARPNESS_SCALE" default:"500"`
	CropPadding     float64 `envconfig:"WILDSCOPE_PIPELINE_CROP_PADDING" default:"0.1"`
	CropJPEGQuality int     `envconfig:"WILDSCOPE_PIPELINE_CROP_JPEG_QUALITY" default:"95"`
}

// OpsConfig covers the worker's health/metrics listener.
type OpsConfig struct {
	Port string `envconfig:"WILDSCOPE_OPS_PORT" default:"9090"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
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
