package config

const (
	EnvPrefix = "wildscope"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv        = "WILDSCOPE_APP_ENV"
	EnvDBDSN         = "WILDSCOPE_DB_DSN"
	EnvDBHost        = "WILDSCOPE_DB_HOST"
	EnvDBUser        = "WILDSCOPE_DB_USER"
	EnvDBName        = "WILDSCOPE_DB_NAME"
	EnvRedisURL      = "WILDSCOPE_REDIS_URL"
	EnvGCPProjectID  = "WILDSCOPE_GCP_PROJECT_ID"
	EnvGCSBucket     = "WILDSCOPE_GCS_BUCKET_NAME"
	EnvPubSubSub     = "WILDSCOPE_PUBSUB_IMAGE_SUBSCRIPTION"
	EnvDetectorURL   = "WILDSCOPE_DETECTOR_URL"
	EnvClassifierURL = "WILDSCOPE_CLASSIFIER_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
