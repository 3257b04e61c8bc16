package config

const (
	// EnvPrefix namespaces every environment variable the app reads.
	EnvPrefix = "LEDOVALLEY"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "LEDOVALLEY_DB_DSN"
	EnvDBHost = "LEDOVALLEY_DB_HOST"
	EnvDBUser = "LEDOVALLEY_DB_USER"
	EnvDBName = "LEDOVALLEY_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
