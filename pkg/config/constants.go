package config

// EnvPrefix scopes every environment variable this service reads.
const EnvPrefix = "CLIQSTR"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "CLIQSTR_DB_DSN"
	EnvDBHost = "CLIQSTR_DB_HOST"
	EnvDBUser = "CLIQSTR_DB_USER"
	EnvDBName = "CLIQSTR_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
