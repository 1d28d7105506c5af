package config

const (
	// EnvPrefix is intentionally empty: every field names its variable
	// explicitly with the PORTAL_ prefix.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "PORTAL_DB_DSN"
	EnvDBHost = "PORTAL_DB_HOST"
	EnvDBUser = "PORTAL_DB_USER"
	EnvDBName = "PORTAL_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
