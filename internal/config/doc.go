// Package config handles configuration loading, parsing, and validation
// from a .env file, an optional config.yaml and TASKFLOW_-prefixed environment
// variables. Unprefixed variables used by older deployments (PORT,
// DATABASE_URL, MONGODB_URI, ALLOWED_ORIGINS) are honored as fallbacks.
package config
