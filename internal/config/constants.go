package config

import (
	"time"

	"covidvax/pkg/contracts"
)

// Application constants
const (
	AppName    = "covidvax"
	AppTitle   = "Covid Cases based on MoH data"
	AppVersion = contracts.Version

	// EnvPrefix namespaces every environment variable, e.g. COVIDVAX_SERVER_PORT
	EnvPrefix = "COVIDVAX"

	// ConfigFileEnv names the YAML file to merge under the environment
	ConfigFileEnv     = "COVIDVAX_CONFIG_FILE"
	DefaultConfigFile = "config.yaml"
	DefaultEnvFile    = ".env"

	// DefaultSourceURL is the published vaccination status dataset
	DefaultSourceURL = "https://storage.data.gov.my/healthcare/covid_cases_vaxstatus.parquet"
)

// Source formats
const (
	FormatAuto    = "auto"
	FormatParquet = "parquet"
	FormatCSV     = "csv"
)

// Chart kinds
const (
	ChartBar  = "bar"
	ChartLine = "line"
)

// Defaults shared by Default and the CLI flags
const (
	DefaultPort            = 8080
	DefaultSourceTimeout   = 30 * time.Second
	DefaultMaxAttempts     = 3
	DefaultInitialBackoff  = 500 * time.Millisecond
	DefaultMaxBackoff      = 5 * time.Second
	DefaultRequestTimeout  = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
)

// API paths
const (
	APIBasePath     = "/api"
	CasesEndpoint   = "/api/cases"
	HealthEndpoint  = "/api/health"
	VersionEndpoint = "/api/version"
	MetricsEndpoint = "/metrics"
	ChartEndpoint   = "/chart"
)
