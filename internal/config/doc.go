// Package config loads the dashboard configuration.
//
// Values are resolved in three layers, later layers winning:
//
//  1. Default()
//  2. the YAML file named by COVIDVAX_CONFIG_FILE (config.yaml when unset and present)
//  3. COVIDVAX_* environment variables, after an optional .env file is applied
//
// Environment variables follow the struct layout:
//
//	COVIDVAX_SERVER_PORT=8080
//	COVIDVAX_SOURCE_URL=https://storage.data.gov.my/healthcare/covid_cases_vaxstatus.parquet
//	COVIDVAX_SOURCE_TIMEOUT=30s
//	COVIDVAX_SOURCE_MAX_ATTEMPTS=3
//	COVIDVAX_DASHBOARD_CHART_KIND=line
//	COVIDVAX_LOGGING_LEVEL=debug
//
// The equivalent YAML:
//
//	server:
//	  port: 8080
//	source:
//	  url: ./covid_cases_vaxstatus.parquet
//	  format: parquet
//	dashboard:
//	  chart_kind: bar
package config
