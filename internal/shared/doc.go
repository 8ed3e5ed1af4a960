// Package shared holds helpers used by more than one package. Its testutil
// subpackage provides the buffered slog handler and the case dataset
// fixtures (parquet and CSV writers) the package tests share.
package shared
