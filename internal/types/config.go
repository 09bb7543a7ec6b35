package types

type RunMode string

const (
	// ModeLocal is the mode for local development
	ModeLocal RunMode = "local"
	// ModeServer is the mode for running the storefront/back-office server
	ModeServer RunMode = "server"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
)
