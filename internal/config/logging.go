package config

// LoggingConfig selects the level and format of the application logger.
type LoggingConfig struct {
    Level     string // debug, info, warn, error
    Format    string // json or text
    AddSource bool
}

func LoadLoggingConfig() LoggingConfig {
    return LoggingConfig{
        Level:     envStr("LOG_LEVEL", "info"),
        Format:    envStr("LOG_FORMAT", "json"),
        AddSource: envBool("LOG_ADD_SOURCE", false),
    }
}
