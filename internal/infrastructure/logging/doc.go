// Package logging provides structured logging for RoboHome Core.
//
// It wraps log/slog so every component logs with the same handler,
// level filter and default fields (service, version).
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("starting service", "port", 8080)
//	house.SetLogger(logger.Component("house"))
//
// Never log MQTT passwords or InfluxDB tokens.
package logging
