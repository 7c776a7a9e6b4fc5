// Package logging provides structured logging using uber/zap.
//
// Two modes are available:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Library packages never build their own logger. They accept a *zap.Logger
// and derive a named child with Component, falling back to a no-op logger.
//
// Example Usage:
//
//	logger, err := logging.New(logging.ForEnvironment("info", false))
//	if err != nil {
//		return err
//	}
//	logger.Info("Extraction starting", zap.String("dump", path))
//	ex := xmlstream.New(xmlstream.Options{}, logger.Logger, nil)
package logging
