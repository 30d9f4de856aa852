// Package logger builds the zap loggers used across StatStore.
//
//	log := logger.New("DEBUG", logger.FormatJSON)
//	storage, err := mongo.NewStorage(conn, mongo.WithLogger(log))
//
// Components log through named sub-loggers, see For and the Component
// constants.
package logger
