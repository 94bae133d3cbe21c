package command

import (
	"os"

	log "github.com/sirupsen/logrus"
)

func parseLevel(logLevel string) log.Level {
	level := log.DebugLevel
	switch logLevel {
	case "info":
		level = log.InfoLevel

	case "warn":
		level = log.WarnLevel

	case "error":
		level = log.ErrorLevel

	case "debug":
		level = log.DebugLevel

	case "trace":
		level = log.TraceLevel
	}

	return level
}

func setupLogging(logFile, logLevel string) {
	log.SetLevel(parseLevel(logLevel))
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	if logFile == "" || logFile == "stdout" {
		log.SetOutput(os.Stdout)
		return
	}

	f, err := os.OpenFile(logFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		panic(err)
	}
	log.SetOutput(f)
}
