package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Configure sets up the process-wide logger. Progress lines go to
// stderr so stdout stays clean for rendered reports. An optional file
// receives a copy of everything.
func Configure(level logrus.Level, jsonFormat bool, filePath string) {
	if jsonFormat {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	logrus.SetLevel(level)

	if filePath == "" {
		logrus.SetOutput(os.Stderr)
		return
	}
	if file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666); err == nil {
		logrus.SetOutput(io.MultiWriter(os.Stderr, file))
	} else {
		logrus.SetOutput(os.Stderr)
		logrus.WithError(err).Error("Could not create file for logging")
	}
}
