package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/2beens/repcoach/pkg"
)

const logFileMaxSizeMB = 50

type LoggerSetupParams struct {
	// ServiceName is added as the "service" field to every entry and used as the sentry server name.
	ServiceName   string
	Environment   string
	LogLevel      string
	LogFormatJSON bool
	// LogFileName enables a rotated log file; LogToStdout then also keeps the console output.
	LogFileName string
	LogToStdout bool
	// Console defaults to os.Stdout.
	Console       io.Writer
	SentryEnabled bool
	SentryDSN     string
}

func Setup(params LoggerSetupParams) {
	console := params.Console
	if console == nil {
		console = os.Stdout
	}

	if params.LogFormatJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	}
	logrus.SetLevel(GetLevel(params.LogLevel))

	if params.ServiceName != "" {
		logrus.AddHook(newFieldsHook(logrus.Fields{
			"service": params.ServiceName,
			"env":     params.Environment,
		}))
	}

	if params.SentryEnabled {
		setupSentry(params)
	}

	logrus.SetOutput(output(params.LogFileName, params.LogToStdout, console))
}

func setupSentry(params LoggerSetupParams) {
	err := sentry.Init(sentry.ClientOptions{
		Environment:      params.Environment,
		Dsn:              params.SentryDSN,
		TracesSampleRate: 1.0,
		ServerName:       params.ServiceName,
	})
	if err != nil {
		logrus.Errorf("sentry init: %s", err)
		return
	}
	logrus.AddHook(NewSentryHook([]logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
	}))
	logrus.Infoln("sentry set up successfully")
}

func output(fileName string, alsoConsole bool, console io.Writer) io.Writer {
	if fileName == "" {
		return console
	}
	if filepath.Ext(fileName) != ".log" {
		fileName += ".log"
	}

	rotated := &lumberjack.Logger{
		Filename:  fileName,
		MaxSize:   logFileMaxSizeMB,
		LocalTime: false, // UTC
		Compress:  true,
	}
	if alsoConsole {
		return pkg.NewCombinedWriter(console, rotated)
	}
	return rotated
}

// GetLevel parses the configured level, info when empty or unknown.
func GetLevel(level string) logrus.Level {
	parsed, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}

// fieldsHook sets fixed fields on every entry, unless the entry already carries them.
type fieldsHook struct {
	fields logrus.Fields
}

func newFieldsHook(fields logrus.Fields) *fieldsHook {
	return &fieldsHook{fields: fields}
}

func (h *fieldsHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *fieldsHook) Fire(entry *logrus.Entry) error {
	for k, v := range h.fields {
		if _, ok := entry.Data[k]; !ok {
			entry.Data[k] = v
		}
	}
	return nil
}
