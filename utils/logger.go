package utils

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var consoleWriter = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}

var Logger = zerolog.New(consoleWriter).With().Timestamp().Logger()

// InitLogger rebuilds Logger once the configuration is known. When logFile is
// set, entries are also written to a rotating file.
func InitLogger(logFile string, level string) {
	var out io.Writer = consoleWriter
	if logFile != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   logFile,
			MaxBackups: 3,
			MaxSize:    1,    // megabytes
			MaxAge:     1,    // days
			Compress:   true, // disabled by default
		}
		out = zerolog.MultiLevelWriter(consoleWriter, fileWriter)
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	Logger = zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	if err != nil {
		Logger.Warn().Str("level", level).Msg("Unknown log level, falling back to info")
	}
}
