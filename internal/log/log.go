package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"

	"github.com/nandias/storefront/internal/config"
	"github.com/nandias/storefront/internal/constants"
)

var (
	once   sync.Once
	logger zerolog.Logger
)

// Get initializes the process-wide logger. Development runs log everything
// with a human-readable console, everything else logs info and up as JSON;
// both tee into a size-rotated file at filepath.
func Get(filepath string, config config.Application) zerolog.Logger {
	once.Do(func() {
		zerolog.DurationFieldUnit = time.Microsecond
		zerolog.ErrorFieldName = "error"
		zerolog.ErrorStackFieldName = "stack-trace"
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
		zerolog.LevelFieldName = "level"
		zerolog.MessageFieldName = "message"
		zerolog.TimeFieldFormat = time.RFC3339Nano
		zerolog.TimestampFieldName = "timestamp"

		logLevel := zerolog.InfoLevel
		var stdoutWriter io.Writer = os.Stdout
		if config.Env == "development" {
			logLevel = zerolog.TraceLevel
			stdoutWriter = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339Nano}
		}

		fileWriter := &lumberjack.Logger{
			Filename:   filepath,
			MaxSize:    100,
			MaxBackups: 7,
			MaxAge:     28,
			Compress:   true,
		}
		output := zerolog.MultiLevelWriter(stdoutWriter, fileWriter)

		logger = zerolog.New(output).
			Level(logLevel).
			With().
			Timestamp().
			Caller().
			Stack().
			Str(constants.KEY_APP_NAME, constants.APP_STOREFRONT).
			Int("pid", os.Getpid()).
			Logger()

		logger.Info().
			Str(constants.KEY_TAG, "InitLogger").
			Str(constants.KEY_PROCESS, "InitLogger").
			Msg("finish initiating logging")
	})
	return logger
}
