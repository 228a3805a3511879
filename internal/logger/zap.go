package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the sugared zap logger handed to every boost component. The
// key/value style (Infow, Debugw, Errorw) carries structured fields like
// instance_id and thermostat through the whole lifecycle log stream.
type Logger struct {
	*zap.SugaredLogger
}

// Unknown level strings fall back to debug so a misconfigured deployment
// logs more rather than less.
const fallbackLevel = zapcore.DebugLevel

var levelsByName = map[string]zapcore.Level{
	DebugLevel: zapcore.DebugLevel,
	InfoLevel:  zapcore.InfoLevel,
	WarnLevel:  zapcore.WarnLevel,
	ErrorLevel: zapcore.ErrorLevel,
}

func parseLevel(name string) zapcore.Level {
	if lvl, ok := levelsByName[name]; ok {
		return lvl
	}
	return fallbackLevel
}

// newZapLogger builds a console-encoded logger writing to stdout. Timer
// expiries can fire from background goroutines, so the writer is locked.
func newZapLogger(levelName string) *Logger {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = ""
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(cfg),
		zapcore.AddSync(zapcore.Lock(os.Stdout)),
		zap.NewAtomicLevelAt(parseLevel(levelName)),
	)
	return &Logger{SugaredLogger: zap.New(core).Sugar()}
}
