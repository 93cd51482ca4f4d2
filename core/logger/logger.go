package logger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Event names.
const (
	EventPipelineStart       = "pipeline.start"
	EventPipelineEnd         = "pipeline.end"
	EventPipelineInterrupted = "pipeline.interrupted"
	EventStageBuiltin        = "stage.builtin"
	EventStageLaunch         = "stage.launch"
	EventStageLaunchFailed   = "stage.launch_failed"
	EventStageExit           = "stage.exit"
	EventStageTerminate      = "stage.terminate"
)

// Config selects where events go.
type Config struct {
	// Level is one of debug, info, warn or error.
	Level string
	// OutputPath is a file path or "stdout"/"stderr". Empty disables logging.
	OutputPath string
}

// Logger captures execution events.
type Logger struct {
	*zap.Logger
}

// New creates a Logger writing JSON lines to cfg.OutputPath.
func New(cfg Config) (*Logger, error) {
	if cfg.OutputPath == "" {
		return Nop(), nil
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
	}

	zapCfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Encoding:          "json",
		EncoderConfig:     encoderConfig(),
		OutputPaths:       []string{cfg.OutputPath},
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     true,
		DisableStacktrace: true,
	}

	zl, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{Logger: zl}, nil
}

// NewWithCore creates a Logger on top of an existing zap core.
func NewWithCore(core zapcore.Core) *Logger {
	return &Logger{Logger: zap.New(core)}
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		MessageKey:     "event",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
	}
}

// NewExecution creates a logger whose events share a fresh execution id.
func (l *Logger) NewExecution() *ExecutionLogger {
	id := uuid.NewString()
	return &ExecutionLogger{
		log:     l.With(zap.String("pipeline_id", id)),
		id:      id,
		started: time.Now(),
	}
}

// ExecutionLogger records the events of one pipeline execution.
type ExecutionLogger struct {
	log     *zap.Logger
	id      string
	started time.Time
}

// ID returns the execution id.
func (e *ExecutionLogger) ID() string {
	return e.id
}

func (e *ExecutionLogger) Start(command string, stages int) {
	e.log.Info(EventPipelineStart, zap.String("command", command), zap.Int("stages", stages))
}

func (e *ExecutionLogger) Builtin(index int, name string) {
	e.log.Info(EventStageBuiltin, zap.Int("stage", index), zap.String("name", name))
}

func (e *ExecutionLogger) Launch(index int, name string, pid int) {
	e.log.Debug(EventStageLaunch, zap.Int("stage", index), zap.String("name", name), zap.Int("pid", pid))
}

func (e *ExecutionLogger) LaunchFailed(index int, name string, err error) {
	e.log.Warn(EventStageLaunchFailed, zap.Int("stage", index), zap.String("name", name), zap.Error(err))
}

// Exit records how a stage finished. err is nil for a zero exit status.
func (e *ExecutionLogger) Exit(index int, name string, err error) {
	if err == nil {
		e.log.Debug(EventStageExit, zap.Int("stage", index), zap.String("name", name), zap.Bool("ok", true))
		return
	}
	e.log.Info(EventStageExit, zap.Int("stage", index), zap.String("name", name), zap.Bool("ok", false), zap.Error(err))
}

func (e *ExecutionLogger) Terminate(index int, pid int, err error) {
	e.log.Info(EventStageTerminate, zap.Int("stage", index), zap.Int("pid", pid), zap.Error(err))
}

func (e *ExecutionLogger) Interrupted() {
	e.log.Info(EventPipelineInterrupted)
}

// End records the aggregate result and the shell-style exit status.
func (e *ExecutionLogger) End(err error, status int) {
	fields := []zap.Field{
		zap.Bool("ok", err == nil),
		zap.Int("status", status),
		zap.Duration("duration", time.Since(e.started)),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	e.log.Info(EventPipelineEnd, fields...)
}
