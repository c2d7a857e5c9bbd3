package quic

import (
	"time"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/goburrow/quicoutq/transport"
)

// levelMap mirrors cppla-moto's utils/log.go level lookup: a plain string
// level from config gates a zapcore.LevelEnablerFunc.
var levelMap = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
}

// NewLogger builds a *zap.Logger writing JSON through a lumberjack
// rotating sink, gated by level. Grounded on cppla-moto/utils/log.go,
// switched here to accept level/path as parameters instead of reading a
// package-level config global so multiple Endpoints can log independently.
func NewLogger(level, path string) *zap.Logger {
	min, ok := levelMap[level]
	if !ok {
		min = zapcore.InfoLevel
	}
	enabler := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= min
	})
	hook := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    1024,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	}
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     timeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(hook), enabler)
	return zap.New(core, zap.AddCaller())
}

func timeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05.000"))
}

// qlogSink bridges transport's qlog-style LogEvent stream (transport/log.go,
// kept close to the teacher's own log.go shape) into the same rotating
// JSON sink operational logs use, so protocol-level events are not a
// second, differently-formatted log stream.
type qlogSink struct {
	log *zap.Logger
}

func newQlogSink(log *zap.Logger) *qlogSink {
	return &qlogSink{log: log}
}

func (s *qlogSink) Log(e transport.LogEvent) {
	fields := make([]zap.Field, 0, len(e.Fields)+1)
	fields = append(fields, zap.Time("qlog_time", e.Time))
	var frameType string
	for _, f := range e.Fields {
		if f.Key == "frame_type" {
			frameType = f.Str
		}
		if f.Str != "" {
			fields = append(fields, zap.String(f.Key, f.Str))
		} else {
			fields = append(fields, zap.Uint64(f.Key, f.Num))
		}
	}
	s.log.Debug(e.Type, fields...)
	recordQlogMetric(e.Type, frameType)
}

// recordQlogMetric folds the three frame-lifecycle qlog events into the
// frames_{enqueued,acked,lost} counters, so every enqueue/ack/loss path —
// StreamTail, ControlTail, DatagramTail, TransmittedSack, RetransmitMark —
// is counted uniformly through the one LogSink every Conn already has,
// rather than each call site remembering to touch metrics directly.
func recordQlogMetric(eventType, frameType string) {
	if frameType == "" {
		return
	}
	switch eventType {
	case "frame_enqueued":
		framesEnqueued.WithValues(frameType).Inc(1)
	case "frame_acked":
		framesAcked.WithValues(frameType).Inc(1)
	case "frame_lost":
		framesLost.WithValues(frameType).Inc(1)
	}
}

// zapEventSink logs every OutQ event before delegating the veto decision
// to an optional wrapped sink; nil next means nothing is ever auto-handled
// (the same default ChanEventSink uses on its own).
type zapEventSink struct {
	log  *zap.Logger
	next transport.EventSink
}

func newZapEventSink(log *zap.Logger, next transport.EventSink) *zapEventSink {
	return &zapEventSink{log: log, next: next}
}

func (s *zapEventSink) Recv(kind transport.EventKind, payload any) bool {
	s.log.Debug("connection_event", zap.Int("kind", int(kind)), zap.Any("payload", payload))
	if s.next != nil {
		return s.next.Recv(kind, payload)
	}
	return false
}
