package transport

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// Supported log events, named after
// https://quiclog.github.io/internet-drafts/draft-marx-qlog-event-definitions-quic-h3.html
const (
	logEventFrameEnqueued    = "frame_enqueued"
	logEventPacketSent       = "packet_sent"
	logEventFrameAcked       = "frame_acked"
	logEventFrameLost        = "frame_lost"
	logEventConnectionClosed = "connection_closed"
)

// LogEvent is a qlog-style structured event OutQ can emit through an
// attached LogSink. Grounded on the teacher's LogEvent/LogField/String,
// generalized from per-packet/per-frame wire events to the queue-manager
// events this engine actually produces.
type LogEvent struct {
	Time   time.Time
	Type   string
	Fields []LogField
}

func newLogEvent(tm time.Time, tp string) LogEvent {
	return LogEvent{
		Time:   tm,
		Type:   tp,
		Fields: make([]LogField, 0, 8),
	}
}

func (e *LogEvent) addField(k string, v interface{}) {
	e.Fields = append(e.Fields, newLogField(k, v))
}

func (e LogEvent) String() string {
	buf := bytes.Buffer{}
	buf.WriteString(e.Time.Format(time.RFC3339))
	buf.WriteString(" ")
	buf.WriteString(e.Type)
	for _, f := range e.Fields {
		buf.WriteString(" ")
		buf.WriteString(f.String())
	}
	return buf.String()
}

// LogField represents a number or string value.
type LogField struct {
	Key string
	Str string
	Num uint64
}

func newLogField(key string, val interface{}) LogField {
	s := LogField{Key: key}
	switch val := val.(type) {
	case int:
		s.Num = uint64(val)
	case int8:
		s.Num = uint64(val)
	case int16:
		s.Num = uint64(val)
	case int32:
		s.Num = uint64(val)
	case int64:
		s.Num = uint64(val)
	case uint:
		s.Num = uint64(val)
	case uint8:
		s.Num = uint64(val)
	case uint16:
		s.Num = uint64(val)
	case uint32:
		s.Num = uint64(val)
	case uint64:
		s.Num = val
	case bool:
		s.Str = strconv.FormatBool(val)
	case string:
		s.Str = val
	case []byte:
		s.Str = hex.EncodeToString(val)
	case time.Duration:
		s.Str = val.String()
	default:
		panic("transport: unsupported type for log field")
	}
	return s
}

func (s LogField) String() string {
	if s.Str == "" {
		return fmt.Sprintf("%s=%d", s.Key, s.Num)
	}
	return fmt.Sprintf("%s=%s", s.Key, s.Str)
}

// LogSink receives OutQ's structured log events. A caller wires one via
// Deps to a zap core, a qlog file, or anything else observing the engine.
type LogSink interface {
	Log(LogEvent)
}

func logFrame(e *LogEvent, f *Frame) {
	e.addField("frame_type", frameTypeName(f.Type))
	e.addField("level", f.Level.String())
	if f.Bytes > 0 {
		e.addField("bytes", f.Bytes)
	}
	if f.Stream != nil {
		e.addField("stream_id", f.Stream.ID)
		e.addField("offset", f.Offset)
	}
	if f.Number != NumberUnset {
		e.addField("packet_number", f.Number)
	}
}

func frameTypeName(t FrameType) string {
	switch t {
	case FrameCrypto:
		return "crypto"
	case FrameAck:
		return "ack"
	case FramePing:
		return "ping"
	case FrameConnectionClose:
		return "connection_close"
	case FrameConnectionCloseApp:
		return "connection_close_app"
	case FrameHandshakeDone:
		return "handshake_done"
	case FrameStream:
		return "stream"
	case FrameResetStream:
		return "reset_stream"
	case FrameStreamDataBlocked:
		return "stream_data_blocked"
	case FrameDataBlocked:
		return "data_blocked"
	case FrameDatagram:
		return "datagram"
	default:
		return "unknown"
	}
}

func newLogEventFrameEnqueued(tm time.Time, f *Frame) LogEvent {
	e := newLogEvent(tm, logEventFrameEnqueued)
	logFrame(&e, f)
	return e
}

func newLogEventFrameLost(tm time.Time, f *Frame) LogEvent {
	e := newLogEvent(tm, logEventFrameLost)
	logFrame(&e, f)
	return e
}

func newLogEventConnectionClosed(tm time.Time, c ConnectionClose) LogEvent {
	e := newLogEvent(tm, logEventConnectionClosed)
	e.addField("error_code", uint64(c.ErrCode))
	e.addField("frame_type", frameTypeName(c.Frame))
	return e
}

func newLogEventPacketSent(tm time.Time, level EncryptionLevel, number int64, frameCount int) LogEvent {
	e := newLogEvent(tm, logEventPacketSent)
	e.addField("level", level.String())
	e.addField("packet_number", number)
	e.addField("frame_count", frameCount)
	return e
}

func newLogEventFrameAcked(tm time.Time, f *Frame) LogEvent {
	e := newLogEvent(tm, logEventFrameAcked)
	logFrame(&e, f)
	return e
}
