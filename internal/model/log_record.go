package model

// LogRecord is one journal line: an event encoded as topics plus ABI data.
type LogRecord struct {
	Sequence   uint64   `json:"sequence"`
	Pool       string   `json:"pool"`
	Topics     []string `json:"topics"`
	Data       string   `json:"data"`
	Timestamp  uint64   `json:"timestamp"`
	RecordedAt string   `json:"recorded_at"`
}
