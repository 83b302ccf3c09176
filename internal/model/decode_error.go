package model

// DecodeError records a decode failure for a journal line.
type DecodeError struct {
	Sequence uint64 `json:"sequence"`
	Pool     string `json:"pool"`
	Topic0   string `json:"topic0"`
	Error    string `json:"error"`
}
