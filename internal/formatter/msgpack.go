package formatter

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// msgpackFormatter encodes the structured report as MessagePack
type msgpackFormatter struct{}

// NewMsgpack creates a MessagePack formatter
func NewMsgpack() Formatter {
	return &msgpackFormatter{}
}

func (f *msgpackFormatter) Format(report *Report) ([]byte, error) {
	data, err := msgpack.Marshal(BuildOutput(report))
	if err != nil {
		return nil, fmt.Errorf("failed to encode msgpack report: %w", err)
	}
	return data, nil
}
