package stream

import (
	"strings"

	apperrors "github.com/kbukum/pullpipe/errors"
)

// Mode selects how a stream's bytes are interpreted.
type Mode int

const (
	// Binary streams count and chunk bytes.
	Binary Mode = iota
	// Text streams count and chunk UTF-8 characters.
	Text
)

func (m Mode) String() string {
	switch m {
	case Binary:
		return "binary"
	case Text:
		return "text"
	default:
		return "unknown"
	}
}

// ParseMode parses "binary" or "text" (case insensitive).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "binary":
		return Binary, nil
	case "text":
		return Text, nil
	default:
		return Binary, apperrors.InvalidInput("mode", "must be binary or text")
	}
}
