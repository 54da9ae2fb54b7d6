package protocol

import (
	"strconv"
	"strings"

	"github.com/normanking/cortexface/internal/face"
)

// ParseSingle parses a "name:value" single emotion update such as
// "happiness:0.8".
func ParseSingle(msg string) (face.Emotion, float64, error) {
	if strings.Count(msg, ":") != 1 {
		return 0, 0, invalid("", "expected name:value, got %q", msg)
	}
	name, raw, _ := strings.Cut(msg, ":")
	name = strings.ToLower(strings.TrimSpace(name))

	e, ok := face.ParseEmotion(name)
	if !ok {
		return 0, 0, invalid("name", "unknown emotion %q", name)
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, 0, invalid(name, "not a number: %q", raw)
	}
	if err := checkUnit(name, v); err != nil {
		return 0, 0, err
	}
	return e, v, nil
}
