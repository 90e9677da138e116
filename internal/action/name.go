package action

import (
	"strconv"
	"strings"
	"time"
)

// GeneratedNamePrefix prefixes names synthesized when the agent supplies none.
const GeneratedNamePrefix = "bedrock-agent-"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// ResolveName picks the resource name: the supplied "name" parameter when it
// is non-empty, otherwise one derived from the clock. The result is normalized.
func ResolveName(m ParameterMap, clock Clock) string {
	name := m.String("name", "")
	if name == "" {
		name = GeneratedNamePrefix + strconv.FormatInt(clock.Now().UnixMilli(), 10)
	}
	return NormalizeName(name)
}

// NormalizeName lowercases s and turns spaces into hyphens. Nothing else is
// touched; callers are responsible for the remaining resource naming rules.
func NormalizeName(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "-")
}
