package session

import (
	"context"
	"fmt"
)

// PlaceholderBackend answers deterministically without calling anything.
// It never assigns a session id.
type PlaceholderBackend struct {
	region string
}

// NewPlaceholderBackend creates a placeholder that mentions region in replies.
func NewPlaceholderBackend(region string) *PlaceholderBackend {
	return &PlaceholderBackend{region: region}
}

func (p *PlaceholderBackend) Invoke(_ context.Context, text, _ string) (Reply, error) {
	return Reply{Text: PlaceholderReply(text, p.region)}, nil
}

// PlaceholderReply is the degraded-mode answer for text.
func PlaceholderReply(text, region string) string {
	return fmt.Sprintf(`prompt was: "%s" in region %s`, text, region)
}
