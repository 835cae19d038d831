package handlers

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// pathID extracts the uuid that follows prefix in a URL path, e.g.
// pathID("/rooms/ws/<id>", "/rooms/ws/").
func pathID(path, prefix string) (uuid.UUID, error) {
	rest := strings.TrimPrefix(path, prefix)
	if rest == path || rest == "" {
		return uuid.Nil, fmt.Errorf("missing id in path %q", path)
	}
	if i := strings.Index(rest, "/"); i >= 0 {
		rest = rest[:i]
	}
	return uuid.Parse(rest)
}
