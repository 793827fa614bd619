package docstore

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// pageCursor marks the last row of a page for keyset pagination.
type pageCursor struct {
	SavedAt time.Time
	ID      string
}

// encodeCursor packs a cursor into an opaque URL-safe token.
func encodeCursor(c pageCursor) string {
	raw := c.SavedAt.UTC().Format(time.RFC3339Nano) + "|" + c.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// decodeCursor unpacks a token produced by encodeCursor.
func decodeCursor(token string) (pageCursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return pageCursor{}, fmt.Errorf("decode token: %w", err)
	}

	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 || parts[1] == "" {
		return pageCursor{}, fmt.Errorf("malformed cursor")
	}

	savedAt, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return pageCursor{}, fmt.Errorf("parse cursor time: %w", err)
	}

	return pageCursor{SavedAt: savedAt, ID: parts[1]}, nil
}
