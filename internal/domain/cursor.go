package domain

import "strings"

const cursorSeparator = "::"

// JoinCursor builds a page cursor from a timestamp and the key that orders
// rows sharing that timestamp.
func JoinCursor(at, key string) string {
	return at + cursorSeparator + key
}

// SplitCursor undoes JoinCursor. A bare timestamp yields an empty key.
func SplitCursor(cursor string) (at, key string) {
	at, key, _ = strings.Cut(cursor, cursorSeparator)
	return at, key
}
