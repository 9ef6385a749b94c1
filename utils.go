package repoindex

import (
	"fmt"
	"strings"
)

// ParseURI splits an at:// uri into its authority, collection and record key.
// Missing path segments are returned empty; callers decide whether that is valid.
func ParseURI(raw string) (RecordURI, error) {
	rest, ok := strings.CutPrefix(raw, URIScheme+"://")
	if !ok {
		return RecordURI{}, fmt.Errorf("unsupported uri scheme")
	}

	// did authorities contain colons, so net/url cannot be used here
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}

	authority, path, _ := strings.Cut(rest, "/")
	if authority == "" {
		return RecordURI{}, fmt.Errorf("uri has no authority")
	}

	collection, key, _ := strings.Cut(strings.Trim(path, "/"), "/")
	if strings.Contains(key, "/") {
		return RecordURI{}, fmt.Errorf("uri has too many path segments")
	}

	return RecordURI{
		Did:        authority,
		Collection: collection,
		RecordKey:  key,
	}, nil
}

func ComposeURI(did, collection, key string) string {
	var b strings.Builder
	b.WriteString(URIScheme)
	b.WriteString("://")
	b.WriteString(did)
	if collection != "" {
		b.WriteByte('/')
		b.WriteString(collection)
	}
	if key != "" {
		b.WriteByte('/')
		b.WriteString(key)
	}
	return b.String()
}

func IsDID(s string) bool {
	return strings.HasPrefix(s, DIDPrefix) && len(s) > len(DIDPrefix)
}
