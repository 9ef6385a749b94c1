package repoindex

import (
	"fmt"
)

const (
	URIScheme = "at"
	DIDPrefix = "did:"
)

// RecordURI addresses one record inside an identity's repository.
type RecordURI struct {
	Did        string `json:"did"`
	Collection string `json:"collection"`
	RecordKey  string `json:"rkey"`
}

func (u RecordURI) String() string {
	return ComposeURI(u.Did, u.Collection, u.RecordKey)
}

// Validate reports the first structural problem with u, if any.
func (u RecordURI) Validate() error {
	if !IsDID(u.Did) {
		return fmt.Errorf("uri authority %q is not a did", u.Did)
	}
	if u.Collection == "" {
		return fmt.Errorf("uri has no collection")
	}
	if u.RecordKey == "" {
		return fmt.Errorf("uri has no record key")
	}
	return nil
}

// MarshalText lets RecordURI be used directly as a JSON string.
func (u RecordURI) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

func (u *RecordURI) UnmarshalText(text []byte) error {
	parsed, err := ParseURI(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
