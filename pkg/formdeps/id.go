package formdeps

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID is a normalized option identifier. Form values arrive as strings and
// JSON payloads may carry numbers or numeric strings; both are converted to
// ID where they enter the package so comparisons never depend on the wire type.
type ID int64

// None is the sentinel meaning "no selection made".
const None ID = 0

// ParseID normalizes a form value. Empty strings, "none" and anything that is
// not a positive integer map to None.
func ParseID(s string) ID {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "none") {
		return None
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return None
	}
	return ID(n)
}

// IsNone reports whether id is the sentinel.
func (id ID) IsNone() bool { return id == None }

func (id ID) String() string {
	if id == None {
		return "none"
	}
	return strconv.FormatInt(int64(id), 10)
}

// UnmarshalJSON accepts 5, "5" and null. Non-positive ids decode to None,
// as in ParseID.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = None
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ParseID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	v, err := n.Int64()
	if err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	if v <= 0 {
		v = int64(None)
	}
	*id = ID(v)
	return nil
}

// MarshalJSON writes the id as a JSON number.
func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(id), 10)), nil
}
