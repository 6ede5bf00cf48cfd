package domain

import (
	"database/sql/driver"
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
)

// Skills is an ordered list of trimmed, case-insensitively unique labels.
// Stored documents may hold either a JSON array or a comma separated string.
type Skills []string

func NormalizeSkills(values []string) Skills {
	out := make(Skills, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.Join(strings.Fields(v), " ")
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

func ParseSkills(raw []byte) (Skills, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return Skills{}, nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return NormalizeSkills(list), nil
	}

	var joined string
	if err := json.Unmarshal(raw, &joined); err == nil {
		return NormalizeSkills(strings.Split(joined, ",")), nil
	}

	return nil, errors.Wrapf(ErrValidation, "skills must be a list or a comma separated string")
}

func (s *Skills) UnmarshalJSON(raw []byte) error {
	parsed, err := ParseSkills(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s Skills) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(s))
}

func (s Skills) Value() (driver.Value, error) {
	b, err := s.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *Skills) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s = Skills{}
		return nil
	case []byte:
		return s.UnmarshalJSON(v)
	case string:
		return s.UnmarshalJSON([]byte(v))
	default:
		return errors.Newf("cannot scan %T into Skills", src)
	}
}
