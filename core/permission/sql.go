package permission

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/pkg/errors"
)

// Set and SchoolPolicy are stored as JSONB columns.

func (s Set) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

func (s *Set) Scan(src interface{}) error {
	if src == nil {
		*s = nil
		return nil
	}
	data, ok := src.([]byte)
	if !ok {
		return errors.Errorf("permission.Set: cannot scan %T", src)
	}
	return json.Unmarshal(data, s)
}

func (p SchoolPolicy) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *SchoolPolicy) Scan(src interface{}) error {
	if src == nil {
		*p = DefaultSchoolPolicy()
		return nil
	}
	data, ok := src.([]byte)
	if !ok {
		return errors.Errorf("permission.SchoolPolicy: cannot scan %T", src)
	}
	return json.Unmarshal(data, p)
}
