package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// ConsoleRole selects which upstream namespace (/admin or /operator) a call goes to.
type ConsoleRole string

const (
	RoleAdmin    ConsoleRole = "admin"
	RoleOperator ConsoleRole = "operator"
)

// ParseConsoleRole accepts the role segment of a console path.
func ParseConsoleRole(raw string) (ConsoleRole, bool) {
	switch ConsoleRole(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleOperator:
		return RoleOperator, true
	default:
		return "", false
	}
}

// EntityID is an upstream identifier. The backend emits both numeric and string ids.
type EntityID string

// UnmarshalJSON accepts a JSON string or number.
func (id *EntityID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = EntityID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("entity id: %w", err)
	}
	*id = EntityID(n.String())
	return nil
}

// String returns the raw identifier.
func (id EntityID) String() string { return string(id) }

// Number is a float that also decodes from numeric strings such as "120.50".
type Number float64

// UnmarshalJSON accepts a JSON number, a numeric string or null.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("number %q: %w", s, err)
		}
		*n = Number(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

// Float64 returns the value as float64.
func (n Number) Float64() float64 { return float64(n) }
