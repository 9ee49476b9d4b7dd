package repository

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/weiwei-tsao/campus-assets-report/pkg/model"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// assetFromMap decodes a loosely typed record. Cost may be stored as a number
// or a numeric string; created_at as a timestamp or a date string. id is used
// when the record carries no id field of its own.
func assetFromMap(id string, data map[string]interface{}) (model.Asset, error) {
	cost, err := coerceCost(data["cost"])
	if err != nil {
		return model.Asset{}, err
	}
	a := model.Asset{
		ID:          coerceString(data["id"]),
		Description: coerceString(data["description"]),
		Department:  coerceString(data["department"]),
		Location:    coerceString(data["location"]),
		Cost:        cost,
		CreatedAt:   coerceTime(data["created_at"]),
	}
	if a.ID == "" {
		a.ID = id
	}
	return a, nil
}

func coerceCost(v interface{}) (float64, error) {
	switch c := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return c, nil
	case float32:
		return float64(c), nil
	case int64:
		return float64(c), nil
	case int:
		return float64(c), nil
	case string:
		s := strings.TrimSpace(c)
		if s == "" {
			return 0, nil
		}
		s = strings.TrimPrefix(s, "Rs.")
		s = strings.ReplaceAll(s, ",", "")
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("cost %q is not numeric", c)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("cost has unsupported type %T", v)
	}
}

// coerceTime returns the zero time for missing or unparseable values.
func coerceTime(v interface{}) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case *time.Time:
		if t != nil {
			return t.UTC()
		}
	case string:
		return parseDate(t)
	}
	return time.Time{}
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func coerceString(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(v)
	}
}
