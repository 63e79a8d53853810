package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Field coercion for untyped payloads. Missing or malformed values fall
// back to the caller's default; defaulting is never surfaced as an error.

func strField(payload map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		switch v := payload[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			return strconv.Itoa(v)
		}
	}
	return ""
}

func numField(payload map[string]interface{}, def float64, keys ...string) float64 {
	for _, k := range keys {
		switch v := payload[k].(type) {
		case float64:
			if v >= 0 {
				return v
			}
			return def
		case int:
			if v >= 0 {
				return float64(v)
			}
			return def
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
				return f
			}
			return def
		}
	}
	return def
}

func intField(payload map[string]interface{}, def int, keys ...string) int {
	for _, k := range keys {
		switch v := payload[k].(type) {
		case float64:
			if n := int(v); n >= 0 {
				return n
			}
			return def
		case int:
			if v >= 0 {
				return v
			}
			return def
		case string:
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				return n
			}
			return def
		}
	}
	return def
}

func hasField(payload map[string]interface{}, key string) bool {
	_, ok := payload[key]
	return ok
}

// NewProductID generates an id of the form prod_<timestamp>_<random>
func NewProductID() string {
	return fmt.Sprintf("prod_%d_%s", time.Now().Unix(), uuid.NewString()[:8])
}

// NewOrderID generates an id of the form ord_<timestamp>_<random>
func NewOrderID() string {
	return fmt.Sprintf("ord_%d_%s", time.Now().Unix(), uuid.NewString()[:8])
}
