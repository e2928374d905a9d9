package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// EnvString reads a string environment variable, reporting whether it is set.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// EnvInt reads an integer environment variable.
func EnvInt(key string) (int, bool, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %q is not a valid integer", key, raw)
	}
	return value, true, nil
}

// EnvSeconds reads a float environment variable expressed in seconds and
// converts it to a duration.
func EnvSeconds(key string) (time.Duration, bool, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return 0, false, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %q is not a valid number", key, raw)
	}
	return time.Duration(value * float64(time.Second)), true, nil
}

// EnvBool reads a boolean environment variable. Only the literal "true" is
// treated as true, matching the behavior of CI environment markers.
func EnvBool(key string) bool {
	return os.Getenv(key) == "true"
}
