// Package raw reads prefixed environment variables without logging, so the
// logger can configure itself through it
package raw

import (
	"os"
	"strconv"
	"strings"
)

// Conf is a prefixed view over the environment, e.g. "LOG_"
type Conf struct{ prefix string }

func New() Conf { return Conf{} }

// Prefix nests p under the current prefix
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

// Name is the full variable name for key
func (c Conf) Name(key string) string { return c.prefix + key }

// Lookup returns the trimmed value, empty when unset
func (c Conf) Lookup(key string) string { return strings.TrimSpace(os.Getenv(c.Name(key))) }

func (c Conf) Get(key, def string) string {
	if v := c.Lookup(key); v != "" {
		return v
	}
	return def
}

// GetBool treats 1, true and yes (any case) as true and anything else set
// as false
func (c Conf) GetBool(key string, def bool) bool {
	switch v := strings.ToLower(c.Lookup(key)); v {
	case "":
		return def
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

// GetInt accepts non-negative integers only
func (c Conf) GetInt(key string, def int) int {
	n, err := strconv.ParseUint(c.Lookup(key), 10, 31)
	if err != nil {
		return def
	}
	return int(n)
}
