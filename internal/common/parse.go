package common

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var errEmptyBlockNumber = errors.New("empty block number")

// ParseBlockNumber parses a block number written in decimal or as 0x-prefixed
// hex, the two forms providers use in error messages and JSON-RPC payloads.
func ParseBlockNumber(s string) (uint64, error) {
	str := strings.TrimSpace(s)
	if str == "" {
		return 0, errEmptyBlockNumber
	}

	base := 10
	if len(str) > 2 && (str[:2] == "0x" || str[:2] == "0X") {
		str, base = str[2:], 16
	}

	n, err := strconv.ParseUint(str, base, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid block number %q: %w", s, err)
	}
	return n, nil
}

// NormalizeName lowercases and trims a configured level or component name.
func NormalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
