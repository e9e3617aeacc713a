package hub

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strconv"
	"strings"
)

const (
	minCode = 1000
	maxCode = 9999

	randomAttempts = 32
)

var ErrRegistryFull = errors.New("no lobby codes left")

// generateCode draws a 4-digit code not reported as taken. After a run of
// collisions it falls back to the first free code in order, so a crowded
// registry still succeeds until every code is in use.
func generateCode(taken func(string) bool) (string, error) {
	span := big.NewInt(maxCode - minCode + 1)
	for range randomAttempts {
		n, err := rand.Int(rand.Reader, span)
		if err != nil {
			return "", err
		}
		code := strconv.Itoa(minCode + int(n.Int64()))
		if !taken(code) {
			return code, nil
		}
	}

	for n := minCode; n <= maxCode; n++ {
		if code := strconv.Itoa(n); !taken(code) {
			return code, nil
		}
	}
	return "", ErrRegistryFull
}

func normalizeCode(code string) string {
	return strings.TrimSpace(code)
}
