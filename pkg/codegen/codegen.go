package codegen

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// Charset deliberately omits 0/O and 1/I so codes stay unambiguous when
// read aloud or typed from a printout.
const Charset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// ErrExhausted is returned when the retry budget is spent without finding a
// code the store does not already contain.
var ErrExhausted = errors.New("codegen: exhausted retry budget without a unique code")

// ExistsFunc reports whether a generated code is already taken. Generators
// never accept a code without consulting it.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// Generator produces short human-enterable codes and verifies them against
// the persistent store before handing them out.
type Generator struct {
	maxAttempts int
	now         func() time.Time
}

// New builds a Generator with the given retry budget. A non-positive budget
// falls back to 5 attempts.
func New(maxAttempts int) *Generator {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Generator{maxAttempts: maxAttempts, now: time.Now}
}

// Random draws a single code of the requested length from the charset.
func (g *Generator) Random(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("codegen: invalid code length %d", length)
	}
	var b strings.Builder
	b.Grow(length)
	max := big.NewInt(int64(len(Charset)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("codegen: read random: %w", err)
		}
		b.WriteByte(Charset[n.Int64()])
	}
	return b.String(), nil
}

// Unique draws codes until one passes the exists check, retrying with a
// fresh draw on every collision up to the configured budget.
func (g *Generator) Unique(ctx context.Context, length int, exists ExistsFunc) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		code, err := g.Random(length)
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("codegen: uniqueness check: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrExhausted
}

// Prefixed produces codes of the form PREFIX-<base36 timestamp>-<random>,
// used for student and teacher codes where a sortable component helps
// back-office staff. Uniqueness is still verified per draw.
func (g *Generator) Prefixed(ctx context.Context, prefix string, suffixLen int, exists ExistsFunc) (string, error) {
	stamp := strings.ToUpper(strconv.FormatInt(g.now().UTC().Unix(), 36))
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		suffix, err := g.Random(suffixLen)
		if err != nil {
			return "", err
		}
		code := fmt.Sprintf("%s-%s-%s", prefix, stamp, suffix)
		taken, err := exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("codegen: uniqueness check: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrExhausted
}
