package id

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// Generator produces the three id shapes the storefront uses: opaque uuid row
// ids, human-readable order numbers, and guest session identities. The
// readable formats are timestamp plus random suffix; their uniqueness is
// probabilistic and is not checked against existing rows.
type Generator struct{}

func NewGenerator() *Generator { return &Generator{} }

func (*Generator) NewID() string { return uuid.NewString() }

func (*Generator) NewOrderNumber() string {
	return fmt.Sprintf("ORD-%d-%s", time.Now().UnixMilli(), randomSuffix(9))
}

func (*Generator) NewGuestID() string {
	return fmt.Sprintf("guest_%d_%s", time.Now().UnixMilli(), randomSuffix(9))
}

func randomSuffix(n int) string {
	out := make([]byte, n)
	max := big.NewInt(int64(len(base36)))
	for i := range out {
		v, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failure leaves no safe entropy source; fall back to
			// the uuid package rather than produce a constant suffix.
			return uuid.NewString()[:n]
		}
		out[i] = base36[v.Int64()]
	}
	return string(out)
}
