package util

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// orderNumberSuffixLen is how many random ULID characters follow the
// timestamp. The unique index on orders.order_number catches collisions.
const orderNumberSuffixLen = 6

// GenerateOrderNumber builds "<prefix><unix seconds><random suffix>", for
// example "MODA1760870400K3Q9ZD".
func GenerateOrderNumber(prefix string, now time.Time) string {
	id := ulid.MustNew(ulid.Timestamp(now), rand.Reader)
	random := id.String()[len(id.String())-orderNumberSuffixLen:]
	return fmt.Sprintf("%s%d%s", strings.ToUpper(prefix), now.Unix(), random)
}

// FormatCLP renders a peso amount with dot thousands separators: 7990 -> "$7.990".
func FormatCLP(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := fmt.Sprintf("%d", amount)

	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return sign + "$" + b.String()
}
