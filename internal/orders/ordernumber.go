package orders

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const orderNumberPrefix = "LV"

var suffixSpace = big.NewInt(10000)

// NewOrderNumber builds a customer-facing order reference. The millisecond
// timestamp keeps numbers roughly sortable; the random suffix breaks ties
// between orders created in the same millisecond. Callers still check for
// collisions before inserting.
func NewOrderNumber(now time.Time) string {
	n, err := rand.Int(rand.Reader, suffixSpace)
	if err != nil {
		// crypto/rand only fails when the OS entropy source is broken.
		n = big.NewInt(now.UnixNano() % 10000)
	}
	return fmt.Sprintf("%s%d%04d", orderNumberPrefix, now.UnixMilli(), n.Int64())
}
