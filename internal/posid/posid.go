// Package posid generates the sequential identifiers used by the persisted
// collections: prefixed numeric ids for products and categories, and per-day
// transaction ids for sales. Callers are expected to hold the single-writer
// lock for the collection while generating, so the scan-based schemes here are
// race-free in-process.
package posid

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"simplepos/backend/internal/domain"
)

// NextID returns the next sequential id for a collection whose records carry a
// numeric id under a fixed prefix (e.g. "P12" -> "P13"). An empty collection
// starts at prefix+"1". When the last id is missing or unparsable the result
// falls back to prefix + (count+1) + "_" + unix seconds, which stays unique
// even over malformed data.
func NextID(ids []string, prefix string) string {
	if len(ids) == 0 {
		return prefix + "1"
	}
	last := ids[len(ids)-1]
	if strings.HasPrefix(last, prefix) {
		if n, err := strconv.Atoi(strings.TrimPrefix(last, prefix)); err == nil {
			return prefix + strconv.Itoa(n+1)
		}
	}
	return fmt.Sprintf("%s%d_%d", prefix, len(ids)+1, time.Now().Unix())
}

// NextTransactionID returns the next sale transaction id for the given moment:
// "S" + YYYYMMDD + 3-digit counter, the counter resetting to 001 each day. The
// counter continues from the last sale carrying today's prefix; if that sale's
// trailing digits are unparsable it restarts at the count of today's sales + 1.
func NextTransactionID(sales []domain.Sale, now time.Time) string {
	prefix := "S" + now.Format("20060102")

	var today []domain.Sale
	for _, sale := range sales {
		if strings.HasPrefix(sale.TransactionID, prefix) {
			today = append(today, sale)
		}
	}

	counter := 1
	if len(today) > 0 {
		last := today[len(today)-1]
		if n, err := strconv.Atoi(strings.TrimPrefix(last.TransactionID, prefix)); err == nil {
			counter = n + 1
		} else {
			counter = len(today) + 1
		}
	}

	return fmt.Sprintf("%s%03d", prefix, counter)
}
