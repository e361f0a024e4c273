package posid

import (
	"strings"
	"testing"
	"time"

	"simplepos/backend/internal/domain"
)

func TestNextIDStartsAtOne(t *testing.T) {
	if got := NextID(nil, "P"); got != "P1" {
		t.Fatalf("NextID(empty) = %q, want P1", got)
	}
}

func TestNextIDIncrementsLast(t *testing.T) {
	if got := NextID([]string{"P1", "P2", "P9"}, "P"); got != "P10" {
		t.Fatalf("NextID = %q, want P10", got)
	}
	if got := NextID([]string{"C1"}, "C"); got != "C2" {
		t.Fatalf("NextID = %q, want C2", got)
	}
}

func TestNextIDSurvivesGaps(t *testing.T) {
	// Deleted records leave gaps; only the last id matters.
	if got := NextID([]string{"P1", "P5"}, "P"); got != "P6" {
		t.Fatalf("NextID = %q, want P6", got)
	}
}

func TestNextIDFallsBackOnMalformedLastID(t *testing.T) {
	got := NextID([]string{"P1", "garbage"}, "P")
	if !strings.HasPrefix(got, "P3_") {
		t.Fatalf("NextID = %q, want P3_<unix> fallback", got)
	}
}

func TestNextTransactionIDFirstOfDay(t *testing.T) {
	now := time.Date(2025, 5, 18, 10, 30, 0, 0, time.UTC)
	if got := NextTransactionID(nil, now); got != "S20250518001" {
		t.Fatalf("NextTransactionID = %q, want S20250518001", got)
	}
}

func TestNextTransactionIDContinuesWithinDay(t *testing.T) {
	now := time.Date(2025, 5, 18, 10, 30, 0, 0, time.UTC)
	sales := []domain.Sale{
		{TransactionID: "S20250518001"},
		{TransactionID: "S20250518002"},
	}
	if got := NextTransactionID(sales, now); got != "S20250518003" {
		t.Fatalf("NextTransactionID = %q, want S20250518003", got)
	}
}

func TestNextTransactionIDResetsEachDay(t *testing.T) {
	sales := []domain.Sale{
		{TransactionID: "S20250517001"},
		{TransactionID: "S20250517002"},
	}
	now := time.Date(2025, 5, 18, 0, 5, 0, 0, time.UTC)
	if got := NextTransactionID(sales, now); got != "S20250518001" {
		t.Fatalf("NextTransactionID = %q, want fresh counter S20250518001", got)
	}
}

func TestNextTransactionIDPadsCounter(t *testing.T) {
	now := time.Date(2025, 5, 18, 10, 30, 0, 0, time.UTC)
	sales := []domain.Sale{{TransactionID: "S20250518099"}}
	if got := NextTransactionID(sales, now); got != "S20250518100" {
		t.Fatalf("NextTransactionID = %q, want S20250518100", got)
	}
}

func TestNextTransactionIDRecoveryFromUnparsableSuffix(t *testing.T) {
	now := time.Date(2025, 5, 18, 10, 30, 0, 0, time.UTC)
	sales := []domain.Sale{
		{TransactionID: "S20250518001"},
		{TransactionID: "S20250518xyz"},
	}
	if got := NextTransactionID(sales, now); got != "S20250518003" {
		t.Fatalf("NextTransactionID = %q, want S20250518003 (count-based recovery)", got)
	}
}
