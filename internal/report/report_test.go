package report

import (
	"testing"

	"github.com/shopspring/decimal"

	"simplepos/backend/internal/domain"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleSales() []domain.Sale {
	return []domain.Sale{
		{
			TransactionID: "S20250518001",
			Date:          "2025-05-18",
			Items: []domain.SaleItem{
				{ProductID: "P1", Name: "Tea", Quantity: 2, UnitPrice: d("450.00"), TotalPrice: d("900.00"), Unit: "pack"},
				{ProductID: "P4", Name: "Rice", Quantity: 1, UnitPrice: d("290.00"), TotalPrice: d("290.00"), Unit: "kg"},
			},
			Subtotal:   d("1190.00"),
			GrandTotal: d("1285.20"),
		},
		{
			TransactionID: "S20250518002",
			Date:          "2025-05-18",
			Items: []domain.SaleItem{
				{ProductID: "P1", Name: "Tea", Quantity: 3, UnitPrice: d("450.00"), TotalPrice: d("1350.00"), Unit: "pack"},
			},
			Subtotal:   d("1350.00"),
			GrandTotal: d("1458.00"),
		},
		{
			TransactionID: "S20250520001",
			Date:          "2025-05-20",
			Items: []domain.SaleItem{
				{ProductID: "P4", Name: "Rice", Quantity: 5, UnitPrice: d("290.00"), TotalPrice: d("1450.00"), Unit: "kg"},
			},
			Subtotal:   d("1450.00"),
			GrandTotal: d("1566.00"),
		},
	}
}

func TestDailyAggregatesOneDate(t *testing.T) {
	rep := Daily(sampleSales(), "2025-05-18")

	if rep.Transactions != 2 {
		t.Fatalf("transactions = %d, want 2", rep.Transactions)
	}
	if !rep.TotalRevenue.Equal(d("2743.20")) {
		t.Fatalf("total revenue = %s, want 2743.20", rep.TotalRevenue)
	}
	if len(rep.Sales) != 2 {
		t.Fatalf("expected 2 sales echoed, got %d", len(rep.Sales))
	}
	if len(rep.ItemsSold) != 2 {
		t.Fatalf("expected 2 distinct products, got %d", len(rep.ItemsSold))
	}
	if rep.ItemsSold[0].ProductID != "P1" || rep.ItemsSold[0].Quantity != 5 {
		t.Fatalf("top item = %+v, want P1 with quantity 5", rep.ItemsSold[0])
	}
}

func TestDailyEmptyDate(t *testing.T) {
	rep := Daily(sampleSales(), "2025-06-01")

	if rep.Transactions != 0 {
		t.Fatalf("transactions = %d, want 0", rep.Transactions)
	}
	if !rep.TotalRevenue.IsZero() {
		t.Fatalf("total revenue = %s, want 0", rep.TotalRevenue)
	}
	if rep.ItemsSold == nil || rep.Sales == nil {
		t.Fatalf("empty report must carry empty slices, not nil")
	}
}

func TestProductRangeOrdersByRevenue(t *testing.T) {
	rep := ProductRange(sampleSales(), "2025-05-18", "2025-05-20")

	if len(rep.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rep.Rows))
	}
	if rep.Rows[0].ProductID != "P1" || !rep.Rows[0].Revenue.Equal(d("2250.00")) {
		t.Fatalf("top row = %+v, want P1 revenue 2250.00", rep.Rows[0])
	}
	if rep.Rows[1].ProductID != "P4" || rep.Rows[1].Quantity != 6 {
		t.Fatalf("second row = %+v, want P4 quantity 6", rep.Rows[1])
	}
	if !rep.TotalRevenue.Equal(d("3990.00")) {
		t.Fatalf("total revenue = %s, want 3990.00", rep.TotalRevenue)
	}
}

func TestProductRangeExcludesOutsideDates(t *testing.T) {
	rep := ProductRange(sampleSales(), "2025-05-19", "2025-05-31")

	if len(rep.Rows) != 1 || rep.Rows[0].ProductID != "P4" {
		t.Fatalf("expected only P4 in range, got %+v", rep.Rows)
	}
}

func TestProductRangeClampsInvertedRange(t *testing.T) {
	rep := ProductRange(sampleSales(), "2025-05-20", "2025-05-18")

	if rep.StartDate != "2025-05-20" || rep.EndDate != "2025-05-20" {
		t.Fatalf("inverted range not clamped: %s..%s", rep.StartDate, rep.EndDate)
	}
	if len(rep.Rows) != 1 || rep.Rows[0].Quantity != 5 {
		t.Fatalf("expected the single 2025-05-20 sale, got %+v", rep.Rows)
	}
}
