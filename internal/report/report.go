// Package report aggregates recorded sales into the two shop reports: the
// daily summary and the per-product range breakdown. Functions here are pure;
// all stores and clocks stay in the caller.
package report

import (
	"slices"

	"github.com/shopspring/decimal"

	"simplepos/backend/internal/domain"
)

// Daily summarizes every sale recorded on the given calendar date
// (YYYY-MM-DD, shop timezone). Items are listed by quantity sold, largest
// first; ties break on product id for a stable order.
func Daily(sales []domain.Sale, date string) domain.DailySalesReport {
	rep := domain.DailySalesReport{
		Date:         date,
		TotalRevenue: decimal.Zero,
		ItemsSold:    []domain.ProductQuantity{},
		Sales:        []domain.Sale{},
	}

	quantities := map[string]*domain.ProductQuantity{}
	for _, sale := range sales {
		if sale.Date != date {
			continue
		}
		rep.Transactions++
		rep.TotalRevenue = rep.TotalRevenue.Add(sale.GrandTotal)
		rep.Sales = append(rep.Sales, sale)

		for _, item := range sale.Items {
			agg, ok := quantities[item.ProductID]
			if !ok {
				agg = &domain.ProductQuantity{ProductID: item.ProductID, Name: item.Name, Unit: item.Unit}
				quantities[item.ProductID] = agg
			}
			agg.Quantity += item.Quantity
		}
	}

	for _, agg := range quantities {
		rep.ItemsSold = append(rep.ItemsSold, *agg)
	}
	slices.SortFunc(rep.ItemsSold, func(a, b domain.ProductQuantity) int {
		if a.Quantity != b.Quantity {
			return b.Quantity - a.Quantity
		}
		return cmpString(a.ProductID, b.ProductID)
	})

	return rep
}

// ProductRange breaks sales between start and end (inclusive, YYYY-MM-DD)
// down by product. An end date before the start is clamped to the start, so
// an inverted range degrades to a single day instead of an error. Rows are
// ordered by revenue, largest first.
func ProductRange(sales []domain.Sale, start, end string) domain.ProductSalesReport {
	if end < start {
		end = start
	}

	rep := domain.ProductSalesReport{
		StartDate:    start,
		EndDate:      end,
		Rows:         []domain.ProductSalesRow{},
		TotalRevenue: decimal.Zero,
	}

	rows := map[string]*domain.ProductSalesRow{}
	for _, sale := range sales {
		// Dates are zero-padded YYYY-MM-DD, so lexical order is
		// chronological order.
		if sale.Date < start || sale.Date > end {
			continue
		}
		for _, item := range sale.Items {
			row, ok := rows[item.ProductID]
			if !ok {
				row = &domain.ProductSalesRow{ProductID: item.ProductID, Name: item.Name, Unit: item.Unit, Revenue: decimal.Zero}
				rows[item.ProductID] = row
			}
			row.Quantity += item.Quantity
			row.Revenue = row.Revenue.Add(item.TotalPrice)
			rep.TotalRevenue = rep.TotalRevenue.Add(item.TotalPrice)
		}
	}

	for _, row := range rows {
		rep.Rows = append(rep.Rows, *row)
	}
	slices.SortFunc(rep.Rows, func(a, b domain.ProductSalesRow) int {
		if c := b.Revenue.Cmp(a.Revenue); c != 0 {
			return c
		}
		return cmpString(a.ProductID, b.ProductID)
	})

	return rep
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
