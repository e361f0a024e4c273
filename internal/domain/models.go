package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Monetary values are persisted as plain JSON numbers, matching the flat-file
// layout the front end and reporting tools already read.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Timestamp layouts used across the persisted collections. Dates and times are
// stored as strings in the shop timezone, not RFC3339.
const (
	TimestampLayout = "2006-01-02 15:04:05"
	DateLayout      = "2006-01-02"
	TimeLayout      = "15:04:05"
)

type Product struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	CategoryID        string          `json:"category_id"`
	CategoryName      string          `json:"category_name"`
	Price             decimal.Decimal `json:"price"`
	Unit              string          `json:"unit"`
	Stock             int             `json:"stock"`
	LowStockThreshold int             `json:"low_stock_threshold"`
	DateAdded         string          `json:"date_added"`
	LastUpdated       string          `json:"last_updated"`
}

type ProductCreateRequest struct {
	Name              string          `json:"name"`
	CategoryID        string          `json:"category_id"`
	Price             decimal.Decimal `json:"price"`
	Unit              string          `json:"unit"`
	Stock             int             `json:"stock"`
	LowStockThreshold int             `json:"low_stock_threshold"`
}

type ProductUpdateRequest struct {
	Name              *string          `json:"name,omitempty"`
	CategoryID        *string          `json:"category_id,omitempty"`
	Price             *decimal.Decimal `json:"price,omitempty"`
	Unit              *string          `json:"unit,omitempty"`
	Stock             *int             `json:"stock,omitempty"`
	LowStockThreshold *int             `json:"low_stock_threshold,omitempty"`
}

type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type CategoryCreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Settings is a single record, not a collection.
type Settings struct {
	ShopName       string          `json:"shop_name"`
	Address        string          `json:"address"`
	Contact        string          `json:"contact"`
	CurrencySymbol string          `json:"currency_symbol"`
	TaxRatePercent decimal.Decimal `json:"tax_rate_percent"`
}

// CartItem is one submitted cart line. Name and Price are client echoes kept
// for error rendering only; pricing always uses the product record.
type CartItem struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price,omitempty"`
}

// SaleRequest carries the cart plus the client-computed totals. The totals are
// advisory: they are parsed for sanity and compared for observability, never
// trusted for the recorded sale.
type SaleRequest struct {
	CartItems     []CartItem `json:"cart_items"`
	Subtotal      string     `json:"subtotal"`
	TaxAmount     string     `json:"tax_amount"`
	GrandTotal    string     `json:"grand_total"`
	PaymentMethod string     `json:"payment_method"`
}

// SaleItem is a line item snapshotted from the product record at sale time.
type SaleItem struct {
	ProductID  string          `json:"product_id"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Unit       string          `json:"unit"`
}

type Sale struct {
	TransactionID  string          `json:"transaction_id"`
	Date           string          `json:"date"`
	Time           string          `json:"time"`
	Items          []SaleItem      `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxRatePercent decimal.Decimal `json:"tax_rate_percent"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	GrandTotal     decimal.Decimal `json:"grand_total"`
	PaymentMethod  string          `json:"payment_method"`
	Timezone       string          `json:"timezone"`
}

// SaleOutcome distinguishes a cleanly recorded sale from one whose inventory
// write failed. A failed sale-record write is an error, not an outcome.
type SaleOutcome string

const (
	SaleRecorded             SaleOutcome = "recorded"
	SaleInventoryWriteFailed SaleOutcome = "inventory_write_failed"
)

type SaleReceipt struct {
	TransactionID  string          `json:"transaction_id"`
	Date           string          `json:"date"`
	Time           string          `json:"time"`
	Items          []SaleItem      `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxRatePercent decimal.Decimal `json:"tax_rate_percent"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	GrandTotal     decimal.Decimal `json:"grand_total"`
	PaymentMethod  string          `json:"payment_method"`
	Outcome        SaleOutcome     `json:"outcome"`
}

const (
	StockIssueProductNotFound   = "product_not_found"
	StockIssueInvalidQuantity   = "invalid_quantity"
	StockIssueInsufficientStock = "insufficient_stock"
)

// StockIssue is a validation failure tied to one cart line.
type StockIssue struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name,omitempty"`
	Reason    string `json:"reason"`
	Available int    `json:"available,omitempty"`
	Requested int    `json:"requested,omitempty"`
	Message   string `json:"message"`
}

type StockUpdateRequest struct {
	ProductID   string `json:"product_id"`
	NewQuantity *int   `json:"new_quantity"`
}

// ProductQuantity is a per-product quantity aggregate within one report.
type ProductQuantity struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Unit      string `json:"unit,omitempty"`
	Quantity  int    `json:"quantity"`
}

type DailySalesReport struct {
	Date         string            `json:"date"`
	Transactions int               `json:"transactions"`
	TotalRevenue decimal.Decimal   `json:"total_revenue"`
	ItemsSold    []ProductQuantity `json:"items_sold"`
	Sales        []Sale            `json:"sales"`
}

type ProductSalesRow struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit,omitempty"`
	Quantity  int             `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type ProductSalesReport struct {
	StartDate    string            `json:"start_date"`
	EndDate      string            `json:"end_date"`
	Rows         []ProductSalesRow `json:"rows"`
	TotalRevenue decimal.Decimal   `json:"total_revenue"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type CashierCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CashierUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is the persistence model for auth credentials.
type UserAccount struct {
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
