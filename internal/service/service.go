package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"simplepos/backend/internal/cache"
	"simplepos/backend/internal/domain"
	"simplepos/backend/internal/posid"
	"simplepos/backend/internal/report"
	"simplepos/backend/internal/store"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

var (
	ErrAdminRequired = errors.New("admin role required")
	ErrAuthRequired  = errors.New("authenticated user required")
	ErrInvalidCart   = errors.New("cart is empty or malformed")
	ErrInvalidTotals = errors.New("submitted totals are not parsable numbers")
)

// StockIssuesError aborts a sale whose cart failed validation. No stock moved
// and no sale was recorded; the submitted cart is echoed so the client can
// re-render it against the issues.
type StockIssuesError struct {
	Issues []domain.StockIssue
	Cart   []domain.CartItem
}

func (e *StockIssuesError) Error() string {
	return fmt.Sprintf("cart has %d stock issue(s)", len(e.Issues))
}

// SaleRecordWriteError means a validated sale could not be appended to the
// sales collection. Stock may already be decremented; the transaction id is
// carried so an operator can reconcile by hand.
type SaleRecordWriteError struct {
	TransactionID    string
	InventoryWritten bool
	Err              error
}

func (e *SaleRecordWriteError) Error() string {
	return fmt.Sprintf("sale %s could not be recorded (inventory written: %t): %v", e.TransactionID, e.InventoryWritten, e.Err)
}

func (e *SaleRecordWriteError) Unwrap() error { return e.Err }

// totalTolerance is the largest client/server total disagreement that goes
// unlogged; anything above it is worth a warning but never blocks the sale.
var totalTolerance = decimal.RequireFromString("0.01")

// Service owns every read-modify-write cycle against the repository. The
// single mutex serializes them: the file store can only replace whole
// collections, so two interleaved cycles would silently drop one writer's
// changes and could oversell stock.
type Service struct {
	mu         sync.Mutex
	repo       store.Repository
	catalog    cache.CatalogCache
	catalogTTL time.Duration
	loc        *time.Location
	log        *logrus.Entry
}

func New(repo store.Repository, catalog cache.CatalogCache, catalogTTL time.Duration, loc *time.Location) *Service {
	if catalog == nil {
		catalog = cache.NoopCatalogCache{}
	}
	if loc == nil {
		loc = time.UTC
	}

	return &Service{
		repo:       repo,
		catalog:    catalog,
		catalogTTL: catalogTTL,
		loc:        loc,
		log:        logrus.WithField("component", "service"),
	}
}

func (s *Service) now() time.Time {
	return time.Now().In(s.loc)
}

func requireAdmin(ctx context.Context) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return ErrAdminRequired
	}
	return nil
}

func (s *Service) invalidateCatalog(ctx context.Context) {
	if err := s.catalog.Invalidate(ctx, cache.CatalogKey); err != nil {
		s.log.WithError(err).Warn("catalog cache invalidation failed")
	}
}

// ListProducts reads through the catalog cache. Cache failures degrade to a
// repository read.
func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	cached, ok, err := s.catalog.Get(ctx, cache.CatalogKey)
	if err != nil {
		s.log.WithError(err).Warn("catalog cache read failed")
	}
	if ok {
		return cached, nil
	}

	products, err := s.repo.Products(ctx)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []domain.Product{}
	}
	if err := s.catalog.Set(ctx, cache.CatalogKey, products, s.catalogTTL); err != nil {
		s.log.WithError(err).Warn("catalog cache write failed")
	}
	return products, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	products, err := s.repo.Products(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, store.ErrNotFound
}

// categoryName resolves a category id against the categories collection. A
// blank or unknown id maps to the "Uncategorized" display name rather than
// failing the product write.
func categoryName(categories []domain.Category, id string) string {
	for _, c := range categories {
		if c.ID == id {
			return c.Name
		}
	}
	return "Uncategorized"
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Product{}, err
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Price.IsNegative() || req.Stock < 0 || req.LowStockThreshold < 0 {
		return domain.Product{}, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.repo.Products(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return domain.Product{}, err
	}

	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}

	nowStr := s.now().Format(domain.TimestampLayout)
	product := domain.Product{
		ID:                posid.NextID(ids, "P"),
		Name:              req.Name,
		CategoryID:        strings.TrimSpace(req.CategoryID),
		CategoryName:      categoryName(categories, strings.TrimSpace(req.CategoryID)),
		Price:             req.Price.Round(2),
		Unit:              strings.TrimSpace(req.Unit),
		Stock:             req.Stock,
		LowStockThreshold: req.LowStockThreshold,
		DateAdded:         nowStr,
		LastUpdated:       nowStr,
	}

	products = append(products, product)
	if err := s.repo.SaveProducts(ctx, products); err != nil {
		return domain.Product{}, err
	}
	s.invalidateCatalog(ctx)

	s.log.WithFields(logrus.Fields{"product_id": product.ID, "name": product.Name}).Info("product created")
	return product, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Product{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.repo.Products(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return domain.Product{}, err
	}

	idx := slices.IndexFunc(products, func(p domain.Product) bool { return p.ID == id })
	if idx < 0 {
		return domain.Product{}, store.ErrNotFound
	}

	updated := products[idx]
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Product{}, store.ErrInvalidInput
		}
		updated.Name = name
	}
	if req.CategoryID != nil {
		cid := strings.TrimSpace(*req.CategoryID)
		updated.CategoryID = cid
		updated.CategoryName = categoryName(categories, cid)
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return domain.Product{}, store.ErrInvalidInput
		}
		updated.Price = req.Price.Round(2)
	}
	if req.Unit != nil {
		updated.Unit = strings.TrimSpace(*req.Unit)
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return domain.Product{}, store.ErrInvalidInput
		}
		updated.Stock = *req.Stock
	}
	if req.LowStockThreshold != nil {
		if *req.LowStockThreshold < 0 {
			return domain.Product{}, store.ErrInvalidInput
		}
		updated.LowStockThreshold = *req.LowStockThreshold
	}
	updated.LastUpdated = s.now().Format(domain.TimestampLayout)

	products[idx] = updated
	if err := s.repo.SaveProducts(ctx, products); err != nil {
		return domain.Product{}, err
	}
	s.invalidateCatalog(ctx)

	return updated, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.repo.Products(ctx)
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(products, func(p domain.Product) bool { return p.ID == id })
	if idx < 0 {
		return store.ErrNotFound
	}

	products = slices.Delete(products, idx, idx+1)
	if err := s.repo.SaveProducts(ctx, products); err != nil {
		return err
	}
	s.invalidateCatalog(ctx)

	s.log.WithField("product_id", id).Info("product deleted")
	return nil
}

// SetStock replaces a product's on-hand quantity with an absolute count, the
// way a shelf recount is entered. It is not a relative adjustment.
func (s *Service) SetStock(ctx context.Context, req domain.StockUpdateRequest) (domain.Product, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Product{}, err
	}
	if req.NewQuantity == nil || *req.NewQuantity < 0 {
		return domain.Product{}, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.repo.Products(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	idx := slices.IndexFunc(products, func(p domain.Product) bool { return p.ID == req.ProductID })
	if idx < 0 {
		return domain.Product{}, store.ErrNotFound
	}

	products[idx].Stock = *req.NewQuantity
	products[idx].LastUpdated = s.now().Format(domain.TimestampLayout)
	if err := s.repo.SaveProducts(ctx, products); err != nil {
		return domain.Product{}, err
	}
	s.invalidateCatalog(ctx)

	s.log.WithFields(logrus.Fields{"product_id": req.ProductID, "stock": *req.NewQuantity}).Info("stock set")
	return products[idx], nil
}

// LowStockProducts lists products at or below their low-stock threshold.
// Products with no threshold configured never appear.
func (s *Service) LowStockProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.Products(ctx)
	if err != nil {
		return nil, err
	}

	low := []domain.Product{}
	for _, p := range products {
		if p.LowStockThreshold > 0 && p.Stock <= p.LowStockThreshold {
			low = append(low, p)
		}
	}
	return low, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	return categories, nil
}

func (s *Service) CreateCategory(ctx context.Context, req domain.CategoryCreateRequest) (domain.Category, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Category{}, err
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return domain.Category{}, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return domain.Category{}, err
	}
	for _, c := range categories {
		if strings.EqualFold(c.Name, req.Name) {
			return domain.Category{}, store.ErrInvalidInput
		}
	}

	ids := make([]string, 0, len(categories))
	for _, c := range categories {
		ids = append(ids, c.ID)
	}

	category := domain.Category{
		ID:          posid.NextID(ids, "C"),
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
	}
	categories = append(categories, category)
	if err := s.repo.SaveCategories(ctx, categories); err != nil {
		return domain.Category{}, err
	}

	return category, nil
}

// GetSettings applies display defaults when the settings record has never
// been written.
func (s *Service) GetSettings(ctx context.Context) (domain.Settings, error) {
	settings, err := s.repo.Settings(ctx)
	if err != nil {
		return domain.Settings{}, err
	}
	if settings.ShopName == "" {
		settings.ShopName = "My Shop"
	}
	if settings.CurrencySymbol == "" {
		settings.CurrencySymbol = "Rs."
	}
	return settings, nil
}

func (s *Service) UpdateSettings(ctx context.Context, settings domain.Settings) (domain.Settings, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Settings{}, err
	}

	settings.ShopName = strings.TrimSpace(settings.ShopName)
	if settings.ShopName == "" {
		return domain.Settings{}, store.ErrInvalidInput
	}
	if settings.TaxRatePercent.IsNegative() || settings.TaxRatePercent.GreaterThan(decimal.NewFromInt(100)) {
		return domain.Settings{}, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.SaveSettings(ctx, settings); err != nil {
		return domain.Settings{}, err
	}
	return settings, nil
}

// ProcessSale validates the cart, prices it from the product records, and
// records the sale. Validation is all-or-nothing: one bad line aborts the
// whole cart with a StockIssuesError before anything is written. After
// validation the inventory write is fail-open (a sale with outcome
// inventory_write_failed is still recorded) while the sale-record write is
// fail-closed (SaleRecordWriteError).
func (s *Service) ProcessSale(ctx context.Context, req domain.SaleRequest) (domain.SaleReceipt, error) {
	if _, ok := ActorFromContext(ctx); !ok {
		return domain.SaleReceipt{}, ErrAuthRequired
	}
	if len(req.CartItems) == 0 {
		return domain.SaleReceipt{}, ErrInvalidCart
	}
	submitted, err := parseClientTotals(req)
	if err != nil {
		return domain.SaleReceipt{}, err
	}

	paymentMethod := strings.TrimSpace(req.PaymentMethod)
	if paymentMethod == "" {
		paymentMethod = "cash"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.repo.Products(ctx)
	if err != nil {
		return domain.SaleReceipt{}, err
	}
	settings, err := s.repo.Settings(ctx)
	if err != nil {
		return domain.SaleReceipt{}, err
	}
	sales, err := s.repo.Sales(ctx)
	if err != nil {
		return domain.SaleReceipt{}, err
	}

	byID := make(map[string]int, len(products))
	for i, p := range products {
		byID[p.ID] = i
	}

	issues := []domain.StockIssue{}
	for _, line := range req.CartItems {
		idx, found := byID[line.ID]
		if !found {
			issues = append(issues, domain.StockIssue{
				ProductID: line.ID,
				Name:      line.Name,
				Reason:    domain.StockIssueProductNotFound,
				Message:   fmt.Sprintf("product %s no longer exists", line.ID),
			})
			continue
		}
		product := products[idx]
		if line.Quantity < 1 {
			issues = append(issues, domain.StockIssue{
				ProductID: line.ID,
				Name:      product.Name,
				Reason:    domain.StockIssueInvalidQuantity,
				Requested: line.Quantity,
				Message:   fmt.Sprintf("quantity for %s must be at least 1", product.Name),
			})
			continue
		}
		if line.Quantity > product.Stock {
			issues = append(issues, domain.StockIssue{
				ProductID: line.ID,
				Name:      product.Name,
				Reason:    domain.StockIssueInsufficientStock,
				Available: product.Stock,
				Requested: line.Quantity,
				Message:   fmt.Sprintf("only %d of %s available", product.Stock, product.Name),
			})
		}
	}
	if len(issues) > 0 {
		return domain.SaleReceipt{}, &StockIssuesError{Issues: issues, Cart: req.CartItems}
	}

	// Price from the product records. Client prices are advisory only.
	items := make([]domain.SaleItem, 0, len(req.CartItems))
	subtotal := decimal.Zero
	for _, line := range req.CartItems {
		product := products[byID[line.ID]]
		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)
		items = append(items, domain.SaleItem{
			ProductID:  product.ID,
			Name:       product.Name,
			Quantity:   line.Quantity,
			UnitPrice:  product.Price,
			TotalPrice: lineTotal,
			Unit:       product.Unit,
		})
		subtotal = subtotal.Add(lineTotal)
	}
	subtotal = subtotal.Round(2)

	taxRate := settings.TaxRatePercent
	taxAmount := subtotal.Mul(taxRate).Div(decimal.NewFromInt(100)).Round(2)
	grandTotal := subtotal.Add(taxAmount).Round(2)

	s.warnOnTotalMismatch(submitted, subtotal, taxAmount, grandTotal)

	now := s.now()
	txID := posid.NextTransactionID(sales, now)

	sale := domain.Sale{
		TransactionID:  txID,
		Date:           now.Format(domain.DateLayout),
		Time:           now.Format(domain.TimeLayout),
		Items:          items,
		Subtotal:       subtotal,
		TaxRatePercent: taxRate,
		TaxAmount:      taxAmount,
		GrandTotal:     grandTotal,
		PaymentMethod:  paymentMethod,
		Timezone:       s.loc.String(),
	}

	// Inventory first, fail-open: a failed stock write downgrades the outcome
	// but the sale is still recorded so revenue is never silently lost.
	outcome := domain.SaleRecorded
	for _, item := range items {
		idx := byID[item.ProductID]
		products[idx].Stock -= item.Quantity
		products[idx].LastUpdated = now.Format(domain.TimestampLayout)
	}
	if err := s.repo.SaveProducts(ctx, products); err != nil {
		s.log.WithError(err).WithField("transaction_id", txID).Error("inventory write failed, recording sale anyway")
		outcome = domain.SaleInventoryWriteFailed
	} else {
		s.invalidateCatalog(ctx)
	}

	sales = append(sales, sale)
	if err := s.repo.SaveSales(ctx, sales); err != nil {
		return domain.SaleReceipt{}, &SaleRecordWriteError{
			TransactionID:    txID,
			InventoryWritten: outcome == domain.SaleRecorded,
			Err:              err,
		}
	}

	s.log.WithFields(logrus.Fields{
		"transaction_id": txID,
		"items":          len(items),
		"grand_total":    grandTotal.String(),
		"outcome":        outcome,
	}).Info("sale processed")

	return domain.SaleReceipt{
		TransactionID:  sale.TransactionID,
		Date:           sale.Date,
		Time:           sale.Time,
		Items:          sale.Items,
		Subtotal:       sale.Subtotal,
		TaxRatePercent: sale.TaxRatePercent,
		TaxAmount:      sale.TaxAmount,
		GrandTotal:     sale.GrandTotal,
		PaymentMethod:  sale.PaymentMethod,
		Outcome:        outcome,
	}, nil
}

type clientTotals struct {
	subtotal   *decimal.Decimal
	taxAmount  *decimal.Decimal
	grandTotal *decimal.Decimal
}

func parseClientTotals(req domain.SaleRequest) (clientTotals, error) {
	parse := func(raw string) (*decimal.Decimal, error) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return nil, nil
		}
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, ErrInvalidTotals
		}
		return &value, nil
	}

	var totals clientTotals
	var err error
	if totals.subtotal, err = parse(req.Subtotal); err != nil {
		return clientTotals{}, err
	}
	if totals.taxAmount, err = parse(req.TaxAmount); err != nil {
		return clientTotals{}, err
	}
	if totals.grandTotal, err = parse(req.GrandTotal); err != nil {
		return clientTotals{}, err
	}
	return totals, nil
}

// warnOnTotalMismatch compares the client's totals against the recomputed
// ones. Disagreements beyond a cent are logged for investigation; the server
// figures always win.
func (s *Service) warnOnTotalMismatch(client clientTotals, subtotal, taxAmount, grandTotal decimal.Decimal) {
	check := func(label string, submitted *decimal.Decimal, computed decimal.Decimal) {
		if submitted == nil {
			return
		}
		if submitted.Sub(computed).Abs().GreaterThan(totalTolerance) {
			s.log.WithFields(logrus.Fields{
				"field":     label,
				"submitted": submitted.String(),
				"computed":  computed.String(),
			}).Warn("client total disagrees with server total")
		}
	}
	check("subtotal", client.subtotal, subtotal)
	check("tax_amount", client.taxAmount, taxAmount)
	check("grand_total", client.grandTotal, grandTotal)
}

// ListSales returns recorded sales newest first.
func (s *Service) ListSales(ctx context.Context) ([]domain.Sale, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}

	sales, err := s.repo.Sales(ctx)
	if err != nil {
		return nil, err
	}
	out := slices.Clone(sales)
	slices.Reverse(out)
	if out == nil {
		out = []domain.Sale{}
	}
	return out, nil
}

// DailySales reports one calendar date. An empty date means today in the shop
// timezone.
func (s *Service) DailySales(ctx context.Context, date string) (domain.DailySalesReport, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.DailySalesReport{}, err
	}

	if date == "" {
		date = s.now().Format(domain.DateLayout)
	}
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		return domain.DailySalesReport{}, store.ErrInvalidInput
	}

	sales, err := s.repo.Sales(ctx)
	if err != nil {
		return domain.DailySalesReport{}, err
	}
	return report.Daily(sales, date), nil
}

// ProductSales reports per-product sales between start and end inclusive.
// Empty bounds default to today; an end before the start is clamped.
func (s *Service) ProductSales(ctx context.Context, start, end string) (domain.ProductSalesReport, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.ProductSalesReport{}, err
	}

	today := s.now().Format(domain.DateLayout)
	if start == "" {
		start = today
	}
	if end == "" {
		end = start
	}
	if _, err := time.Parse(domain.DateLayout, start); err != nil {
		return domain.ProductSalesReport{}, store.ErrInvalidInput
	}
	if _, err := time.Parse(domain.DateLayout, end); err != nil {
		return domain.ProductSalesReport{}, store.ErrInvalidInput
	}

	sales, err := s.repo.Sales(ctx)
	if err != nil {
		return domain.ProductSalesReport{}, err
	}
	return report.ProductRange(sales, start, end), nil
}
