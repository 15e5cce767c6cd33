package order

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kaiyuen/receipt-splitter/internal/extract"
	"github.com/kaiyuen/receipt-splitter/internal/parse"
)

// IDGenerator generates unique IDs for orders and claims
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates IDs using UnixNano timestamp
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles order operations: it runs a receipt through extraction and
// parsing, persists the result and manages per-person item claims.
type Service struct {
	db          DB
	extractor   extract.Extractor
	parser      *parse.Parser
	storage     Storage
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, extractor extract.Extractor, parser *parse.Parser, storage Storage) *Service {
	return &Service{
		db:          db,
		extractor:   extractor,
		parser:      parser,
		storage:     storage,
		idGenerator: &defaultIDGenerator{},
		timeSource:  &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, extractor extract.Extractor, parser *parse.Parser, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		extractor:   extractor,
		parser:      parser,
		storage:     storage,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// expandUnitRows turns each parsed line item into single-unit rows so that
// every row can be claimed separately. A counted item of quantity n becomes
// n rows, its total split evenly with any rounding remainder on the last
// row; weighed items stay one row.
func expandUnitRows(items []parse.LineItem) []Item {
	rows := make([]Item, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 1 {
			rows = append(rows, Item{
				Name:      item.Name,
				Weight:    item.Weight,
				UnitPrice: item.UnitPrice,
				Price:     item.TotalPrice,
			})
			continue
		}

		n := decimal.NewFromInt(int64(item.Quantity))
		each := item.TotalPrice.DivRound(n, 2)
		remainder := item.TotalPrice.Sub(each.Mul(n.Sub(decimal.NewFromInt(1))))
		for i := 0; i < item.Quantity; i++ {
			price := each
			if i == item.Quantity-1 {
				price = remainder
			}
			rows = append(rows, Item{
				Name:      item.Name,
				UnitPrice: item.UnitPrice,
				Price:     price,
			})
		}
	}
	return rows
}

// ProcessReceipt extracts and parses a receipt PDF, then persists the order
// and the original file. Uploading a receipt whose retailer order id already
// exists is rejected.
func (s *Service) ProcessReceipt(filename string, data []byte) (*Order, error) {
	lines, err := s.extractor.Lines(data)
	if err != nil {
		return nil, fmt.Errorf("extracting receipt text: %w", err)
	}

	parsed, err := s.parser.Parse(lines)
	if err != nil {
		slog.Error("Failed to parse receipt",
			"filename", filename,
			"lines", len(lines),
			"error", err,
		)
		return nil, fmt.Errorf("parsing receipt: %w", err)
	}
	for _, diag := range parsed.Diagnostics {
		slog.Warn("Receipt diagnostic",
			"filename", filename,
			"code", diag.Code,
			"line", diag.Line,
			"message", diag.Message,
		)
	}

	if existing, err := s.db.GetOrderByReference(parsed.Order.OrderID); err == nil {
		return nil, fmt.Errorf("order %s already uploaded as %s", parsed.Order.OrderID, existing.ID)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("checking for existing order: %w", err)
	}

	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, filename), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	order := &Order{
		ID:          id,
		Reference:   parsed.Order.OrderID,
		OrderDate:   parsed.Order.OrderDate,
		Items:       expandUnitRows(parsed.Items),
		Reconciled:  parsed.Reconciliation.Reconciled,
		Discrepancy: parsed.Reconciliation.Discrepancy,
		Partial:     parsed.Partial,
		Diagnostics: parsed.Diagnostics,
		Filename:    savedPath,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.db.SaveOrder(order); err != nil {
		// Clean up the file if the database save fails
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("saving order to database: %w", err)
	}

	return order, nil
}

// GetOrder retrieves an order by ID
func (s *Service) GetOrder(id string) (*Order, error) {
	order, err := s.db.GetOrder(id)
	if err != nil {
		return nil, fmt.Errorf("getting order: %w", err)
	}
	return order, nil
}

// ListOrders returns all orders
func (s *Service) ListOrders() ([]*Order, error) {
	orders, err := s.db.ListOrders()
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return orders, nil
}

// DeleteOrder removes an order and its stored receipt file
func (s *Service) DeleteOrder(id string) error {
	order, err := s.db.GetOrder(id)
	if err != nil {
		return fmt.Errorf("getting order for deletion: %w", err)
	}

	if err := s.storage.Delete(order.Filename); err != nil {
		// Log error but continue with database deletion
		slog.Warn("Failed to delete file", "filename", order.Filename, "error", err)
	}

	if err := s.db.DeleteOrder(id); err != nil {
		return fmt.Errorf("deleting order from database: %w", err)
	}
	return nil
}

// GetOrderFile retrieves the stored receipt PDF for an order
func (s *Service) GetOrderFile(id string) ([]byte, error) {
	order, err := s.db.GetOrder(id)
	if err != nil {
		return nil, fmt.Errorf("getting order: %w", err)
	}

	data, err := s.storage.Get(order.Filename)
	if err != nil {
		return nil, fmt.Errorf("getting order file: %w", err)
	}

	return data, nil
}

// CreateClaim marks a set of item rows on an order as taken by one person
func (s *Service) CreateClaim(orderID, claimedBy string, itemIndexes []int) (*Claim, error) {
	if claimedBy == "" {
		return nil, fmt.Errorf("claimer name is required")
	}
	if len(itemIndexes) == 0 {
		return nil, fmt.Errorf("at least one item is required")
	}

	order, err := s.db.GetOrder(orderID)
	if err != nil {
		return nil, fmt.Errorf("getting order: %w", err)
	}

	now := s.timeSource.Now()
	id := s.idGenerator.Generate()

	// Validate all rows exist and are unclaimed, and total them up
	total := decimal.Zero
	seen := make(map[int]bool, len(itemIndexes))
	for _, idx := range itemIndexes {
		if idx < 0 || idx >= len(order.Items) {
			return nil, fmt.Errorf("order %s has no item row %d", orderID, idx)
		}
		if seen[idx] {
			return nil, fmt.Errorf("item row %d listed twice", idx)
		}
		seen[idx] = true
		if order.Items[idx].ClaimID != "" {
			return nil, fmt.Errorf("item row %d is already claimed", idx)
		}
		total = total.Add(order.Items[idx].Price)
	}

	claim := &Claim{
		ID:          id,
		OrderID:     orderID,
		ClaimedBy:   claimedBy,
		ItemIndexes: itemIndexes,
		TotalAmount: total,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.db.SaveClaim(claim); err != nil {
		return nil, fmt.Errorf("saving claim: %w", err)
	}

	for _, idx := range itemIndexes {
		order.Items[idx].ClaimID = id
	}
	order.UpdatedAt = now
	if err := s.db.SaveOrder(order); err != nil {
		return nil, fmt.Errorf("updating order %s: %w", orderID, err)
	}

	return claim, nil
}

// GetClaim retrieves a claim by ID
func (s *Service) GetClaim(id string) (*Claim, error) {
	claim, err := s.db.GetClaim(id)
	if err != nil {
		return nil, fmt.Errorf("getting claim: %w", err)
	}
	return claim, nil
}

// GetClaimWithOrder retrieves a claim together with its order
func (s *Service) GetClaimWithOrder(id string) (*Claim, *Order, error) {
	claim, err := s.db.GetClaim(id)
	if err != nil {
		return nil, nil, fmt.Errorf("getting claim: %w", err)
	}

	order, err := s.db.GetOrder(claim.OrderID)
	if err != nil {
		return nil, nil, fmt.Errorf("getting order %s: %w", claim.OrderID, err)
	}

	return claim, order, nil
}

// ListClaims returns all claims
func (s *Service) ListClaims() ([]*Claim, error) {
	claims, err := s.db.ListClaims()
	if err != nil {
		return nil, fmt.Errorf("listing claims: %w", err)
	}
	return claims, nil
}
