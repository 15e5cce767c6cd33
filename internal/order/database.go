package order

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	orderBucketName = "orders"
	claimBucketName = "claims"
)

// ErrNotFound wraps lookups that found nothing.
var ErrNotFound = fmt.Errorf("not found")

// DB defines the interface for database operations
type DB interface {
	// SaveOrder saves an order to the database
	SaveOrder(order *Order) error

	// GetOrder retrieves an order by ID
	GetOrder(id string) (*Order, error)

	// GetOrderByReference retrieves an order by its retailer order id
	GetOrderByReference(reference string) (*Order, error)

	// ListOrders returns all orders
	ListOrders() ([]*Order, error)

	// DeleteOrder removes an order from the database
	DeleteOrder(id string) error

	// SaveClaim saves a claim to the database
	SaveClaim(claim *Claim) error

	// GetClaim retrieves a claim by ID
	GetClaim(id string) (*Claim, error)

	// ListClaims returns all claims
	ListClaims() ([]*Claim, error)

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(orderBucketName)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(claimBucketName)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveOrder saves an order to the database
func (b *BoltDB) SaveOrder(order *Order) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(orderBucketName))
		data, err := json.Marshal(order)
		if err != nil {
			return fmt.Errorf("marshaling order: %w", err)
		}
		return bucket.Put([]byte(order.ID), data)
	})
}

// GetOrder retrieves an order by ID
func (b *BoltDB) GetOrder(id string) (*Order, error) {
	var order *Order
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(orderBucketName))
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("order %s: %w", id, ErrNotFound)
		}
		return json.Unmarshal(data, &order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrderByReference retrieves an order by its retailer order id. Used to
// reject uploading the same receipt twice.
func (b *BoltDB) GetOrderByReference(reference string) (*Order, error) {
	var order *Order
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(orderBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var candidate Order
			if err := json.Unmarshal(v, &candidate); err != nil {
				return fmt.Errorf("unmarshaling order: %w", err)
			}
			if candidate.Reference == reference {
				order = &candidate
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("order reference %s: %w", reference, ErrNotFound)
	}
	return order, nil
}

// ListOrders returns all orders
func (b *BoltDB) ListOrders() ([]*Order, error) {
	orders := make([]*Order, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(orderBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var order Order
			if err := json.Unmarshal(v, &order); err != nil {
				return fmt.Errorf("unmarshaling order: %w", err)
			}
			orders = append(orders, &order)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// DeleteOrder removes an order from the database
func (b *BoltDB) DeleteOrder(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(orderBucketName))
		return bucket.Delete([]byte(id))
	})
}

// SaveClaim saves a claim to the database
func (b *BoltDB) SaveClaim(claim *Claim) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(claimBucketName))
		data, err := json.Marshal(claim)
		if err != nil {
			return fmt.Errorf("marshaling claim: %w", err)
		}
		return bucket.Put([]byte(claim.ID), data)
	})
}

// GetClaim retrieves a claim by ID
func (b *BoltDB) GetClaim(id string) (*Claim, error) {
	var claim *Claim
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(claimBucketName))
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("claim %s: %w", id, ErrNotFound)
		}
		return json.Unmarshal(data, &claim)
	})
	if err != nil {
		return nil, err
	}
	return claim, nil
}

// ListClaims returns all claims
func (b *BoltDB) ListClaims() ([]*Claim, error) {
	claims := make([]*Claim, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(claimBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var claim Claim
			if err := json.Unmarshal(v, &claim); err != nil {
				return fmt.Errorf("unmarshaling claim: %w", err)
			}
			claims = append(claims, &claim)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
