// Package store provides the BoltDB-backed persistence collaborator.
//
// BoltDB is an embedded key/value store; everything lives in one file and no
// external database process is required. Each aggregate gets its own bucket
// and values are JSON documents keyed by id:
//
//	accounts  userID            -> LedgerAccount
//	payouts   payoutID          -> PayoutRequest
//	disputes  disputeID         -> Dispute
//	bookings  bookingID         -> Booking
//	invoices  hubberID/YYYY-MM  -> Invoice
//	config    "current", v<N>   -> Snapshot
//	counters  name              -> uint64 (big endian)
//	profiles  userID            -> Profile
//
// The store is a plain get/put/list layer. It enforces no business rules;
// the engine packages serialize their own read-modify-write cycles and only
// hand finished values to Put. Writes that must land together go through
// Atomically.
//
// Idempotency
// -----------
// CreateInvoice checks for an existing record before inserting. If the key
// already exists the stored invoice is returned unchanged and nothing is
// written, so regenerating an invoice for the same hubber and period is safe.
package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bolt "github.com/boltdb/bolt"

	"github.com/francescopitzalis1989/Renthubber/apperr"
	"github.com/francescopitzalis1989/Renthubber/models"
)

const (
	bucketAccounts = "accounts"
	bucketPayouts  = "payouts"
	bucketDisputes = "disputes"
	bucketBookings = "bookings"
	bucketInvoices = "invoices"
	bucketConfig   = "config"
	bucketCounters = "counters"
	bucketProfiles = "profiles"

	keyCurrentConfig = "current"
)

var allBuckets = []string{
	bucketAccounts, bucketPayouts, bucketDisputes, bucketBookings,
	bucketInvoices, bucketConfig, bucketCounters, bucketProfiles,
}

// ErrNotFound is returned when a requested record does not exist. It matches
// apperr.ErrNotFound under errors.Is.
var ErrNotFound = apperr.New(apperr.CodeNotFound, "record not found")

// Store wraps a BoltDB database.
type Store struct {
	db *bolt.DB
}

// New opens (or creates) a BoltDB database at the given path and ensures all
// buckets exist.
func New(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	// CreateBucketIfNotExists is safe to run on every startup.
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close releases the database file lock.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) get(bucket, key string, v any) error {
	return s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(bucket)).Get([]byte(key))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, v)
	})
}

func (s *Store) put(bucket, key string, v any) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return putTx(tx, bucket, key, v)
	})
}

func putTx(tx *bolt.Tx, bucket, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", bucket, key, err)
	}
	return tx.Bucket([]byte(bucket)).Put([]byte(key), data)
}

// Tx is a write transaction spanning several buckets. A ledger posting and
// the record it settles are written through one Tx so they commit together.
type Tx struct {
	tx *bolt.Tx
}

// PutAccount writes a ledger account inside the transaction.
func (t *Tx) PutAccount(a *models.LedgerAccount) error {
	return putTx(t.tx, bucketAccounts, a.UserID, a)
}

// PutBooking writes a booking inside the transaction.
func (t *Tx) PutBooking(b *models.Booking) error {
	return putTx(t.tx, bucketBookings, b.ID, b)
}

// PutPayout writes a payout request inside the transaction.
func (t *Tx) PutPayout(p *models.PayoutRequest) error {
	return putTx(t.tx, bucketPayouts, p.ID, p)
}

// Atomically runs fn in a single write transaction. If fn returns an error
// nothing it wrote is committed.
func (s *Store) Atomically(fn func(*Tx) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return fn(&Tx{tx: tx})
	})
}

// list decodes every value in bucket, keeping those keep accepts. Results
// are in key order. An empty bucket yields an empty, non-nil slice.
func list[T any](s *Store, bucket string, keep func(*T) bool) ([]T, error) {
	items := []T{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucket)).ForEach(func(k, v []byte) error {
			var item T
			if err := json.Unmarshal(v, &item); err != nil {
				return fmt.Errorf("decode %s/%s: %w", bucket, k, err)
			}
			if keep == nil || keep(&item) {
				items = append(items, item)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// --- ledger accounts ---

// GetAccount returns the ledger account of userID or ErrNotFound.
func (s *Store) GetAccount(userID string) (*models.LedgerAccount, error) {
	var a models.LedgerAccount
	if err := s.get(bucketAccounts, userID, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// PutAccount writes a ledger account.
func (s *Store) PutAccount(a *models.LedgerAccount) error {
	return s.put(bucketAccounts, a.UserID, a)
}

// --- payout requests ---

func (s *Store) GetPayout(id string) (*models.PayoutRequest, error) {
	var p models.PayoutRequest
	if err := s.get(bucketPayouts, id, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) PutPayout(p *models.PayoutRequest) error {
	return s.put(bucketPayouts, p.ID, p)
}

// ListPayouts returns all payout requests, or only userID's when it is set.
func (s *Store) ListPayouts(userID string) ([]models.PayoutRequest, error) {
	return list(s, bucketPayouts, func(p *models.PayoutRequest) bool {
		return userID == "" || p.UserID == userID
	})
}

// --- disputes ---

func (s *Store) GetDispute(id string) (*models.Dispute, error) {
	var d models.Dispute
	if err := s.get(bucketDisputes, id, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Store) PutDispute(d *models.Dispute) error {
	return s.put(bucketDisputes, d.ID, d)
}

func (s *Store) ListDisputes() ([]models.Dispute, error) {
	return list[models.Dispute](s, bucketDisputes, nil)
}

// --- bookings ---

func (s *Store) GetBooking(id string) (*models.Booking, error) {
	var b models.Booking
	if err := s.get(bucketBookings, id, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) PutBooking(b *models.Booking) error {
	return s.put(bucketBookings, b.ID, b)
}

// ListBookings returns all bookings, or only those hosted by hostID when it
// is set.
func (s *Store) ListBookings(hostID string) ([]models.Booking, error) {
	return list(s, bucketBookings, func(b *models.Booking) bool {
		return hostID == "" || b.HostID == hostID
	})
}

// --- invoices ---

func invoiceKey(hubberID string, p models.Period) string {
	return hubberID + "/" + p.String()
}

// GetInvoice returns the invoice of hubberID for period or ErrNotFound.
func (s *Store) GetInvoice(hubberID string, p models.Period) (*models.Invoice, error) {
	var inv models.Invoice
	if err := s.get(bucketInvoices, invoiceKey(hubberID, p), &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// CreateInvoice persists inv ONLY if no invoice exists for the same hubber
// and period.
//
// On first creation the per-year counter is incremented inside the same
// transaction and number(seq) becomes the invoice number, so numbers are
// gap-free and never reused.
//
// Returns (existing, false, nil) when the invoice already existed.
// Returns (new, true, nil) when it was created.
func (s *Store) CreateInvoice(inv *models.Invoice, number func(seq uint64) string) (*models.Invoice, bool, error) {
	var result models.Invoice
	created := false
	key := []byte(invoiceKey(inv.HubberID, inv.Period))

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketInvoices))

		if existing := b.Get(key); existing != nil {
			return json.Unmarshal(existing, &result)
		}

		seq, err := nextCounter(tx, fmt.Sprintf("invoice-%04d", inv.Period.Year))
		if err != nil {
			return err
		}
		inv.Number = number(seq)

		data, err := json.Marshal(inv)
		if err != nil {
			return err
		}
		result = *inv
		created = true
		return b.Put(key, data)
	})
	if err != nil {
		return nil, false, err
	}
	return &result, created, nil
}

// ListInvoices returns all invoices, or only hubberID's when it is set.
func (s *Store) ListInvoices(hubberID string) ([]models.Invoice, error) {
	return list(s, bucketInvoices, func(inv *models.Invoice) bool {
		return hubberID == "" || inv.HubberID == hubberID
	})
}

func nextCounter(tx *bolt.Tx, name string) (uint64, error) {
	b := tx.Bucket([]byte(bucketCounters))
	var n uint64
	if v := b.Get([]byte(name)); v != nil {
		n = binary.BigEndian.Uint64(v)
	}
	n++
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, n)
	if err := b.Put([]byte(name), buf); err != nil {
		return 0, err
	}
	return n, nil
}

// --- profiles ---

// GetProfile returns the profile of userID or ErrNotFound.
func (s *Store) GetProfile(userID string) (*models.Profile, error) {
	var p models.Profile
	if err := s.get(bucketProfiles, userID, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) PutProfile(p *models.Profile) error {
	return s.put(bucketProfiles, p.UserID, p)
}

// --- config snapshots ---

func snapshotKey(version int64) string {
	return fmt.Sprintf("v%020d", version)
}

// GetSnapshot returns the current config snapshot or ErrNotFound.
func (s *Store) GetSnapshot() (*models.Snapshot, error) {
	var snap models.Snapshot
	if err := s.get(bucketConfig, keyCurrentConfig, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// GetSnapshotVersion returns a past snapshot by version, for auditing which
// config settled a booking.
func (s *Store) GetSnapshotVersion(version int64) (*models.Snapshot, error) {
	var snap models.Snapshot
	if err := s.get(bucketConfig, snapshotKey(version), &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// PutSnapshot stores snap as the current config and archives it under its
// version in one transaction.
func (s *Store) PutSnapshot(snap *models.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketConfig))
		if err := b.Put([]byte(snapshotKey(snap.Version)), data); err != nil {
			return err
		}
		return b.Put([]byte(keyCurrentConfig), data)
	})
}
