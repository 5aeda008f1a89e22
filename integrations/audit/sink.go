package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"farmchain/core/events"
)

// ErrClosed is returned by queries issued after Close.
var ErrClosed = errors.New("audit: sink closed")

// Record is one persisted farm event.
type Record struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Sequence   uint64    `gorm:"uniqueIndex"`
	Type       string    `gorm:"size:64;index"`
	Pool       string    `gorm:"size:20;index"`
	Account    string    `gorm:"size:42;index"`
	Amount     string    `gorm:"size:80"`
	Reward     string    `gorm:"size:80"`
	Attributes string    `gorm:"type:text"`
	BlockTime  uint64
	RecordedAt time.Time
}

// TableName pins the table name independent of the struct name.
func (Record) TableName() string { return "farm_events" }

// Attrs decodes the stored attribute map.
func (r Record) Attrs() (map[string]string, error) {
	out := map[string]string{}
	if strings.TrimSpace(r.Attributes) == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(r.Attributes), &out); err != nil {
		return nil, fmt.Errorf("audit: decode attributes: %w", err)
	}
	return out, nil
}

// Filter narrows List queries. Zero values match everything.
type Filter struct {
	Type    string
	Account string
	Pool    *uint64
	Limit   int
}

// Sink persists every farm event it receives into SQLite.
type Sink struct {
	mu      sync.Mutex
	db      *gorm.DB
	seq     uint64
	lastErr error
	logger  *slog.Logger
	now     func() time.Time
}

// Open opens (or creates) the SQLite database at path and prepares the schema.
func Open(path string) (*Sink, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("audit: database path required")
	}
	db, err := gorm.Open(sqlite.Open(trimmed), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("audit: open database: %w", err)
	}
	return New(db)
}

// New wraps an existing gorm handle.
func New(db *gorm.DB) (*Sink, error) {
	if db == nil {
		return nil, fmt.Errorf("audit: database handle required")
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("audit: migrate: %w", err)
	}
	var last Record
	res := db.Order("sequence desc").Limit(1).Find(&last)
	if res.Error != nil {
		return nil, fmt.Errorf("audit: load sequence: %w", res.Error)
	}
	return &Sink{db: db, seq: last.Sequence, logger: slog.Default(), now: time.Now}, nil
}

// SetLogger overrides the logger used to report write failures.
func (s *Sink) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Emit implements events.Emitter. Write failures are logged and retained for
// Err since emitters cannot fail the originating call.
func (s *Sink) Emit(e events.Event) {
	if s == nil || e == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return
	}
	record, err := s.record(e)
	if err == nil {
		err = s.db.Create(&record).Error
	}
	if err != nil {
		s.lastErr = err
		s.logger.Warn("audit write failed", slog.String("type", e.EventType()), slog.Any("error", err))
		return
	}
	s.seq = record.Sequence
}

// Err returns the most recent write failure, if any.
func (s *Sink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Sink) record(e events.Event) (Record, error) {
	record := Record{
		ID:         uuid.New(),
		Sequence:   s.seq + 1,
		Type:       e.EventType(),
		RecordedAt: s.now().UTC(),
	}
	b, ok := e.(events.Broadcastable)
	if !ok {
		return record, nil
	}
	rendered := b.Event()
	if rendered == nil {
		return record, nil
	}
	encoded, err := json.Marshal(rendered.Attributes)
	if err != nil {
		return record, fmt.Errorf("audit: encode attributes: %w", err)
	}
	record.Attributes = string(encoded)
	record.BlockTime = rendered.Timestamp
	record.Pool = rendered.Attribute("pool")
	record.Account = rendered.Attribute("account")
	record.Amount = rendered.Attribute("amount")
	record.Reward = rendered.Attribute("reward")
	return record, nil
}

// List returns matching records in emission order.
func (s *Sink) List(ctx context.Context, filter Filter) ([]Record, error) {
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return nil, ErrClosed
	}
	query := db.WithContext(ctx).Model(&Record{})
	if t := strings.TrimSpace(filter.Type); t != "" {
		query = query.Where("type = ?", t)
	}
	if account := strings.TrimSpace(filter.Account); account != "" {
		query = query.Where("account = ?", normalizeAccount(account))
	}
	if filter.Pool != nil {
		query = query.Where("pool = ?", strconv.FormatUint(*filter.Pool, 10))
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	var out []Record
	if err := query.Order("sequence asc").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("audit: list: %w", err)
	}
	return out, nil
}

// Payouts returns records that paid a non-zero reward.
func (s *Sink) Payouts(ctx context.Context, filter Filter) ([]Record, error) {
	records, err := s.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := records[:0]
	for _, r := range records {
		if reward, ok := new(big.Int).SetString(r.Reward, 10); ok && reward.Sign() > 0 {
			out = append(out, r)
		}
	}
	return out, nil
}

// PayoutTotal sums every reward paid to account. An empty account sums across
// all depositors.
func (s *Sink) PayoutTotal(ctx context.Context, account string) (*big.Int, error) {
	records, err := s.Payouts(ctx, Filter{Account: account})
	if err != nil {
		return nil, err
	}
	total := big.NewInt(0)
	for _, r := range records {
		reward, _ := new(big.Int).SetString(r.Reward, 10)
		total.Add(total, reward)
	}
	return total, nil
}

// Close releases the database handle.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	s.db = nil
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func normalizeAccount(account string) string {
	if common.IsHexAddress(account) {
		return common.HexToAddress(account).Hex()
	}
	return account
}
