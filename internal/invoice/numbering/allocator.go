// Package numbering allocates sequential INV-nnnn invoice identifiers.
package numbering

import (
	"context"
	"fmt"
	"time"

	"github.com/smallbiznis/tradebook/internal/clock"
	"github.com/smallbiznis/tradebook/internal/invoice/format"
	"github.com/smallbiznis/tradebook/internal/observability/metrics"
	saledomain "github.com/smallbiznis/tradebook/internal/sale/domain"
	"github.com/smallbiznis/tradebook/pkg/db/option"
	"github.com/smallbiznis/tradebook/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SalesSequence names the counter row backing invoice numbers.
const SalesSequence = "sales"

// InvoiceSequence is the durable counter behind Reserve.
type InvoiceSequence struct {
	Name      string    `gorm:"primaryKey;type:varchar(64)"`
	LastValue int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName sets the database table name.
func (InvoiceSequence) TableName() string { return "invoice_sequences" }

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Metrics *metrics.Metrics `optional:"true"`
}

type Allocator struct {
	db      *gorm.DB
	sales   repository.Repository[saledomain.Sale]
	log     *zap.Logger
	clock   clock.Clock
	metrics *metrics.Metrics
}

func New(p Params) *Allocator {
	c := p.Clock
	if c == nil {
		c = clock.New()
	}
	return &Allocator{
		db:      p.DB,
		sales:   repository.ProvideStore[saledomain.Sale](p.DB),
		log:     p.Log.Named("invoice.numbering"),
		clock:   c,
		metrics: p.Metrics,
	}
}

// Next previews the number following the most recently created sale.
// Missing, malformed or unreadable prior numbers yield INV-0001; it never fails.
func (a *Allocator) Next(ctx context.Context) string {
	last, err := a.latest(ctx, a.sales)
	if err != nil {
		a.log.Warn("invoice number lookup failed, using first number", zap.Error(err))
		a.metrics.RecordLookupDegraded(ctx, metrics.ClassifyReason(err))
		last = 0
	}
	return a.format(last + 1)
}

// Reserve durably allocates the next number inside tx. The counter is seeded
// from existing sales so numbering continues where recorded data left off.
func (a *Allocator) Reserve(ctx context.Context, tx *gorm.DB) (string, error) {
	if tx == nil {
		tx = a.db
	}

	seed, err := a.latest(ctx, a.sales.WithTrx(tx))
	if err != nil {
		return "", fmt.Errorf("read latest invoice number: %w", err)
	}

	var value int64
	switch tx.Dialector.Name() {
	case "postgres", "sqlite":
		value, err = a.upsert(ctx, tx, seed+1)
	default:
		value, err = a.lockAndIncrement(ctx, tx, seed+1)
	}
	if err != nil {
		return "", fmt.Errorf("reserve invoice number: %w", err)
	}

	a.metrics.RecordNumberReserved(ctx, SalesSequence)
	return a.format(value), nil
}

func (a *Allocator) upsert(ctx context.Context, tx *gorm.DB, candidate int64) (int64, error) {
	var value int64
	err := tx.WithContext(ctx).Raw(
		`INSERT INTO invoice_sequences (name, last_value, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (name) DO UPDATE SET
		   last_value = CASE
		     WHEN excluded.last_value > invoice_sequences.last_value THEN excluded.last_value
		     ELSE invoice_sequences.last_value + 1
		   END,
		   updated_at = excluded.updated_at
		 RETURNING last_value`,
		SalesSequence,
		candidate,
		a.clock.Now(),
	).Scan(&value).Error
	return value, err
}

func (a *Allocator) lockAndIncrement(ctx context.Context, tx *gorm.DB, candidate int64) (int64, error) {
	var seq InvoiceSequence
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("name = ?", SalesSequence).
		Limit(1).
		Find(&seq).Error
	if err != nil {
		return 0, err
	}

	now := a.clock.Now()
	if seq.Name == "" {
		seq = InvoiceSequence{Name: SalesSequence, LastValue: candidate, UpdatedAt: now}
		return candidate, tx.WithContext(ctx).Create(&seq).Error
	}

	next := seq.LastValue + 1
	if candidate > next {
		next = candidate
	}
	err = tx.WithContext(ctx).
		Model(&InvoiceSequence{}).
		Where("name = ?", SalesSequence).
		Updates(map[string]any{"last_value": next, "updated_at": now}).Error
	return next, err
}

// latest returns the sequence of the most recently created sale, or 0.
func (a *Allocator) latest(ctx context.Context, store repository.Repository[saledomain.Sale]) (int64, error) {
	sale, err := store.FindOne(ctx, &saledomain.Sale{},
		option.WithSortBy("created_at", "desc"),
		option.WithLimit(1),
	)
	if err != nil {
		return 0, err
	}
	if sale == nil {
		return 0, nil
	}
	seq, ok := format.ParseInvoiceNumber(sale.InvoiceNo)
	if !ok {
		a.log.Warn("latest invoice number is malformed, restarting sequence", zap.String("invoice_no", sale.InvoiceNo))
		return 0, nil
	}
	return seq, nil
}

func (a *Allocator) format(seq int64) string {
	number, err := format.FormatInvoiceNumber(format.DefaultInvoiceNumberTemplate, a.clock.Now(), seq)
	if err != nil {
		return "INV-0001"
	}
	return number
}
