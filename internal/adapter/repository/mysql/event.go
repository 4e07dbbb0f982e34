package mysql

import (
	"context"

	eventDomain "github.com/VishnuvarathanRanjith/Decentralized-Lending-Network/internal/domain/event"

	"gorm.io/gorm"
)

type EventRepository struct{ db *gorm.DB }

func NewEventRepository(db *gorm.DB) *EventRepository { return &EventRepository{db: db} }

func (r *EventRepository) Create(ctx context.Context, rec *eventDomain.Record) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *EventRepository) ListByLoanID(ctx context.Context, loanID uint64) ([]eventDomain.Record, error) {
	var out []eventDomain.Record
	res := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("id ASC").
		Find(&out)
	return out, res.Error
}

func (r *EventRepository) ListRecent(ctx context.Context, limit int) ([]eventDomain.Record, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []eventDomain.Record
	res := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&out)
	return out, res.Error
}
