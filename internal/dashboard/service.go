package dashboard

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Summary is the operator-facing collection overview for one session.
type Summary struct {
	Session        string           `json:"session"`
	TotalCollected int64            `json:"total_collected"`
	ByStatus       map[string]int64 `json:"by_status"`
	ByPurpose      map[string]int64 `json:"by_purpose"`
	Candidates     int64            `json:"candidates"`
}

type Service interface {
	Summary(ctx context.Context, session string) (*Summary, error)
}

type Params struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type service struct {
	db  *gorm.DB
	log *zap.Logger
}

func New(p Params) Service {
	return &service{db: p.DB, log: p.Log.Named("dashboard.service")}
}

type statusRow struct {
	Status string
	Count  int64
}

type purposeRow struct {
	Purpose string
	Amount  int64
}

func (s *service) Summary(ctx context.Context, session string) (*Summary, error) {
	summary := &Summary{
		Session:   session,
		ByStatus:  map[string]int64{},
		ByPurpose: map[string]int64{},
	}

	var statuses []statusRow
	err := s.db.WithContext(ctx).Raw(
		`SELECT status, COUNT(*) AS count
		 FROM payment_transactions WHERE session = ? GROUP BY status`,
		session,
	).Scan(&statuses).Error
	if err != nil {
		return nil, err
	}
	for _, row := range statuses {
		summary.ByStatus[row.Status] = row.Count
	}

	var purposes []purposeRow
	err = s.db.WithContext(ctx).Raw(
		`SELECT purpose, COALESCE(SUM(amount), 0) AS amount
		 FROM payment_transactions WHERE session = ? AND status = 'success' GROUP BY purpose`,
		session,
	).Scan(&purposes).Error
	if err != nil {
		return nil, err
	}
	for _, row := range purposes {
		summary.ByPurpose[row.Purpose] = row.Amount
		summary.TotalCollected += row.Amount
	}

	err = s.db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM candidates WHERE session = ?`,
		session,
	).Scan(&summary.Candidates).Error
	if err != nil {
		return nil, err
	}

	return summary, nil
}

var Module = fx.Module("dashboard.service",
	fx.Provide(New),
)
