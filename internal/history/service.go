package history

import (
	"context"

	"github.com/gitsyncd/gitsyncd/internal/syncer"
	"go.uber.org/zap"
)

const defaultListLimit = 20

type Service struct {
	config Config

	records *Repository

	logger *zap.Logger
}

func NewService(config Config, records *Repository, logger *zap.Logger) *Service {
	return &Service{
		config: config,

		records: records,

		logger: logger,
	}
}

// Record persists a synchronization outcome.
func (s *Service) Record(ctx context.Context, outcome syncer.Outcome) error {
	model := newRecordModel(outcome)

	if err := s.records.Create(ctx, model, s.config.Limit); err != nil {
		s.logger.Error("failed to record sync outcome", zap.Error(err))
		return err
	}

	s.logger.Debug("sync outcome recorded",
		zap.String("id", model.ID.String()),
		zap.String("result", model.Result))

	return nil
}

// OnOutcome implements syncer.Listener.
func (s *Service) OnOutcome(ctx context.Context, outcome syncer.Outcome) error {
	return s.Record(ctx, outcome)
}

// List returns the newest records first. A non-positive limit falls back
// to the retention limit.
func (s *Service) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = s.config.Limit
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	records, err := s.records.List(ctx, limit)
	if err != nil {
		s.logger.Error("failed to list sync records", zap.Error(err))
		return nil, err
	}

	return records, nil
}

// LastSuccess returns the newest successful record or ErrNotFound.
func (s *Service) LastSuccess(ctx context.Context) (*Record, error) {
	return s.records.LastSuccess(ctx)
}

var _ syncer.Listener = (*Service)(nil)
