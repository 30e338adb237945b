package apilog

import (
	"context"

	"github.com/google/uuid"

	"github.com/agendalink/gateway/internal/model"
	"github.com/agendalink/gateway/internal/repository"
	"github.com/agendalink/gateway/pkg/logger"
	"github.com/agendalink/gateway/pkg/messaging"
)

type Servicer interface {
	Record(ctx context.Context, entry *model.APILog)
	List(ctx context.Context, clientID uuid.UUID, filters *model.APILogFilters) ([]*model.APILog, error)
}

// Service persists gateway request logs and fans them out on the
// broker. Recording is fire-and-forget: a failed write never affects
// the request that produced it.
type Service struct {
	repo   repository.APILogRepository
	broker messaging.Broker
	log    *logger.Logger
}

func NewService(repo repository.APILogRepository, broker messaging.Broker, log *logger.Logger) *Service {
	return &Service{repo: repo, broker: broker, log: log.WithComponent("apilog")}
}

func (s *Service) Record(ctx context.Context, entry *model.APILog) {
	if err := s.repo.Create(ctx, entry); err != nil {
		s.log.Error(err, "could not persist request log", "client_id", entry.ClientID.String())
	}
	if s.broker == nil {
		return
	}
	event := messaging.LogEvent{
		ClientID:    entry.ClientID.String(),
		Integration: string(entry.IntegrationType),
		Operation:   entry.Operation,
		Status:      entry.StatusCode,
		DurationMs:  entry.DurationMs,
		Success:     entry.Success,
		ErrorKind:   entry.ErrorKind,
	}
	if err := s.broker.Publish(ctx, messaging.LogChannel, event); err != nil {
		s.log.Error(err, "could not publish request log event")
	}
}

func (s *Service) List(ctx context.Context, clientID uuid.UUID, filters *model.APILogFilters) ([]*model.APILog, error) {
	return s.repo.ListByClient(ctx, clientID, filters)
}
