package optimization

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/itinerary-microservice/internal/config"
	"github.com/itinerary-microservice/internal/domain"
	"github.com/itinerary-microservice/internal/domain/repository"
	"github.com/itinerary-microservice/internal/pkg/errors"
	"github.com/itinerary-microservice/internal/worker"
)

const (
	workerName      = "itinerary-optimization"
	maxBatchSize    = 10                     // максимум сообщений за раз
	emptyQueueSleep = 100 * time.Millisecond // пауза если очередь пуста
	errorSleep      = time.Second            // пауза при ошибке чтения
	retryBackoff    = 200 * time.Millisecond
)

// ItineraryOptimizer runs a synchronous optimization of one route.
type ItineraryOptimizer interface {
	Optimize(ctx context.Context, ownerID string, id uuid.UUID, mode domain.OptimizationMode) (*domain.Route, error)
}

// OptimizationWorker обрабатывает запросы на асинхронную оптимизацию
// маршрутов из stream:itinerary:optimize и публикует результат в
// stream:itinerary:optimized
type OptimizationWorker struct {
	*worker.BaseWorker
	streamRepo   repository.StreamRepository
	optimizer    ItineraryOptimizer
	blockTimeout time.Duration
	maxRetries   int
}

// NewOptimizationWorker создает новый OptimizationWorker
func NewOptimizationWorker(
	streamRepo repository.StreamRepository,
	optimizer ItineraryOptimizer,
	cfg *config.WorkerConfig,
	logger *zap.Logger,
) *OptimizationWorker {
	return &OptimizationWorker{
		BaseWorker:   worker.NewBaseWorker(workerName, domain.StreamItineraryOptimize, cfg.ConsumerGroup, logger),
		streamRepo:   streamRepo,
		optimizer:    optimizer,
		blockTimeout: cfg.BlockTimeout,
		maxRetries:   cfg.MaxRetries,
	}
}

// Start запускает воркер
func (w *OptimizationWorker) Start(ctx context.Context) error {
	logger := w.Logger()
	logger.Info("Starting OptimizationWorker",
		zap.String("stream", w.Stream()),
		zap.String("consumer_group", w.ConsumerGroup()),
		zap.String("consumer_name", w.ConsumerName()),
		zap.Int("max_batch_size", maxBatchSize))

	if err := w.streamRepo.CreateConsumerGroup(ctx, w.Stream(), w.ConsumerGroup()); err != nil {
		logger.Error("Failed to create consumer group", zap.Error(err))
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	for {
		select {
		case <-w.StopChan():
			logger.Info("Worker stopped")
			return nil

		case <-ctx.Done():
			logger.Info("Context cancelled")
			return ctx.Err()

		default:
			processed, err := w.processBatch(ctx)
			if err != nil {
				logger.Error("Failed to process batch", zap.Error(err))
				w.pause(ctx, errorSleep)
				continue
			}

			if processed == 0 {
				w.pause(ctx, emptyQueueSleep)
			}
		}
	}
}

// processBatch читает и обрабатывает batch сообщений.
// Возвращает количество прочитанных сообщений.
func (w *OptimizationWorker) processBatch(ctx context.Context) (int, error) {
	logger := w.Logger()

	messages, err := w.streamRepo.ConsumeBatch(
		ctx,
		w.Stream(),
		w.ConsumerGroup(),
		w.ConsumerName(),
		maxBatchSize,
		w.blockTimeout,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to consume batch: %w", err)
	}

	if len(messages) == 0 {
		return 0, nil
	}

	logger.Debug("Processing batch", zap.Int("message_count", len(messages)))

	ackIDs := make([]string, 0, len(messages))
	for _, msg := range messages {
		// Битые и завершившиеся ошибкой сообщения тоже ACK'аются,
		// результат с ошибкой уходит в stream:itinerary:optimized
		ackIDs = append(ackIDs, msg.ID)

		event, err := parseMessage(msg)
		if err != nil {
			logger.Warn("Failed to parse message, skipping",
				zap.String("message_id", msg.ID),
				zap.Error(err))
			continue
		}

		completed := w.handle(ctx, event)
		if err := w.streamRepo.PublishToStream(ctx, domain.StreamItineraryOptimized, completed); err != nil {
			logger.Error("Failed to publish optimization result",
				zap.String("request_id", event.RequestID.String()),
				zap.String("route_id", event.RouteID.String()),
				zap.Error(err))
		}
	}

	if err := w.streamRepo.AckMessages(ctx, w.Stream(), w.ConsumerGroup(), ackIDs); err != nil {
		// Не критично - сообщения будут переобработаны
		logger.Error("Failed to ack messages", zap.Error(err))
	}

	return len(messages), nil
}

// handle runs the optimization, retrying errors marked retryable.
func (w *OptimizationWorker) handle(ctx context.Context, event *domain.OptimizeRequestedEvent) *domain.OptimizeCompletedEvent {
	logger := w.Logger().With(
		zap.String("request_id", event.RequestID.String()),
		zap.String("route_id", event.RouteID.String()),
		zap.String("mode", string(event.Mode)))

	completed := &domain.OptimizeCompletedEvent{
		RequestID: event.RequestID,
		RouteID:   event.RouteID,
		Mode:      event.Mode,
	}

	for attempt := 0; ; attempt++ {
		route, err := w.optimizer.Optimize(ctx, event.OwnerID, event.RouteID, event.Mode)
		if err == nil {
			completed.TotalDistanceKm = route.TotalDistanceKm
			completed.TotalDurationMinutes = route.TotalDurationMinutes
			logger.Info("Itinerary optimized", zap.Int("attempts", attempt+1))
			break
		}

		appErr, ok := errors.As(err)
		if ok && appErr.Retryable && attempt < w.maxRetries && ctx.Err() == nil {
			logger.Warn("Optimization conflicted, retrying", zap.Int("attempt", attempt+1), zap.Error(err))
			w.pause(ctx, retryBackoff)
			continue
		}

		logger.Warn("Optimization failed", zap.Error(err))
		completed.Error = err.Error()
		break
	}

	completed.CompletedAt = time.Now().UTC()
	return completed
}

// pause ждёт d, прерываясь на Stop или отмене ctx
func (w *OptimizationWorker) pause(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-w.StopChan():
	case <-ctx.Done():
	}
}

// parseMessage парсит сообщение из стрима в OptimizeRequestedEvent
func parseMessage(msg domain.StreamMessage) (*domain.OptimizeRequestedEvent, error) {
	if msg.Data == "" {
		return nil, fmt.Errorf("missing 'data' field")
	}

	var event domain.OptimizeRequestedEvent
	if err := json.Unmarshal([]byte(msg.Data), &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if event.RouteID == uuid.Nil || event.OwnerID == "" {
		return nil, fmt.Errorf("event without route_id or owner_id")
	}

	return &event, nil
}
