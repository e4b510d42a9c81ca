package usecase_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/itinerary-microservice/internal/domain"
)

// MockPOIGateway is a mock implementation of repository.POIGateway
type MockPOIGateway struct {
	mock.Mock
}

func (m *MockPOIGateway) GetPOI(ctx context.Context, id int64) (*domain.POI, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.POI), args.Error(1)
}

func (m *MockPOIGateway) GetPOIsBatch(ctx context.Context, ids []int64) ([]*domain.POI, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.POI), args.Error(1)
}

func (m *MockPOIGateway) SearchNearby(ctx context.Context, lat, lon, radiusM float64, category *string) ([]*domain.POI, error) {
	args := m.Called(ctx, lat, lon, radiusM, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.POI), args.Error(1)
}

func (m *MockPOIGateway) SearchByCity(ctx context.Context, cityID int64, category *string, limit int) ([]*domain.POI, error) {
	args := m.Called(ctx, cityID, category, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.POI), args.Error(1)
}

// MockStreamRepository is a mock implementation of repository.StreamRepository
type MockStreamRepository struct {
	mock.Mock
}

func (m *MockStreamRepository) ConsumeBatch(ctx context.Context, stream, group, consumer string, maxCount int, block time.Duration) ([]domain.StreamMessage, error) {
	args := m.Called(ctx, stream, group, consumer, maxCount, block)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StreamMessage), args.Error(1)
}

func (m *MockStreamRepository) AckMessage(ctx context.Context, stream, group, messageID string) error {
	args := m.Called(ctx, stream, group, messageID)
	return args.Error(0)
}

func (m *MockStreamRepository) AckMessages(ctx context.Context, stream, group string, messageIDs []string) error {
	args := m.Called(ctx, stream, group, messageIDs)
	return args.Error(0)
}

func (m *MockStreamRepository) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	args := m.Called(ctx, stream, group)
	return args.Error(0)
}

func (m *MockStreamRepository) PublishToStream(ctx context.Context, stream string, data interface{}) error {
	args := m.Called(ctx, stream, data)
	return args.Error(0)
}
