package billing

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/billing/internal/model"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) FindSubscriptionID(ctx context.Context, subscriptionID string) (string, error) {
	args := m.Called(ctx, subscriptionID)
	return args.String(0), args.Error(1)
}

func (m *mockStore) AddSubscription(ctx context.Context, customerID, subscriptionID string) (*model.Subscription, error) {
	args := m.Called(ctx, customerID, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Subscription), args.Error(1)
}

func (m *mockStore) UpdateSubscriptionStatus(ctx context.Context, id string, status model.SubscriptionStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockStore) ListByCustomer(ctx context.Context, customerID string) ([]model.Subscription, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Subscription), args.Error(1)
}

func (m *mockStore) DeleteSubscription(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockStore) DeleteCustomer(ctx context.Context, customerID string) error {
	args := m.Called(ctx, customerID)
	return args.Error(0)
}

// newEvent builds an Event of the given type whose data.object is obj.
func newEvent(t *testing.T, eventType string, obj any) Event {
	t.Helper()
	raw, err := json.Marshal(obj)
	require.NoError(t, err)
	return Event{ID: "evt_test", Type: eventType, Object: raw}
}
