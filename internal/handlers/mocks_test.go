package handlers

import (
	"context"

	"github.com/MostProject/wslistener/internal/models"
	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/mock"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Put(ctx context.Context, rec models.ConnectionRecord) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *mockStore) Delete(ctx context.Context, connectionID string) error {
	return m.Called(ctx, connectionID).Error(0)
}

func (m *mockStore) ExistsAny(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

type mockRule struct {
	mock.Mock
}

func (m *mockRule) Enable(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockRule) Disable(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func websocketEvent(connectionID string) events.APIGatewayWebsocketProxyRequest {
	return events.APIGatewayWebsocketProxyRequest{
		RequestContext: events.APIGatewayWebsocketProxyRequestContext{
			ConnectionID: connectionID,
			RouteKey:     "$connect",
			Stage:        "prod",
			DomainName:   "example.execute-api.eu-west-1.amazonaws.com",
		},
	}
}
