package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/MostProject/wslistener/internal/failure"
	"github.com/MostProject/wslistener/internal/models"
	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func TestConnectHandler(t *testing.T) {
	store := &mockStore{}
	rule := &mockRule{}
	store.On("Put", mock.Anything, models.ConnectionRecord{
		ID:  "abc-123",
		TTL: fixedNow.Unix() + 86400,
	}).Return(nil).Once()
	rule.On("Enable", mock.Anything).Return(nil).Once()

	h := NewConnectHandler(store, rule, fixedClock)
	resp, err := h.Handle(context.Background(), websocketEvent("abc-123"))

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Connected", resp.Body)
	store.AssertExpectations(t)
	rule.AssertExpectations(t)
	store.AssertNumberOfCalls(t, "Put", 1)
	rule.AssertNumberOfCalls(t, "Enable", 1)
}

func TestConnectHandlerDefaultClock(t *testing.T) {
	store := &mockStore{}
	rule := &mockRule{}
	var stored models.ConnectionRecord
	store.On("Put", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(1).(models.ConnectionRecord)
	}).Return(nil)
	rule.On("Enable", mock.Anything).Return(nil)

	h := NewConnectHandler(store, rule, nil)
	_, err := h.Handle(context.Background(), websocketEvent("abc-123"))
	require.NoError(t, err)

	want := time.Now().Add(24 * time.Hour).Unix()
	assert.InDelta(t, want, stored.TTL, 5)
}

func TestConnectHandlerMissingID(t *testing.T) {
	tests := []struct {
		name  string
		event events.APIGatewayWebsocketProxyRequest
	}{
		{name: "no request context", event: events.APIGatewayWebsocketProxyRequest{}},
		{name: "blank id", event: websocketEvent("   ")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockStore{}
			rule := &mockRule{}

			h := NewConnectHandler(store, rule, fixedClock)
			resp, err := h.Handle(context.Background(), tt.event)

			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "Missing connection ID", resp.Body)
			store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
			rule.AssertNotCalled(t, "Enable", mock.Anything)
		})
	}
}

func TestConnectHandlerStoreFailure(t *testing.T) {
	store := &mockStore{}
	rule := &mockRule{}
	cause := failure.Dependency("dynamodb", "PutItem", errors.New("throttled"))
	store.On("Put", mock.Anything, mock.Anything).Return(cause)

	h := NewConnectHandler(store, rule, fixedClock)
	_, err := h.Handle(context.Background(), websocketEvent("abc-123"))

	require.Error(t, err)
	assert.True(t, failure.IsDependencyFailure(err))
	rule.AssertNotCalled(t, "Enable", mock.Anything)
}

func TestConnectHandlerRuleFailureKeepsRecord(t *testing.T) {
	store := &mockStore{}
	rule := &mockRule{}
	store.On("Put", mock.Anything, mock.Anything).Return(nil)
	rule.On("Enable", mock.Anything).Return(failure.Dependency("eventbridge", "EnableRule", errors.New("denied")))

	h := NewConnectHandler(store, rule, fixedClock)
	_, err := h.Handle(context.Background(), websocketEvent("abc-123"))

	require.Error(t, err)
	assert.True(t, failure.IsDependencyFailure(err))
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
