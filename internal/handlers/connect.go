package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/MostProject/wslistener/internal/apigateway"
	"github.com/MostProject/wslistener/internal/models"
	"github.com/MostProject/wslistener/internal/observability"
	"github.com/aws/aws-lambda-go/events"
)

// ConnectHandler handles the $connect route
type ConnectHandler struct {
	store RecordStore
	rule  RuleToggle
	now   Clock
}

// NewConnectHandler creates a new connect handler
func NewConnectHandler(store RecordStore, rule RuleToggle, now Clock) *ConnectHandler {
	if now == nil {
		now = time.Now
	}
	return &ConnectHandler{
		store: store,
		rule:  rule,
		now:   now,
	}
}

// Handle stores the connection id and enables the event rule.
// Store or rule failures are returned as the invocation error; a stored record
// is not rolled back when enabling the rule fails, it expires through its TTL.
func (h *ConnectHandler) Handle(ctx context.Context, event events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger := observability.FromContext(ctx)

	connectionID, err := ConnectionID(event)
	if err != nil {
		logger.Error(ctx, "Missing connection ID in event", err, map[string]interface{}{
			"event": event,
		})
		return apigateway.BadRequest(apigateway.MsgMissingID), nil
	}

	logger.Debug(ctx, fmt.Sprintf("New connection %s", connectionID), map[string]interface{}{
		"event": event,
	})

	if err := h.store.Put(ctx, models.NewConnectionRecord(connectionID, h.now())); err != nil {
		return events.APIGatewayProxyResponse{}, fmt.Errorf("failed to store connection %s: %w", connectionID, err)
	}

	if err := h.rule.Enable(ctx); err != nil {
		return events.APIGatewayProxyResponse{}, fmt.Errorf("failed to enable rule: %w", err)
	}

	return apigateway.OK(apigateway.MsgConnected), nil
}
