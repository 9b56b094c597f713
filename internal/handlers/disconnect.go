package handlers

import (
	"context"
	"fmt"

	"github.com/MostProject/wslistener/internal/apigateway"
	"github.com/MostProject/wslistener/internal/observability"
	"github.com/aws/aws-lambda-go/events"
)

// DisconnectHandler handles the $disconnect route
type DisconnectHandler struct {
	store RecordStore
	rule  RuleToggle
}

// NewDisconnectHandler creates a new disconnect handler
func NewDisconnectHandler(store RecordStore, rule RuleToggle) *DisconnectHandler {
	return &DisconnectHandler{
		store: store,
		rule:  rule,
	}
}

// Handle deletes the connection id and disables the event rule when no
// connection is left.
//
// Delete, check and disable are separate calls. A connect landing between the
// check and the disable leaves the rule disabled until the next connect; that
// window is accepted.
func (h *DisconnectHandler) Handle(ctx context.Context, event events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger := observability.FromContext(ctx)

	connectionID, err := ConnectionID(event)
	if err != nil {
		logger.Error(ctx, "Missing connection ID in event", err, map[string]interface{}{
			"event": event,
		})
		return apigateway.BadRequest(apigateway.MsgMissingID), nil
	}

	logger.Debug(ctx, fmt.Sprintf("Disconnecting %s", connectionID), map[string]interface{}{
		"event": event,
	})

	if err := h.store.Delete(ctx, connectionID); err != nil {
		return events.APIGatewayProxyResponse{}, fmt.Errorf("failed to delete connection %s: %w", connectionID, err)
	}

	if err := h.disableRuleIfIdle(ctx); err != nil {
		return events.APIGatewayProxyResponse{}, err
	}

	return apigateway.OK(apigateway.MsgDisconnected), nil
}

func (h *DisconnectHandler) disableRuleIfIdle(ctx context.Context) error {
	exists, err := h.store.ExistsAny(ctx)
	if err != nil {
		return fmt.Errorf("failed to check remaining connections: %w", err)
	}
	if exists {
		observability.FromContext(ctx).Debug(ctx, "Connections remain, leaving rule enabled")
		return nil
	}

	if err := h.rule.Disable(ctx); err != nil {
		return fmt.Errorf("failed to disable rule: %w", err)
	}
	observability.FromContext(ctx).Info(ctx, "No connections left, rule disabled")
	return nil
}
