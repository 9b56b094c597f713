// Package handlers holds the $connect and $disconnect route logic.
//
// Handlers own no clients: the record store, rule toggle and clock are built
// once at cold start and injected, so every handler can be exercised with fakes.
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MostProject/wslistener/internal/failure"
	"github.com/MostProject/wslistener/internal/models"
	"github.com/aws/aws-lambda-go/events"
)

// RecordStore persists connection records
type RecordStore interface {
	Put(ctx context.Context, rec models.ConnectionRecord) error
	Delete(ctx context.Context, connectionID string) error
	ExistsAny(ctx context.Context) (bool, error)
}

// RuleToggle switches the downstream event rule on and off
type RuleToggle interface {
	Enable(ctx context.Context) error
	Disable(ctx context.Context) error
}

// Clock returns the current time
type Clock func() time.Time

// ConnectionID extracts requestContext.connectionId from the event
func ConnectionID(req events.APIGatewayWebsocketProxyRequest) (string, error) {
	id := req.RequestContext.ConnectionID
	if strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("missing connection id: %w", failure.ErrInvalidRequest)
	}
	return id, nil
}
