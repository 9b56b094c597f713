// Package middleware composes cross-cutting concerns around the route handlers.
//
// Each Middleware wraps a Handler and calls through to it; main decides the
// order with Chain. Handlers never log invocation boundaries, open the root
// span or publish metrics themselves.
package middleware

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/MostProject/wslistener/internal/observability"
	"github.com/MostProject/wslistener/internal/tracing"
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Handler is the signature of a WebSocket route handler
type Handler func(ctx context.Context, event events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error)

// Middleware decorates a Handler
type Middleware func(Handler) Handler

// Chain wraps h so that the first middleware is the outermost
func Chain(h Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

var warm atomic.Bool

// Logging puts logger, the Lambda request id and the connection id into the
// context and logs the invocation outcome.
func Logging(logger *observability.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, event events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
			ctx = observability.WithContext(ctx, logger)
			if lc, ok := lambdacontext.FromContext(ctx); ok {
				ctx = observability.WithRequestID(ctx, lc.AwsRequestID)
			}
			if id := event.RequestContext.ConnectionID; id != "" {
				ctx = observability.WithConnectionID(ctx, id)
			}

			logger.Debug(ctx, "Invocation started", map[string]interface{}{
				"route_key":  event.RequestContext.RouteKey,
				"event_type": event.RequestContext.EventType,
				"cold_start": !warm.Swap(true),
			})

			done := logger.Timer(ctx, "invocation")
			resp, err := next(ctx, event)
			done(err)
			return resp, err
		}
	}
}

// Tracing opens the root span of the invocation and flushes spans before returning
func Tracing(provider *tracing.Provider, name string) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, event events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
			ctx, span := provider.Tracer().Start(ctx, name,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("connection.id", event.RequestContext.ConnectionID),
					attribute.String("websocket.event_type", event.RequestContext.EventType),
					attribute.String("websocket.route_key", event.RequestContext.RouteKey),
				),
			)

			resp, err := next(ctx, event)

			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			} else {
				span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
			}
			span.End()

			if ferr := provider.ForceFlush(ctx); ferr != nil {
				observability.FromContext(ctx).Warn(ctx, "Failed to flush spans", map[string]interface{}{
					"error": ferr.Error(),
				})
			}
			return resp, err
		}
	}
}

// Metrics counts outcomes, records handler latency and flushes to CloudWatch
// at the end of every invocation. connectionEvent is "new" or "closed".
// A nil collector disables the middleware.
func Metrics(m *observability.Metrics, connectionEvent string) Middleware {
	return func(next Handler) Handler {
		if m == nil {
			return next
		}
		return func(ctx context.Context, event events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, event)
			m.Latency(ctx, observability.MetricHandlerLatency, time.Since(start))

			switch {
			case err != nil:
				m.RecordError()
			case resp.StatusCode == http.StatusBadRequest:
				m.RecordInvalidRequest()
			default:
				m.RecordConnection(connectionEvent)
			}

			m.Flush(ctx)
			return resp, err
		}
	}
}
