// Package app builds the process-wide clients shared by the Lambda entrypoints.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/MostProject/wslistener/internal/config"
	"github.com/MostProject/wslistener/internal/handlers"
	"github.com/MostProject/wslistener/internal/middleware"
	"github.com/MostProject/wslistener/internal/observability"
	"github.com/MostProject/wslistener/internal/rules"
	"github.com/MostProject/wslistener/internal/storage"
	"github.com/MostProject/wslistener/internal/tracing"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
)

const shutdownTimeout = 500 * time.Millisecond

// App holds the collaborators built once at cold start and reused across invocations
type App struct {
	Config  *config.Config
	Logger  *observability.Logger
	Store   handlers.RecordStore
	Rule    handlers.RuleToggle
	Tracing *tracing.Provider
	Metrics *observability.Metrics
}

// New reads the environment and builds the AWS clients
func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := observability.NewLogger(cfg.ServiceName, cfg.Environment, observability.ParseLevel(cfg.LogLevel))

	awsCfg, err := config.LoadAWS(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tp, err := tracing.Init(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to init tracing: %w", err)
	}

	store := storage.NewDynamoDBStore(dynamodb.NewFromConfig(awsCfg), cfg.TableName)
	rule := rules.NewEventBridgeRule(eventbridge.NewFromConfig(awsCfg), cfg.Rule)

	var metrics *observability.Metrics
	if cfg.MetricsNamespace != "" {
		metrics = observability.NewMetrics(cloudwatch.NewFromConfig(awsCfg), cfg.MetricsNamespace, cfg.Environment)
	}

	a := &App{
		Config:  cfg,
		Logger:  logger,
		Store:   tracing.WrapStore(store, tp.Tracer()),
		Rule:    tracing.WrapRule(rule, cfg.Rule, tp.Tracer()),
		Tracing: tp,
		Metrics: metrics,
	}

	logger.Info(ctx, "Lambda initialized successfully", map[string]interface{}{
		"table":           cfg.TableName,
		"rule":            cfg.Rule.String(),
		"metrics_enabled": metrics != nil,
		"trace_disabled":  cfg.TraceDisabled,
	})
	return a, nil
}

// Wrap composes the standard middleware around h. name labels the root span;
// connectionEvent ("new" or "closed") labels the success counter.
func (a *App) Wrap(h middleware.Handler, name, connectionEvent string) middleware.Handler {
	return middleware.Chain(h,
		middleware.Logging(a.Logger),
		middleware.Tracing(a.Tracing, name),
		middleware.Metrics(a.Metrics, connectionEvent),
	)
}

// Shutdown flushes spans and buffered log entries. It runs when the Lambda
// runtime sends SIGTERM before recycling the environment.
func (a *App) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.Tracing.Shutdown(ctx); err != nil {
		a.Logger.Warn(ctx, "Failed to shut down tracing", map[string]interface{}{
			"error": err.Error(),
		})
	}
	_ = a.Logger.Sync()
}
