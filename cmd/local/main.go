// Local development server - runs both handlers in one process for testing
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/MostProject/wslistener/internal/config"
	"github.com/MostProject/wslistener/internal/handlers"
	"github.com/MostProject/wslistener/internal/observability"
	"github.com/MostProject/wslistener/internal/rules"
	"github.com/MostProject/wslistener/internal/storage"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/spf13/cobra"
)

type options struct {
	wsAddr      string
	healthAddr  string
	awsEndpoint string
	tableName   string
	ruleName    string
	logLevel    string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "local",
		Short: "Run the connect/disconnect handlers behind a local WebSocket server",
		Long: `Serves ws://<addr>/ws. Each upgrade runs the connect handler and each
closed socket runs the disconnect handler, as API Gateway would.

By default the record store and the event rule live in memory. With
--aws-endpoint set they use DynamoDB and EventBridge at that endpoint
(e.g. LocalStack).`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.wsAddr, "addr", ":1738", "WebSocket listen address")
	flags.StringVar(&opts.healthAddr, "health-addr", envOr("HEALTH_ADDR", ":8080"), "health server listen address")
	flags.StringVar(&opts.awsEndpoint, "aws-endpoint", os.Getenv(config.EnvAWSEndpoint), "use DynamoDB and EventBridge at this endpoint instead of memory")
	flags.StringVar(&opts.tableName, "table", envOr(config.EnvTableName, "ws-listener-local"), "DynamoDB table name")
	flags.StringVar(&opts.ruleName, "rule", envOr(config.EnvEventRuleName, "default|ws-listener-local"), "event rule as <bus>|<rule>")
	flags.StringVar(&opts.logLevel, "log-level", envOr(config.EnvLogLevel, "debug"), "log level")

	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func run(ctx context.Context, opts *options) error {
	logger := observability.NewLogger("local-server", "local", observability.ParseLevel(opts.logLevel))

	ref, err := config.ParseRuleName(opts.ruleName)
	if err != nil {
		return err
	}

	var (
		store handlers.RecordStore
		rule  Rule
	)

	if opts.awsEndpoint != "" {
		awsCfg, err := config.LoadAWS(ctx, &config.Config{AWSEndpoint: opts.awsEndpoint})
		if err != nil {
			return err
		}
		store = storage.NewDynamoDBStore(dynamodb.NewFromConfig(awsCfg), opts.tableName)
		rule = rules.NewEventBridgeRule(eventbridge.NewFromConfig(awsCfg), ref)
		logger.Info(ctx, "DynamoDB and EventBridge enabled", map[string]interface{}{
			"endpoint": opts.awsEndpoint,
			"table":    opts.tableName,
			"rule":     ref.String(),
		})
	} else {
		store = storage.NewMemoryStore()
		rule = rules.NewMemoryRule()
		logger.Info(ctx, "Using in-memory store and rule")
	}

	server := NewLocalServer(store, rule, logger, opts.healthAddr)

	fmt.Printf("\n")
	fmt.Printf("Local Development Server Running\n")
	fmt.Printf("  WebSocket:  ws://localhost%s/ws\n", opts.wsAddr)
	fmt.Printf("  Health:     http://localhost%s/health\n\n", opts.healthAddr)

	if err := server.Run(ctx, opts.wsAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
