// Package config reads the listener's settings from the environment.
//
// Settings are read once at cold start and never change afterwards.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/MostProject/wslistener/internal/models"
)

// Environment variable names
const (
	EnvEnvironment      = "ENVIRONMENT"
	EnvEventRuleName    = "EVENT_RULE_NAME"
	EnvTableName        = "LISTENER_TABLE_NAME"
	EnvServiceName      = "SERVICE_NAME"
	EnvLogLevel         = "LOG_LEVEL"
	EnvTraceDisabled    = "TRACE_DISABLED"
	EnvMetricsNamespace = "METRICS_NAMESPACE"
	EnvAWSEndpoint      = "AWS_ENDPOINT"
	EnvAWSRegion        = "AWS_REGION"

	DefaultServiceName = "ws-listener"
	DefaultLogLevel    = "info"
)

var (
	ErrMissingEnv      = errors.New("required environment variable not set")
	ErrInvalidRuleName = errors.New("invalid event rule name")
)

// Config holds process-wide settings
type Config struct {
	Environment string
	Rule        models.RuleRef
	TableName   string

	ServiceName      string
	LogLevel         string
	TraceDisabled    bool
	MetricsNamespace string

	// AWSEndpoint overrides every service endpoint, for LocalStack
	AWSEndpoint string
	AWSRegion   string
}

// Load reads the configuration from the process environment
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom reads the configuration through getenv
func LoadFrom(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Environment:      getenv(EnvEnvironment),
		TableName:        getenv(EnvTableName),
		ServiceName:      getenv(EnvServiceName),
		LogLevel:         getenv(EnvLogLevel),
		MetricsNamespace: getenv(EnvMetricsNamespace),
		AWSEndpoint:      getenv(EnvAWSEndpoint),
		AWSRegion:        getenv(EnvAWSRegion),
	}

	required := []struct{ name, value string }{
		{EnvEnvironment, cfg.Environment},
		{EnvEventRuleName, getenv(EnvEventRuleName)},
		{EnvTableName, cfg.TableName},
	}
	for _, env := range required {
		if env.value == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingEnv, env.name)
		}
	}

	rule, err := ParseRuleName(getenv(EnvEventRuleName))
	if err != nil {
		return nil, err
	}
	cfg.Rule = rule

	if v := getenv(EnvTraceDisabled); v != "" {
		disabled, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", EnvTraceDisabled, v, err)
		}
		cfg.TraceDisabled = disabled
	}

	if cfg.ServiceName == "" {
		cfg.ServiceName = DefaultServiceName
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	return cfg, nil
}

// ParseRuleName splits a "<bus>|<rule>" pair
func ParseRuleName(s string) (models.RuleRef, error) {
	bus, rule, ok := strings.Cut(s, "|")
	if !ok || bus == "" || rule == "" || strings.Contains(rule, "|") {
		return models.RuleRef{}, fmt.Errorf("%w: %q, want \"<bus>|<rule>\"", ErrInvalidRuleName, s)
	}
	return models.RuleRef{EventBus: bus, Name: rule}, nil
}
