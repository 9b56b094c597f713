package config

import (
	"context"
	"testing"

	"github.com/MostProject/wslistener/internal/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func baseEnv() map[string]string {
	return map[string]string{
		EnvEnvironment:   "test",
		EnvEventRuleName: "EVENT_BUS_NAME|EVENT_RULE_NAME",
		EnvTableName:     "TABLE_NAME",
	}
}

func TestLoadFrom(t *testing.T) {
	cfg, err := LoadFrom(envFrom(baseEnv()))
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Environment)
	assert.Equal(t, models.RuleRef{EventBus: "EVENT_BUS_NAME", Name: "EVENT_RULE_NAME"}, cfg.Rule)
	assert.Equal(t, "TABLE_NAME", cfg.TableName)
	assert.Equal(t, DefaultServiceName, cfg.ServiceName)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.False(t, cfg.TraceDisabled)
	assert.Empty(t, cfg.MetricsNamespace)
}

func TestLoadFromOptional(t *testing.T) {
	env := baseEnv()
	env[EnvServiceName] = "listener"
	env[EnvLogLevel] = "debug"
	env[EnvTraceDisabled] = "true"
	env[EnvMetricsNamespace] = "Ecommerce"
	env[EnvAWSEndpoint] = "http://localhost:4566"

	cfg, err := LoadFrom(envFrom(env))
	require.NoError(t, err)

	assert.Equal(t, "listener", cfg.ServiceName)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.TraceDisabled)
	assert.Equal(t, "Ecommerce", cfg.MetricsNamespace)
	assert.Equal(t, "http://localhost:4566", cfg.AWSEndpoint)
}

func TestLoadFromMissing(t *testing.T) {
	for _, name := range []string{EnvEnvironment, EnvEventRuleName, EnvTableName} {
		t.Run(name, func(t *testing.T) {
			env := baseEnv()
			delete(env, name)

			_, err := LoadFrom(envFrom(env))
			assert.ErrorIs(t, err, ErrMissingEnv)
			assert.Contains(t, err.Error(), name)
		})
	}
}

func TestLoadFromMissingReportsFirstInOrder(t *testing.T) {
	for i := 0; i < 20; i++ {
		_, err := LoadFrom(envFrom(map[string]string{}))
		require.ErrorIs(t, err, ErrMissingEnv)
		assert.Equal(t, "required environment variable not set: ENVIRONMENT", err.Error())
	}

	_, err := LoadFrom(envFrom(map[string]string{EnvEnvironment: "test"}))
	assert.Contains(t, err.Error(), EnvEventRuleName)
}

func TestLoadFromInvalidTraceFlag(t *testing.T) {
	env := baseEnv()
	env[EnvTraceDisabled] = "maybe"

	_, err := LoadFrom(envFrom(env))
	assert.Error(t, err)
}

func TestParseRuleName(t *testing.T) {
	tests := []struct {
		in      string
		want    models.RuleRef
		wantErr bool
	}{
		{in: "bus|rule", want: models.RuleRef{EventBus: "bus", Name: "rule"}},
		{in: "bus", wantErr: true},
		{in: "|rule", wantErr: true},
		{in: "bus|", wantErr: true},
		{in: "a|b|c", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRuleName(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRuleName)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadAWSLocalEndpoint(t *testing.T) {
	cfg := &Config{AWSEndpoint: "http://localhost:4566"}

	awsCfg, err := LoadAWS(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, "us-east-1", awsCfg.Region)
	assert.Equal(t, "http://localhost:4566", aws.ToString(awsCfg.BaseEndpoint))

	creds, err := awsCfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test", creds.AccessKeyID)
}
