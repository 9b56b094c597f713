package tracing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MostProject/wslistener/internal/config"
	"github.com/MostProject/wslistener/internal/models"
	"github.com/MostProject/wslistener/internal/rules"
	"github.com/MostProject/wslistener/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingProvider() (*Provider, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return NewProvider(tp), recorder
}

func spanNames(recorder *tracetest.SpanRecorder) []string {
	var names []string
	for _, s := range recorder.Ended() {
		names = append(names, s.Name())
	}
	return names
}

func TestWrapStore(t *testing.T) {
	provider, recorder := newRecordingProvider()
	store := WrapStore(storage.NewMemoryStore(), provider.Tracer())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, models.NewConnectionRecord("abc-123", time.Now())))
	exists, err := store.ExistsAny(ctx)
	require.NoError(t, err)
	assert.True(t, exists)
	require.NoError(t, store.Delete(ctx, "abc-123"))

	assert.Equal(t, []string{"store_id", "exists_any", "delete_id"}, spanNames(recorder))
}

func TestWrapRule(t *testing.T) {
	provider, recorder := newRecordingProvider()
	ref := models.RuleRef{EventBus: "bus", Name: "rule"}
	rule := WrapRule(rules.NewMemoryRule(), ref, provider.Tracer())

	require.NoError(t, rule.Enable(context.Background()))
	require.NoError(t, rule.Disable(context.Background()))

	assert.Equal(t, []string{"enable_rule", "disable_rule"}, spanNames(recorder))
}

type failingRule struct{ err error }

func (f failingRule) Enable(ctx context.Context) error  { return f.err }
func (f failingRule) Disable(ctx context.Context) error { return f.err }

func TestWrapRuleRecordsError(t *testing.T) {
	provider, recorder := newRecordingProvider()
	cause := errors.New("denied")
	rule := WrapRule(failingRule{err: cause}, models.RuleRef{EventBus: "bus", Name: "rule"}, provider.Tracer())

	err := rule.Enable(context.Background())
	assert.ErrorIs(t, err, cause)

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "denied", ended[0].Status().Description)
}

func TestInitDisabled(t *testing.T) {
	provider, err := Init(context.Background(), &config.Config{TraceDisabled: true})
	require.NoError(t, err)

	assert.NotNil(t, provider.Tracer())
	assert.NoError(t, provider.ForceFlush(context.Background()))
	assert.NoError(t, provider.Shutdown(context.Background()))
}
