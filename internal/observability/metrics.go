package observability

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// MetricName constants
const (
	MetricConnectionsNew    = "ConnectionsNew"
	MetricConnectionsClosed = "ConnectionsClosed"
	MetricInvalidRequests   = "InvalidRequests"
	MetricErrorsTotal       = "ErrorsTotal"
	MetricHandlerLatency    = "HandlerLatencyMs"
)

// CloudWatch accepts at most this many datums per PutMetricData call in this collector
const maxBatchSize = 20

// CloudWatchAPI is the subset of the CloudWatch client used for publishing
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Metrics collects and publishes CloudWatch metrics.
// There is no background flusher: the Lambda environment is frozen between
// invocations, so callers flush at the end of each one.
type Metrics struct {
	client    CloudWatchAPI
	namespace string
	env       string

	buffer   []types.MetricDatum
	bufferMu sync.Mutex

	counters sync.Map // map[string]*int64
}

// NewMetrics creates a new metrics collector
func NewMetrics(client CloudWatchAPI, namespace, env string) *Metrics {
	return &Metrics{
		client:    client,
		namespace: namespace,
		env:       env,
		buffer:    make([]types.MetricDatum, 0, maxBatchSize),
	}
}

// Counter increments a counter metric
func (m *Metrics) Counter(name string, value int64) {
	v, _ := m.counters.LoadOrStore(name, new(int64))
	atomic.AddInt64(v.(*int64), value)
}

// Latency records a latency metric in milliseconds
func (m *Metrics) Latency(ctx context.Context, name string, duration time.Duration) {
	m.addMetric(name, float64(duration.Milliseconds()), types.StandardUnitMilliseconds)
}

func (m *Metrics) environmentDimension() types.Dimension {
	return types.Dimension{
		Name:  aws.String("Environment"),
		Value: aws.String(m.env),
	}
}

// addMetric adds a metric to the buffer
func (m *Metrics) addMetric(name string, value float64, unit types.StandardUnit) {
	datum := types.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(value),
		Unit:       unit,
		Timestamp:  aws.Time(time.Now().UTC()),
		Dimensions: []types.Dimension{m.environmentDimension()},
	}

	m.bufferMu.Lock()
	m.buffer = append(m.buffer, datum)
	m.bufferMu.Unlock()
}

// Flush publishes all buffered metrics to CloudWatch.
// Metrics are best effort: publish failures are logged, never returned.
func (m *Metrics) Flush(ctx context.Context) {
	m.counters.Range(func(key, value interface{}) bool {
		count := atomic.SwapInt64(value.(*int64), 0)
		if count > 0 {
			m.addMetric(key.(string), float64(count), types.StandardUnitCount)
		}
		return true
	})

	m.bufferMu.Lock()
	if len(m.buffer) == 0 {
		m.bufferMu.Unlock()
		return
	}
	metrics := m.buffer
	m.buffer = make([]types.MetricDatum, 0, maxBatchSize)
	m.bufferMu.Unlock()

	for i := 0; i < len(metrics); i += maxBatchSize {
		end := i + maxBatchSize
		if end > len(metrics) {
			end = len(metrics)
		}

		_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(m.namespace),
			MetricData: metrics[i:end],
		})
		if err != nil {
			FromContext(ctx).Error(ctx, "Failed to publish metrics", err, map[string]interface{}{
				"batch_size": end - i,
			})
		}
	}
}

// RecordConnection records connection events
func (m *Metrics) RecordConnection(event string) {
	switch event {
	case "new":
		m.Counter(MetricConnectionsNew, 1)
	case "closed":
		m.Counter(MetricConnectionsClosed, 1)
	}
}

// RecordInvalidRequest counts a request rejected with a 400
func (m *Metrics) RecordInvalidRequest() {
	m.Counter(MetricInvalidRequests, 1)
}

// RecordError counts an invocation that failed on a dependency
func (m *Metrics) RecordError() {
	m.Counter(MetricErrorsTotal, 1)
}
