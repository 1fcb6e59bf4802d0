package report

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxapi "github.com/influxdata/influxdb-client-go/v2/api"

	"homewatch/internal/bus"
)

// Sink delivers one batch to the external reporting endpoint.
type Sink interface {
	Send(ctx context.Context, batch Batch) error
}

// NATSSink publishes batches as JSON on a single subject.
type NATSSink struct {
	Publisher *bus.Publisher
	Subject   string
}

func (s *NATSSink) Send(ctx context.Context, batch Batch) error {
	return s.Publisher.Publish(s.Subject, batch)
}

// HTTPSink posts batches to a collector endpoint.
type HTTPSink struct {
	client   *resty.Client
	endpoint string
}

func NewHTTPSink(endpoint, token string) *HTTPSink {
	client := resty.New()
	if token != "" {
		client.SetAuthToken(token)
	}
	return &HTTPSink{client: client, endpoint: endpoint}
}

func (s *HTTPSink) Send(ctx context.Context, batch Batch) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(batch).
		Post(s.endpoint)
	if err != nil {
		return fmt.Errorf("post batch: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("collector returned %s", resp.Status())
	}
	return nil
}

// InfluxSink writes readings and alerts as measurement points.
type InfluxSink struct {
	client      influxdb2.Client
	writeAPI    influxapi.WriteAPIBlocking
	measurement string
	device      string
}

func NewInfluxSink(url, token, org, bucket, measurement, device string) *InfluxSink {
	client := influxdb2.NewClient(url, token)
	return &InfluxSink{
		client:      client,
		writeAPI:    client.WriteAPIBlocking(org, bucket),
		measurement: measurement,
		device:      device,
	}
}

func (s *InfluxSink) Send(ctx context.Context, batch Batch) error {
	for _, r := range batch.Readings {
		point := influxdb2.NewPoint(
			s.measurement,
			map[string]string{"device": s.device, "channel": r.Channel, "unit": r.Unit},
			map[string]interface{}{"value": r.Value},
			r.TS,
		)
		if err := s.writeAPI.WritePoint(ctx, point); err != nil {
			return fmt.Errorf("write reading point: %w", err)
		}
	}
	for _, a := range batch.Alerts {
		point := influxdb2.NewPoint(
			s.measurement+"_alerts",
			map[string]string{"device": s.device, "channel": a.Channel, "rule": a.RuleID, "severity": a.Severity},
			map[string]interface{}{"observed": a.Observed, "limit": a.LimitExpr},
			a.TS,
		)
		if err := s.writeAPI.WritePoint(ctx, point); err != nil {
			return fmt.Errorf("write alert point: %w", err)
		}
	}
	return nil
}

func (s *InfluxSink) Close() {
	s.client.Close()
}
