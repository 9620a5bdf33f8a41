package metrics_test

import (
	"bytes"
	"io/ioutil"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil/promlint"

	"github.com/graphwire/bolt/metrics"
)

func TestPrometheusMetrics(t *testing.T) {
	// Touch the vectors so every metric family is exported.
	metrics.HandshakeCount.WithLabelValues("4.4").Inc()
	metrics.MessageSentCount.WithLabelValues("RUN").Inc()
	metrics.MessageReceivedCount.WithLabelValues("SUCCESS").Inc()
	metrics.SentBytes.Add(10)
	metrics.ReceivedBytes.Add(20)
	metrics.ErrorCount.WithLabelValues("io").Inc()
	metrics.RecordCountHistogram.Observe(3)
	metrics.PoolConnectionCount.Inc()
	metrics.PoolSize.Set(1)

	server := httptest.NewServer(promhttp.Handler())
	defer server.Close()
	log.Println(server.URL)

	metricReader, err := http.Get(server.URL)
	if err != nil || metricReader == nil {
		t.Fatalf("Could not GET metrics: %v", err)
	}
	metricBytes, err := ioutil.ReadAll(metricReader.Body)
	if err != nil {
		t.Fatalf("Could not read metrics: %v", err)
	}
	metricsLinter := promlint.New(bytes.NewBuffer(metricBytes))
	problems, err := metricsLinter.Lint()
	if err != nil {
		t.Errorf("Could not lint metrics: %v", err)
	}
	for _, p := range problems {
		t.Errorf("Bad metric %v: %v", p.Metric, p.Text)
	}
}
