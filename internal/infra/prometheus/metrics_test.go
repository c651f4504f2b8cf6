package prometheus

import (
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sifan077/PortalLink/config"
	"github.com/stretchr/testify/assert"
)

func TestObserveLinkOperation_Outcomes(t *testing.T) {
	errMissing := errors.New("missing")
	expected := map[string]error{"not_found": errMissing}

	ok := linkOperations.WithLabelValues("article", "test_link", "ok")
	notFound := linkOperations.WithLabelValues("article", "test_link", "not_found")
	other := linkOperations.WithLabelValues("article", "test_link", "error")
	before := [3]float64{testutil.ToFloat64(ok), testutil.ToFloat64(notFound), testutil.ToFloat64(other)}

	ObserveLinkOperation("article", "test_link", nil, expected)
	ObserveLinkOperation("article", "test_link", fmt.Errorf("wrapped: %w", errMissing), expected)
	ObserveLinkOperation("article", "test_link", errors.New("disk on fire"), expected)

	assert.Equal(t, before[0]+1, testutil.ToFloat64(ok))
	assert.Equal(t, before[1]+1, testutil.ToFloat64(notFound))
	assert.Equal(t, before[2]+1, testutil.ToFloat64(other))
}

func TestObserveCacheLookup(t *testing.T) {
	hits := cacheLookups.WithLabelValues("hit")
	before := testutil.ToFloat64(hits)
	ObserveCacheLookup(true)
	assert.Equal(t, before+1, testutil.ToFloat64(hits))
}

func TestNewServer_DefaultPort(t *testing.T) {
	assert.Equal(t, ":9090", NewServer(config.PrometheusConfig{}).Addr)
	assert.Equal(t, ":9100", NewServer(config.PrometheusConfig{Port: 9100}).Addr)
}
