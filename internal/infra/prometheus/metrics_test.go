package prometheus

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sifan077/ListingBank/config"
	"github.com/stretchr/testify/assert"
)

func TestRecordStatusAction(t *testing.T) {
	counter := ListingStatusActions.WithLabelValues("pause", ResultNoop)
	before := testutil.ToFloat64(counter)

	RecordStatusAction("pause", ResultNoop, 0.002)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestNewServer_DefaultPort(t *testing.T) {
	assert.Equal(t, ":9090", NewServer(config.PrometheusConfig{}).Addr)
	assert.Equal(t, ":9100", NewServer(config.PrometheusConfig{Port: 9100}).Addr)
}
