package observability

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const pushJob = "ec2_rsnapshot"

// Exporter ships the metrics of a finished run to a node_exporter textfile
// and/or a Pushgateway.
type Exporter struct {
	Gatherer       prometheus.Gatherer
	TextfilePath   string
	PushgatewayURL string
}

// Export writes to every configured destination and joins their errors.
// prefix is used as the Pushgateway grouping key so each backup job keeps
// its own series.
func (e Exporter) Export(prefix string) error {
	var errs []error
	if e.TextfilePath != "" {
		if err := prometheus.WriteToTextfile(e.TextfilePath, e.Gatherer); err != nil {
			errs = append(errs, fmt.Errorf("write textfile %s: %w", e.TextfilePath, err))
		}
	}
	if e.PushgatewayURL != "" {
		err := push.New(e.PushgatewayURL, pushJob).
			Gatherer(e.Gatherer).
			Grouping("prefix", prefix).
			Push()
		if err != nil {
			errs = append(errs, fmt.Errorf("push to %s: %w", e.PushgatewayURL, err))
		}
	}
	return errors.Join(errs...)
}
