package report

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/common/expfmt"

	"github.com/guimove/ricoverage/internal/metrics"
	"github.com/guimove/ricoverage/internal/model"
)

// PrometheusReporter outputs the result in the Prometheus text exposition
// format.
type PrometheusReporter struct {
	w io.Writer
}

func (r *PrometheusReporter) Report(ctx context.Context, result *model.AnalysisResult, meta ReportMeta) error {
	exp := metrics.NewExporter()
	exp.Observe(result)

	mfs, err := exp.Gather()
	if err != nil {
		return err
	}

	enc := expfmt.NewEncoder(r.w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encoding metric family %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
