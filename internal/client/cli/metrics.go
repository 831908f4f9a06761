package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	dto "github.com/prometheus/client_model/go"
)

// Metrics prints the client's own counters.
func (a *App) Metrics(context.Context) error {
	if a.gatherer == nil {
		return errors.New("metrics are disabled")
	}
	families, err := a.gatherer.Gather()
	if err != nil {
		return err
	}

	tw := newTable(a.out)
	fmt.Fprintln(tw, "METRIC\tLABELS\tVALUE")
	for _, mf := range families {
		if mf.GetType() != dto.MetricType_COUNTER {
			continue
		}
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			fmt.Fprintf(tw, "%s\t%s\t%g\n", mf.GetName(), orDash(strings.Join(labels, ",")), m.GetCounter().GetValue())
		}
	}
	return tw.Flush()
}
