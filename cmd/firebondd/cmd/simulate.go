package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/spf13/cobra"

	"github.com/firebond/firebond/x/forest/keeper"
	"github.com/firebond/firebond/x/forest/simulation"
)

// SimulateResponse is the output of the simulate command.
type SimulateResponse struct {
	Report  *simulation.Report `json:"report"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
}

func simulateCommand() *cobra.Command {
	var (
		scenarioFile string
		pretty       bool
		withMetrics  bool
		strict       bool
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a staking scenario against an in-memory chain",
		Long: `Run a YAML scenario through the forest keeper and print a JSON report.

The scenario file lists named accounts and steps:
- fund, create_pool, buy_and_stake, claim, early_unstake, register_fire, advance
- expect (optional) is "ok" or a substring the step's error must contain

Params come from the scenario, unless --params-file is given, in which case
the file overrides them.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if scenarioFile == "" {
				return fmt.Errorf("--scenario-file is required")
			}

			sc, err := simulation.LoadScenario(scenarioFile)
			if err != nil {
				return err
			}
			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}

			runner := simulation.NewRunner(logger)
			if path, _ := cmd.Flags().GetString(flagParamsFile); path != "" {
				params, err := loadParams(cmd)
				if err != nil {
					return err
				}
				runner = runner.WithParams(params)
			}

			var reg *prometheus.Registry
			if withMetrics {
				reg = prometheus.NewRegistry()
				runner = runner.WithMetrics(keeper.NewMetrics(reg))
			}

			report, err := runner.Run(sc)
			if err != nil {
				return err
			}

			resp := SimulateResponse{Report: report}
			if reg != nil {
				families, err := reg.Gather()
				if err != nil {
					return fmt.Errorf("gather metrics: %w", err)
				}
				resp.Metrics = flattenMetrics(families)
			}

			if err := writeJSON(cmd.OutOrStdout(), resp, pretty); err != nil {
				return err
			}
			if strict && !report.Passed {
				return fmt.Errorf("scenario %q failed", report.Scenario)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&scenarioFile, "scenario-file", "", "Path to YAML scenario")
	cmd.Flags().BoolVar(&pretty, flagPretty, true, "Pretty-print JSON output")
	cmd.Flags().BoolVar(&withMetrics, "metrics", false, "Include keeper metrics in the output")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit with an error when the scenario does not pass")
	return cmd
}

// flattenMetrics renders counters and gauges as name{label="value"} keys.
func flattenMetrics(families []*dto.MetricFamily) map[string]float64 {
	out := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var value float64
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				value = m.GetCounter().GetValue()
			case dto.MetricType_GAUGE:
				value = m.GetGauge().GetValue()
			default:
				continue
			}
			out[metricKey(mf.GetName(), m.GetLabel())] = value
		}
	}
	return out
}

func metricKey(name string, labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return name
	}
	pairs := make([]string, 0, len(labels))
	for _, l := range labels {
		pairs = append(pairs, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
	}
	sort.Strings(pairs)
	return name + "{" + strings.Join(pairs, ",") + "}"
}
