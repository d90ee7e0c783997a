package commands

import (
	"time"

	"github.com/maltedev/motor-catalog-collector/internal/pipeline"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetches the listing, saves a random sample and enriches every sampled product.",
	Args:  cobra.NoArgs,
	RunE:  runPipeline,
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetches the listing and saves the links file and a random sample.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		p := a.pipeline(cmd.Context())
		t1 := time.Now()
		summary, err := p.Fetch(cmd.Context())
		a.logger.Info("fetch finished", "summary", summary, "duration", time.Since(t1))
		return err
	},
}

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enriches the products of an existing sample file.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		sample, err := pipeline.ReadSample(a.cfg.Collector.OutputPath)
		if err != nil {
			return err
		}

		p := a.pipeline(cmd.Context())
		t1 := time.Now()
		summary, err := p.Enrich(cmd.Context(), sample)
		a.logger.Info("enrich finished", "summary", summary, "duration", time.Since(t1))
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd, fetchCmd, enrichCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	p := a.pipeline(cmd.Context())
	t1 := time.Now()
	summary, err := p.Run(cmd.Context())
	a.logger.Info("run finished",
		"run_id", p.RunID(),
		"summary", summary,
		"duration", time.Since(t1))
	return err
}
