package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

var bomCmd = &cobra.Command{
	Use:   "bom <product-id>",
	Short: "Scrapes one product's parts table and prints it as JSON.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		res := a.bomScraper().Scrape(cmd.Context(), args[0])
		if res.Failed() {
			a.logger.Warn("bill of materials degraded to empty", "product_id", args[0], "error", res.Err())
		}
		return printJSON(cmd, res.Value())
	},
}

var assetsCmd = &cobra.Command{
	Use:   "assets <product-id>",
	Short: "Downloads one product's drawings and prints the saved paths as JSON.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		report := a.downloader().Download(cmd.Context(), args[0])
		if report.Assets.Failed() {
			a.logger.Warn("assets degraded to empty", "product_id", args[0], "error", report.Assets.Err())
		}
		return printJSON(cmd, report.Assets.Value())
	},
}

func init() {
	rootCmd.AddCommand(bomCmd, assetsCmd)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
