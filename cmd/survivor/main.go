package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "survivor",
		Short: "NFL survivor pool pick engine",
		Long: "Win probabilities, pick popularity, expected-value rankings, and\n" +
			"Monte Carlo season simulations for NFL survivor pools.",
	}

	var market bool
	rootCmd.PersistentFlags().BoolVar(&market, "market", false, "Blend market point spreads into win probabilities")

	serveCmd := &cobra.Command{
		Use:          "serve",
		Short:        "Run the HTTP API server",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	var week int
	summaryCmd := &cobra.Command{
		Use:          "summary",
		Short:        "Rank the favorites of one week by expected value",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummary(cmd.Context(), week, market)
		},
	}
	summaryCmd.Flags().IntVarP(&week, "week", "w", 1, "Week to summarize")

	var entryCount int
	var picksFile string
	recommendCmd := &cobra.Command{
		Use:          "recommend",
		Short:        "Assign one distinct pick per entry for a week",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecommend(cmd.Context(), week, entryCount, picksFile, market)
		},
	}
	recommendCmd.Flags().IntVarP(&week, "week", "w", 1, "Week to pick for")
	recommendCmd.Flags().IntVarP(&entryCount, "entries", "n", 1, "Number of pool entries")
	recommendCmd.Flags().StringVar(&picksFile, "picks", "", "YAML file with committed picks per entry")

	var trials int
	var seed int64
	simulateCmd := &cobra.Command{
		Use:          "simulate",
		Short:        "Estimate season survival with a Monte Carlo run",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(cmd.Context(), week, entryCount, picksFile, trials, seed, market)
		},
	}
	simulateCmd.Flags().IntVarP(&week, "start-week", "w", 1, "First week to simulate")
	simulateCmd.Flags().IntVarP(&entryCount, "entries", "n", 1, "Number of pool entries")
	simulateCmd.Flags().StringVar(&picksFile, "picks", "", "YAML file with committed picks per entry")
	simulateCmd.Flags().IntVarP(&trials, "trials", "t", 0, "Trial count (default from config)")
	simulateCmd.Flags().Int64Var(&seed, "seed", 0, "Base seed (default from config)")

	var resultsFile string
	updateCmd := &cobra.Command{
		Use:          "update",
		Short:        "Apply final scores to the power ratings",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd.Context(), week, resultsFile)
		},
	}
	updateCmd.Flags().IntVarP(&week, "through-week", "w", 1, "Apply results through this week")
	updateCmd.Flags().StringVar(&resultsFile, "results", "", "YAML file with final scores (required)")
	_ = updateCmd.MarkFlagRequired("results")

	var limit int
	standingsCmd := &cobra.Command{
		Use:          "standings",
		Short:        "Print the current power rankings",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStandings(cmd.Context(), limit)
		},
	}
	standingsCmd.Flags().IntVarP(&limit, "limit", "l", 32, "Number of teams to print")

	var outFile string
	var withSim bool
	exportCmd := &cobra.Command{
		Use:          "export",
		Short:        "Write a week summary workbook",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), week, outFile, withSim, trials, seed, market)
		},
	}
	exportCmd.Flags().IntVarP(&week, "week", "w", 1, "Week to export")
	exportCmd.Flags().StringVarP(&outFile, "output", "o", "survivor.xlsx", "Output Excel file path")
	exportCmd.Flags().BoolVar(&withSim, "simulate", false, "Include a season simulation sheet")
	exportCmd.Flags().IntVarP(&trials, "trials", "t", 0, "Trial count for --simulate")
	exportCmd.Flags().Int64Var(&seed, "seed", 0, "Base seed for --simulate")

	rootCmd.AddCommand(serveCmd, summaryCmd, recommendCmd, simulateCmd, updateCmd, standingsCmd, exportCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
