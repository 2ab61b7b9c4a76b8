package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/fedscope-etl/internal/analysis"
	"github.com/fedscope-etl/internal/assembler"
	"github.com/fedscope-etl/internal/config"
	"github.com/fedscope-etl/internal/dataset"
	"github.com/fedscope-etl/internal/db"
	"github.com/fedscope-etl/internal/export"
	"github.com/fedscope-etl/internal/extract"
	"github.com/fedscope-etl/internal/load"
	"github.com/fedscope-etl/internal/web"
)

func main() {
	config.LoadEnv()

	rootCmd := &cobra.Command{
		Use:   "fedscope",
		Short: "FedScope employment data pipeline",
		Long:  `Converts quarterly FedScope employment snapshots into denormalized, analysis-ready tables with a stable schema across 26+ years of releases`,
	}

	rootCmd.AddCommand(createExtractCmd())
	rootCmd.AddCommand(createProcessCmd())
	rootCmd.AddCommand(createConcatCmd())
	rootCmd.AddCommand(createStatsCmd())
	rootCmd.AddCommand(createCompareCmd())
	rootCmd.AddCommand(createLoadCmd())
	rootCmd.AddCommand(createWebCmd())
	rootCmd.AddCommand(createPingCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// createExtractCmd creates the zip extraction subcommand
func createExtractCmd() *cobra.Command {
	var rawDir, extractedDir string
	var localDebug bool

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Identify, rename, and extract quarterly zip archives",
		Long:  `Identify UUID-named FedScope downloads by their FACTDATA members, rename them to FedScope_Employment_<Quarter>_<Year>.zip, and extract each into its own directory`,
		Run: func(cmd *cobra.Command, args []string) {
			count, err := extract.ExtractAll(rawDir, extractedDir, localDebug)
			if err != nil {
				log.Fatalf("Extraction failed: %v", err)
			}
			fmt.Printf("Extracted %d new quarters to %s\n", count, extractedDir)
		},
	}

	cmd.Flags().StringVar(&rawDir, "raw-dir", config.RawDir(), "Directory containing downloaded zip archives")
	cmd.Flags().StringVar(&extractedDir, "extracted-dir", config.ExtractedDir(), "Directory to extract archives into")
	cmd.Flags().BoolVar(&localDebug, "debug", false, "Enable debug output")

	return cmd
}

// createProcessCmd creates the corpus processing subcommand
func createProcessCmd() *cobra.Command {
	var extractedDir, outputDir string
	var workers int
	var force, localDebug bool

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Denormalize every extracted quarter",
		Long:  `Run the full pipeline for each extracted quarter: resolve lookup tables, plan the schema mapping, denormalize fact rows, and export one artifact per quarter plus the duplicate audit log and run report`,
		Run: func(cmd *cobra.Command, args []string) {
			a := assembler.New(assembler.Options{
				ExtractedDir: extractedDir,
				OutputDir:    outputDir,
				Workers:      workers,
				Force:        force,
				Debug:        localDebug,
			})

			report, err := a.Run()
			if report != nil {
				printReport(report)
			}
			if err != nil {
				log.Fatalf("Corpus run failed: %v", err)
			}
		},
	}

	cmd.Flags().StringVar(&extractedDir, "extracted-dir", config.ExtractedDir(), "Directory of extracted quarters")
	cmd.Flags().StringVar(&outputDir, "output-dir", config.OutputDir(), "Directory for denormalized artifacts")
	cmd.Flags().IntVar(&workers, "workers", config.Workers(), "Number of parallel dataset workers")
	cmd.Flags().BoolVar(&force, "force", false, "Reprocess quarters whose artifact already exists")
	cmd.Flags().BoolVar(&localDebug, "debug", false, "Enable debug output")

	return cmd
}

func printReport(report *export.RunReport) {
	fmt.Printf("\n=== Corpus Run Results ===\n")
	fmt.Printf("Succeeded: %d\n", report.Succeeded)
	fmt.Printf("Failed: %d\n", report.Failed)
	fmt.Printf("Skipped: %d\n", report.Skipped)
	fmt.Printf("Total Records: %d\n", report.TotalRecords)
	fmt.Printf("Duplicate Resolution Events: %d\n", report.DuplicateEvents)
	fmt.Printf("Orphan Code Events: %d\n", report.OrphanEvents)

	if len(report.Failures) > 0 {
		fmt.Printf("\nFailures:\n")
		for _, f := range report.Failures {
			fmt.Printf("  - %s\n", f)
		}
	}
	if len(report.UnknownColumns) > 0 {
		fmt.Printf("\nUnrecognized columns requiring registry review: %v\n", report.UnknownColumns)
	}
}

// createConcatCmd creates the concatenated-view subcommand
func createConcatCmd() *cobra.Command {
	var outputDir, dest string
	var localDebug bool

	cmd := &cobra.Command{
		Use:   "concat",
		Short: "Concatenate all per-quarter artifacts into one table",
		Run: func(cmd *cobra.Command, args []string) {
			rows, err := export.Concatenate(outputDir, dest, localDebug)
			if err != nil {
				log.Fatalf("Concatenation failed: %v", err)
			}
			fmt.Printf("Wrote %d rows to %s\n", rows, dest)
		},
	}

	cmd.Flags().StringVar(&outputDir, "output-dir", config.OutputDir(), "Directory of denormalized artifacts")
	cmd.Flags().StringVar(&dest, "dest", "fedscope_employment_all.csv", "Destination file for the combined table")
	cmd.Flags().BoolVar(&localDebug, "debug", false, "Enable debug output")

	return cmd
}

// createStatsCmd creates the artifact validation subcommand
func createStatsCmd() *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Validate artifacts and show record counts and null rates",
		Run: func(cmd *cobra.Command, args []string) {
			stats, err := analysis.ValidateArtifacts(outputDir)
			if err != nil {
				log.Fatalf("Validation failed: %v", err)
			}

			fmt.Println("File                                      | Records  | Salary Null | Agency Null")
			fmt.Println("------------------------------------------|----------|-------------|------------")
			total := 0
			for _, s := range stats {
				fmt.Printf("%-41s | %8d | %10.1f%% | %10.1f%%\n",
					s.File, s.Records, s.NullPct["salary"], s.NullPct["agysubt"])
				total += s.Records
			}
			fmt.Printf("\nTotal: %d artifacts, %d records\n", len(stats), total)
		},
	}

	cmd.Flags().StringVar(&outputDir, "output-dir", config.OutputDir(), "Directory of denormalized artifacts")

	return cmd
}

// createCompareCmd creates the cross-quarter comparison subcommand
func createCompareCmd() *cobra.Command {
	var outputDir string
	var topN int

	cmd := &cobra.Command{
		Use:   "compare [before-key] [after-key]",
		Short: "Compare employment between two quarters",
		Long:  `Compare headcounts between two quarters by pay-plan/grade category and agency, e.g. compare 2024_September 2025_March`,
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			before, err := dataset.ParseKey(args[0])
			if err != nil {
				log.Fatalf("Invalid before key: %v", err)
			}
			after, err := dataset.ParseKey(args[1])
			if err != nil {
				log.Fatalf("Invalid after key: %v", err)
			}

			cmp, err := analysis.CompareQuarters(outputDir, before, after)
			if err != nil {
				log.Fatalf("Comparison failed: %v", err)
			}

			fmt.Printf("=== %s vs %s ===\n", cmp.Before, cmp.After)
			fmt.Printf("Total employment: %d -> %d (%+d)\n\n", cmp.TotalBefore, cmp.TotalAfter, cmp.TotalAfter-cmp.TotalBefore)

			fmt.Println("Grade Category | Before   | After    | Change")
			fmt.Println("---------------|----------|----------|--------")
			printCounts(cmp.ByGrade, topN, "%-14s | %8d | %8d | %+d\n")

			fmt.Println("\nAgency                                   | Before   | After    | Change")
			fmt.Println("-----------------------------------------|----------|----------|--------")
			printCounts(cmp.ByAgency, topN, "%-40s | %8d | %8d | %+d\n")
		},
	}

	cmd.Flags().StringVar(&outputDir, "output-dir", config.OutputDir(), "Directory of denormalized artifacts")
	cmd.Flags().IntVar(&topN, "top", 30, "Maximum rows to print per section (0 = all)")

	return cmd
}

func printCounts(counts []analysis.GradeCount, topN int, format string) {
	for i, g := range counts {
		if topN > 0 && i >= topN {
			break
		}
		fmt.Printf(format, g.Key, g.Before, g.After, g.After-g.Before)
	}
}

// createLoadCmd creates the Postgres load subcommand
func createLoadCmd() *cobra.Command {
	var outputDir string
	var localDebug bool

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load denormalized artifacts into Postgres",
		Run: func(cmd *cobra.Command, args []string) {
			conn, err := db.NewConnection()
			if err != nil {
				log.Fatalf("Failed to connect to database: %v", err)
			}
			defer conn.Close()

			loader := load.NewLoader(conn.DB)
			total, err := loader.LoadArtifacts(localDebug, outputDir)
			if err != nil {
				log.Fatalf("Load failed: %v", err)
			}
			fmt.Printf("Loaded %d rows into employment_denormalized\n", total)
		},
	}

	cmd.Flags().StringVar(&outputDir, "output-dir", config.OutputDir(), "Directory of denormalized artifacts")
	cmd.Flags().BoolVar(&localDebug, "debug", false, "Enable debug output")

	return cmd
}

// createWebCmd creates the status server subcommand
func createWebCmd() *cobra.Command {
	var outputDir, host string
	var port int

	cmd := &cobra.Command{
		Use:   "web",
		Short: "Serve run status and audit reports over HTTP",
		Run: func(cmd *cobra.Command, args []string) {
			server := web.NewServer(host, port, outputDir)
			fmt.Printf("Status server listening on %s\n", server.Addr())
			if err := server.Run(); err != nil {
				log.Fatalf("Server failed: %v", err)
			}
		},
	}

	cmd.Flags().StringVar(&outputDir, "output-dir", config.OutputDir(), "Directory of denormalized artifacts")
	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Listen host")
	cmd.Flags().IntVar(&port, "port", 8080, "Listen port")

	return cmd
}

// createPingCmd creates a command to test database connectivity
func createPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Test database connectivity",
		Run: func(cmd *cobra.Command, args []string) {
			conn, err := db.NewConnection()
			if err != nil {
				log.Fatalf("Failed to connect to database: %v", err)
			}
			defer conn.Close()

			fmt.Println("Database connection successful!")

			var count int
			err = conn.DB.QueryRow("SELECT COUNT(*) FROM employment_denormalized").Scan(&count)
			if err != nil {
				log.Printf("employment_denormalized not loaded yet: %v", err)
			} else {
				fmt.Printf("Denormalized records loaded: %d\n", count)
			}
		},
	}
}
