package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sabarim/contango/internal/chain"
	"github.com/sabarim/contango/internal/config"
	"github.com/sabarim/contango/internal/contango"
	"github.com/sabarim/contango/internal/dataset"
	"github.com/sabarim/contango/internal/settlement"
)

var (
	configFile         string
	baseURL            string
	ticker             string
	deploymentDateStr  string
	startDateStr       string
	tempOutputDir      string
	processedDataDir   string
	vendorDir          string
	overwriteExisting  bool
	onlyDeploymentDate bool
	parquetEnabled     bool
	requestInterval    int
	maxRetries         int
	version            bool
)

var version_string = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "contango",
		Short: "A utility to build the VIX futures contango dataset",
		Long:  `A standalone utility that fetches daily CBOE VIX futures settlement data, computes contango ratios and merges them into the historical dataset on disk.`,
		Run:   runRootCommand,
	}

	rootCmd.Flags().StringVar(&configFile, "config", "config.yaml", "Path to config file")
	rootCmd.Flags().StringVar(&baseURL, "base-url", "", "Base URL of the settlement data source")
	rootCmd.Flags().StringVar(&ticker, "ticker", "", "Futures root ticker (default is VX)")
	rootCmd.Flags().StringVar(&deploymentDateStr, "deployment-date", "", "Deployment date (YYYYMMDD, default is today UTC)")
	rootCmd.Flags().StringVar(&startDateStr, "start-date", "", "Process start date (YYYYMMDD, default is one day before deployment date)")
	rootCmd.Flags().StringVar(&tempOutputDir, "output-dir", "", "Root directory for dataset output")
	rootCmd.Flags().StringVar(&processedDataDir, "processed-dir", "", "Root directory holding previously processed data")
	rootCmd.Flags().StringVar(&vendorDir, "vendor-dir", "", "Vendor directory name under alternative/")
	rootCmd.Flags().BoolVar(&overwriteExisting, "overwrite", false, "Overwrite entries already present in the dataset")
	rootCmd.Flags().BoolVar(&onlyDeploymentDate, "only-deployment-date", false, "Restrict merging to the deployment date only")
	rootCmd.Flags().BoolVar(&parquetEnabled, "parquet", false, "Also mirror computed records to Parquet")
	rootCmd.Flags().IntVar(&requestInterval, "request-interval", 0, "Minimum spacing between requests in milliseconds")
	rootCmd.Flags().IntVar(&maxRetries, "max-retries", 0, "Maximum number of fetch attempts per contract")
	rootCmd.Flags().BoolVar(&version, "version", false, "Print version information")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runRootCommand(cmd *cobra.Command, args []string) {
	if version {
		fmt.Printf("contango version %s\n", version_string)
		return
	}

	// 1. Load .env and configuration from file and environment
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	// 2. Override configuration with command-line flags
	if baseURL != "" {
		cfg.Source.BaseURL = baseURL
	}
	if ticker != "" {
		cfg.Source.Ticker = ticker
	}
	if requestInterval > 0 {
		cfg.Source.RequestInterval = requestInterval
	}
	if maxRetries > 0 {
		cfg.Source.MaxRetries = maxRetries
	}
	if deploymentDateStr != "" {
		cfg.Process.DeploymentDate = deploymentDateStr
		cfg.Process.StartDate = ""
	}
	if startDateStr != "" {
		cfg.Process.StartDate = startDateStr
	}
	if tempOutputDir != "" {
		cfg.Output.TempOutputDir = tempOutputDir
	}
	if processedDataDir != "" {
		cfg.Output.ProcessedDataDir = processedDataDir
	}
	if vendorDir != "" {
		cfg.Output.VendorDir = vendorDir
	}
	if overwriteExisting {
		cfg.Output.OverwriteExisting = true
	}
	if onlyDeploymentDate {
		cfg.Process.OnlyDeploymentDate = true
	}
	if parquetEnabled {
		cfg.Output.ParquetEnabled = true
	}
	if cfg.Process.StartDate == "" {
		deployment, err := cfg.DeploymentDate()
		if err != nil {
			log.Fatalf("Invalid deployment date: %v", err)
		}
		cfg.Process.StartDate = deployment.AddDate(0, 0, -1).Format("20060102")
	}

	deploymentDate, err := cfg.DeploymentDate()
	if err != nil {
		log.Fatalf("Invalid deployment date: %v", err)
	}
	startDate, err := cfg.StartDate()
	if err != nil {
		log.Fatalf("Invalid start date: %v", err)
	}

	log.Printf("Running for deployment date %s, start date %s",
		deploymentDate.Format("2006-01-02"), startDate.Format("2006-01-02"))

	// 3. Build the contract chain
	builder, err := chain.NewBuilder(cfg.Source.Ticker)
	if err != nil {
		log.Fatalf("Failed to initialize chain builder: %v", err)
	}
	contracts, err := builder.Build(startDate, cfg.Source.LookAhead)
	if err != nil {
		log.Fatalf("Failed to build futures chain: %v", err)
	}
	log.Printf("Built chain of %d contracts", len(contracts))

	// 4. Fetch settlement data for each contract
	ctx := context.Background()
	fetcher := settlement.NewFetcher(
		cfg.Source.BaseURL,
		time.Duration(cfg.Source.RequestInterval)*time.Millisecond,
		cfg.Source.MaxRetries,
		settlement.NewHTTPStrategy(),
	)
	bars, err := fetcher.FetchSettlements(ctx, contracts)
	if err != nil {
		log.Fatalf("Failed to fetch settlement data: %v", err)
	}
	log.Printf("Fetched settlement data for %d trading dates", len(bars))

	// 5. Compute contango records
	calculator := contango.NewCalculator(nil)
	records, err := calculator.Compute(bars, contracts)
	if err != nil {
		log.Fatalf("Failed to compute contango records: %v", err)
	}
	log.Printf("Computed %d contango records", len(records))

	// 6. Merge into the historical dataset
	merger, err := dataset.NewMerger(
		cfg.Output.TempOutputDir,
		cfg.Output.ProcessedDataDir,
		cfg.Output.VendorDir,
		cfg.Output.OverwriteExisting,
		cfg.Process.OnlyDeploymentDate,
		deploymentDate,
		cfg.Output.ParquetEnabled,
	)
	if err != nil {
		log.Fatalf("Failed to initialize dataset merger: %v", err)
	}
	if err := merger.Merge(records); err != nil {
		log.Fatalf("Failed to merge dataset: %v", err)
	}

	log.Println("Contango dataset processing completed successfully")
}
