package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Hussain0327/echo-analytics-platform/internal/api"
	"github.com/Hussain0327/echo-analytics-platform/internal/config"
	"github.com/Hussain0327/echo-analytics-platform/internal/dataset"
	"github.com/Hussain0327/echo-analytics-platform/internal/llm"
	"github.com/Hussain0327/echo-analytics-platform/internal/logging"
	"github.com/Hussain0327/echo-analytics-platform/internal/mcp"
	"github.com/Hussain0327/echo-analytics-platform/internal/metrics"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig

	serveAddr string
	serveOpen bool

	analyzeCategory string
)

var rootCmd = &cobra.Command{
	Use:   "echo",
	Short: "Echo is a business-analytics MCP server and AI data consultant",
	Long: `Echo calculates revenue, financial, and marketing metrics from CSV data,
analyzes time-series trends, and answers business questions through an
LLM-backed consultant. Run without a subcommand to serve MCP over stdio.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)

		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Msg("Echo starting")
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		log.Info().Msg("MCP server starting stdio loop")
		return mcp.NewServer().Run(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the metrics and chat HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := serveAddr
		if addr == "" {
			addr = cfg.HTTPAddr
		}

		conversations := llm.NewConversations(llm.NewClient(cfg.LLM))
		server := api.NewServer(api.Config{Addr: addr, Conversations: conversations})

		group, ctx := errgroup.WithContext(cmd.Context())
		group.Go(func() error {
			return server.Start(ctx)
		})

		if serveOpen {
			url := "http://localhost" + addr + "/health"
			if !strings.HasPrefix(addr, ":") {
				url = "http://" + addr + "/health"
			}
			if err := browser.OpenURL(url); err != nil {
				log.Warn().Err(err).Str("url", url).Msg("Failed to open browser")
			}
		}

		return group.Wait()
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file.csv>",
	Short: "Calculate all applicable metrics for a CSV file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		d, err := dataset.FromCSV(f)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", args[0], err)
		}

		results := metrics.NewEngine(d).CalculateAll(metrics.Category(analyzeCategory))
		if len(results) == 0 {
			return fmt.Errorf("no metrics applicable to %s", args[0])
		}

		out, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from HTTP_ADDR or :8000)")
	serveCmd.Flags().BoolVar(&serveOpen, "open", false, "open the health page in a browser after start")

	analyzeCmd.Flags().StringVar(&analyzeCategory, "category", "", "restrict to one category: revenue, financial, marketing")

	rootCmd.AddCommand(serveCmd, analyzeCmd)
}
