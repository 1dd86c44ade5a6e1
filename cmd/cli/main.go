package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/rodrigooliver/interflow-sub001/pkg/config"
	"github.com/rodrigooliver/interflow-sub001/pkg/csv"
	"github.com/rodrigooliver/interflow-sub001/pkg/editor"
	"github.com/rodrigooliver/interflow-sub001/pkg/executors"
	"github.com/rodrigooliver/interflow-sub001/pkg/history"
	"github.com/rodrigooliver/interflow-sub001/pkg/installment"
	"github.com/rodrigooliver/interflow-sub001/pkg/models"
	"github.com/rodrigooliver/interflow-sub001/pkg/paste"
	"github.com/rodrigooliver/interflow-sub001/pkg/plan"
	"github.com/rodrigooliver/interflow-sub001/pkg/server"
	"github.com/rodrigooliver/interflow-sub001/pkg/store"
)

const prefix = "interflow"

var (
	cliFilters filters
	cfgFile    string
)

// setup loads the configuration and builds the logger shared by every
// subcommand.
func setup(cmd *cobra.Command) (*config.Config, *log.Logger, error) {
	if err := cliFilters.validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid date filter: %w", err)
	}
	cfg, err := config.Build(cfgFile, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	return cfg, cfg.Logger(prefix), nil
}

var rootCmd = &cobra.Command{
	Use:           "interflow",
	Short:         "Installment planning and paste normalization",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		// Show help when no subcommand is provided
		return cmd.Help()
	},
}

var planCmd = &cobra.Command{
	Use:   "plan <plan_file>",
	Short: "Preview the installments of a YAML plan (dry-run)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}

		p, err := plan.Load(args[0])
		if err != nil {
			return err
		}
		batches, err := p.Records(installment.New(cfg.PlannerOptions()...))
		if err != nil {
			return err
		}
		logger.Debug("plan loaded", "file", args[0], "transactions", len(batches))

		if dump, _ := cmd.Flags().GetBool("dump"); dump {
			pp.Println(batches)
			return nil
		}

		if asCSV, _ := cmd.Flags().GetBool("csv"); asCSV {
			var all []models.InstallmentRecord
			for _, b := range batches {
				all = append(all, b...)
			}
			fmt.Print(string(csv.Create(csv.Pointers(all), cliFilters.toFilterFunc())))
			return nil
		}

		fmt.Printf("Plan preview for %s\n", args[0])
		p.Print(os.Stdout)
		exec := executors.New(logger, nil)
		for _, b := range batches {
			fmt.Println()
			if err := exec.Plan(b); err != nil {
				return err
			}
		}
		return nil
	},
}

var applyCmd = &cobra.Command{
	Use:   "apply <plan_file>",
	Short: "Store the installments of a YAML plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}

		p, err := plan.Load(args[0])
		if err != nil {
			return err
		}
		batches, err := p.Records(installment.New(cfg.PlannerOptions()...))
		if err != nil {
			return err
		}

		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		exec := executors.New(logger, st)
		for _, b := range batches {
			stored, err := exec.Apply(ctx, p.Organization, b)
			for _, r := range stored {
				fmt.Printf("%s %s | %-40s | %5s | R$ %10s\n", r.ID, r.Date(), r.Memo(), r.Sequence(), r.Value())
			}
			if err != nil {
				return err
			}
		}
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Export stored installments as CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _, err := setup(cmd)
		if err != nil {
			return err
		}

		org, _ := cmd.Flags().GetString("org")
		parent, _ := cmd.Flags().GetString("parent")

		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()

		recs, err := st.List(cmd.Context(), org, store.Filter{ParentTransactionID: parent})
		if err != nil {
			return err
		}
		fmt.Print(string(csv.Create(csv.Pointers(recs), cliFilters.toFilterFunc())))
		return nil
	},
}

var pasteCmd = &cobra.Command{
	Use:   "paste",
	Short: "Convert clipboard content (plain text and/or HTML) to Markdown",
	Long: "Reads the plain text flavor from --text (or stdin when neither --text nor --html is set) " +
		"and the HTML flavor from --html. With --into the result is inserted into that document " +
		"at --at (rune offset, default end) and the whole document is printed.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}

		payload, err := readPayload(cmd)
		if err != nil {
			return err
		}
		normalizer := paste.New(paste.WithLogger(logger))

		into, _ := cmd.Flags().GetString("into")
		if into == "" {
			fmt.Println(normalizer.Normalize(payload))
			return nil
		}

		doc, err := os.ReadFile(into)
		if err != nil {
			return fmt.Errorf("failed to read document: %w", err)
		}
		session := editor.New(string(doc), normalizer, history.New(cfg.HistoryOptions()...))
		if at, _ := cmd.Flags().GetInt("at"); at >= 0 {
			session.SetCursor(at)
		}
		fragment := session.Paste(payload)
		logger.Debug("pasted", "document", into, "runes", len([]rune(fragment)), "cursor", session.Cursor())
		fmt.Print(session.Value())
		return nil
	},
}

func readPayload(cmd *cobra.Command) (models.ClipboardPayload, error) {
	var payload models.ClipboardPayload
	textFile, _ := cmd.Flags().GetString("text")
	htmlFile, _ := cmd.Flags().GetString("html")

	if textFile != "" {
		b, err := os.ReadFile(textFile)
		if err != nil {
			return payload, fmt.Errorf("failed to read text: %w", err)
		}
		payload.PlainText = string(b)
	}
	if htmlFile != "" {
		b, err := os.ReadFile(htmlFile)
		if err != nil {
			return payload, fmt.Errorf("failed to read html: %w", err)
		}
		payload.HTML = string(b)
	}
	if textFile == "" && htmlFile == "" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return payload, fmt.Errorf("failed to read stdin: %w", err)
		}
		payload.PlainText = string(b)
	}
	return payload, nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}

		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return server.New(cfg, logger, st).Start(ctx, cfg.Server.Addr)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default is config.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("store", "", "Database path, or \"memory\"")
	rootCmd.PersistentFlags().Bool("split", false, "Divide the template amount across installments")

	// Filter flags (global)
	rootCmd.PersistentFlags().StringVar(&cliFilters.startDate, "start", "", "Start date (YYYY-MM-DD)")
	rootCmd.PersistentFlags().StringVar(&cliFilters.endDate, "end", "", "End date (YYYY-MM-DD)")
	rootCmd.PersistentFlags().Float64Var(&cliFilters.minAmount, "min", 0, "Minimum amount")
	rootCmd.PersistentFlags().Float64Var(&cliFilters.maxAmount, "max", 0, "Maximum amount")
	rootCmd.PersistentFlags().StringVar(&cliFilters.description, "description", "", "Filter by description (case insensitive)")

	planCmd.Flags().Bool("csv", false, "Print the installments as CSV")
	planCmd.Flags().Bool("dump", false, "Dump the generated records")

	listCmd.Flags().String("org", "", "Organization id")
	listCmd.Flags().String("parent", "", "Only installments of this parent transaction")
	_ = listCmd.MarkFlagRequired("org")

	pasteCmd.Flags().String("text", "", "File holding the plain text flavor")
	pasteCmd.Flags().String("html", "", "File holding the HTML flavor")
	pasteCmd.Flags().String("into", "", "Document to paste into")
	pasteCmd.Flags().Int("at", -1, "Rune offset to paste at (default end of document)")

	serveCmd.Flags().String("addr", "", "Listen address (default from server.addr)")

	rootCmd.AddCommand(planCmd, applyCmd, listCmd, pasteCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var applyErr *executors.ApplyError
		if errors.As(err, &applyErr) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
