package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/drujensen/datamodels/internal/api"
	"github.com/drujensen/datamodels/internal/api/websocket"
	"github.com/drujensen/datamodels/internal/app"
	"github.com/drujensen/datamodels/internal/domain/entities"
	"github.com/drujensen/datamodels/internal/impl/config"
	"github.com/drujensen/datamodels/internal/impl/defaults"
	"github.com/drujensen/datamodels/internal/impl/modelfile"
	"github.com/drujensen/datamodels/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

var (
	version = "unknown" // This should be set during build with -ldflags="-X main.version=1.0.0"
)

var modes = []string{"serve", "tui", "tree", "generate", "delete", "import", "export", "diff", "dashboard"}

func main() {
	// Check version flag first
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Println(version)
		os.Exit(0)
	}

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: datamodels [serve|tui|tree|generate|delete|import|export|diff|dashboard] [flags]\n")
		flag.PrintDefaults()
	}

	storage := flag.String("storage", "", "Model storage: attribute, file or mongo (default from STORAGE)")
	count := flag.Int("count", 0, "Entities per level for generate (default from the global config)")
	prefix := flag.String("prefix", "", "Name prefix for generated entities")
	file := flag.String("file", "", "Model file (.yaml, .yml or .json) for import, export and diff")
	remember := flag.Bool("remember", false, "Store -count and -prefix as the new defaults")

	// Preserve the flags by not calling flag.Parse() yet
	flag.CommandLine.Parse([]string{})

	// Default mode is "tui"
	modeStr := "tui"

	// Check the first non-flag argument for the mode
	if len(os.Args) > 1 && slices.Contains(modes, os.Args[1]) {
		modeStr = os.Args[1]
		os.Args = slices.Delete(os.Args, 1, 2)
	}

	// Parse the remaining arguments which are flags
	flag.Parse()

	cfg, err := config.InitConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *storage != "" {
		cfg.Storage = *storage
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			flag.Usage()
			os.Exit(1)
		}
	}
	if modeStr == "serve" && cfg.LogLevel > zap.InfoLevel {
		cfg.LogLevel = zap.InfoLevel
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	global, err := config.LoadGlobalConfig(logger)
	if err != nil {
		logger.Fatal("Failed to load global config", zap.Error(err))
	}
	flagSet := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { flagSet[f.Name] = true })
	if flagSet["count"] {
		global.DefaultCount = *count
	}
	if flagSet["prefix"] {
		global.DefaultPrefix = *prefix
	}
	if *remember {
		if err := config.SaveGlobalConfig(global, logger); err != nil {
			logger.Fatal("Failed to save global config", zap.Error(err))
		}
	}
	settings := global.Settings()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer application.Close()

	if err := run(ctx, modeStr, application, settings, *file); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		application.Close()
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, mode string, a *app.App, settings entities.AutoGeneratingSettings, file string) error {
	models := a.ModelService

	switch mode {
	case "serve":
		hub := websocket.NewProgressHub(a.Logger)
		go hub.Run(ctx)
		e := api.NewServer(a.Logger, a.Metrics, models, hub, settings)
		return api.Serve(ctx, e, a.Config.ListenAddr, a.Logger)

	case "tui":
		ui := tui.NewTUI(models, settings)
		defer ui.Close()
		p := tea.NewProgram(ui, tea.WithAltScreen(), tea.WithContext(ctx))
		_, err := p.Run()
		return err

	case "tree":
		tree, err := models.GetTree(ctx)
		if err != nil {
			return err
		}
		fmt.Print(tui.RenderTree(tree, settings.Count))
		return nil

	case "generate":
		tree, report, err := models.AutoFill(ctx, settings)
		if report != nil {
			fmt.Print(tui.RenderTree(tree, 0))
			fmt.Println()
			fmt.Print(tui.RenderReport(report))
		}
		return err

	case "delete":
		deleted, err := models.DeleteGenerated(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %s generated entities\n", humanize.Comma(int64(deleted)))
		return nil

	case "import":
		model := defaults.SampleModel()
		if file != "" {
			var err error
			if model, err = modelfile.Read(file); err != nil {
				return err
			}
		}
		if err := models.SaveModel(ctx, model); err != nil {
			return err
		}
		fmt.Printf("Saved model with %d nodes and %d edges\n", len(model.Nodes), len(model.Edges))
		return nil

	case "export":
		state, err := models.GetModel(ctx)
		if err != nil {
			return err
		}
		if file == "" {
			data, err := modelfile.Encode(state.Model, modelfile.FormatYAML)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		}
		return modelfile.Write(file, state.Model)

	case "diff":
		if file == "" {
			return fmt.Errorf("diff needs -file")
		}
		fromFile, err := modelfile.Read(file)
		if err != nil {
			return err
		}
		state, err := models.GetModel(ctx)
		if err != nil {
			return err
		}
		diff, err := modelfile.Diff(state.Model, fromFile, "saved", file)
		if err != nil {
			return err
		}
		if diff == "" {
			fmt.Println("No differences")
			return nil
		}
		fmt.Print(diff)
		return nil

	case "dashboard":
		plan, err := models.PlanDashboard(ctx)
		if err != nil {
			return err
		}
		out := json.NewEncoder(os.Stdout)
		out.SetIndent("", "  ")
		return out.Encode(plan)
	}

	return fmt.Errorf("unknown mode %q", mode)
}
