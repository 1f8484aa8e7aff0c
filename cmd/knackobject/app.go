package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-knackobject/internal/prompt"
	"github.com/goliatone/go-knackobject/internal/watch"
	"github.com/goliatone/go-knackobject/pkg/config"
	"github.com/goliatone/go-knackobject/pkg/knack"
	"github.com/goliatone/go-knackobject/pkg/mount"
	"github.com/goliatone/go-knackobject/pkg/orchestrator"
	"github.com/goliatone/go-knackobject/pkg/render"
	"github.com/goliatone/go-knackobject/pkg/renderers/markup"
	"github.com/goliatone/go-knackobject/pkg/renderers/themed"
)

// app carries global flags and the collaborators commands share.
type app struct {
	configPath string
	appID      string
	apiKey     string
	baseURL    string
	debug      bool

	out         io.Writer
	driver      prompt.Driver
	interactive func() bool
	lookupEnv   func(string) (string, bool)

	cfg    config.Config
	logger *zap.Logger
}

func newApp(out io.Writer) *app {
	return &app{
		out:         out,
		driver:      prompt.NewSurveyDriver(),
		interactive: prompt.Interactive,
		lookupEnv:   os.LookupEnv,
		logger:      zap.NewNop(),
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "knackobject",
		Short: "Resolve Knack records with their connections and render them as HTML",
		Long: `knackobject fetches a record from the Knack REST API, follows every
connection field recursively and renders the result.

Credentials come from --config, the KNACK_APP_ID and KNACK_API_KEY
environment variables or flags, and are prompted for on a terminal.

Examples:
  # Inspect an object's schema
  knackobject fields object_1

  # Resolve a record tree as JSON
  knackobject resolve object_1 5f1c0ad3

  # Mount the rendered record into a saved page
  knackobject render object_1 5f1c0ad3 --page page.html --element view_12 --out page.html

  # Re-render while editing the config or a label preset
  knackobject render --config knack.yaml --labels labels.yaml --out record.html --watch`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML config file")
	root.PersistentFlags().StringVar(&a.appID, "app-id", "", "Knack application id")
	root.PersistentFlags().StringVar(&a.apiKey, "api-key", "", "Knack REST API key")
	root.PersistentFlags().StringVar(&a.baseURL, "base-url", "", "API base URL")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Log resolved trees and rendered HTML")

	root.AddCommand(
		newFieldsCmd(a),
		newRecordCmd(a),
		newResolveCmd(a),
		newRenderCmd(a),
	)
	return root
}

// loadConfig layers the config file, the environment and flags, in that
// order of precedence from lowest to highest.
func (a *app) loadConfig() (config.Config, error) {
	cfg := config.Default()
	if a.configPath != "" {
		loaded, err := config.Load(a.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv(a.lookupEnv)

	if a.appID != "" {
		cfg.AppID = a.appID
	}
	if a.apiKey != "" {
		cfg.APIKey = a.apiKey
	}
	if a.baseURL != "" {
		cfg.BaseURL = a.baseURL
	}
	if a.debug {
		cfg.Debug = true
	}
	return cfg, nil
}

// reloadConfig re-reads the config file, keeping credentials obtained by
// prompting when the file still lacks them.
func (a *app) reloadConfig() error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	if cfg.AppID == "" {
		cfg.AppID = a.cfg.AppID
	}
	if cfg.APIKey == "" {
		cfg.APIKey = a.cfg.APIKey
	}
	a.cfg = cfg
	return nil
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	if (cfg.AppID == "" || cfg.APIKey == "") && a.interactive != nil && a.interactive() {
		appID, apiKey, err := prompt.Credentials(cmd.Context(), a.driver, cfg.AppID, cfg.APIKey)
		if err != nil {
			return err
		}
		cfg.AppID, cfg.APIKey = appID, apiKey
	}

	if cfg.Debug {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		a.logger = logger
	}

	a.cfg = cfg
	return nil
}

func (a *app) orchestrator(extra ...orchestrator.Option) (*orchestrator.Orchestrator, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	options := append([]orchestrator.Option{
		orchestrator.WithConfig(a.cfg),
		orchestrator.WithLogger(a.logger),
	}, extra...)
	orch := orchestrator.New(options...)
	if err := orch.Err(); err != nil {
		return nil, err
	}
	return orch, nil
}

func (a *app) fetcher() (knack.Fetcher, error) {
	orch, err := a.orchestrator()
	if err != nil {
		return nil, err
	}
	return orch.Fetcher(), nil
}

// subject maps positional args onto a subject: none selects the configured
// record, two name an object and record.
func (a *app) subject(args []string) (orchestrator.Subject, error) {
	switch len(args) {
	case 0:
		if !a.cfg.HasDefaultRecord() {
			return nil, errors.New("object id and record id are required (as arguments or objectId/recordId in config)")
		}
		return orchestrator.DefaultRecord(), nil
	case 2:
		return orchestrator.RecordOf(args[0], args[1]), nil
	default:
		return nil, errors.New("expected no arguments or <objectId> <recordId>")
	}
}

func (a *app) writeJSON(value any) error {
	encoder := json.NewEncoder(a.out)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(value)
}

func newFieldsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fields <objectId>",
		Short: "Print an object's field schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fetcher, err := a.fetcher()
			if err != nil {
				return err
			}
			fields, err := fetcher.FetchFields(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.writeJSON(fields)
		},
	}
}

func newRecordCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "record <objectId> <recordId>",
		Short: "Print one raw record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fetcher, err := a.fetcher()
			if err != nil {
				return err
			}
			record, err := fetcher.FetchRecord(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return a.writeJSON(record)
		},
	}
}

func newResolveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [objectId recordId]",
		Short: "Resolve a record and its connections into a JSON tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, err := a.subject(args)
			if err != nil {
				return err
			}
			orch, err := a.orchestrator()
			if err != nil {
				return err
			}
			tree, err := orch.Resolve(cmd.Context(), subject)
			if err != nil {
				return err
			}
			return a.writeJSON(tree)
		},
	}
}

type renderFlags struct {
	pagePath     string
	elementID    string
	renderer     string
	outPath      string
	labelsPath   string
	templatesDir string
	watch        bool
}

func newRenderCmd(a *app) *cobra.Command {
	var flags renderFlags
	cmd := &cobra.Command{
		Use:   "render [objectId recordId]",
		Short: "Render a record as HTML, optionally mounted into a page",
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, err := a.subject(args)
			if err != nil {
				return err
			}
			if err := a.render(cmd.Context(), subject, flags); err != nil {
				return err
			}
			if !flags.watch {
				return nil
			}
			return a.watchRender(cmd.Context(), subject, flags)
		},
	}
	cmd.Flags().StringVar(&flags.pagePath, "page", "", "HTML page to mount the output into")
	cmd.Flags().StringVar(&flags.elementID, "element", "", "id of the mount element (default from config)")
	cmd.Flags().StringVar(&flags.renderer, "renderer", "", "renderer name (markup or themed)")
	cmd.Flags().StringVarP(&flags.outPath, "out", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVar(&flags.labelsPath, "labels", "", "YAML label preset that relabels or hides fields")
	cmd.Flags().StringVar(&flags.templatesDir, "templates", "", "directory of partials (knack/scalar.tmpl, knack/pair.tmpl, knack/section.tmpl) for the themed renderer; implies --renderer themed")
	cmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "re-render when the config, page or label preset changes")
	return cmd
}

func (a *app) render(ctx context.Context, subject orchestrator.Subject, flags renderFlags) error {
	var extra []orchestrator.Option
	if flags.labelsPath != "" {
		data, err := os.ReadFile(flags.labelsPath)
		if err != nil {
			return fmt.Errorf("read label preset: %w", err)
		}
		preset, err := orchestrator.NewLabelPreset(data)
		if err != nil {
			return err
		}
		extra = append(extra, orchestrator.WithTransformer(preset))
	}

	renderer := flags.renderer
	if flags.templatesDir != "" {
		themedRenderer, err := themed.New(themed.WithTemplatesDir(flags.templatesDir))
		if err != nil {
			return err
		}
		registry, err := render.NewRegistry(markup.New(), themedRenderer)
		if err != nil {
			return err
		}
		extra = append(extra, orchestrator.WithRegistry(registry))
		if renderer == "" {
			renderer = themed.Name
		}
	}

	orch, err := a.orchestrator(extra...)
	if err != nil {
		return err
	}
	req := orchestrator.Request{
		Subject:   subject,
		Renderer:  renderer,
		ElementID: flags.elementID,
	}
	if flags.pagePath == "" {
		output, err := orch.Template(ctx, req)
		if err != nil {
			return err
		}
		return a.write(flags.outPath, output)
	}
	return a.renderPage(ctx, orch, req, flags.pagePath, flags.outPath)
}

// watchFiles lists the inputs a render depends on. The output file is never
// watched, so writing it cannot trigger another render.
func (a *app) watchFiles(flags renderFlags) ([]string, error) {
	var files []string
	for _, path := range []string{a.configPath, flags.pagePath, flags.labelsPath} {
		if path != "" {
			files = append(files, path)
		}
	}
	if len(files) == 0 {
		return nil, errors.New("--watch needs at least one of --config, --page or --labels")
	}
	if flags.outPath != "" && slices.ContainsFunc(files, func(input string) bool {
		return samePath(input, flags.outPath)
	}) {
		return nil, errors.New("--watch cannot write its output over one of its inputs")
	}
	return files, nil
}

// samePath compares cleaned absolute paths, then falls back to os.SameFile so
// links to an existing input are caught too.
func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA == nil && errB == nil && absA == absB {
		return true
	}
	infoA, err := os.Stat(a)
	if err != nil {
		return false
	}
	infoB, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(infoA, infoB)
}

func (a *app) watchRender(ctx context.Context, subject orchestrator.Subject, flags renderFlags) error {
	files, err := a.watchFiles(flags)
	if err != nil {
		return err
	}
	watcher, err := watch.New(files, watch.WithLogger(a.logger))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	a.logger.Info("watching for changes", zap.Strings("files", watcher.Files()))
	return watcher.Run(ctx, func(ctx context.Context, changed []string) error {
		if a.configPath != "" {
			if err := a.reloadConfig(); err != nil {
				return err
			}
		}
		if err := a.render(ctx, subject, flags); err != nil {
			return err
		}
		a.logger.Info("re-rendered", zap.Strings("changed", changed))
		return nil
	})
}

func (a *app) renderPage(ctx context.Context, orch *orchestrator.Orchestrator, req orchestrator.Request, pagePath, outPath string) error {
	file, err := os.Open(pagePath)
	if err != nil {
		return fmt.Errorf("open page: %w", err)
	}
	page, err := mount.Parse(file)
	file.Close()
	if err != nil {
		return err
	}

	mounted, err := orch.Render(ctx, page, req)
	if err != nil {
		return err
	}
	if !mounted {
		a.logger.Warn("page has no mount target; writing it unchanged", zap.String("page", pagePath))
	}

	if outPath == "" {
		return mount.RenderTo(a.out, page)
	}
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := mount.RenderTo(out, page); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (a *app) write(path string, data []byte) error {
	if path == "" {
		_, err := fmt.Fprintln(a.out, string(data))
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
