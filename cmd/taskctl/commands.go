package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/samvad-hq/crawl-agent-client/internal/config"
	"github.com/samvad-hq/crawl-agent-client/internal/logger"
	"github.com/samvad-hq/crawl-agent-client/pkg/httpclient"
	"github.com/samvad-hq/crawl-agent-client/pkg/taskclient"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	outputJSON = "json"
	outputYAML = "yaml"
)

// app holds state shared by subcommands once the root pre-run has executed.
type app struct {
	out     io.Writer
	baseURL string
	output  string
	client  *taskclient.Client
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:           "taskctl",
		Short:         "Talk to the local agent task server",
		Long:          "taskctl issues single calls against the agent task server (get_task, save_results, add_url, log_error, save_screenshot).",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.baseURL, "base-url", "", "Server base URL (overrides AGENT_URL/AGENT_PORT)")
	root.PersistentFlags().StringVarP(&a.output, "output", "o", outputJSON, "Output format: json or yaml")

	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return a.init()
	}
	root.PersistentPostRunE = func(*cobra.Command, []string) error {
		_ = logger.Close()
		return nil
	}

	root.AddCommand(
		a.getTaskCmd(),
		a.saveResultCmd(),
		a.addURLCmd(),
		a.logErrorCmd(),
		a.saveScreenshotCmd(),
	)
	return root
}

func (a *app) init() error {
	a.output = strings.ToLower(strings.TrimSpace(a.output))
	if a.output != outputJSON && a.output != outputYAML {
		return fmt.Errorf("unsupported output %q (expected json or yaml)", a.output)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	baseURL := strings.TrimSpace(a.baseURL)
	if baseURL == "" {
		baseURL = cfg.BaseURL()
	}
	log.DebugObj("taskctl configured", "config", map[string]any{
		"base_url":        baseURL,
		"timeout_seconds": cfg.HTTPTimeoutSeconds,
	})

	client, err := taskclient.New(baseURL,
		taskclient.WithHTTPClient(httpclient.NewRestyClient(cfg.HTTPTimeout)),
		taskclient.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("build client: %w", err)
	}
	a.client = client
	return nil
}

func (a *app) getTaskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get-task",
		Short: "Fetch the current task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			task, err := a.client.FetchTask(cmd.Context())
			if err != nil {
				return err
			}
			if task == nil {
				return a.print(nil)
			}
			return a.print(map[string]any(task))
		},
	}
}

func (a *app) saveResultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save-result <json>",
		Short: "Submit a task result (JSON value)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := parseJSONArg("result", args[0])
			if err != nil {
				return err
			}
			return a.run(cmd.Context(), func(ctx context.Context) (any, error) {
				return a.client.SaveResult(ctx, result)
			})
		},
	}
}

func (a *app) addURLCmd() *cobra.Command {
	var metadata string
	cmd := &cobra.Command{
		Use:   "add-url <url>",
		Short: "Register a discovered URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var meta any
			if cmd.Flags().Changed("metadata") {
				parsed, err := parseJSONArg("metadata", metadata)
				if err != nil {
					return err
				}
				meta = parsed
			}
			return a.run(cmd.Context(), func(ctx context.Context) (any, error) {
				return a.client.AddURL(ctx, args[0], meta)
			})
		},
	}
	cmd.Flags().StringVar(&metadata, "metadata", "", "JSON metadata attached to the URL")
	return cmd
}

func (a *app) logErrorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "log-error <message>",
		Short: "Report an error message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg := strings.Join(args, " ")
			return a.run(cmd.Context(), func(ctx context.Context) (any, error) {
				return a.client.LogError(ctx, msg)
			})
		},
	}
}

func (a *app) saveScreenshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save-screenshot <path>",
		Short: "Upload a screenshot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(ctx context.Context) (any, error) {
				return a.client.SaveScreenshot(ctx, args[0])
			})
		},
	}
}

func (a *app) run(ctx context.Context, call func(context.Context) (any, error)) error {
	if ctx == nil {
		ctx = context.Background()
	}
	out, err := call(ctx)
	if err != nil {
		return err
	}
	return a.print(out)
}

func (a *app) print(v any) error {
	switch a.output {
	case outputYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		_, err = a.out.Write(data)
		return err
	default:
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}

func parseJSONArg(name, raw string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("invalid %s JSON: %w", name, err)
	}
	return v, nil
}
