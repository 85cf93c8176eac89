package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"parrot-hq/parrot/pkg/client"
	"parrot-hq/parrot/pkg/config"
	"parrot-hq/parrot/pkg/registry"
	"parrot-hq/parrot/pkg/telemetry/logging"
	"parrot-hq/parrot/pkg/telemetry/metrics"
	"parrot-hq/parrot/pkg/usage"
)

var chatFlags struct {
	model       string
	stream      bool
	system      string
	interactive bool
}

var chatCmd = &cobra.Command{
	Use:   "chat [prompt]",
	Short: "Send a chat completion request",
	Long: `Send a chat completion request to the configured backend.

The prompt is taken from the arguments, or from stdin when no argument
is given. With --stream the answer is printed token by token as the
backend produces it.

Examples:
  # Ask with the default model
  parrot chat "explain TCP slow start"

  # Stream from a specific model
  parrot chat --model gpt-4o-mini --stream "write a haiku"

  # Pipe the prompt from stdin
  cat question.txt | parrot chat --stream

  # Hold a conversation; config changes are picked up between turns
  parrot chat --interactive`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringVarP(&chatFlags.model, "model", "m", "", "model to query (default from config)")
	chatCmd.Flags().BoolVarP(&chatFlags.stream, "stream", "s", false, "stream the answer token by token")
	chatCmd.Flags().StringVar(&chatFlags.system, "system", "", "optional system prompt")
	chatCmd.Flags().BoolVarP(&chatFlags.interactive, "interactive", "i", false, "hold a multi-turn conversation")
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	if _, err := logging.Setup(cfg.Telemetry.Logging, nil); err != nil {
		return err
	}

	app, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer app.shutdown()

	if chatFlags.interactive {
		return runChatSession(cmd, app, cfg)
	}

	prompt, err := readPrompt(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	model := chatFlags.model
	if model == "" {
		model = cfg.Provider.DefaultModel
	}
	entry, c, err := app.openClient(model)
	if err != nil {
		return err
	}
	defer c.Close()

	conv := client.Text(prompt)
	if chatFlags.system != "" {
		conv = append(client.Conversation{{
			Role:    client.RoleSystem,
			Content: chatFlags.system,
		}}, conv...)
	}

	if _, err := ask(cmd.Context(), c, app.executor, conv, chatFlags.stream, cmd.OutOrStdout()); err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "\n[%s via %s: %d input tokens, %d output tokens]\n",
			model, entry.Name, c.InputTokens(), c.OutputTokens())
	}
	return nil
}

// ask runs one query, prints the answer to out, and returns the
// assistant's reply text for conversation history. exec must be the
// executor the client delivers events on.
func ask(ctx context.Context, c *client.Client, exec client.Executor, conv client.Conversation, stream bool, out io.Writer) (string, error) {
	done := make(chan error, 1)
	var reply strings.Builder

	handler := client.OnEvent(func(ev client.Event) {
		switch ev.Kind {
		case client.EventResponse:
			if ev.Message != nil && ev.Message.Content != nil {
				reply.WriteString(*ev.Message.Content)
				fmt.Fprintln(out, *ev.Message.Content)
			}
			done <- nil
		case client.EventDelta:
			reply.WriteString(ev.Delta.Content)
			fmt.Fprint(out, ev.Delta.Content)
		case client.EventStop:
			fmt.Fprintln(out)
			done <- nil
		case client.EventError:
			done <- fmt.Errorf("request failed: %s", ev.Err)
		}
	})

	// A stream may end without a terminal event (EOF before the done
	// sentinel, tolerated by contract) or on cancellation, so the query
	// returning is the completion signal, not the handler.
	finished := make(chan struct{})
	go func() {
		c.Query(ctx, conv, handler, stream, nil)
		close(finished)
	}()

	select {
	case <-finished:
	case <-ctx.Done():
		fmt.Fprintln(out)
		return "", fmt.Errorf("interrupted")
	}

	// All events are scheduled by now; route a marker through the same
	// executor so every pending delivery has landed before reply is read.
	flushed := make(chan struct{})
	exec.Schedule(func() { close(flushed) })
	select {
	case <-flushed:
	case <-ctx.Done():
		fmt.Fprintln(out)
		return "", fmt.Errorf("interrupted")
	}

	select {
	case err := <-done:
		if err != nil {
			return "", err
		}
	default:
		// Silent stream end without a sentinel: still a complete answer.
		fmt.Fprintln(out)
	}

	return reply.String(), nil
}

func readPrompt(args []string, stdin io.Reader) (string, error) {
	if len(args) == 1 {
		prompt := strings.TrimSpace(args[0])
		if prompt == "" {
			return "", fmt.Errorf("prompt cannot be empty")
		}
		return prompt, nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt from stdin: %w", err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}
	return prompt, nil
}

// app bundles the collaborators every command that talks to a backend
// needs: the provider registry plus the telemetry and usage plumbing
// wired into each client it opens.
type app struct {
	registry  *registry.Registry
	ledger    *usage.Ledger
	scheduler *usage.Scheduler
	metrics   *metrics.Server
	executor  *client.SerialExecutor
	opts      []client.Option
}

func buildApp(cfg *config.Config) (*app, error) {
	a := &app{executor: client.NewSerialExecutor()}

	recorders := usage.MultiRecorder{usage.NewTracker()}
	if cfg.Usage.LedgerPath != "" {
		ledger, err := usage.OpenLedger(cfg.Usage.LedgerPath)
		if err != nil {
			return nil, err
		}
		a.ledger = ledger
		recorders = append(recorders, ledger)

		a.scheduler = usage.NewScheduler(ledger, cfg.Usage)
		if err := a.scheduler.Start(); err != nil {
			a.ledger.Close()
			return nil, err
		}
	}

	a.opts = []client.Option{
		client.WithExecutor(a.executor),
		client.WithRecorder(recorders),
	}

	if cfg.Telemetry.Metrics.Enabled {
		cm := metrics.NewClientMetrics(cfg.Telemetry.Metrics)
		a.metrics = metrics.NewServer(cfg.Telemetry.Metrics, cm)
		a.metrics.Start()
		a.opts = append(a.opts, client.WithObserver(cm))
	}

	a.registry = registry.New()
	if err := a.registry.Register(registry.FromProvider(cfg.Provider, a.opts...)); err != nil {
		return nil, err
	}
	return a, nil
}

// reload replaces the provider registration after a config change.
// Clients opened before the reload keep their old settings; the next
// openClient call picks up the new ones.
func (a *app) reload(cfg *config.Config) error {
	return a.registry.Register(registry.FromProvider(cfg.Provider, a.opts...))
}

// openClient resolves the model to its registered provider and builds
// a client for it. An empty model falls back to the provider's first
// listed model.
func (a *app) openClient(model string) (registry.Entry, *client.Client, error) {
	if model == "" {
		models := a.registry.Models()
		if len(models) == 0 {
			return registry.Entry{}, nil, fmt.Errorf("no models registered")
		}
		model = models[0]
	}

	entry, ok := a.registry.Resolve(model)
	if !ok {
		return registry.Entry{}, nil, fmt.Errorf("no provider serves model %q (known: %s)",
			model, strings.Join(a.registry.Models(), ", "))
	}
	if !entry.Configured {
		return registry.Entry{}, nil, fmt.Errorf("provider %q has no API key configured", entry.Name)
	}

	c, err := entry.New(model)
	if err != nil {
		return registry.Entry{}, nil, err
	}
	return entry, c, nil
}

func (a *app) shutdown() {
	a.executor.Close()
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.ledger != nil {
		a.ledger.Close()
	}
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		a.metrics.Shutdown(ctx)
	}
	_ = os.Stdout.Sync()
}
