package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"parrot-hq/parrot/pkg/client"
	"parrot-hq/parrot/pkg/config"
)

// runChatSession holds a multi-turn conversation on stdin. The config
// file is watched while the session runs, so editing the API key or
// model list takes effect on the next turn without restarting.
func runChatSession(cmd *cobra.Command, a *app, cfg *config.Config) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	watcher, err := config.NewWatcher(cfgFile, slog.Default())
	if err != nil {
		return err
	}
	defer watcher.Stop()

	// Watch blocks, so it runs alongside the prompt loop.
	go func() {
		err := watcher.Watch(ctx, func(next *config.Config) {
			if err := a.reload(next); err != nil {
				slog.Error("config reload failed", "error", err)
				return
			}
			fmt.Fprintln(out, "(configuration reloaded)")
		})
		if err != nil {
			slog.Error("config watcher stopped", "error", err)
		}
	}()

	model := chatFlags.model
	if model == "" {
		model = cfg.Provider.DefaultModel
	}

	var conv client.Conversation
	if chatFlags.system != "" {
		conv = append(conv, client.Message{
			Role:    client.RoleSystem,
			Content: chatFlags.system,
		})
	}
	// The system prefix outlives /reset.
	prefixLen := len(conv)

	fmt.Fprintln(out, "Type a message, or /quit to exit.")
	scanner := bufio.NewScanner(cmd.InOrStdin())

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/reset":
			conv = conv[:prefixLen]
			fmt.Fprintln(out, "(conversation cleared)")
			continue
		}

		entry, c, err := a.openClient(model)
		if err != nil {
			return err
		}

		conv = append(conv, client.Message{Role: client.RoleUser, Content: line})

		reply, err := ask(ctx, c, a.executor, conv, chatFlags.stream, out)
		c.Close()
		if err != nil {
			// Keep the session alive; drop the failed turn so a
			// retry does not duplicate the user message.
			conv = conv[:len(conv)-1]
			fmt.Fprintf(out, "%v\n", err)
			continue
		}

		conv = append(conv, client.Message{Role: client.RoleAssistant, Content: reply})

		if verbose {
			fmt.Fprintf(cmd.ErrOrStderr(), "[%s via %s: %d input tokens, %d output tokens]\n",
				model, entry.Name, c.InputTokens(), c.OutputTokens())
		}
	}
}
