package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/lablia/docflow/internal/agents"
	"github.com/lablia/docflow/internal/presentation/tui"
	"github.com/lablia/docflow/pkg/runner"
)

// ChatOptions control an interactive chat session.
type ChatOptions struct {
	Agent     string // registry name of the root agent
	Model     string // pretty name or provider id, empty picks the default
	SessionID string // resume an existing session, empty starts a new one
	Plain     bool   // disable banner and markdown rendering
	Version   string
}

// RunChat starts an interactive chat loop on stdin/stdout against the
// selected agent. Attachments are staged with /attach and sent together
// with the next message.
func RunChat(app *App, opts ChatOptions) error {
	logger := app.Logger

	if opts.Agent == "" {
		opts.Agent = agents.DefaultAgent
	}
	agent, err := app.Registry.Get(opts.Agent)
	if err != nil {
		return err
	}

	if !opts.Plain {
		tui.PrintBanner(opts.Version)
	}
	render := tui.NewRenderer()
	if opts.Plain {
		render = func(s string) (string, error) { return s + "\n", nil }
	}

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	sessionID := opts.SessionID
	resumed := false
	if sessionID == "" {
		sessionID = uuid.NewString()
	} else if _, loadErr := app.Runner.Sessions().Load(sigCtx, sessionID); loadErr == nil {
		resumed = true
	}
	if !resumed {
		if _, err := app.Runner.CreateSession(sigCtx, sessionID, app.Config.App.Name, localUser()); err != nil {
			return fmt.Errorf("failed to start session: %w", err)
		}
	}

	if resumed {
		printSystemMessage("Resuming session '%s' with agent '%s'.", sessionID, agent.Name)
	} else {
		printSystemMessage("Session '%s' active. Agent '%s'. Type 'exit' to leave, '/attach <file>' to stage a document.", sessionID, agent.Name)
	}

	var staged []runner.Attachment
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			break
		}
		if sigCtx.Err() != nil {
			break
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "exit", line == "quit", line == "/quit":
			printSystemMessage("Bye.")
			return nil
		case line == "":
			continue
		case strings.HasPrefix(line, "/attach "):
			path := strings.TrimSpace(strings.TrimPrefix(line, "/attach "))
			data, readErr := os.ReadFile(path)
			if readErr != nil {
				printSystemMessage("Could not read '%s': %v", path, readErr)
				continue
			}
			staged = append(staged, runner.Attachment{Data: data, Filename: filepath.Base(path)})
			printSystemMessage("Staged '%s' (%d bytes). It is sent with your next message.", filepath.Base(path), len(data))
			continue
		case strings.HasPrefix(line, "/model "):
			opts.Model = strings.TrimSpace(strings.TrimPrefix(line, "/model "))
			printSystemMessage("Model set to '%s'.", runner.ResolveModel(opts.Model))
			continue
		case line == "/agents":
			for _, name := range app.Registry.Names() {
				printSystemMessage("- %s", name)
			}
			continue
		}

		reply, runErr := app.Runner.RunTurn(sigCtx, agent, sessionID, runner.TurnInput{
			Text:        line,
			Model:       opts.Model,
			Attachments: staged,
		})
		staged = nil

		if runErr != nil {
			if errors.Is(runErr, context.Canceled) {
				break
			}
			logger.Error("turn failed", "session_id", sessionID, "error", runErr)
			printSystemMessage("The agent failed: %v", runErr)
			continue
		}

		out, renderErr := render(reply)
		if renderErr != nil {
			out = reply + "\n"
		}
		fmt.Print(out)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	if sig := sigCtx.Signal(); sig != nil {
		fmt.Println()
		printSystemMessage("Interrupted (%v).", sig)
	}
	return nil
}

func localUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "local"
}
