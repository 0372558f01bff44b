package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kbukum/chatstream/jsonstream"
	"github.com/kbukum/chatstream/playground"
	"github.com/kbukum/chatstream/stream"
)

const runLongDesc string = `Start an agent run and stream the answer.

Each RunResponse object is shown as soon as it is complete. With --raw the
objects are printed as received, one per line.

Examples:
  chatstream run "where is order 42?"
  chatstream run --session 3f2a... --file report.pdf "summarize this"
  chatstream run --raw "hello"`

type runOptions struct {
	sessionID string
	files     []string
	raw       bool
}

func newRunCmd(a *app) *cobra.Command {
	o := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run <message>",
		Short: "Stream an agent run",
		Long:  runLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, o, strings.Join(args, " "))
		},
	}
	cmd.Flags().StringVarP(&o.sessionID, "session", "s", "", "Continue this session")
	cmd.Flags().StringSliceVarP(&o.files, "file", "f", nil, "Attach a file (repeatable)")
	cmd.Flags().BoolVar(&o.raw, "raw", false, "Print raw JSON objects")
	return cmd
}

func readFiles(paths []string) ([]playground.File, error) {
	files := make([]playground.File, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		files = append(files, playground.File{
			Name:        filepath.Base(p),
			ContentType: mime.TypeByExtension(filepath.Ext(p)),
			Data:        data,
		})
	}
	return files, nil
}

func (a *app) run(cmd *cobra.Command, o *runOptions, message string) error {
	ctx := cmd.Context()
	c, err := a.client(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	files, err := readFiles(o.files)
	if err != nil {
		return err
	}
	req := playground.RunRequest{Message: message, SessionID: o.sessionID, Files: files}

	if o.raw {
		return a.runRaw(cmd, c, req)
	}

	tr := playground.NewTranscript(o.sessionID)
	tr.Begin(message)
	a.printf("%s%s\n%s", userPrompt, message, agentPrompt)

	printer := &runPrinter{app: a}
	out := c.StreamRun(ctx, req, stream.Handlers{
		OnUnit: func(u jsonstream.Unit) {
			tr.OnUnit(u)
			printer.unit(u)
		},
		OnError: tr.Fail,
	})
	a.printf("\n")
	if err := out.Err(); err != nil {
		return err
	}
	if last, ok := tr.Last(); ok && last.StreamingError {
		return fmt.Errorf("agent run failed: %s", last.Content)
	}
	a.printf("%s\n", dimStyle.Render(fmt.Sprintf("session %s, %d chunks", tr.SessionID(), out.Units)))
	return nil
}

// runRaw prints each unit through the channel form of the stream client.
func (a *app) runRaw(cmd *cobra.Command, c *playground.Client, req playground.RunRequest) error {
	sreq, err := c.RunStreamRequest(req)
	if err != nil {
		return err
	}
	for ev := range c.Streams().Stream(cmd.Context(), sreq) {
		switch ev.Kind {
		case stream.EventUnit:
			a.printf("%s\n", ev.Unit.String())
		case stream.EventError:
			return ev.Err
		}
	}
	return cmd.Context().Err()
}

// runPrinter writes content deltas and tool activity as chunks arrive.
type runPrinter struct {
	app     *app
	printed string
}

func (p *runPrinter) unit(u jsonstream.Unit) {
	var chunk playground.RunResponse
	if err := u.Decode(&chunk); err != nil {
		return
	}
	switch chunk.Event {
	case playground.ToolCallStarted:
		for _, t := range chunk.Tools {
			p.app.printf("%s ", toolStyle.Render("["+t.ToolName+"]"))
		}
	case playground.RunCompleted:
		// The final chunk repeats the whole answer; print only what is new.
		text := chunk.Text()
		if strings.HasPrefix(text, p.printed) {
			p.app.printf("%s", text[len(p.printed):])
			p.printed = text
		}
	case playground.RunError:
		p.app.printf("%s", errorStyle.Render(chunk.Text()))
	case playground.RunResponseEvent, "":
		text := chunk.Text()
		p.app.printf("%s", text)
		p.printed += text
	}
}
