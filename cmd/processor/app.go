package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/yourorg/llm-message-processor/internal/completion"
	"github.com/yourorg/llm-message-processor/internal/logging"
	"github.com/yourorg/llm-message-processor/internal/request"
	"github.com/yourorg/llm-message-processor/internal/telemetry"
)

type invoker interface {
	Invoke(ctx context.Context, in completion.Input) (completion.Result, error)
}

var (
	heading = color.New(color.FgCyan, color.Bold)
	failure = color.New(color.FgRed)
)

func newAppCmd(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "app [json]",
		Short: "Send one message from the terminal",
		Long: `Send one message and print the reply with token usage.

Pass the request as a JSON argument:

  processor app '{"text":"Describe this","image_url":"https://...","token":"sk-...","model":"gpt-4o"}'

or run without arguments to be prompted for each field. The model defaults
to OPENAI_DEFAULT_MODEL.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := s.cfg
			logger := logging.NewWithWriter(cfg.LogLevel, cmd.ErrOrStderr())
			inv := completion.NewInvoker(cfg, logger, telemetry.Noop())
			return runApp(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), args, cfg.DefaultModel, inv)
		},
	}
}

func runApp(ctx context.Context, in io.Reader, out io.Writer, args []string, defaultModel string, inv invoker) error {
	if ctx == nil {
		ctx = context.Background()
	}
	fmt.Fprintln(out, "OpenAI Message Processor")

	var (
		params request.Params
		err    error
	)
	if len(args) == 1 {
		params, err = paramsFromJSON(args[0])
	} else {
		params, err = paramsFromPrompts(bufio.NewReader(in), out)
	}
	if err != nil {
		return err
	}
	if params.Model == "" {
		params.Model = defaultModel
	}
	if err := request.Validate(params); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nProcessing message using model %s...\n", params.Model)
	if params.HasImage() {
		fmt.Fprintf(out, "With image: %s\n", params.ImageURL)
	}

	res, err := inv.Invoke(ctx, completion.Input{
		Text:     params.Text,
		ImageURL: params.ImageURL,
		Token:    params.Token,
		Model:    params.Model,
	})
	if err != nil {
		failure.Fprintln(out, "Error:", err)
		return err
	}

	fmt.Fprintln(out)
	printSection(out, "OPENAI RESPONSE:", 50)
	fmt.Fprintln(out, res.Content)
	fmt.Fprintln(out)
	printSection(out, "TOKEN USAGE:", 25)
	fmt.Fprintf(out, "Prompt tokens: %d\n", res.Usage.PromptTokens)
	fmt.Fprintf(out, "Completion tokens: %d\n", res.Usage.CompletionTokens)
	fmt.Fprintf(out, "Total tokens: %d\n", res.Usage.TotalTokens)
	return nil
}

func paramsFromJSON(arg string) (request.Params, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(arg), &payload); err != nil {
		return request.Params{}, errors.New("invalid JSON format")
	}
	return request.Extract(payload), nil
}

func paramsFromPrompts(r *bufio.Reader, out io.Writer) (request.Params, error) {
	ask := func(prompt string) (string, error) {
		fmt.Fprint(out, prompt)
		line, err := r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}

	var p request.Params
	var err error
	if p.Text, err = ask("Enter message text: "); err != nil {
		return p, err
	}
	if p.ImageURL, err = ask("Image URL (optional, press Enter to skip): "); err != nil {
		return p, err
	}
	if p.Token, err = ask("OpenAI Token: "); err != nil {
		return p, err
	}
	if p.Model, err = ask("AI Model (press Enter for default): "); err != nil {
		return p, err
	}
	return p, nil
}

func printSection(out io.Writer, title string, width int) {
	rule := strings.Repeat("=", width)
	fmt.Fprintln(out, rule)
	heading.Fprintln(out, title)
	fmt.Fprintln(out, rule)
}
