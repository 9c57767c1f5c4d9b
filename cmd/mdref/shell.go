package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"mdref/internal/driver"
	"mdref/internal/request"
	"mdref/internal/trace"
)

const (
	shellPrompt  = "mdref> "
	historyFile  = ".mdref_history"
	shellHelpMsg = `queries:
  type   <type>
  ctor   <type> [(param, ...) | #count]
  method <type> <name> [(param, ...) | #count] [static | instance] [returns <type>]
  get    <type> <name> [flatten] [static | instance] [returns <type>]
  set    <type> <name> [flatten] [static | instance] [returns <type>]
  field  <type> <name> [static | instance] [returns <type>]
commands:
  :stats  cache counters
  :help   this text
  :quit   leave the shell`
)

var shellCmd = &cobra.Command{
	Use:   "shell [flags]",
	Short: "Resolve queries interactively",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

func init() {
	shellCmd.Flags().String("module", "Shell", "destination assembly the references are imported into")
}

func runShell(cmd *cobra.Command, _ []string) error {
	module, err := cmd.Flags().GetString("module")
	if err != nil {
		return err
	}
	colored, err := useColor(cmd, os.Stdout)
	if err != nil {
		return err
	}
	cfg := configFrom(cmd.Context())
	session := driver.NewSession(driver.SessionOptions{
		SearchPaths: cfg.SearchPaths,
		Redirects:   cfg.Redirects,
		Tracer:      trace.FromContext(cmd.Context()),
	})
	dest, err := session.Destination(module)
	if err != nil {
		return err
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetCompleter(completeKind)

	histPath := ""
	if home, homeErr := os.UserHomeDir(); homeErr == nil {
		histPath = filepath.Join(home, historyFile)
		if f, openErr := os.Open(histPath); openErr == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if f, createErr := os.Create(histPath); createErr == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()
	}

	out := cmd.OutOrStdout()
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	for _, c := range []*color.Color{red, green, yellow} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	fmt.Fprintf(out, "mdref shell, destination %s (:help for syntax)\n", dest.Name)

	for {
		line, promptErr := ln.Prompt(shellPrompt)
		if errors.Is(promptErr, io.EOF) || errors.Is(promptErr, liner.ErrPromptAborted) {
			fmt.Fprintln(out)
			return nil
		}
		if promptErr != nil {
			return promptErr
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ln.AppendHistory(line)

		switch line {
		case ":quit", ":q":
			return nil
		case ":help":
			fmt.Fprintln(out, shellHelpMsg)
			continue
		case ":stats":
			types, members := dest.RefCounts()
			fmt.Fprintf(out, "references: %d types, %d members\n", types, members)
			printCacheStats(out, session.Context.Stats())
			continue
		}

		req, parseErr := parseShellLine(line)
		if parseErr != nil {
			fmt.Fprintln(out, red.Sprint(parseErr.Error()))
			continue
		}
		q, compileErr := req.Compile()
		if compileErr != nil {
			fmt.Fprintln(out, red.Sprint(compileErr.Error()))
			continue
		}
		res := driver.Dispatch(session.Context, dest, q)
		switch res.Outcome {
		case driver.OutcomeFound:
			fmt.Fprintf(out, "%s %s\n", green.Sprint(res.Token), res.Ref)
		case driver.OutcomeAbsent:
			fmt.Fprintln(out, yellow.Sprint("not found"))
		default:
			fmt.Fprintln(out, red.Sprint(res.Err.Error()))
		}
	}
}

var shellKinds = map[string]request.Kind{
	"type":   request.KindType,
	"ctor":   request.KindCtor,
	"method": request.KindMethod,
	"get":    request.KindGetter,
	"set":    request.KindSetter,
	"field":  request.KindField,
}

func completeKind(line string) []string {
	var out []string
	for _, word := range []string{"type ", "ctor ", "method ", "get ", "set ", "field ", ":stats", ":help", ":quit"} {
		if strings.HasPrefix(word, line) {
			out = append(out, word)
		}
	}
	return out
}

// parseShellLine turns one shell query into a request.
func parseShellLine(line string) (request.Request, error) {
	words, err := splitWords(line)
	if err != nil {
		return request.Request{}, err
	}
	kind, ok := shellKinds[words[0]]
	if !ok {
		return request.Request{}, fmt.Errorf("%w %q", request.ErrUnknownKind, words[0])
	}
	if len(words) < 2 {
		return request.Request{}, fmt.Errorf("%s: missing type", words[0])
	}
	req := request.Request{Kind: kind, Type: words[1]}
	rest := words[2:]
	if kind != request.KindType && kind != request.KindCtor {
		if len(rest) == 0 {
			return request.Request{}, fmt.Errorf("%s: %w", words[0], request.ErrMissingName)
		}
		req.Name, rest = rest[0], rest[1:]
	}
	for len(rest) > 0 {
		w := rest[0]
		rest = rest[1:]
		switch {
		case w == "flatten":
			req.Flatten = true
		case w == "static" || w == "instance":
			static := w == "static"
			req.Static = &static
		case w == "returns":
			if len(rest) == 0 {
				return request.Request{}, errors.New("returns needs a type")
			}
			req.Returns, rest = rest[0], rest[1:]
		case strings.HasPrefix(w, "#"):
			n, convErr := strconv.Atoi(w[1:])
			if convErr != nil || n < 0 {
				return request.Request{}, fmt.Errorf("invalid parameter count %q", w)
			}
			req.Count = &n
		case strings.HasPrefix(w, "("):
			params, splitErr := splitParams(w)
			if splitErr != nil {
				return request.Request{}, splitErr
			}
			req.Params = params
		default:
			return request.Request{}, fmt.Errorf("unexpected %q", w)
		}
	}
	return req, nil
}

// splitWords splits on spaces outside brackets, so "List<[A]X, [A]Y>" stays
// one word.
func splitWords(line string) ([]string, error) {
	var (
		words []string
		cur   strings.Builder
		depth int
	)
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	for _, r := range line {
		switch r {
		case '<', '[', '(':
			depth++
		case '>', ']', ')':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced %q", r)
			}
		case ' ', '\t':
			if depth == 0 {
				flush()
				continue
			}
		}
		cur.WriteRune(r)
	}
	if depth != 0 {
		return nil, errors.New("unbalanced brackets")
	}
	flush()
	if len(words) == 0 {
		return nil, errors.New("empty query")
	}
	return words, nil
}

// splitParams splits "(a, b<c,d>)" into its top-level parameter types. "()"
// is an empty list.
func splitParams(w string) ([]string, error) {
	if !strings.HasSuffix(w, ")") {
		return nil, fmt.Errorf("unterminated parameter list %q", w)
	}
	inner := strings.TrimSpace(w[1 : len(w)-1])
	params := []string{}
	if inner == "" {
		return params, nil
	}
	depth, start := 0, 0
	for i, r := range inner {
		switch r {
		case '<', '[', '(':
			depth++
		case '>', ']', ')':
			depth--
		case ',':
			if depth == 0 {
				params = append(params, strings.TrimSpace(inner[start:i]))
				start = i + 1
			}
		}
	}
	params = append(params, strings.TrimSpace(inner[start:]))
	for _, p := range params {
		if p == "" {
			return nil, fmt.Errorf("empty parameter in %q", w)
		}
	}
	return params, nil
}
