package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"mdref/internal/diagfmt"
	"mdref/internal/driver"
	"mdref/internal/observ"
	"mdref/internal/request"
	"mdref/internal/trace"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [flags] <requests.yaml>",
	Short: "Resolve a batch of type and member requests",
	Long: `Resolve every request in a YAML request file against the assemblies on
the search path and import the results into the file's destination module.
Requests that match nothing are reported as warnings; assemblies that cannot
be loaded are errors.`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().Int("jobs", 0, "max parallel lookups (0=manifest or GOMAXPROCS)")
	resolveCmd.Flags().String("ui", "auto", "progress view (auto|on|off)")
	resolveCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	resolveCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
}

// errHasErrors signals exit status 1 after the report was printed.
var errHasErrors = errors.New("resolution failed")

func runResolve(cmd *cobra.Command, args []string) error {
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return err
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	format = strings.ToLower(format)
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}
	uiMode, err := readAutoMode("ui", uiValue)
	if err != nil {
		return err
	}
	colored, err := useColor(cmd, os.Stdout)
	if err != nil {
		return err
	}

	cfg := configFrom(cmd.Context())
	if jobs < 0 {
		return fmt.Errorf("--jobs must not be negative")
	}
	if jobs == 0 {
		jobs = cfg.Jobs
	}

	timer := observ.NewTimer()
	endRead := timer.Track("read")
	file, err := request.Read(args[0])
	if err != nil {
		return err
	}
	queries, err := file.Compile()
	if err != nil {
		return err
	}
	endRead(fmt.Sprintf("%d requests", len(queries)))

	session := driver.NewSession(driver.SessionOptions{
		SearchPaths: cfg.SearchPaths,
		Redirects:   cfg.Redirects,
		Tracer:      trace.FromContext(cmd.Context()),
	})
	endLoad := timer.Track("destination")
	dest, err := session.Destination(file.Module)
	if err != nil {
		return err
	}
	endLoad(dest.Name)

	opts := driver.Options{Jobs: jobs, MaxDiagnostics: maxDiagnostics, Timer: timer}
	var report *driver.Report
	if format == "pretty" && uiMode.enabled(os.Stdout) && len(queries) > 0 {
		report, err = runWithUI(cmd.Context(), "mdref resolve", session.Context, dest, queries, opts)
	} else {
		report, err = driver.Run(cmd.Context(), session.Context, dest, queries, opts)
	}
	if report == nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		if encErr := writeReportJSON(out, file.Module, report, withNotes, maxDiagnostics); encErr != nil {
			return encErr
		}
	} else {
		printResults(out, report, colored)
		diagfmt.Pretty(out, report.Bag, diagfmt.PrettyOpts{Color: colored, ShowNotes: withNotes})
		if s := diagfmt.Summary(report.Bag); s != "" {
			fmt.Fprintln(out, s)
		}
	}
	if showTimings {
		printTimings(out, timer, report.Stats)
	}
	if err != nil {
		return err
	}
	if report.Bag.HasErrors() {
		return errHasErrors
	}
	return nil
}

// printResults writes one line per request in request order.
func printResults(out io.Writer, report *driver.Report, colored bool) {
	status := map[driver.Outcome]*color.Color{
		driver.OutcomeFound:   color.New(color.FgGreen),
		driver.OutcomeAbsent:  color.New(color.FgYellow),
		driver.OutcomeFailed:  color.New(color.FgRed),
		driver.OutcomeSkipped: color.New(color.Faint),
	}
	for _, c := range status {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	for _, r := range report.Results {
		label := fmt.Sprintf("%-8s", r.Outcome)
		if c, ok := status[r.Outcome]; ok {
			label = c.Sprint(label)
		}
		switch r.Outcome {
		case driver.OutcomeFound:
			fmt.Fprintf(out, "%s %s  %s  %s\n", label, r.Query.Label(), r.Token, r.Ref)
		default:
			fmt.Fprintf(out, "%s %s\n", label, r.Query.Label())
		}
	}
}

type resultJSON struct {
	ID      string `json:"id,omitempty"`
	Query   string `json:"query"`
	Outcome string `json:"outcome"`
	Ref     string `json:"ref,omitempty"`
	Token   string `json:"token,omitempty"`
	Error   string `json:"error,omitempty"`
}

type reportJSON struct {
	Module      string                    `json:"module"`
	Results     []resultJSON              `json:"results"`
	Diagnostics diagfmt.DiagnosticsOutput `json:"diagnostics"`
}

func writeReportJSON(out io.Writer, module string, report *driver.Report, withNotes bool, maxDiagnostics int) error {
	payload := reportJSON{
		Module:      module,
		Results:     make([]resultJSON, 0, len(report.Results)),
		Diagnostics: diagfmt.Collect(report.Bag, diagfmt.JSONOpts{Max: maxDiagnostics, IncludeNotes: withNotes}),
	}
	for _, r := range report.Results {
		rj := resultJSON{ID: r.Query.ID, Query: r.Query.String(), Outcome: r.Outcome.String()}
		if r.Outcome == driver.OutcomeFound {
			rj.Ref, rj.Token = r.Ref, r.Token.String()
		}
		if r.Err != nil {
			rj.Error = r.Err.Error()
		}
		payload.Results = append(payload.Results, rj)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
