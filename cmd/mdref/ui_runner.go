package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"mdref/internal/driver"
	"mdref/internal/metadata"
	"mdref/internal/request"
	"mdref/internal/resolve"
	"mdref/internal/ui"
)

type runOutcome struct {
	report *driver.Report
	err    error
}

// runWithUI runs the batch while a progress view renders its events.
func runWithUI(ctx context.Context, title string, rc *resolve.Context, m *metadata.Module, queries []request.Query, opts driver.Options) (*driver.Report, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan runOutcome, 1)

	labels := make([]string, len(queries))
	for i, q := range queries {
		labels[i] = q.Label()
	}

	go func() {
		opts.Sink = driver.ChannelSink{Ch: events}
		report, err := driver.Run(ctx, rc, m, queries, opts)
		outcomeCh <- runOutcome{report: report, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, labels, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.report, uiErr
	}
	return outcome.report, outcome.err
}
