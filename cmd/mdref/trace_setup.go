package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mdref/internal/trace"
)

// setupTracing reads the trace flags, falling back to the manifest's [trace]
// section for flags left unset, and installs the tracer on the command
// context. It returns a cleanup function that flushes and closes it.
func setupTracing(cmd *cobra.Command, cfg *cliConfig) (func(), error) {
	flags := cmd.Root().PersistentFlags()

	traceOutput, err := flags.GetString("trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := flags.GetString("trace-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	modeStr, err := flags.GetString("trace-mode")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	ringSize, err := flags.GetInt("trace-ring-size")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	heartbeatInterval, err := flags.GetDuration("trace-heartbeat")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}

	if m := cfg.Manifest; m != nil {
		if !flags.Changed("trace") && m.Trace.Output != "" {
			traceOutput = m.Trace.Output
		}
		if !flags.Changed("trace-level") && m.Trace.Level != "" {
			levelStr = m.Trace.Level
		}
		if !flags.Changed("trace-mode") && m.Trace.Mode != "" {
			modeStr = m.Trace.Mode
		}
	}
	if traceOutput == "stderr" {
		traceOutput = "-"
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace level: %w", err)
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func() {}, nil
	}
	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace mode: %w", err)
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		OutputPath: traceOutput,
		RingSize:   ringSize,
		Heartbeat:  heartbeatInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))

	var heartbeat *trace.Heartbeat
	if heartbeatInterval > 0 {
		heartbeat = trace.StartHeartbeat(tracer, heartbeatInterval)
	}

	return func() {
		if heartbeat != nil {
			heartbeat.Stop()
		}
		if ring, ok := tracer.(*trace.RingTracer); ok {
			dumpRing(cmd, ring, traceOutput)
		}
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}, nil
}

// dumpRing writes the retained ring events to output ("" and "-" are stderr).
func dumpRing(cmd *cobra.Command, ring *trace.RingTracer, output string) {
	format := trace.FormatText
	if strings.HasSuffix(output, ".ndjson") || strings.HasSuffix(output, ".json") {
		format = trace.FormatNDJSON
	}
	if output == "" || output == "-" {
		if err := ring.Dump(cmd.ErrOrStderr(), format); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: dump error: %v\n", err)
		}
		return
	}
	f, err := os.Create(output)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "trace: dump error: %v\n", err)
		return
	}
	defer f.Close()
	if err := ring.Dump(f, format); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "trace: dump error: %v\n", err)
	}
}
