package main

import (
	"fmt"
	"io"

	"mdref/internal/observ"
	"mdref/internal/resolve"
)

// printTimings writes the timer phases followed by the cache counters.
func printTimings(out io.Writer, timer *observ.Timer, stats resolve.Stats) {
	if out == nil || timer == nil {
		return
	}
	timer.WriteSummary(out)
	printCacheStats(out, stats)
}

// printCacheStats writes one line per resolver cache.
func printCacheStats(out io.Writer, stats resolve.Stats) {
	fmt.Fprintln(out, "caches:")
	for _, row := range []struct {
		name string
		s    resolve.CacheStats
	}{
		{"assemblies", stats.Assemblies},
		{"type definitions", stats.TypeDefs},
		{"types", stats.Types},
		{"constructors", stats.Constructors},
		{"methods", stats.Methods},
		{"fields", stats.Fields},
	} {
		fmt.Fprintf(out, "  %-20s %5d entries %6d hits %6d misses\n", row.name, row.s.Entries, row.s.Hits, row.s.Misses)
	}
}
