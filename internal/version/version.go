package version

import (
	"strings"

	"github.com/fatih/color"
	"golang.org/x/mod/semver"
)

// Version information for the mdref CLI.
// These variables can be overridden at build time via -ldflags.
var (
	// Version is the semantic version of the CLI.
	Version = "v0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// GitMessage is an optional git commit message.
	GitMessage = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	versionMajorColor = color.New(color.FgYellow, color.Bold)
	versionMinorColor = color.New(color.FgGreen, color.Bold)
	versionPatchColor = color.New(color.FgBlue, color.Bold)
)

// Colored renders Version with each core component highlighted. Versions
// that are not semantic are returned unchanged.
func Colored() string {
	if !semver.IsValid(Version) {
		return Version
	}
	core := semver.Canonical(Version)
	if i := strings.IndexAny(core, "-+"); i >= 0 {
		core = core[:i]
	}
	// Shorthand like v1.2 has no patch component to highlight.
	if !strings.HasPrefix(Version, core) {
		return Version
	}
	parts := strings.SplitN(strings.TrimPrefix(core, "v"), ".", 3)
	return "v" + versionMajorColor.Sprint(parts[0]) + "." + versionMinorColor.Sprint(parts[1]) + "." +
		versionPatchColor.Sprint(parts[2]) + Version[len(core):]
}

// Fingerprint is the one-line build identity: version, short commit and date.
func Fingerprint() string {
	out := Version
	if c := GitCommit; c != "" {
		if len(c) > 12 {
			c = c[:12]
		}
		out += " (" + c + ")"
	}
	if BuildDate != "" {
		out += " built " + BuildDate
	}
	return out
}
