// Package version carries the nwnsc CLI's build-time version fingerprint.
package version

import "github.com/fatih/color"

var (
	majorColor = color.New(color.FgYellow, color.Bold)
	minorColor = color.New(color.FgGreen, color.Bold)
	patchColor = color.New(color.FgBlue, color.Bold)

	// Version is the semantic version of the CLI, overridable at build time
	// via -ldflags.
	Version = majorColor.Sprint("0") + "." + minorColor.Sprint("1") + "." + patchColor.Sprint("0") + "-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional ISO-8601 build timestamp.
	BuildDate = ""
)

// EngineVersion is the NWScript engine version selector that
// "nwnsc version" reports; it matches the 174 default of the --engine
// flag on the compile and tokenize commands.
const EngineVersion = 174
