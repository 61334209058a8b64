package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	rewriteCmd "github.com/unionjson/unionjson/cmd/unionjson/commands/rewrite"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// getVersionInfo returns version information, prioritizing ldflags values over build info
func getVersionInfo() (string, string, string) {
	// If version/commit/date were set via ldflags (GoReleaser), use those
	if version != "dev" || commit != "none" || date != "unknown" {
		return version, commit, date
	}

	// Otherwise, try to get info from build info
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return version, commit, date
	}

	// Use module version if available, otherwise fallback to "dev"
	moduleVersion := version
	if buildInfo.Main.Version != "" && buildInfo.Main.Version != "(devel)" {
		moduleVersion = buildInfo.Main.Version
	}

	// Extract VCS information
	vcsCommit := commit
	vcsTime := date

	for _, setting := range buildInfo.Settings {
		switch setting.Key {
		case "vcs.revision":
			if len(setting.Value) >= 7 {
				vcsCommit = setting.Value[:7] // Short commit hash
			} else {
				vcsCommit = setting.Value
			}
		case "vcs.time":
			vcsTime = setting.Value
		}
	}

	return moduleVersion, vcsCommit, vcsTime
}

var rootCmd = &cobra.Command{
	Use:   "unionjson",
	Short: "Toolkit for working with documents holding discriminated union fields",
	Long: `A toolkit for working with documents holding discriminated union fields.

A union field is a field whose concrete shape is decided by the value of a
sibling discriminator field. This CLI rewrites such documents in bulk:

Rewrite:
- Wrap the content of union fields in type envelopes, driven by a
  declarative rule file
- Flatten enveloped documents back to their plain wire shape
- Validate rule files for correctness

Rule files name the objects to rewrite with JSONPath targets, the union
field and its discriminator, and the mappings from discriminator values to
type identities.`,
	Version: version,
}

var rewriteCmds = &cobra.Command{
	Use:   "rewrite",
	Short: "Flatten and wrap union fields across whole documents",
	Long: `Commands for rewriting union fields across whole documents.

Rewriting needs no Go types: a rule file names the union fields, their
discriminators and the type identity each discriminator value maps to.
This is useful for:
- Migrating stored documents between flattened and enveloped shapes
- Normalizing third-party payloads before ingestion
- Inspecting which concrete types a document carries`,
}

func init() {
	// Get version information (prioritizes ldflags, falls back to build info)
	currentVersion, currentCommit, currentDate := getVersionInfo()

	// Update root command version
	rootCmd.Version = currentVersion

	// Set version template with build info
	var versionTemplate strings.Builder
	versionTemplate.WriteString(`{{printf "%s" .Version}}`)

	if currentCommit != "none" && currentCommit != "" {
		versionTemplate.WriteString("\nBuild: " + currentCommit)
	}

	if currentDate != "unknown" && currentDate != "" {
		versionTemplate.WriteString("\nBuilt: " + currentDate)
	}

	rootCmd.SetVersionTemplate(versionTemplate.String())

	// Add rewrite subcommands using the Apply function
	rewriteCmd.Apply(rewriteCmds)

	rootCmd.AddCommand(rewriteCmds)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
