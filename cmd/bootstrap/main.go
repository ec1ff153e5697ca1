// Command bootstrap is the CLI entrypoint of §6: it gathers the
// already-validated project configuration from flags, then drives the
// Orchestrator (or, with --dry-run, the Validator) against a manifest
// anchor.
//
// The interactive prompt layer, the CLI argument *surface* beyond
// what's wired here, and terminal rendering are explicitly out of
// scope for the core (§1); this file is the thin shell around it,
// analogous to the teacher's own main() in surgeon/reposurgeon.go
// that parses os.Args and dispatches into the REPL engine.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/weehong/smartbootstrapper/internal/bootstraperr"
	"github.com/weehong/smartbootstrapper/internal/config"
	"github.com/weehong/smartbootstrapper/internal/logx"
	"github.com/weehong/smartbootstrapper/internal/orchestrator"
	"github.com/weehong/smartbootstrapper/internal/progress"
	"github.com/weehong/smartbootstrapper/internal/snapshot"
	"github.com/weehong/smartbootstrapper/internal/validate"
	"github.com/weehong/smartbootstrapper/internal/vcswrap"
)

// defaultSkeletonURL is the Spring Initializr endpoint the baseline
// commit message (commitseq.BaselineMessage) refers to. Not part of
// §6's recognized-option table since the core treats the skeleton
// service as an external collaborator (§1); exposed here only as an
// override knob for pointing at a private mirror.
const defaultSkeletonURL = "https://start.spring.io/starter.zip"

type cliFlags struct {
	output           string
	groupID          string
	artifactID       string
	name             string
	version          string
	bootVersion      string
	javaVersion      string
	dependencies     []string
	oldPackage       string
	newPackage       string
	nonInteractive   bool
	yes              bool
	dryRun           bool
	noColor          bool
	verbose          bool
	skeletonURL      string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

func newRootCommand() *cobra.Command {
	flags := &cliFlags{}

	root := &cobra.Command{
		Use:   "smartbootstrapper <manifest-path>",
		Short: "Materialize a new project by replaying recorded history onto a generated skeleton",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBootstrap(cmd, args[0], flags)
		},
		SilenceUsage: true,
	}

	root.Flags().StringVarP(&flags.output, "output", "o", "", "target directory for the materialized project (required)")
	root.Flags().StringVar(&flags.groupID, "group-id", "", "Maven/Gradle group id")
	root.Flags().StringVar(&flags.artifactID, "artifact-id", "", "artifact id")
	root.Flags().StringVar(&flags.name, "name", "", "project name")
	root.Flags().StringVar(&flags.version, "version", "", "project version")
	root.Flags().StringVar(&flags.bootVersion, "boot-version", "", "baseline framework version")
	root.Flags().StringVar(&flags.javaVersion, "java-version", "", "language runtime version")
	root.Flags().StringSliceVar(&flags.dependencies, "dependencies", nil, "comma-separated framework capability tags")
	root.Flags().StringVar(&flags.oldPackage, "old-package", "", "source package identifier to refactor from (inferred from the manifest set if omitted)")
	root.Flags().StringVar(&flags.newPackage, "new-package", "", "destination package identifier to refactor to")
	root.Flags().BoolVar(&flags.nonInteractive, "non-interactive", false, "treat flag values as a complete frozen configuration, never prompt")
	root.Flags().BoolVarP(&flags.yes, "yes", "y", false, "skip the confirmation prompt")
	root.Flags().BoolVar(&flags.dryRun, "dry-run", false, "run only the Validator; no filesystem mutations")
	root.Flags().BoolVar(&flags.noColor, "no-color", false, "disable colored log output")
	root.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "emit an internal trace")
	root.Flags().StringVar(&flags.skeletonURL, "skeleton-url", defaultSkeletonURL, "base URL of the skeleton-generation service")

	root.AddCommand(newVCSInitCommand())
	return root
}

// newVCSInitCommand implements §6's "A subcommand initializes an
// empty VCS repo at a given directory" — a thin wrapper over
// internal/vcswrap, useful for pre-staging a target directory outside
// a full bootstrap run.
func newVCSInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "vcs-init <directory>",
		Short: "Initialize an empty version-control repository at a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(args[0], 0775); err != nil {
				return bootstraperr.Wrap(bootstraperr.KindWrite, err, "create %s", args[0])
			}
			return vcswrap.Open(args[0]).Init()
		},
		SilenceUsage: true,
	}
}

func runBootstrap(cmd *cobra.Command, manifestPath string, flags *cliFlags) error {
	log := logx.New(flags.verbose, flags.noColor)
	sink := progress.NewLogrusSink(log)

	if flags.dryRun {
		result := validate.Run(manifestPath, snapshot.Open)
		return reportValidation(cmd, result)
	}

	cfg, err := buildProject(flags)
	if err != nil {
		return err
	}

	if !flags.yes && !flags.nonInteractive {
		if !confirm(cmd, cfg) {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted; no changes were made.")
			return nil
		}
	}

	orch := orchestrator.New(cfg, flags.skeletonURL, sink)
	summary, err := orch.Run(context.Background(), manifestPath)
	if err != nil {
		printFailure(cmd, err)
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "bootstrap complete: %d manifest(s) replayed, %d commit(s), %d file(s) written\n",
		summary.ManifestsReplayed, summary.CommitsCreated, summary.FilesWritten)
	return nil
}

func buildProject(flags *cliFlags) (*config.Project, error) {
	if flags.output == "" {
		return nil, bootstraperr.New(bootstraperr.KindConfiguration, "--output is required")
	}
	if flags.newPackage == "" {
		return nil, bootstraperr.New(bootstraperr.KindConfiguration, "--new-package is required")
	}
	return &config.Project{
		GroupID:          flags.groupID,
		ArtifactID:       flags.artifactID,
		ProjectName:      flags.name,
		Version:          flags.version,
		FrameworkVersion: flags.bootVersion,
		RuntimeVersion:   flags.javaVersion,
		Capabilities:     config.NewCapabilities(flags.dependencies...),
		OldPackage:       flags.oldPackage,
		NewPackage:       flags.newPackage,
		TargetDir:        flags.output,
	}, nil
}

func confirm(cmd *cobra.Command, cfg *config.Project) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "About to materialize %s into %s (package %s -> %s). Continue? [y/N] ",
		cfg.ProjectName, cfg.TargetDir, cfg.OldPackage, cfg.NewPackage)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, _ := reader.ReadString('\n')
	return strings.EqualFold(strings.TrimSpace(line), "y")
}

func printFailure(cmd *cobra.Command, err error) {
	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "error: %s\n", err.Error())
	var berr *bootstraperr.Error
	if errors.As(err, &berr) {
		suggestion := berr.Suggestion
		if suggestion == "" {
			suggestion = bootstraperr.Suggest(berr.Kind)
		}
		fmt.Fprintf(out, "suggestion: %s\n", suggestion)
	}
	fmt.Fprintln(out, "rollback: all filesystem mutations from this run were undone")
	fmt.Fprintln(out, "No changes were made.")
}

func reportValidation(cmd *cobra.Command, result *validate.Result) error {
	out := cmd.OutOrStdout()
	for _, c := range result.Checks {
		status := "ok"
		if !c.Passed {
			status = "FAIL"
		}
		if c.Detail != "" {
			fmt.Fprintf(out, "[%s] %s: %s\n", status, c.Name, c.Detail)
		} else {
			fmt.Fprintf(out, "[%s] %s\n", status, c.Name)
		}
	}
	if !result.OK() {
		for _, e := range result.Errors {
			fmt.Fprintf(out, "error: %s\n", e.Message)
		}
		return bootstraperr.New(bootstraperr.KindValidation, "%d validation error(s)", len(result.Errors))
	}
	fmt.Fprintln(out, "validation passed")
	return nil
}

func exitCodeFor(err error) int {
	var berr *bootstraperr.Error
	if errors.As(err, &berr) {
		return berr.ExitCode()
	}
	return 99
}
