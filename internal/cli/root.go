package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shipwright-release/shipwright/internal/capability"
	internalconfig "github.com/shipwright-release/shipwright/internal/config"
	"github.com/shipwright-release/shipwright/internal/orchestrator"
	"github.com/shipwright-release/shipwright/internal/registrymonitor"
	pkgconfig "github.com/shipwright-release/shipwright/pkg/config"
	"github.com/spf13/cobra"
)

// RootCmd is the shipwright command, wired with three subcommands matching
// spec.md §6's command surface. It carries no output formatting beyond
// JSON marshaling; presentation is explicitly out of scope.
var RootCmd = &cobra.Command{
	Use:   "shipwright",
	Short: "Multi-repository release orchestration",
	Long:  "shipwright analyzes, plans, and publishes coordinated releases across a set of sibling repositories.",
}

func init() {
	RootCmd.PersistentFlags().StringP("config", "c", "", "path to shipwright.yaml (default: discovered from the current directory)")
	RootCmd.AddCommand(newAnalyzeCommand())
	RootCmd.AddCommand(newPlanCommand())
	RootCmd.AddCommand(newPublishCommand())
}

// resolveConfig returns the config file path and the loaded configuration,
// honoring the --config flag and otherwise discovering shipwright.yaml from
// the current directory upward.
func resolveConfig(cmd *cobra.Command) (string, *pkgconfig.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", nil, err
		}
		path, err = internalconfig.FindConfig(cwd)
		if err != nil {
			return "", nil, err
		}
	}
	cfg, err := pkgconfig.Load(path)
	if err != nil {
		return "", nil, err
	}
	return path, cfg, nil
}

func newAnalyzeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Resolve the dependency graph and each repository's changeset state",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			result, err := Analyze(cfg, cfg.ReposDirOrDefault(path), capability.OSFilesystem{})
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
}

func newPlanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Compute the Publishing Plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			_, p, err := Plan(cfg, cfg.ReposDirOrDefault(path), capability.OSFilesystem{})
			if err != nil {
				return err
			}
			return printJSON(p)
		},
	}
}

func newPublishCommand() *cobra.Command {
	var dry, resume, continueOnError bool
	var timeoutSeconds int

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Execute the Publishing Plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}

			subprocess := capability.OSSubprocess{}
			registry, err := capability.NewGitHubRegistry(cfg.Registry.Owner, cfg.Registry.Repo, cfg.Registry.TokenSpec, subprocess)
			if err != nil {
				return err
			}

			ctx := context.Background()
			if timeoutSeconds > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, time.Duration(timeoutSeconds)*time.Second)
				defer cancel()
			}

			deps := orchestrator.Dependencies{
				Git:        capability.NewGoGit(),
				Registry:   registry,
				Build:      capability.NewCommandBuild(subprocess),
				Filesystem: capability.OSFilesystem{},
				Log:        DefaultLogger(),
			}

			statePath := internalconfig.StatePath(path)
			preflightResult, result, err := Publish(ctx, cfg, cfg.ReposDirOrDefault(path), statePath, PublishOptions{
				Dry:             dry,
				Resume:          resume,
				ContinueOnError: continueOnError,
				MonitorOptions:  registrymonitor.Options{},
				Deps:            deps,
			})
			if err != nil {
				return err
			}
			if preflightResult != nil && !preflightResult.OK {
				if jsonErr := printJSON(preflightResult); jsonErr != nil {
					return jsonErr
				}
				return fmt.Errorf("pre-flight failed")
			}
			if jsonErr := printJSON(result); jsonErr != nil {
				return jsonErr
			}
			if !result.Ok() {
				return fmt.Errorf("publish failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dry, "dry", false, "plan and validate without building, publishing, or mutating any repository")
	cmd.Flags().BoolVar(&resume, "resume", false, "resume a previously persisted publishing run")
	cmd.Flags().BoolVar(&continueOnError, "continue-on-error", false, "keep publishing remaining packages after a package fails")
	cmd.Flags().IntVar(&timeoutSeconds, "timeout", 0, "overall timeout in seconds (0 = no timeout)")
	return cmd
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
