package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reploy-cli/reploy/internal/config"
	"github.com/reploy-cli/reploy/internal/errors"
	"github.com/reploy-cli/reploy/internal/pipeline"
	"github.com/reploy-cli/reploy/internal/repo"
)

// newToolchainCmds returns install, build and dev. They run attached to the
// console, one repository at a time.
func newToolchainCmds(c *cli) []*cobra.Command {
	return []*cobra.Command{
		newToolchainCmd(c, repo.ActionInstall,
			"Install dependencies for the frontend and backend of repositories",
			`Install dependencies.

Frontend: yarn install --frozen-lockfile (yarn.lock), pnpm install
(pnpm-lock.yaml) or npm install. Backend: dotnet restore (.sln), maven
dependency:resolve (pom.xml) or gradle dependencies (build.gradle), preferring
the mvnw / gradlew wrappers.

Without --frontend or --backend both parts run.`, true),
		newToolchainCmd(c, repo.ActionBuild,
			"Build the frontend and backend of repositories",
			`Build repositories.

Frontend: <package manager> run build. Backend: dotnet build -c Release,
mvn clean package -DskipTests or gradle build -x test.

Without --frontend or --backend both parts run.`, true),
		newToolchainCmd(c, repo.ActionDev,
			"Run the frontend of repositories in dev mode",
			`Run <package manager> run dev in each repository.`, false),
	}
}

func newToolchainCmd(c *cli, action repo.Action, short, long string, parts bool) *cobra.Command {
	var (
		f        repoFlags
		frontend bool
		backend  bool
	)
	verb := string(action)
	cmd := &cobra.Command{
		Use:   verb,
		Short: short,
		Long:  long,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			doFrontend, doBackend := frontend, backend
			if !doFrontend && !doBackend {
				doFrontend, doBackend = true, true
			}

			repos, _, err := c.targets(verb, f)
			if err != nil {
				return err
			}
			return c.eachRepo(cmd.Context(), verb, repos, 1, func(ctx context.Context, r config.Repo) error {
				return c.runPlan(ctx, verb, r, repo.PlanFor(action, r, doFrontend, doBackend))
			})
		},
	}
	f.register(cmd, verb)
	if parts {
		cmd.Flags().BoolVar(&frontend, "frontend", false, verb+" the frontend only (package.json)")
		cmd.Flags().BoolVar(&backend, "backend", false, verb+" the backend only (.sln, pom.xml, build.gradle)")
	}
	return cmd
}

// runPlan runs the tasks of plan in order and stops at the first failure.
func (c *cli) runPlan(ctx context.Context, verb string, r config.Repo, plan repo.Plan) error {
	for _, skipped := range plan.Skipped {
		part, reason, _ := strings.Cut(skipped, ": ")
		fmt.Fprintf(c.out, "[%s][%s][%s] %s\n", verb, part, r.Name, c.style.Muted("skipped: "+reason))
	}
	for _, task := range plan.Tasks {
		fmt.Fprintf(c.out, "[%s][%s][%s] %s\n", verb, task.Part, r.Name, task.Command)
		if err := c.app.Launcher.Run(ctx, task.Command.Exe, task.Command.Args, r.Path); err != nil {
			return err
		}
	}
	return nil
}

func newDemoCmd(c *cli) *cobra.Command {
	var (
		name        string
		integration bool
	)
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Start a repository's demo (repos[].demo.start)",
		Long: `Start a repository's demo command, repos[].demo.start, attached to the
console in the repository directory. With --integration,
repos[].integration.start is used instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws := c.workspace()
			r, ok := ws.FindRepo(name)
			if !ok {
				return errors.NewNotFoundError("repository", name)
			}
			start, key := r.Demo.Start, "demo.start"
			if integration {
				start, key = r.Integration.Start, "integration.start"
			}
			argv := pipeline.Split(start)
			if len(argv) == 0 {
				return errors.NewConfigurationError("no "+key+" configured", errors.ErrEmptyCommand).WithRepo(r.Name)
			}
			fmt.Fprintf(c.out, "[demo][%s] %s\n", r.Name, start)
			return c.app.Launcher.Run(cmd.Context(), argv[0], argv[1:], r.Path)
		},
	}
	cmd.Flags().StringVarP(&name, "repo", "r", "", "repository name")
	cmd.Flags().BoolVar(&integration, "integration", false, "start integration.start instead")
	_ = cmd.MarkFlagRequired("repo")
	return cmd
}
