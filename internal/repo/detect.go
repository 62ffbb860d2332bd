package repo

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/reploy-cli/reploy/internal/config"
)

// Package managers
const (
	Yarn = "yarn"
	PNPM = "pnpm"
	NPM  = "npm"
)

// Java build tools
const (
	Maven  = "maven"
	Gradle = "gradle"
)

// Action is a toolchain operation a verb performs on a repository.
type Action string

// Actions
const (
	ActionInstall Action = "install"
	ActionBuild   Action = "build"
	ActionDev     Action = "dev"
)

// Command is one toolchain command line.
type Command struct {
	Exe  string
	Args []string
}

func (c Command) String() string {
	return strings.TrimSpace(c.Exe + " " + strings.Join(c.Args, " "))
}

// Task is a command to run in a repository, tagged with the part of the
// repository it serves ("frontend" or "backend").
type Task struct {
	Part    string
	Command Command
}

// Plan is the set of tasks for one repository plus the parts that were
// skipped and why.
type Plan struct {
	Tasks   []Task
	Skipped []string
}

// DetectPackageManager picks the Node package manager from lockfiles.
func DetectPackageManager(dir string) string {
	switch {
	case exists(filepath.Join(dir, "yarn.lock")):
		return Yarn
	case exists(filepath.Join(dir, "pnpm-lock.yaml")):
		return PNPM
	default:
		return NPM
	}
}

// PackageManager returns the configured package manager or detects one.
func PackageManager(r config.Repo) string {
	if r.PackageManager != "" {
		return r.PackageManager
	}
	return DetectPackageManager(r.Path)
}

// DetectJavaBuildTool returns Maven for pom.xml, Gradle for build.gradle(.kts),
// or "" for neither.
func DetectJavaBuildTool(dir string) string {
	switch {
	case exists(filepath.Join(dir, "pom.xml")):
		return Maven
	case exists(filepath.Join(dir, "build.gradle")), exists(filepath.Join(dir, "build.gradle.kts")):
		return Gradle
	default:
		return ""
	}
}

// FindSolution returns the first .sln file at most two levels below dir.
func FindSolution(dir string) string {
	for _, pattern := range []string{"*.sln", filepath.Join("*", "*.sln")} {
		matches, _ := filepath.Glob(filepath.Join(dir, pattern))
		if len(matches) > 0 {
			return matches[0]
		}
	}
	return ""
}

// IsFrontend reports whether dir holds a Node project.
func IsFrontend(dir string) bool {
	return exists(filepath.Join(dir, "package.json"))
}

// PlanFor builds the task list for action on r. frontend and backend select
// which parts to include; a repository whose type is set only gets its own
// part. Dev only has a frontend part.
func PlanFor(action Action, r config.Repo, frontend, backend bool) Plan {
	var plan Plan
	switch r.Type {
	case config.RepoTypeFrontend:
		backend = false
	case config.RepoTypeBackend:
		frontend = false
	}
	if action == ActionDev {
		backend = false
	}

	if frontend {
		if cmd, ok := frontendCommand(action, r); ok {
			plan.Tasks = append(plan.Tasks, Task{Part: "frontend", Command: cmd})
		} else {
			plan.Skipped = append(plan.Skipped, "frontend: no package.json found")
		}
	}

	if backend {
		cmds := backendCommands(action, r)
		if len(cmds) == 0 {
			plan.Skipped = append(plan.Skipped, "backend: no .sln, pom.xml, or build.gradle found")
		}
		for _, cmd := range cmds {
			plan.Tasks = append(plan.Tasks, Task{Part: "backend", Command: cmd})
		}
	}
	return plan
}

func frontendCommand(action Action, r config.Repo) (Command, bool) {
	if r.PackageManager == "" && !IsFrontend(r.Path) {
		return Command{}, false
	}
	pm := PackageManager(r)
	switch action {
	case ActionInstall:
		if pm == Yarn {
			return Command{Exe: Yarn, Args: []string{"install", "--frozen-lockfile"}}, true
		}
		return Command{Exe: pm, Args: []string{"install"}}, true
	case ActionBuild:
		return Command{Exe: pm, Args: []string{"run", "build"}}, true
	default:
		return Command{Exe: pm, Args: []string{"run", "dev"}}, true
	}
}

func backendCommands(action Action, r config.Repo) []Command {
	var cmds []Command

	solution := r.Dotnet.Solution
	if solution == "" {
		solution = FindSolution(r.Path)
	}
	if solution != "" {
		args := []string{"restore"}
		if action == ActionBuild {
			args = []string{"build", "-c", "Release"}
		}
		if r.Dotnet.Solution != "" {
			args = append(args, r.Dotnet.Solution)
		}
		cmds = append(cmds, Command{Exe: "dotnet", Args: args})
	}

	tool := r.Java.BuildTool
	if tool == "" {
		tool = DetectJavaBuildTool(r.Path)
	}
	switch tool {
	case Maven:
		args := []string{"dependency:resolve"}
		if action == ActionBuild {
			args = []string{"clean", "package", "-DskipTests"}
		}
		cmds = append(cmds, Command{Exe: wrapper(r.Path, "mvnw", "mvn"), Args: args})
	case Gradle:
		args := []string{"dependencies"}
		if action == ActionBuild {
			args = []string{"build", "-x", "test"}
		}
		cmds = append(cmds, Command{Exe: wrapper(r.Path, "gradlew", "gradle"), Args: args})
	}
	return cmds
}

// wrapper prefers an executable build wrapper script checked into dir.
func wrapper(dir, script, fallback string) string {
	path := filepath.Join(dir, script)
	info, err := os.Stat(path)
	if err == nil && info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0 {
		return path
	}
	return fallback
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
