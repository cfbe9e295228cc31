// Package coretools registers the built-in workspace tools against the tool
// registry, converting typed engine results and errors into uniform tool
// results.
package coretools

import (
	"context"
	"errors"
	"fmt"

	"github.com/harun/baxter/pkg/fileops"
	"github.com/harun/baxter/pkg/gitops"
	"github.com/harun/baxter/pkg/procrun"
	"github.com/harun/baxter/pkg/sandbox"
	"github.com/harun/baxter/pkg/tool"
)

// Deps carries the engines the core tools execute against.
type Deps struct {
	Files *fileops.Engine
	Proc  *procrun.Engine
	Git   *gitops.Gateway
}

// RegisterCoreTools registers every built-in tool.
func RegisterCoreTools(reg *tool.Registry, deps Deps) error {
	if deps.Files == nil || deps.Proc == nil || deps.Git == nil {
		return errors.New("all core tool dependencies are required")
	}

	contracts := []tool.Contract{
		writeFileTool(deps),
		applyDiffTool(deps),
		readFileTool(deps),
		listDirTool(deps),
		makeDirTool(deps),
		deletePathTool(deps),
		runCmdTool(deps),
		gitCmdTool(deps),
		searchCodeTool(deps),
	}
	for _, c := range contracts {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("failed to register tool %s: %w", c.Name, err)
		}
	}
	return nil
}

// failFrom converts an engine error into result data, attaching candidate
// paths when the failure was an ambiguous basename reference.
func failFrom(err error) tool.Result {
	if amb, ok := sandbox.AsAmbiguous(err); ok {
		return tool.FailWith(map[string]any{"candidates": amb.Candidates}, "%s", amb.Error())
	}
	return tool.Fail("%s", err.Error())
}

func writeFileTool(deps Deps) tool.Contract {
	return tool.Contract{
		Name:        "write_file",
		Description: "Write a text file to disk.",
		Args: []tool.ArgSpec{
			{Name: "path", Type: "string", Description: `relative path (example: "dummy.py")`, Required: true},
			{Name: "content", Type: "string", Description: "full file contents", Required: true},
			{Name: "overwrite", Type: "boolean", Description: "set true when updating an existing file"},
		},
		Run: func(ctx context.Context, args map[string]any) tool.Result {
			res, err := deps.Files.WriteFile(stringArg(args, "path"), stringArg(args, "content"), boolArg(args, "overwrite"))
			if err != nil {
				return failFrom(err)
			}
			return tool.Ok(map[string]any{"path": res.Path, "bytes": res.Bytes})
		},
	}
}

func applyDiffTool(deps Deps) tool.Contract {
	return tool.Contract{
		Name:        "apply_diff",
		Description: "Apply a targeted text diff (find/replace) to an existing file.",
		Args: []tool.ArgSpec{
			{Name: "path", Type: "string", Description: `relative path (example: "src/app.py")`, Required: true},
			{Name: "find", Type: "string", Description: "exact text block to replace", Required: true},
			{Name: "replace", Type: "string", Description: "replacement text block", Required: true},
			{Name: "replace_all", Type: "boolean", Description: "default false, replaces only one match"},
		},
		Run: func(ctx context.Context, args map[string]any) tool.Result {
			res, err := deps.Files.ApplyDiff(
				stringArg(args, "path"),
				stringArg(args, "find"),
				stringArg(args, "replace"),
				boolArg(args, "replace_all"),
			)
			if err != nil {
				return failFrom(err)
			}
			return tool.Ok(map[string]any{
				"path":          res.Path,
				"replacements":  res.Replacements,
				"added_lines":   res.AddedLines,
				"removed_lines": res.RemovedLines,
				"bytes_before":  res.BytesBefore,
				"bytes_after":   res.BytesAfter,
				"diff":          res.Diff,
			})
		},
	}
}

func readFileTool(deps Deps) tool.Contract {
	return tool.Contract{
		Name:        "read_file",
		Description: "Read a text file from disk and return its contents.",
		Args: []tool.ArgSpec{
			{Name: "path", Type: "string", Description: `relative path (example: "styles.css")`, Required: true},
		},
		Run: func(ctx context.Context, args map[string]any) tool.Result {
			res, err := deps.Files.ReadFile(stringArg(args, "path"))
			if err != nil {
				return failFrom(err)
			}
			return tool.Ok(map[string]any{
				"path":          res.Path,
				"resolved_path": res.ResolvedPath,
				"content":       res.Content,
				"bytes":         res.Bytes,
			})
		},
	}
}

func listDirTool(deps Deps) tool.Contract {
	return tool.Contract{
		Name:        "list_dir",
		Description: "List files and folders in a directory (relative paths only).",
		Args: []tool.ArgSpec{
			{Name: "path", Type: "string", Description: `relative path (example: "." or "tools")`, Required: true},
		},
		Run: func(ctx context.Context, args map[string]any) tool.Result {
			entries, err := deps.Files.ListDir(stringArg(args, "path"))
			if err != nil {
				return failFrom(err)
			}
			return tool.Ok(map[string]any{
				"path":    stringArg(args, "path"),
				"entries": entries,
				"count":   len(entries),
			})
		},
	}
}

func makeDirTool(deps Deps) tool.Contract {
	return tool.Contract{
		Name:        "make_dir",
		Description: "Create a directory (and parents) safely within the root.",
		Args: []tool.ArgSpec{
			{Name: "path", Type: "string", Description: `relative path (example: "website" or "src/assets")`, Required: true},
		},
		Run: func(ctx context.Context, args map[string]any) tool.Result {
			path := stringArg(args, "path")
			if err := deps.Files.MakeDir(path); err != nil {
				return failFrom(err)
			}
			return tool.Ok(map[string]any{"path": path, "created": true})
		},
	}
}

func deletePathTool(deps Deps) tool.Contract {
	return tool.Contract{
		Name:        "delete_path",
		Description: "Delete a file or an empty directory safely within the root.",
		Args: []tool.ArgSpec{
			{Name: "path", Type: "string", Description: `relative path (example: "website.json" or "empty_folder")`, Required: true},
		},
		Run: func(ctx context.Context, args map[string]any) tool.Result {
			res, err := deps.Files.DeletePath(stringArg(args, "path"))
			if err != nil {
				return failFrom(err)
			}
			return tool.Ok(map[string]any{"path": res.Path, "deleted": res.Deleted})
		},
	}
}

func runCmdTool(deps Deps) tool.Contract {
	return tool.Contract{
		Name:        "run_cmd",
		Description: "Run an allowed terminal command in the project root (no shell), or stop a tracked detached process.",
		Args: []tool.ArgSpec{
			{Name: "cmd", Type: "array", Description: `command vector, required unless stop_pid is set (example: ["python","--version"] or ["npm","run","dev"])`},
			{Name: "cwd", Type: "string", Description: `relative path (example: "." or "tools")`},
			{Name: "timeout_sec", Type: "integer", Description: "1-1800; default adaptive 60->1800"},
			{Name: "detach", Type: "boolean", Description: "default false; start command in background and return pid immediately"},
			{Name: "wait_for_ready", Type: "boolean", Description: "with detach, poll localhost:3000 for readiness before returning"},
			{Name: "stop_pid", Type: "integer", Description: "stop a detached pid started by this session"},
		},
		Run: func(ctx context.Context, args map[string]any) tool.Result {
			if pid, ok := intArg(args, "stop_pid"); ok {
				stop, err := deps.Proc.StopPid(pid)
				if err != nil {
					return tool.FailWith(map[string]any{"pid": pid}, "%s", err.Error())
				}
				return tool.Ok(map[string]any{
					"pid":     stop.Pid,
					"stopped": stop.Stopped,
					"message": stop.Message,
				})
			}

			cmd := stringSliceArg(args, "cmd")
			if len(cmd) == 0 {
				return tool.Fail(`cmd must be a non-empty list of strings, e.g. ["git","status"]`)
			}
			timeout, _ := intArg(args, "timeout_sec")
			detach := boolArg(args, "detach")
			res, err := deps.Proc.Run(ctx, procrun.Request{
				Cmd:          cmd,
				Cwd:          stringArg(args, "cwd"),
				TimeoutSec:   timeout,
				Detach:       detach,
				StreamOutput: true,
				WaitForReady: detach && boolArg(args, "wait_for_ready"),
			})
			if err != nil {
				return tool.FailWith(map[string]any{"cmd": cmd, "cwd": stringArg(args, "cwd")}, "%s", err.Error())
			}
			return runResultFields(res)
		},
	}
}

func runResultFields(res procrun.RunResult) tool.Result {
	fields := map[string]any{
		"cmd":     res.Cmd,
		"cwd":     res.Cwd,
		"success": res.Success,
	}
	if res.Detached {
		fields["detached"] = true
		fields["pid"] = res.Pid
		fields["message"] = res.Message
		if res.ReadyPort != 0 {
			fields["ready"] = res.Ready
			fields["ready_port"] = res.ReadyPort
			fields["ready_timeout_sec"] = res.ReadyTimeoutSec
		}
		return tool.Ok(fields)
	}

	fields["stdout"] = res.Stdout
	fields["stderr"] = res.Stderr
	fields["timeout_sec"] = res.TimeoutSec
	fields["timeout_policy"] = res.TimeoutPolicy
	fields["timeout_extended"] = res.TimeoutExtended
	if res.TimedOut {
		fields["timed_out"] = true
		return tool.FailWith(fields, "%s", res.Message)
	}
	fields["exit_code"] = res.ExitCode
	return tool.Ok(fields)
}

func gitCmdTool(deps Deps) tool.Contract {
	return tool.Contract{
		Name:        "git_cmd",
		Description: "Run a restricted git command safely in the project root.",
		Args: []tool.ArgSpec{
			{Name: "subcommand", Type: "string", Description: `example: "status", "add", "commit", "push"`, Required: true},
			{Name: "args", Type: "array", Description: `example: ["-sb"] or ["-m","msg"]`},
			{Name: "cwd", Type: "string", Description: `relative path; default "."`},
			{Name: "timeout_sec", Type: "integer", Description: "1-300; default 60"},
		},
		Run: func(ctx context.Context, args map[string]any) tool.Result {
			timeout, _ := intArg(args, "timeout_sec")
			res, err := deps.Git.Run(ctx, gitops.Command{
				Subcommand: stringArg(args, "subcommand"),
				Args:       stringSliceArg(args, "args"),
				Cwd:        stringArg(args, "cwd"),
				TimeoutSec: timeout,
			})
			if err != nil {
				if errors.Is(err, gitops.ErrPrecheckFailed) {
					return tool.FailWith(map[string]any{"precheck": true}, "%s", err.Error())
				}
				return tool.Fail("%s", err.Error())
			}
			if res.TimedOut {
				return tool.FailWith(map[string]any{"cmd": res.Cmd, "cwd": res.Cwd}, "git command timed out after %ds", res.TimeoutSec)
			}
			return tool.Ok(map[string]any{
				"cmd":       res.Cmd,
				"cwd":       res.Cwd,
				"exit_code": res.ExitCode,
				"stdout":    res.Stdout,
				"stderr":    res.Stderr,
			})
		},
	}
}

func searchCodeTool(deps Deps) tool.Contract {
	return tool.Contract{
		Name:        "search_code",
		Description: "Search code/files recursively for text matches.",
		Args: []tool.ArgSpec{
			{Name: "query", Type: "string", Description: `search text (example: "render_registry_for_prompt")`, Required: true},
			{Name: "path", Type: "string", Description: `relative path; default "."`},
			{Name: "case_sensitive", Type: "boolean", Description: "default false"},
			{Name: "max_results", Type: "integer", Description: "1-200; default 50"},
			{Name: "include_hidden", Type: "boolean", Description: "default false"},
		},
		Run: func(ctx context.Context, args map[string]any) tool.Result {
			maxResults, _ := intArg(args, "max_results")
			res, err := deps.Files.Search(ctx, fileops.SearchOptions{
				Query:         stringArg(args, "query"),
				Path:          stringArg(args, "path"),
				CaseSensitive: boolArg(args, "case_sensitive"),
				IncludeHidden: boolArg(args, "include_hidden"),
				MaxResults:    maxResults,
			})
			if err != nil {
				return failFrom(err)
			}
			matches := res.Matches
			if matches == nil {
				matches = []fileops.SearchMatch{}
			}
			return tool.Ok(map[string]any{
				"query":     stringArg(args, "query"),
				"matches":   matches,
				"count":     len(matches),
				"truncated": res.Truncated,
				"engine":    res.Engine,
			})
		},
	}
}
