package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/KaramelBytes/qdata-clean/internal/cleaning"
	"github.com/KaramelBytes/qdata-clean/internal/workspace"
)

// openWorkspace loads the configured workspace from disk.
func openWorkspace() (*workspace.Workspace, error) {
	c, err := requireConfig()
	if err != nil {
		return nil, err
	}
	return workspace.Load(c.WorkspaceDir, workspace.WithLogger(newLogger(true)))
}

// resolveUpload picks the upload named by args[0], or the active upload.
func resolveUpload(ws *workspace.Workspace, args []string) (*workspace.Upload, error) {
	if len(args) > 0 && args[0] != "" {
		return ws.Resolve(args[0])
	}
	u, ok := ws.Active()
	if !ok {
		return nil, fmt.Errorf("no upload selected: pass an upload id or name, or run 'qdata use <upload>'")
	}
	return u, nil
}

// newPipeline builds a cleaning pipeline from the loaded configuration.
func newPipeline() (*cleaning.Pipeline, error) {
	c, err := requireConfig()
	if err != nil {
		return nil, err
	}
	return cleaning.New(c.CleaningConfig(), newLogger(true)), nil
}

// expandInputs resolves glob patterns and literal paths, deduplicated and sorted.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
