package cmd

import (
	"fmt"

	"github.com/KaramelBytes/qdata-clean/internal/analysis"
	"github.com/KaramelBytes/qdata-clean/internal/utils"
	"github.com/KaramelBytes/qdata-clean/internal/workspace"
	"github.com/spf13/cobra"
)

var upQuiet bool

var uploadCmd = &cobra.Command{
	Use:   "upload <files...>",
	Short: "Parse CSV/JSON files into the workspace",
	Long: `Upload parses every matched file concurrently. If any file is unsupported or
malformed nothing is added.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandInputs(args)
		if err != nil {
			return err
		}
		ws, err := openWorkspace()
		if err != nil {
			return err
		}
		sources := make([]workspace.Source, len(files))
		for i, f := range files {
			sources[i] = workspace.FileSource(f)
		}
		ups, err := ws.AddFiles(cmd.Context(), sources)
		if err != nil {
			return err
		}
		if err := ws.Save(); err != nil {
			return err
		}
		for i, u := range ups {
			if upQuiet {
				continue
			}
			fmt.Printf("[%d/%d] ✓ %s → %s (%d rows, %s, quality %d%%)\n",
				i+1, len(ups), u.Name, shortID(u.ID), u.Rows(), utils.FormatFileSize(u.Size), analysis.QualityScore(u.Table))
		}
		if active, ok := ws.Active(); ok && !upQuiet {
			fmt.Printf("Active upload: %s (%s)\n", active.Name, shortID(active.ID))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().BoolVarP(&upQuiet, "quiet", "q", false, "suppress per-file output")
}
