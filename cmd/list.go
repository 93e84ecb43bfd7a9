package cmd

import (
	"fmt"

	"github.com/KaramelBytes/qdata-clean/internal/utils"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List uploads in the workspace",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace()
		if err != nil {
			return err
		}
		ups := ws.List()
		if len(ups) == 0 {
			fmt.Println("(no uploads)")
			return nil
		}
		active, _ := ws.Active()
		for _, u := range ups {
			marker := " "
			if active != nil && active.ID == u.ID {
				marker = "*"
			}
			state := "raw"
			if u.Processed {
				state = "processed"
			}
			fmt.Printf("%s %s  %-24s %6d rows  %10s  %s  %s\n",
				marker, shortID(u.ID), u.Name, u.Rows(), utils.FormatFileSize(u.Size), state, u.UploadedAt.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:     "remove <upload>",
	Aliases: []string{"rm"},
	Short:   "Remove an upload from the workspace",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace()
		if err != nil {
			return err
		}
		u, err := ws.Resolve(args[0])
		if err != nil {
			return err
		}
		if err := ws.Remove(u.ID); err != nil {
			return err
		}
		if err := ws.Save(); err != nil {
			return err
		}
		fmt.Printf("✓ Removed %s (%s)\n", u.Name, shortID(u.ID))
		return nil
	},
}

var useCmd = &cobra.Command{
	Use:   "use <upload>",
	Short: "Select the upload other commands default to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace()
		if err != nil {
			return err
		}
		u, err := ws.Resolve(args[0])
		if err != nil {
			return err
		}
		if err := ws.SetActive(u.ID); err != nil {
			return err
		}
		if err := ws.Save(); err != nil {
			return err
		}
		fmt.Printf("✓ Active upload: %s (%s)\n", u.Name, shortID(u.ID))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(useCmd)
}
