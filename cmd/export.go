package cmd

import (
	"fmt"
	"time"

	"github.com/KaramelBytes/qdata-clean/internal/export"
	"github.com/KaramelBytes/qdata-clean/internal/utils"
	"github.com/spf13/cobra"
)

var (
	expFormat     string
	expOutput     string
	expMetadata   bool
	expStatistics bool
	expCompress   bool
)

var exportCmd = &cobra.Command{
	Use:   "export [upload]",
	Short: "Export an upload as CSV or JSON",
	Long: `Export writes the current data of an upload. The default file name is
<name>_processed_<date>.<format> in the working directory, with .zip appended
when compressed. --metadata, --statistics and --compress default to config.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		name := c.ExportFormat
		if cmd.Flags().Changed("format") {
			name = expFormat
		}
		format, err := export.ParseFormat(name)
		if err != nil {
			return err
		}
		opt := c.ExportOptions()
		f := cmd.Flags()
		if f.Changed("metadata") {
			opt.IncludeMetadata = expMetadata
		}
		if f.Changed("statistics") {
			opt.IncludeStatistics = expStatistics
		}
		if f.Changed("compress") {
			opt.Compress = expCompress
		}

		ws, err := openWorkspace()
		if err != nil {
			return err
		}
		u, err := resolveUpload(ws, args)
		if err != nil {
			return err
		}
		now := time.Now()
		data, err := export.Serialize(export.Document{Name: u.Name, Table: u.Table, Processed: u.Processed, ExportedAt: now}, format, opt)
		if err != nil {
			return err
		}
		out := expOutput
		if out == "" {
			out = export.FileName(u.Name, format, opt.Compress, now)
		}
		if err := utils.SafeWriteFile(out, data); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Printf("✓ Exported %s (%d rows) to %s (%s)\n", u.Name, u.Rows(), out, utils.FormatFileSize(int64(len(data))))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&expFormat, "format", "f", "csv", "export format: csv|json (xlsx and png need an external encoder)")
	exportCmd.Flags().StringVarP(&expOutput, "output", "o", "", "output path")
	exportCmd.Flags().BoolVar(&expMetadata, "metadata", true, "include processing metadata")
	exportCmd.Flags().BoolVar(&expStatistics, "statistics", false, "include statistical summary")
	exportCmd.Flags().BoolVar(&expCompress, "compress", false, "write a zip archive")
}
