package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Nomadcxx/parsevideo/internal/api"
	"github.com/Nomadcxx/parsevideo/internal/client"
	"github.com/Nomadcxx/parsevideo/internal/database"
	"github.com/Nomadcxx/parsevideo/internal/ui"
)

func newFilesCmd() *cobra.Command {
	var (
		filter database.ListFilter
		asJSON bool
		server string
	)

	cmd := &cobra.Command{
		Use:   "files",
		Short: "List stored parse results",
		Long: `List files recorded by scan, watch or the daemon.

Examples:
  parsevideo files --name "Doctor Who"
  parsevideo files --rule movie --limit 20
  parsevideo files --server 127.0.0.1:8687 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var files []api.FileInfo
			if server != "" {
				var err error
				files, err = client.New(server).Files(contextOf(cmd), filter)
				if err != nil {
					return fmt.Errorf("failed to list files: %w", err)
				}
			} else {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				db, err := openDB(cfg)
				if err != nil {
					return err
				}
				defer db.Close()

				stored, err := db.ListParsedFiles(filter)
				if err != nil {
					return fmt.Errorf("failed to list files: %w", err)
				}
				for _, f := range stored {
					files = append(files, api.NewFileInfo(f))
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if files == nil {
					files = []api.FileInfo{}
				}
				return printJSON(out, files)
			}
			if len(files) == 0 {
				ui.InfoMsg(out, "No files found")
				return nil
			}

			tbl := ui.NewTable("PATH", "RULE", "NAME / MOVIE", "S", "E", "YEAR", "PARSED")
			for _, f := range files {
				title := f.Fields["name"]
				if title == "" {
					title = f.Fields["movie"]
				}
				tbl.AddRow(f.Path, f.Rule, title, f.Fields["season"], f.Fields["episode"], f.Fields["year"], ui.FormatTime(f.ParsedAt))
			}
			fmt.Fprintln(out, tbl.Render())
			fmt.Fprintf(out, "%s files\n", ui.FormatCount(len(files)))
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.Name, "name", "", "filter by series name (substring, case-insensitive)")
	cmd.Flags().StringVar(&filter.Movie, "movie", "", "filter by movie title (substring, case-insensitive)")
	cmd.Flags().StringVar(&filter.Rule, "rule", "", "filter by matching rule")
	cmd.Flags().IntVar(&filter.Limit, "limit", 100, "maximum number of files (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print files as JSON")
	cmd.Flags().StringVar(&server, "server", "", "query a running parsevideod")

	return cmd
}

func newScansCmd() *cobra.Command {
	var (
		limit  int
		asJSON bool
		server string
	)

	cmd := &cobra.Command{
		Use:   "scans",
		Short: "List recent scan runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var scans []api.ScanInfo
			if server != "" {
				var err error
				scans, err = client.New(server).Scans(contextOf(cmd), limit)
				if err != nil {
					return fmt.Errorf("failed to list scans: %w", err)
				}
			} else {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				db, err := openDB(cfg)
				if err != nil {
					return err
				}
				defer db.Close()

				stored, err := db.ListScans(limit)
				if err != nil {
					return fmt.Errorf("failed to list scans: %w", err)
				}
				for _, s := range stored {
					scans = append(scans, api.NewScanInfo(s))
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if scans == nil {
					scans = []api.ScanInfo{}
				}
				return printJSON(out, scans)
			}
			if len(scans) == 0 {
				ui.InfoMsg(out, "No scans recorded")
				return nil
			}

			tbl := ui.NewTable("STARTED", "ROOT", "SEEN", "PARSED", "REMOVED", "STATUS")
			for i := 2; i <= 4; i++ {
				tbl.SetAlign(i, ui.AlignRight)
			}
			for _, s := range scans {
				status := ui.Warning("running")
				if s.FinishedAt != nil {
					status = ui.FormatDuration(time.Duration(s.DurationMS) * time.Millisecond)
				}
				tbl.AddRow(ui.FormatTime(s.StartedAt), s.Root,
					strconv.Itoa(s.FilesSeen), strconv.Itoa(s.FilesParsed), strconv.Itoa(s.FilesRemoved), status)
			}
			fmt.Fprintln(out, tbl.Render())
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of scans")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print scans as JSON")
	cmd.Flags().StringVar(&server, "server", "", "query a running parsevideod")

	return cmd
}
