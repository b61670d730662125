package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/danielbnavia/navia-doc-validator/internal/batch"
	"github.com/danielbnavia/navia-doc-validator/internal/client"
	"github.com/danielbnavia/navia-doc-validator/internal/export"
	"github.com/danielbnavia/navia-doc-validator/internal/models"
	"github.com/danielbnavia/navia-doc-validator/internal/render"
)

var (
	serverURL string
	jsonDir   string
	xlsxPath  string
	timeout   time.Duration
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "docvalidate",
		Short:         "Submit shipping documents to the validation relay",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	validateCmd := &cobra.Command{
		Use:   "validate <files...>",
		Short: "Validate PDF documents one at a time and render each outcome",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runValidate,
	}
	validateCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8090", "relay server base URL")
	validateCmd.Flags().StringVar(&jsonDir, "json-dir", "", "directory for per-file JSON exports")
	validateCmd.Flags().StringVar(&xlsxPath, "xlsx", "", "path for a batch XLSX export")
	validateCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "per-file relay timeout")
	rootCmd.AddCommand(validateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	files, err := loadFiles(args)
	if err != nil {
		return err
	}

	coordinator := batch.NewCoordinator(client.New(serverURL, timeout))
	if err := coordinator.Select(files...); err != nil {
		return err
	}
	if err := coordinator.SubmitBatch(context.Background()); err != nil {
		return err
	}

	state := coordinator.State()
	failed := 0
	for _, outcome := range state.Results {
		fmt.Fprintln(cmd.OutOrStdout(), render.Outcome(outcome))
		if outcome.Status == models.OutcomeError {
			failed++
		}
		if jsonDir != "" {
			path, err := render.ExportJSON(outcome, jsonDir)
			if err != nil {
				return fmt.Errorf("export %s: %w", outcome.FileName, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		}
	}

	if xlsxPath != "" {
		workbook, err := export.BatchWorkbook(state.Results)
		if err != nil {
			return fmt.Errorf("build batch workbook: %w", err)
		}
		defer workbook.Close()
		if err := workbook.SaveAs(xlsxPath); err != nil {
			return fmt.Errorf("write batch workbook: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", xlsxPath)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed validation", failed, len(state.Results))
	}
	return nil
}

// loadFiles reads the named documents and sniffs their media type. PDFs are
// recognized by content, falling back to the file extension.
func loadFiles(paths []string) ([]models.File, error) {
	var files []models.File
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		files = append(files, models.File{
			Name:      filepath.Base(path),
			Size:      int64(len(data)),
			MediaType: sniffMediaType(path, data),
			Data:      data,
		})
	}
	return files, nil
}

func sniffMediaType(path string, data []byte) string {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	detected := http.DetectContentType(head)
	if detected == models.MediaTypePDF {
		return detected
	}
	if detected == "application/octet-stream" && filepath.Ext(path) == ".pdf" {
		return models.MediaTypePDF
	}
	return detected
}
