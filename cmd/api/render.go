package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go-plant-inspector/internal/logger"
	"go-plant-inspector/internal/report"
	"go-plant-inspector/pkg/models"
	"go-plant-inspector/pkg/sanitize"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	renderText     string
	renderTextFile string
	renderImage    string
	renderOut      string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render an analysis into a PDF report file",
	Long: `Render lays out an existing analysis, and optionally the plant photo, as the
same PDF report the /download endpoint serves. No model call is made.`,
	Example: `  plant-inspector render --text-file analysis.txt --image fern.jpg --out fern.pdf`,
	RunE:    runRender,
}

func init() {
	renderCmd.Flags().StringVar(&renderText, "text", "", "analysis text")
	renderCmd.Flags().StringVar(&renderTextFile, "text-file", "", "read the analysis text from a file")
	renderCmd.Flags().StringVar(&renderImage, "image", "", "plant image to include on a second page")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "output path (defaults to a timestamped name in the current directory)")
	renderCmd.MarkFlagsMutuallyExclusive("text", "text-file")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	text := renderText
	if renderTextFile != "" {
		data, err := os.ReadFile(renderTextFile)
		if err != nil {
			return fmt.Errorf("read text file: %w", err)
		}
		text = string(data)
	}

	now := time.Now()
	doc := report.Document{AnalysisText: sanitize.StripMarkup(text), Date: now}

	if renderImage != "" {
		data, err := os.ReadFile(renderImage)
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		doc.Image = &models.ImagePayload{
			MIMEType: mimetype.Detect(data).String(),
			Data:     data,
		}
	}

	renderer := report.NewRenderer(report.DefaultOptions())
	if err := renderer.Validate(doc); err != nil {
		return err
	}

	out := renderOut
	if out == "" {
		out = fmt.Sprintf("plant_analysis_report_%d.pdf", now.UnixMilli())
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := errors.Join(renderer.RenderFile(f, doc), f.Close()); err != nil {
		os.Remove(out)
		return err
	}

	logger.WithFields(logrus.Fields{
		"path":       out,
		"with_image": doc.Image != nil,
	}).Info("Report written")
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
