package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TobiSchelling/SmartGrade/internal/channel"
	"github.com/TobiSchelling/SmartGrade/internal/homework"
	"github.com/TobiSchelling/SmartGrade/internal/pipeline"
	"github.com/TobiSchelling/SmartGrade/internal/preview"
	"github.com/TobiSchelling/SmartGrade/internal/relevance"
	"github.com/TobiSchelling/SmartGrade/internal/report"
	"github.com/TobiSchelling/SmartGrade/internal/stats"
	"github.com/TobiSchelling/SmartGrade/internal/workspace"
)

var (
	gradeSubject string
	gradeHTML    string
	gradeQuiet   bool
)

var gradeCmd = &cobra.Command{
	Use:   "grade <image>...",
	Short: "Transcribe and grade homework images",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, err := homework.ParseSubject(gradeSubject)
		if err != nil {
			return err
		}

		uploads, err := readUploads(args)
		if err != nil {
			return err
		}

		ocr, err := newOCR()
		if err != nil {
			return err
		}
		grader := newGrader()
		if !ocr.IsConfigured() {
			return fmt.Errorf("OCR service not configured: set %s", cfg.OCR.APIKeyEnv)
		}
		if !grader.IsConfigured() {
			return fmt.Errorf("grading service not configured: set %s", cfg.Grading.APIKeyEnv)
		}

		var ranker pipeline.Ranker
		db, store, err := openKnowledge()
		if err != nil {
			zap.S().Warnw("knowledge base unavailable, grading without references", "error", err)
		} else {
			defer db.Close()
			ranker = relevance.NewRanker(store)
		}

		items := channel.NewStore(preview.NewRegistry())
		tracker := stats.NewTracker()
		orch := pipeline.New(ocr, grader, ranker, items, tracker, pipeline.Options{
			RelevanceLimit: cfg.Knowledge.RelevanceLimit,
			ItemTimeout:    cfg.Pipeline.ItemTimeout(),
		})
		ws := workspace.New(items, orch, tracker)
		if err := ws.EnterChannel(subject); err != nil {
			return err
		}
		if _, err := ws.AddFiles(uploads, subject); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Grading %d file(s) in channel %s...\n", len(uploads), subject.Label())
		result, err := ws.RunBatch(ctx)
		if err != nil {
			return err
		}

		printResults(result, ws.Items())

		s := ws.Stats()
		fmt.Printf("\nDone: %d completed, %d failed, ~%d tokens.\n", result.Completed(), result.Failed(), s.TotalTokensUsed)

		if gradeHTML != "" {
			if err := writeReport(gradeHTML, subject, ws.Items(), s); err != nil {
				return err
			}
			fmt.Printf("Report written to %s\n", gradeHTML)
		}
		return nil
	},
}

func init() {
	gradeCmd.Flags().StringVarP(&gradeSubject, "subject", "s", string(homework.SubjectMath), "Subject channel: chinese, math or english")
	gradeCmd.Flags().StringVar(&gradeHTML, "html", "", "Write an HTML report to this path")
	gradeCmd.Flags().BoolVarP(&gradeQuiet, "quiet", "q", false, "Print only scores and errors")
}

func readUploads(paths []string) ([]channel.Upload, error) {
	uploads := make([]channel.Upload, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		uploads = append(uploads, channel.Upload{Name: filepath.Base(p), Data: data})
	}
	return uploads, nil
}

func printResults(result *pipeline.BatchResult, items []homework.Item) {
	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	byID := make(map[string]homework.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	for i, r := range result.Items {
		fmt.Printf("\n[%d/%d] %s\n", i+1, len(result.Items), r.Name)
		if verbose {
			for _, step := range r.Steps {
				if step.Err != nil {
					fmt.Printf("  %s: %v\n", step.Name, step.Err)
				} else {
					fmt.Printf("  %s\n", faint(step.Name+": "+step.Summary))
				}
			}
		}

		it, ok := byID[r.ItemID]
		switch {
		case r.Skipped || !ok:
			fmt.Println(faint("  removed before grading"))
		case it.Status == homework.StatusError:
			fmt.Printf("  %s %s\n", red("error:"), it.ErrorMessage)
		case it.Status == homework.StatusCompleted:
			if score, found := homework.ExtractScore(it.Result.Correction); found {
				fmt.Printf("  score: %s\n", green(score))
			}
			if !gradeQuiet {
				fmt.Println()
				fmt.Println(it.Result.Correction)
			}
		default:
			fmt.Printf("  %s\n", it.Status)
		}
	}
}

func writeReport(path string, subject homework.Subject, items []homework.Item, s homework.Statistics) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	if err := report.Render(f, subject, items, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
