package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agenthands/profitgraph/internal/artifacts"
	"github.com/agenthands/profitgraph/internal/core"
)

var (
	runNext  bool
	runAll   bool
	runLimit int
)

var runCmd = &cobra.Command{
	Use:   "run [transcript-file | video-url | video-id]",
	Short: "Process one transcript, the next pending one, or all of them",
	Long: `Runs Strategist -> Scout -> Architect -> graph sync.

Examples:
  profitgraph run ~/storage/downloads/yt_transcripts/dQw4w9WgXcQ_transcript.json
  profitgraph run https://youtu.be/dQw4w9WgXcQ
  profitgraph run --next
  profitgraph run --all --limit 10`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().BoolVar(&runNext, "next", false, "process the first pending transcript")
	runCmd.Flags().BoolVar(&runAll, "all", false, "process every pending transcript")
	runCmd.Flags().IntVar(&runLimit, "limit", 0, "with --all, stop after this many transcripts")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !runNext && !runAll {
		return errors.New("give a transcript, --next or --all (see 'profitgraph pending')")
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if len(args) == 1 {
		path, err := resolveTranscript(a.store.Dir, args[0])
		if err != nil {
			return err
		}
		report, err := a.pipeline.RunOne(ctx, path)
		printReport(report)
		return err
	}

	limit := runLimit
	if runNext {
		limit = 1
	}
	reports, err := a.pipeline.RunPending(ctx, limit)
	if len(reports) == 0 && err == nil {
		fmt.Println("No new transcripts found.")
		return nil
	}
	failed := 0
	for _, r := range reports {
		printReport(r)
		if r.Status != core.StatusCompleted {
			failed++
		}
	}
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d runs did not complete", failed, len(reports))
	}
	return nil
}

// resolveTranscript accepts an existing file, or a video URL/id whose
// transcript lives in dir.
func resolveTranscript(dir, arg string) (string, error) {
	if st, err := os.Stat(arg); err == nil && !st.IsDir() {
		return arg, nil
	}
	id := artifacts.ExtractVideoID(arg)
	if id == "" {
		return "", fmt.Errorf("%q is neither a transcript file nor a video id", arg)
	}
	return artifacts.TranscriptPath(dir, id), nil
}

func printReport(r core.RunReport) {
	fmt.Printf("%s  %-12s", r.CaseID, r.Status)
	if r.BriefFile != "" {
		fmt.Printf("  brief=%s", r.BriefFile)
	}
	fmt.Printf("  questions=%d entities=%d", r.Questions, r.Entities)
	if r.SyncSkipped {
		fmt.Print("  sync=disabled")
	}
	if r.PendingSync {
		fmt.Print("  sync=pending")
	}
	fmt.Println()
	for _, d := range r.Degraded {
		fmt.Printf("    degraded: %s\n", d)
	}
	if r.Error != "" {
		fmt.Printf("    error: %s\n", r.Error)
	}
}
