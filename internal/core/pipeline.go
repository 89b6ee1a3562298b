package core

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/agenthands/profitgraph/internal/artifacts"
	"github.com/agenthands/profitgraph/internal/config"
	"github.com/agenthands/profitgraph/internal/core/architect"
	"github.com/agenthands/profitgraph/internal/core/common"
	"github.com/agenthands/profitgraph/internal/core/community"
	"github.com/agenthands/profitgraph/internal/core/graphsync"
	"github.com/agenthands/profitgraph/internal/core/refiner"
	"github.com/agenthands/profitgraph/internal/core/scout"
	"github.com/agenthands/profitgraph/internal/core/strategist"
	"github.com/agenthands/profitgraph/internal/driver"
	"github.com/agenthands/profitgraph/internal/llm"
	"github.com/agenthands/profitgraph/internal/logger"
	"github.com/agenthands/profitgraph/internal/research"
	"github.com/agenthands/profitgraph/internal/retry"
)

const tracerName = "github.com/agenthands/profitgraph/internal/core"

// Run outcomes.
const (
	StatusCompleted   = "completed"
	StatusLoadFailed  = "load_failed"
	StatusNoBrief     = "no_brief"
	StatusSyncFailed  = "sync_failed"
	StatusMarkFailed  = "mark_failed"
	StatusInterrupted = "interrupted"
)

var errEmptyTranscript = errors.New("transcript has no text")

// RunReport summarizes one case.
type RunReport struct {
	CaseID      string   `json:"case_id"`
	Path        string   `json:"path"`
	Status      string   `json:"status"`
	Questions   int      `json:"questions"`
	BriefFile   string   `json:"brief_file,omitempty"`
	Fallback    bool     `json:"fallback"`
	Entities    int      `json:"entities"`
	SyncSkipped bool     `json:"sync_skipped"`
	PendingSync bool     `json:"pending_sync"`
	Marked      bool     `json:"marked"`
	Degraded    []string `json:"degraded,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// Pipeline drives Strategist → Scout → Architect → Graph sync for one
// transcript at a time.
type Pipeline struct {
	Store      *artifacts.Store
	Strategist *strategist.Strategist
	Scout      *scout.Scout
	Architect  *architect.Architect
	Sync       *graphsync.Synchronizer
	Refiner    *refiner.Refiner
	Clusterer  *community.Clusterer
	Log        *logger.Logger

	// MarkOnSyncFailure marks history even when the graph write failed.
	MarkOnSyncFailure bool

	tracer trace.Tracer
}

// NewPipeline wires every stage from cfg. graph may be nil, which
// disables sync and refinement.
func NewPipeline(cfg *config.Config, store *artifacts.Store, llmClient llm.LLMClient, researchClient research.Client, graph driver.GraphDriver, log *logger.Logger) *Pipeline {
	if log == nil {
		log = logger.NewNop()
	}
	policy := retry.Policy{
		MaxAttempts:    cfg.Retry.MaxAttempts,
		InitialBackoff: cfg.Retry.InitialBackoff(),
		MaxBackoff:     cfg.Retry.MaxBackoff(),
	}

	p := &Pipeline{
		Store:             store,
		Strategist:        strategist.NewStrategist(llmClient, cfg.Prompts.Strategist, cfg.Limits.StrategistChars, cfg.Limits.MaxQuestions, store.Debug, log),
		Scout:             scout.NewScout(researchClient, cfg.Scout.Concurrency, store.Debug, log),
		Architect:         architect.NewArchitect(llmClient, cfg.Prompts.Architect, cfg.Limits.ArchitectChars, store, log),
		Sync:              graphsync.NewSynchronizer(graph, policy, log),
		Log:               log,
		MarkOnSyncFailure: cfg.Pipeline.MarkOnSyncFailure,
		tracer:            otel.Tracer(tracerName),
	}
	if graph != nil {
		p.Refiner = refiner.NewRefiner(graph, llmClient, cfg.Prompts.Refiner, cfg.Limits.RefinerChars, cfg.Refiner.BatchSize, log)
		p.Clusterer = community.NewClusterer(graph, log)
	}
	return p
}

func (p *Pipeline) startSpan(ctx context.Context, name, caseID string) (context.Context, trace.Span) {
	if p.tracer == nil {
		p.tracer = otel.Tracer(tracerName)
	}
	return p.tracer.Start(ctx, name, trace.WithAttributes(attribute.String("case.id", caseID)))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// SelectNextTranscript returns the transcripts not yet in history, sorted
// by file name.
func (p *Pipeline) SelectNextTranscript() ([]artifacts.Candidate, error) {
	done, err := p.Store.History.Load()
	if err != nil {
		return nil, err
	}
	return artifacts.Pending(p.Store.Dir, done)
}

// MarkComplete appends caseID to the processed history.
func (p *Pipeline) MarkComplete(caseID string) error {
	if err := p.Store.History.Mark(caseID); err != nil {
		return common.Wrap("pipeline", common.KindIO, err)
	}
	return nil
}

// RunOne processes a single transcript file. It returns an error when the
// run short-circuits (unreadable transcript, no brief) or when the case
// could not be recorded as synced. Stage degradations are listed in the
// report and do not stop the run.
func (p *Pipeline) RunOne(ctx context.Context, path string) (RunReport, error) {
	caseID := artifacts.CaseID(path)
	report := RunReport{CaseID: caseID, Path: path}
	log := p.Log.With("case_id", caseID)
	log.Info("processing transcript", "path", path)

	ctx, span := p.startSpan(ctx, "pipeline.run", caseID)
	var runErr error
	defer func() { endSpan(span, runErr) }()

	fail := func(status string, err error) (RunReport, error) {
		report.Status = status
		report.Error = err.Error()
		runErr = err
		return report, err
	}

	// 1. Load
	transcript, err := artifacts.LoadTranscript(path)
	if err == nil && strings.TrimSpace(transcript.Text) == "" {
		err = errEmptyTranscript
	}
	if err != nil {
		log.Error("failed to load transcript", "error", err)
		return fail(StatusLoadFailed, common.Wrap("pipeline", common.KindIO, err))
	}

	// 2. Strategist
	stageCtx, stageSpan := p.startSpan(ctx, "strategist.plan", caseID)
	questions, err := p.Strategist.Plan(stageCtx, transcript.Text, caseID)
	endSpan(stageSpan, err)
	p.degrade(&report, err)
	report.Questions = len(questions)

	// 3. Scout
	stageCtx, stageSpan = p.startSpan(ctx, "scout.research", caseID)
	dossier, err := p.Scout.Research(stageCtx, questions, caseID)
	endSpan(stageSpan, err)
	p.degrade(&report, err)

	if err := ctx.Err(); err != nil {
		return fail(StatusInterrupted, err)
	}

	// 4. Architect
	stageCtx, stageSpan = p.startSpan(ctx, "architect.synthesize", caseID)
	brief, err := p.Architect.Synthesize(stageCtx, transcript.Text, dossier, caseID)
	endSpan(stageSpan, err)
	if brief.Content == "" {
		if err == nil {
			err = errors.New("architect returned no brief")
		}
		log.Warn("no brief produced, skipping sync", "error", err)
		return fail(StatusNoBrief, err)
	}
	p.degrade(&report, err)
	report.BriefFile = brief.Filename
	report.Fallback = brief.Fallback

	// 5. Graph sync
	stageCtx, stageSpan = p.startSpan(ctx, "graphsync.sync", caseID)
	res, syncErr := p.Sync.Sync(stageCtx, caseID, brief.Content, dossier, brief.Entities)
	endSpan(stageSpan, syncErr)
	report.Entities = res.Entities
	report.SyncSkipped = res.Skipped

	if syncErr != nil {
		report.PendingSync = true
		if err := p.Store.Pending.Mark(caseID); err != nil {
			log.Error("failed to record pending sync", "error", err)
		}
		if !p.MarkOnSyncFailure {
			log.Warn("graph sync failed, case left unmarked for retry", "error", syncErr)
			return fail(StatusSyncFailed, syncErr)
		}
		p.degrade(&report, syncErr)
	} else if !res.Skipped {
		if err := p.Store.Pending.Clear(caseID); err != nil {
			log.Warn("failed to clear pending sync entry", "error", err)
		}
	}

	// 6. History
	if err := p.MarkComplete(caseID); err != nil {
		log.Error("failed to mark history", "error", err)
		return fail(StatusMarkFailed, err)
	}
	report.Marked = true
	report.Status = StatusCompleted
	log.Info("run complete", "brief", report.BriefFile, "entities", report.Entities, "degraded", len(report.Degraded))
	return report, nil
}

// RunPending processes up to limit unprocessed transcripts in order. A
// limit <= 0 processes all of them. Per-case failures are reported and do
// not stop the batch.
func (p *Pipeline) RunPending(ctx context.Context, limit int) ([]RunReport, error) {
	candidates, err := p.SelectNextTranscript()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	reports := make([]RunReport, 0, len(candidates))
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		report, err := p.RunOne(ctx, c.Path)
		if err != nil {
			p.Log.Warn("run failed", "case_id", c.CaseID, "status", report.Status, "error", err)
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// Refine runs one refinement batch.
func (p *Pipeline) Refine(ctx context.Context) ([]refiner.Result, error) {
	if p.Refiner == nil {
		return nil, common.Wrap("refiner", common.KindConfig, errors.New("graph store is not configured"))
	}
	ctx, span := p.startSpan(ctx, "refiner.run", "")
	results, err := p.Refiner.Run(ctx)
	endSpan(span, err)
	return results, err
}

// Clusters groups entities by their refined relationships.
func (p *Pipeline) Clusters(ctx context.Context) ([]community.Cluster, error) {
	if p.Clusterer == nil {
		return nil, common.Wrap("clusters", common.KindConfig, errors.New("graph store is not configured"))
	}
	ctx, span := p.startSpan(ctx, "graph.clusters", "")
	clusters, err := p.Clusterer.Clusters(ctx)
	endSpan(span, err)
	return clusters, err
}

func (p *Pipeline) degrade(report *RunReport, err error) {
	if err == nil {
		return
	}
	report.Degraded = append(report.Degraded, err.Error())
	p.Log.Warn("stage degraded", "case_id", report.CaseID, "error", err)
}
