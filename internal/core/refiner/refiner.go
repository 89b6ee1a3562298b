package refiner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/agenthands/profitgraph/internal/core/common"
	"github.com/agenthands/profitgraph/internal/core/model"
	"github.com/agenthands/profitgraph/internal/driver"
	"github.com/agenthands/profitgraph/internal/llm"
	"github.com/agenthands/profitgraph/internal/logger"
)

const stage = "refiner"

// Result reports one candidate Strategy.
type Result struct {
	StrategyID string `json:"strategy_id"`
	Injected   int    `json:"injected"`
	Rejected   int    `json:"rejected"`
	Failed     int    `json:"failed"`
	Stamped    bool   `json:"stamped"`
	Error      string `json:"error,omitempty"`
}

// Refiner derives typed Entity relationships from synced briefs.
type Refiner struct {
	Driver    driver.GraphDriver
	LLM       llm.LLMClient
	Prompt    string
	MaxChars  int
	BatchSize int
	Log       *logger.Logger
	NewID     func() string
}

func NewRefiner(d driver.GraphDriver, client llm.LLMClient, prompt string, maxChars, batchSize int, log *logger.Logger) *Refiner {
	if log == nil {
		log = logger.NewNop()
	}
	if batchSize <= 0 {
		batchSize = 5
	}
	return &Refiner{
		Driver:    d,
		LLM:       client,
		Prompt:    prompt,
		MaxChars:  maxChars,
		BatchSize: batchSize,
		Log:       log,
		NewID:     uuid.NewString,
	}
}

// Candidates returns up to BatchSize Strategy nodes with no REFINED_BY edge.
func (r *Refiner) Candidates(ctx context.Context) ([]model.StrategyCandidate, error) {
	res, err := r.Driver.ExecuteQuery(ctx, driver.UnrefinedStrategiesQuery, map[string]interface{}{
		"limit": int64(r.BatchSize),
	})
	if err != nil {
		return nil, common.Wrap(stage, common.KindGraph, err)
	}

	out := make([]model.StrategyCandidate, 0, len(res.Records))
	for _, rec := range res.Records {
		id, _ := rec.Get("id")
		content, _ := rec.Get("content")
		sid, ok := id.(string)
		if !ok || sid == "" {
			continue
		}
		text, _ := content.(string)
		out = append(out, model.StrategyCandidate{ID: sid, Content: text})
	}
	return out, nil
}

// Run refines one batch of candidates. A candidate is stamped once its
// triples have been applied, however many succeeded. A candidate whose
// generation call fails is left unstamped for the next run.
func (r *Refiner) Run(ctx context.Context) ([]Result, error) {
	if r.Driver == nil {
		return nil, common.Wrap(stage, common.KindConfig, errors.New("graph store is not configured"))
	}

	candidates, err := r.Candidates(ctx)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		r.Log.Info("all strategies are already refined")
		return []Result{}, nil
	}

	results := make([]Result, 0, len(candidates))
	var errs []error
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := r.refine(ctx, c)
		if err != nil {
			res.Error = err.Error()
			errs = append(errs, err)
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

func (r *Refiner) refine(ctx context.Context, c model.StrategyCandidate) (Result, error) {
	res := Result{StrategyID: c.ID}
	log := r.Log.With("strategy_id", c.ID, "stage", stage)
	log.Info("refining strategy")

	prompt := fmt.Sprintf(r.Prompt, common.Truncate(c.Content, r.MaxChars))
	response, err := r.LLM.Generate(ctx, prompt, llm.WithJSON())
	if err != nil {
		log.Warn("generation failed, leaving strategy unrefined", "error", err)
		return res, common.Wrap(stage, common.KindTransport, err)
	}

	triples, err := decodeTriples(response)
	if err != nil {
		log.Warn("relationship parse failed", "error", err)
	}

	for _, t := range triples {
		rel, source, target, ok := validate(t)
		if !ok {
			res.Rejected++
			log.Debug("triple rejected", "source", t.Source, "target", t.Target, "rel", t.Rel)
			continue
		}
		_, err := r.Driver.ExecuteQuery(ctx, driver.RelationQueries[rel], map[string]interface{}{
			"source": source,
			"target": target,
		})
		if err != nil {
			res.Failed++
			log.Debug("triple skipped", "source", source, "target", target, "error", err)
			continue
		}
		res.Injected++
	}

	if _, err := r.Driver.ExecuteQuery(ctx, driver.StampRefinedQuery, map[string]interface{}{
		"strategy_id": c.ID,
		"log_id":      r.NewID(),
	}); err != nil {
		log.Error("failed to stamp strategy", "error", err)
		return res, common.Wrap(stage, common.KindGraph, err)
	}
	res.Stamped = true

	log.Info("injected new connections", "injected", res.Injected, "rejected", res.Rejected, "failed", res.Failed)
	return res, nil
}

// decodeTriples accepts a bare list or {"relationships": [...]}.
func decodeTriples(response string) ([]model.Triple, error) {
	list, err := common.ParseJSON[[]model.Triple](response)
	if err == nil {
		return list, nil
	}
	wrapped, wrapErr := common.ParseJSON[model.Relationships](response)
	if wrapErr == nil {
		return wrapped.Relationships, nil
	}
	return nil, err
}

// validate normalizes a triple and checks it against the closed verb set.
// Blank names and self-loops are rejected.
func validate(t model.Triple) (model.RelationType, string, string, bool) {
	rel, ok := model.ParseRelationType(t.Rel)
	if !ok {
		return "", "", "", false
	}
	source := strings.TrimSpace(t.Source)
	target := strings.TrimSpace(t.Target)
	if source == "" || target == "" || strings.EqualFold(source, target) {
		return "", "", "", false
	}
	return rel, source, target, true
}
