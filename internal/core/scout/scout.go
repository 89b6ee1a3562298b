package scout

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/agenthands/profitgraph/internal/artifacts"
	"github.com/agenthands/profitgraph/internal/core/common"
	"github.com/agenthands/profitgraph/internal/core/model"
	"github.com/agenthands/profitgraph/internal/logger"
	"github.com/agenthands/profitgraph/internal/research"
)

const (
	stage     = "scout"
	section   = "SCOUT_FINDINGS"
	separator = "\n---\n"

	// StatusPlaceholder replaces the answer when the research API
	// returns a non-success status.
	StatusPlaceholder = "API Error"
)

// Scout runs one research request per question and assembles the dossier.
type Scout struct {
	Client      research.Client
	Concurrency int
	Debug       *artifacts.DebugLog
	Log         *logger.Logger
}

func NewScout(client research.Client, concurrency int, debug *artifacts.DebugLog, log *logger.Logger) *Scout {
	if log == nil {
		log = logger.NewNop()
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Scout{Client: client, Concurrency: concurrency, Debug: debug, Log: log}
}

// Research answers every question in plan. A failed question keeps its
// block with a placeholder answer. The returned error only reports that
// some answers are placeholders; the dossier is always usable.
func (s *Scout) Research(ctx context.Context, plan any, caseID string) (string, error) {
	questions := Questions(plan)
	if len(questions) == 0 {
		return "", nil
	}

	log := s.Log.With("case_id", caseID, "stage", stage)
	log.Info("executing research plan", "queries", len(questions), "concurrency", s.Concurrency)

	answers := make([]string, len(questions))
	var failed atomic.Int32

	var g errgroup.Group
	g.SetLimit(s.Concurrency)
	for i, q := range questions {
		g.Go(func() error {
			log.Debug("searching", "query", common.Truncate(q, 40))
			answer, err := s.Client.Ask(ctx, q)
			if err != nil {
				failed.Add(1)
				answer = placeholder(err)
				log.Warn("research request failed", "query", common.Truncate(q, 40), "error", err)
			}
			answers[i] = answer
			return nil
		})
	}
	_ = g.Wait()

	blocks := make([]string, len(questions))
	for i, q := range questions {
		blocks[i] = fmt.Sprintf("Q: %s\nA: %s\n", q, answers[i])
	}
	dossier := strings.Join(blocks, separator)

	if s.Debug != nil {
		if err := s.Debug.Write(caseID, section, dossier); err != nil {
			log.Warn("debug log write failed", "error", err)
		}
	}

	if n := failed.Load(); n > 0 {
		return dossier, common.Wrap(stage, common.KindTransport,
			fmt.Errorf("%d of %d research requests failed", n, len(questions)))
	}
	return dossier, nil
}

func placeholder(err error) string {
	if research.IsStatusError(err) {
		return StatusPlaceholder
	}
	return err.Error()
}

// Questions extracts the question list from the shapes a plan arrives in:
// a string slice, a ResearchPlan, a LegacyPlan, a decoded JSON object with
// research_questions (or the legacy questions key), or a decoded JSON list.
// Anything else yields no questions.
func Questions(plan any) []string {
	switch p := plan.(type) {
	case []string:
		return p
	case model.ResearchPlan:
		return p.ResearchQuestions
	case *model.ResearchPlan:
		if p == nil {
			return nil
		}
		return p.ResearchQuestions
	case model.LegacyPlan:
		return p.All()
	case []any:
		return stringify(p)
	case map[string]any:
		if qs := asList(p["research_questions"]); len(qs) > 0 {
			return qs
		}
		return asList(p["questions"])
	}
	return nil
}

func asList(v any) []string {
	switch l := v.(type) {
	case []string:
		return l
	case []any:
		return stringify(l)
	}
	return nil
}

func stringify(items []any) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
			continue
		}
		out = append(out, fmt.Sprint(item))
	}
	return out
}
