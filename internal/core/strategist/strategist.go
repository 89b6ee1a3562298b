package strategist

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthands/profitgraph/internal/artifacts"
	"github.com/agenthands/profitgraph/internal/core/common"
	"github.com/agenthands/profitgraph/internal/core/model"
	"github.com/agenthands/profitgraph/internal/llm"
	"github.com/agenthands/profitgraph/internal/logger"
)

const (
	stage   = "strategist"
	section = "STRATEGIST_OUTPUT"
)

// Strategist turns a transcript into a short list of research questions.
type Strategist struct {
	LLM          llm.LLMClient
	Prompt       string
	MaxChars     int
	MaxQuestions int
	Debug        *artifacts.DebugLog
	Log          *logger.Logger
}

func NewStrategist(client llm.LLMClient, prompt string, maxChars, maxQuestions int, debug *artifacts.DebugLog, log *logger.Logger) *Strategist {
	if log == nil {
		log = logger.NewNop()
	}
	return &Strategist{
		LLM:          client,
		Prompt:       prompt,
		MaxChars:     maxChars,
		MaxQuestions: maxQuestions,
		Debug:        debug,
		Log:          log,
	}
}

// Plan returns the research questions for a transcript. On any failure it
// returns an empty list and a StageError; the run continues either way.
func (s *Strategist) Plan(ctx context.Context, transcript, caseID string) ([]string, error) {
	log := s.Log.With("case_id", caseID, "stage", stage)
	log.Info("analyzing transcript for critical risks")

	prompt := fmt.Sprintf(s.Prompt, common.SchemaFor(model.ResearchPlan{}), common.Truncate(transcript, s.MaxChars))

	response, err := s.LLM.Generate(ctx, prompt, llm.WithJSON())
	if err != nil {
		log.Warn("generation failed", "error", err)
		return []string{}, common.Wrap(stage, common.KindTransport, err)
	}

	questions, err := decodePlan(response)
	if err != nil {
		log.Warn("plan parse failed", "error", err)
		s.record(caseID, response)
		return []string{}, common.Wrap(stage, common.KindParse, err)
	}

	questions = s.normalize(questions)
	s.record(caseID, model.ResearchPlan{ResearchQuestions: questions})
	log.Info("research plan ready", "questions", len(questions))
	return questions, nil
}

// decodePlan accepts {"research_questions": [...]}, the legacy
// {"questions": [...]} and a bare list.
func decodePlan(response string) ([]string, error) {
	plan, err := common.ParseJSON[model.LegacyPlan](response)
	if err == nil {
		return plan.All(), nil
	}
	list, listErr := common.ParseJSON[[]string](response)
	if listErr == nil {
		return list, nil
	}
	return nil, err
}

func (s *Strategist) normalize(questions []string) []string {
	out := make([]string, 0, len(questions))
	for _, q := range questions {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		out = append(out, q)
		if s.MaxQuestions > 0 && len(out) == s.MaxQuestions {
			break
		}
	}
	return out
}

func (s *Strategist) record(caseID string, content any) {
	if s.Debug == nil {
		return
	}
	if err := s.Debug.Write(caseID, section, content); err != nil {
		s.Log.Warn("debug log write failed", "case_id", caseID, "error", err)
	}
}
