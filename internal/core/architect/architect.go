package architect

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agenthands/profitgraph/internal/artifacts"
	"github.com/agenthands/profitgraph/internal/core/common"
	"github.com/agenthands/profitgraph/internal/core/model"
	"github.com/agenthands/profitgraph/internal/llm"
	"github.com/agenthands/profitgraph/internal/logger"
)

const (
	stage         = "architect"
	section       = "ARCHITECT_OUTPUT"
	agentName     = "Architect"
	PromptVersion = "Entity_Extractor_v1"

	defaultFilename  = "strategy.md"
	fallbackFilename = "strategy_fallback.md"
)

var errEmptyBrief = errors.New("response has no brief content")

// Architect synthesizes the strategy brief and extracts typed entities.
type Architect struct {
	LLM       llm.LLMClient
	Prompt    string
	MaxChars  int
	Briefs    *artifacts.Briefs
	Telemetry *artifacts.Telemetry
	Debug     *artifacts.DebugLog
	Log       *logger.Logger
}

func NewArchitect(client llm.LLMClient, prompt string, maxChars int, store *artifacts.Store, log *logger.Logger) *Architect {
	if log == nil {
		log = logger.NewNop()
	}
	a := &Architect{LLM: client, Prompt: prompt, MaxChars: maxChars, Log: log}
	if store != nil {
		a.Briefs = store.Briefs
		a.Telemetry = store.Telemetry
		a.Debug = store.Debug
	}
	return a
}

// Synthesize builds the brief for one case. A Brief with empty Content
// means there is nothing to sync. A non-nil error next to a non-empty
// Brief means the brief was degraded (fallback text or unsaved file).
func (a *Architect) Synthesize(ctx context.Context, transcript, dossier, caseID string) (model.Brief, error) {
	start := time.Now()
	log := a.Log.With("case_id", caseID, "stage", stage)
	log.Info("synthesizing strategy and extracting entities")

	prompt := fmt.Sprintf(a.Prompt, common.Truncate(transcript, a.MaxChars), dossier, common.SchemaFor(model.ArchitectOutput{}))

	response, err := a.LLM.Generate(ctx, prompt, llm.WithJSON())
	if err != nil {
		log.Error("generation failed", "error", err)
		return model.Brief{}, common.Wrap(stage, common.KindTransport, err)
	}

	cleaned := common.StripFences(response)
	brief := model.Brief{}
	var debugContent any
	var stageErr error

	out, parseErr := decodeOutput(cleaned)
	switch {
	case parseErr != nil:
		log.Warn("json parsing failed, using fallback", "error", parseErr)
		brief.Filename = fallbackFilename
		brief.Content = cleaned
		brief.Fallback = true
		debugContent = cleaned
		stageErr = common.Wrap(stage, common.KindParse, parseErr)
	default:
		brief.Filename = out.Filename
		if strings.TrimSpace(brief.Filename) == "" {
			brief.Filename = defaultFilename
		}
		brief.Content = withMarketing(out.Content, out.Marketing)
		brief.Entities = out.Entities
		debugContent = out
	}

	a.record(caseID, debugContent)

	if strings.TrimSpace(brief.Content) == "" {
		log.Warn("architect produced no brief")
		return model.Brief{}, common.Wrap(stage, common.KindParse, errEmptyBrief)
	}

	name := artifacts.SanitizeFilename(brief.Filename)
	brief.Filename = caseID + "_" + name
	if a.Briefs != nil {
		path, err := a.Briefs.Save(caseID, name, brief.Content)
		if err != nil {
			log.Error("failed to save brief", "error", err)
			stageErr = errors.Join(stageErr, common.Wrap(stage, common.KindIO, err))
		} else {
			brief.Path = path
			log.Info("strategy brief saved", "file", brief.Filename)
		}
	}

	if a.Telemetry != nil {
		a.Telemetry.Record(caseID, agentName, PromptVersion, dossier, brief.Content, time.Since(start))
	}
	return brief, stageErr
}

// decodeOutput parses the response object. A top-level list contributes
// its first element.
func decodeOutput(cleaned string) (model.ArchitectOutput, error) {
	out, err := common.ParseJSON[model.ArchitectOutput](cleaned)
	if err == nil {
		return out, nil
	}
	list, listErr := common.ParseJSON[[]model.ArchitectOutput](cleaned)
	if listErr != nil {
		return model.ArchitectOutput{}, err
	}
	if len(list) == 0 {
		return model.ArchitectOutput{}, errors.New("empty response list")
	}
	return list[0], nil
}

func withMarketing(content string, m *model.Marketing) string {
	if m.Empty() {
		return content
	}
	return content + "\n\n## Marketing Assets\n**Viral Tweet:** " + m.ViralTweet + "\n\n**LinkedIn:**\n" + m.LinkedIn
}

func (a *Architect) record(caseID string, content any) {
	if a.Debug == nil {
		return
	}
	if err := a.Debug.Write(caseID, section, content); err != nil {
		a.Log.Warn("debug log write failed", "case_id", caseID, "error", err)
	}
}
