package config

// PromptsConfig holds the fmt templates for each generation call. Any of
// them can be replaced from the [prompts] table of the TOML file; the
// verbs must stay in the same order.
type PromptsConfig struct {
	// Strategist takes the output schema, then the bounded transcript.
	Strategist string `toml:"strategist"`
	// ScoutSystem is the system persona sent with every research question.
	ScoutSystem string `toml:"scout_system"`
	// Architect takes the bounded transcript, the dossier, then the output schema.
	Architect string `toml:"architect"`
	// Refiner takes the bounded strategy content.
	Refiner string `toml:"refiner"`
}

const defaultStrategistPrompt = `You are a cynical, high-level CTO. Review this transcript for a technical business.

Your Goal: Identify 3-5 "Critical Failure Points" or "Implementation Blockers."

CRITICAL INSTRUCTION - AUDIO CLEANUP:
The transcript is from YouTube auto-captions and may have phonetic errors.
- If you see "JLM", it likely means "GLM" (General Language Model).
- If you see "Lama", it likely means "Llama".
- If you see "OpenAI Opus", CORRECT IT to "Claude 3 Opus" or "GPT-4o" based on context.
- USE THE CORRECT TECHNICAL TERMS in your search queries.

Focus on:
1. UNDOCUMENTED COSTS (API pricing, tokens).
2. PLATFORM RISK (Reliance on specific providers).
3. TECHNICAL LIMITS (Context window, latency).

Return JSON matching this schema:
%s

Example:
{"research_questions": ["Query 1", "Query 2"]}

Transcript:
%s
`

const defaultScoutSystem = "You are a concise technical researcher."

const defaultArchitectPrompt = `Context: ProfitGraph Business Strategy.
Input 1: Transcript (User Content)
%s...
Input 2: Verified Research (External Validation)
%s

Task:
1. Create a "Profit Synergy Brief" (Markdown).
2. Extract KEY ENTITIES as a structured list:
   - Models (LLMs like GPT-4, Claude, Llama)
   - Interfaces (IDEs, SaaS, wrappers like Cursor, Whisper Flow)
   - Frameworks (LangChain, OMI, Supabase)
   - Risks (Business, Tech, Vendor lock-in, Costs)
   - Actions (Implementation steps)
3. Generate a SMART FILENAME (snake_case).

Return JSON matching this schema:
%s

Example:
{
  "filename": "smart_name.md",
  "content": "# Markdown Report...",
  "marketing": {"viral_tweet": "280 char hook...", "linkedin": "Bullet points..."},
  "entities": [
    {"type": "Tool", "name": "Supabase", "detail": "Database"},
    {"type": "Risk", "name": "API Cost", "detail": "High at scale"}
  ]
}
`

const defaultRefinerPrompt = `Analyze this tech strategy brief.
Identify technical relationships between tools/concepts mentioned.

Return a JSON list of relationships using these specific verbs:
- "INTEGRATES_WITH" (e.g. IDE uses Model)
- "RUNS_ON" (e.g. App runs on Cloud)
- "COMPETES_WITH" (e.g. Claude vs GPT-4)
- "MITIGATES" (e.g. Cache mitigates Latency)

Output Format (Strict JSON):
[
  {"source": "Cursor", "target": "Claude 3.5", "rel": "INTEGRATES_WITH"},
  {"source": "Supabase", "target": "Firebase", "rel": "COMPETES_WITH"}
]

Text:
%s
`

// DefaultPrompts returns the built-in templates.
func DefaultPrompts() PromptsConfig {
	return PromptsConfig{
		Strategist:  defaultStrategistPrompt,
		ScoutSystem: defaultScoutSystem,
		Architect:   defaultArchitectPrompt,
		Refiner:     defaultRefinerPrompt,
	}
}

// withDefaults fills any template left blank by the file.
func (p PromptsConfig) withDefaults() PromptsConfig {
	d := DefaultPrompts()
	if p.Strategist == "" {
		p.Strategist = d.Strategist
	}
	if p.ScoutSystem == "" {
		p.ScoutSystem = d.ScoutSystem
	}
	if p.Architect == "" {
		p.Architect = d.Architect
	}
	if p.Refiner == "" {
		p.Refiner = d.Refiner
	}
	return p
}
