// Package careerplan asks a language model for a 12-month career plan.
package careerplan

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/campusconnect/api/utils"
	"github.com/campusconnect/api/utils/validation"
)

// MsgGenerationFailed is shown when the model call fails
const MsgGenerationFailed = "AI Model failed to generate a response."

// Temperature used for plan generation
const Temperature = 0.7

const systemInstruction = `You are KarmAI, an expert career guidance counselor for university students. Your goal is to generate a personalized, structured, and actionable 3-step action plan for their next 12 months based on their profile. Use markdown formatting.`

const promptTemplate = `Generate the 3-Step Action Plan. Each step must cover a 4-month period.

**USER PROFILE:**
- **Education:** %s
- **Current Skills:** %s
- **Interests/Fields:** %s
- **Long-Term Goals:** %s

**THE 3-STEP PLAN FORMAT:**
### Step 1: Immediate Focus (Months 1-4)
* **Action:** ...
* **Goal:** ...
* **Why:** ...

### Step 2: Mid-Term Momentum (Months 5-8)
* **Action:** ...
* **Goal:** ...
* **Why:** ...

### Step 3: Long-Term Vision (Months 9-12)
* **Action:** ...
* **Goal:** ...
* **Why:** ...
`

var (
	ErrEmptyProfile  = errors.New("at least one profile field is required")
	ErrNotConfigured = errors.New("career plan generation is not configured")
	ErrGeneration    = errors.New("career plan generation failed")
)

// Profile is the student's self-description
type Profile struct {
	Education string `json:"education" validate:"max=2000"`
	Skills    string `json:"skills" validate:"max=2000"`
	Interests string `json:"interests" validate:"max=2000"`
	Goals     string `json:"goals" validate:"max=2000"`
}

// Completer produces a completion for a system and user prompt
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, options ...Option) (string, error)
}

// Generator builds career plans
type Generator struct {
	llm Completer
	log *utils.Logger
}

// NewGenerator creates a generator; llm may be nil when no key is configured
func NewGenerator(llm Completer, log *utils.Logger) *Generator {
	return &Generator{llm: llm, log: log}
}

// Prompt renders the user prompt for p
func Prompt(p Profile) string {
	return fmt.Sprintf(promptTemplate, p.Education, p.Skills, p.Interests, p.Goals)
}

// Generate returns the markdown plan for p
func (g *Generator) Generate(ctx context.Context, p Profile) (string, error) {
	validation.SanitizeStrings(&p.Education, &p.Skills, &p.Interests, &p.Goals)
	if p.Education == "" && p.Skills == "" && p.Interests == "" && p.Goals == "" {
		return "", ErrEmptyProfile
	}
	if g.llm == nil {
		return "", ErrNotConfigured
	}

	plan, err := g.llm.Complete(ctx, systemInstruction, Prompt(p), WithTemperature(Temperature))
	if err != nil {
		g.log.Error("career plan generation failed", "error", err)
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	plan = strings.TrimSpace(plan)
	if plan == "" {
		return "", ErrGeneration
	}
	return plan, nil
}
