package classify

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/jonathan/tune-scout/internal/llm"
	"github.com/jonathan/tune-scout/internal/types"
)

//go:embed run_schema.json
var runSchemaJSON string

// Judge issues one classification call covering all candidates of a hymn.
// The pipeline depends on this interface so tests can substitute a fake.
type Judge interface {
	Classify(ctx context.Context, hymn *types.Hymn) (types.ClassificationRun, error)
}

// GeminiJudge implements Judge on the LLM client. Every response is
// validated against the embedded JSON schema before use, and any slug the
// service invents is discarded.
type GeminiJudge struct {
	client llm.Client
	tier   llm.ModelTier
	schema *gojsonschema.Schema
	log    *zap.Logger
}

// NewGeminiJudge creates a judge using the given client and tier.
func NewGeminiJudge(client llm.Client, tier llm.ModelTier, log *zap.Logger) (*GeminiJudge, error) {
	if log == nil {
		log = zap.NewNop()
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(runSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to compile classification schema: %w", err)
	}
	return &GeminiJudge{client: client, tier: tier, schema: schema, log: log}, nil
}

// Classify runs a single classification call for one hymn.
func (j *GeminiJudge) Classify(ctx context.Context, hymn *types.Hymn) (types.ClassificationRun, error) {
	prompt := buildPrompt(hymn)

	responseText, err := j.client.GenerateJSON(ctx, prompt, j.tier)
	if err != nil {
		return types.ClassificationRun{}, &Error{Message: "judgment service call failed", Cause: err}
	}

	run, err := j.parseRun(responseText, hymn)
	if err != nil {
		return types.ClassificationRun{}, err
	}
	return run, nil
}

// parseRun validates and decodes one raw response payload.
func (j *GeminiJudge) parseRun(responseText string, hymn *types.Hymn) (types.ClassificationRun, error) {
	responseText = llm.CleanJSONBlock(responseText)
	if strings.TrimSpace(responseText) == "" {
		return types.ClassificationRun{}, &Error{Message: "judgment service returned an empty response"}
	}

	result, err := j.schema.Validate(gojsonschema.NewStringLoader(responseText))
	if err != nil {
		return types.ClassificationRun{}, &Error{Message: "response is not valid JSON", Cause: err}
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return types.ClassificationRun{}, &Error{
			Message: fmt.Sprintf("response failed schema validation: %s", strings.Join(details, "; ")),
		}
	}

	var run types.ClassificationRun
	if err := json.Unmarshal([]byte(responseText), &run); err != nil {
		return types.ClassificationRun{}, &Error{Message: "failed to decode response", Cause: err}
	}

	// Requested slugs only; anything else is the model hallucinating.
	known := make(map[string]struct{})
	for _, slug := range hymn.CandidateSlugs() {
		known[slug] = struct{}{}
	}
	kept := run.Classifications[:0]
	for _, clf := range run.Classifications {
		if _, ok := known[clf.TuneSlug]; ok {
			kept = append(kept, clf)
			continue
		}
		j.log.Warn("discarding verdict for unknown tune slug",
			zap.String("hymn_key", hymn.HymnKey),
			zap.String("tune_slug", clf.TuneSlug))
	}
	run.Classifications = kept

	if len(run.Classifications) == 0 {
		return types.ClassificationRun{}, &Error{Message: "response contained no verdicts for the requested tunes"}
	}
	return run, nil
}
