// Package llm provides the judgment-service client abstraction. The only
// implemented provider is Google Gemini; the interface keeps the
// classifier decoupled from the SDK.
package llm

// ModelTier selects the capability level for a call.
type ModelTier string

const (
	// TierLite is for trivial extraction tasks.
	TierLite ModelTier = "lite"
	// TierStandard is for structured classification with reasoning.
	TierStandard ModelTier = "standard"
	// TierAdvanced is for the hardest judgment calls.
	TierAdvanced ModelTier = "advanced"
)

// Config holds model selection and sampling settings.
type Config struct {
	Models map[ModelTier]string
	// Temperature applies to every call. Moderate values keep the N
	// classification runs independent enough for a meaningful vote.
	Temperature float32
}

// DefaultConfig returns the default Gemini model mapping.
func DefaultConfig() *Config {
	return &Config{
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Temperature: 0.3,
	}
}

// GetModel returns the model for a tier, falling back to standard then
// lite when the tier is not configured.
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	return c.Models[TierLite]
}

// WithModel returns a copy of the config with one tier overridden.
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	cp := &Config{Models: make(map[ModelTier]string, len(c.Models)), Temperature: c.Temperature}
	for k, v := range c.Models {
		cp.Models[k] = v
	}
	cp.Models[tier] = model
	return cp
}
