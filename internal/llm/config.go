// Package llm wraps the Gemini API for structured extraction of care home
// attributes from directory listing and website text.
package llm

// Task identifies one extraction task. Models are chosen per task so the
// high-volume listing pass can run on a cheaper model than the narrative
// pass over a home's own website.
type Task string

const (
	// TaskListing extracts factual attributes from a directory listing.
	TaskListing Task = "listing"
	// TaskNarrative extracts lifestyle detail from a home's own website.
	TaskNarrative Task = "narrative"
)

// Config maps extraction tasks to Gemini model names.
type Config struct {
	Models map[Task]string
	// Temperature applies to all generation. Extraction wants it near zero.
	Temperature float32
}

// DefaultConfig returns the packaged task-to-model mapping.
func DefaultConfig() *Config {
	return &Config{
		Models: map[Task]string{
			TaskListing:   "gemini-2.5-flash-lite",
			TaskNarrative: "gemini-2.5-flash",
		},
		Temperature: 0.1,
	}
}

// ModelFor returns the model name configured for a task. A task without
// its own entry falls back to the listing model; an empty result means
// nothing is configured at all.
func (c *Config) ModelFor(task Task) string {
	if model, ok := c.Models[task]; ok {
		return model
	}
	if model, ok := c.Models[TaskListing]; ok {
		return model
	}
	return ""
}

// WithModel returns a copy of the Config with one task's model replaced.
// The receiver is not modified.
func (c *Config) WithModel(task Task, model string) *Config {
	clone := &Config{
		Models:      make(map[Task]string, len(c.Models)+1),
		Temperature: c.Temperature,
	}
	for k, v := range c.Models {
		clone.Models[k] = v
	}
	clone.Models[task] = model
	return clone
}
