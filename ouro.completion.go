package ouro

import "context"

// CompletionOptions tunes a single completion call. Nil pointer fields and
// zero values mean "use the service default".
type CompletionOptions struct {
	Model       string   `yaml:"model,omitempty" json:"model,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty" json:"temperature,omitempty"`
	MaxTokens   int      `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty"`
	Stop        []string `yaml:"stop,omitempty" json:"stop,omitempty"`
}

// Clone returns a deep copy of the options
func (o *CompletionOptions) Clone() *CompletionOptions {
	if o == nil {
		return nil
	}
	c := *o
	if o.Temperature != nil {
		t := *o.Temperature
		c.Temperature = &t
	}
	if o.Stop != nil {
		c.Stop = append([]string(nil), o.Stop...)
	}
	return &c
}

// Merge returns a copy of o with every field set in override applied on top
func (o *CompletionOptions) Merge(override *CompletionOptions) *CompletionOptions {
	if override == nil {
		return o.Clone()
	}
	out := o.Clone()
	if out == nil {
		return override.Clone()
	}
	if override.Model != "" {
		out.Model = override.Model
	}
	if override.Temperature != nil {
		t := *override.Temperature
		out.Temperature = &t
	}
	if override.MaxTokens > 0 {
		out.MaxTokens = override.MaxTokens
	}
	if len(override.Stop) > 0 {
		out.Stop = append([]string(nil), override.Stop...)
	}
	return out
}

// CompletionService turns a text prompt into generated text.
// Implementations report transport or service failures as errors matching
// ErrCompletion; callers never retry.
type CompletionService interface {
	Complete(ctx context.Context, text string, opts *CompletionOptions) (string, error)
}

// CompletionFunc adapts a plain function to CompletionService
type CompletionFunc func(ctx context.Context, text string, opts *CompletionOptions) (string, error)

// Complete calls f
func (f CompletionFunc) Complete(ctx context.Context, text string, opts *CompletionOptions) (string, error) {
	return f(ctx, text, opts)
}
