package ouro

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ResolveOptions controls one resolution pass.
type ResolveOptions struct {
	// SubmitResultForCompletion submits the whole document after its
	// directives are resolved and appends the result. Default: false.
	SubmitResultForCompletion bool

	// NewElementName labels the appended generated element. Default: "".
	NewElementName string

	// HaltAfterFirstComplete stops after one directive resolved. Default: false.
	HaltAfterFirstComplete bool

	// Concurrency bounds how many sibling directives resolve at once.
	// 0 uses the fragment default; 1 is sequential. Ignored when
	// HaltAfterFirstComplete is set.
	Concurrency int
}

// DefaultResolveOptions returns the zero-valued pass configuration
func DefaultResolveOptions() *ResolveOptions {
	return &ResolveOptions{}
}

// FragmentOption configures a Fragment.
type FragmentOption func(*Fragment)

// WithFragmentLogger sets the logger. Default: no logging.
func WithFragmentLogger(logger *zap.Logger) FragmentOption {
	return func(f *Fragment) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithFragmentHooks sets the hook registry shared with sub-documents.
func WithFragmentHooks(hooks *HookRegistry) FragmentOption {
	return func(f *Fragment) {
		f.hooks = hooks
	}
}

// WithFragmentCompletionOptions sets the options passed on every completion call.
func WithFragmentCompletionOptions(opts *CompletionOptions) FragmentOption {
	return func(f *Fragment) {
		f.completionOpts = opts.Clone()
	}
}

// WithFragmentTokenBudget rejects submissions that would not fit the budget.
func WithFragmentTokenBudget(budget *TokenBudget) FragmentOption {
	return func(f *Fragment) {
		f.budget = budget
	}
}

// WithFragmentConcurrency sets the default sibling concurrency.
func WithFragmentConcurrency(n int) FragmentOption {
	return func(f *Fragment) {
		f.concurrency = n
	}
}

// Fragment owns an ordered element sequence: either a whole document or a
// transient sub-document built to resolve one directive.
//
// A Fragment is not safe for concurrent use. After a failed resolution the
// document may hold directives left in ResolveStateResolving and must be
// discarded.
type Fragment struct {
	elements       []Element
	completer      CompletionService
	completionOpts *CompletionOptions
	hooks          *HookRegistry
	budget         *TokenBudget
	concurrency    int
	depth          int
	logger         *zap.Logger
}

// NewFragment wraps elements without running the prompt finder.
func NewFragment(elements []Element, completer CompletionService, opts ...FragmentOption) *Fragment {
	f := &Fragment{
		elements:  elements,
		completer: completer,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewDocument parses markup (with optional frontmatter), ensures it has a
// prompt and wraps it in a top-level Fragment. Completion options from the
// frontmatter are applied on top of any passed via options.
func NewDocument(markup string, completer CompletionService, opts ...FragmentOption) (*Fragment, error) {
	f := NewFragment(nil, completer, opts...)

	src, err := parseDocumentSource([]byte(markup), f.logger)
	if err != nil {
		return nil, err
	}
	elements, err := EnsurePrompt(src.Elements)
	if err != nil {
		return nil, err
	}
	if len(src.Elements) > 0 && FindPrompt(src.Elements) < 0 {
		f.logger.Debug(LogMsgPromptGrafted, zap.Int(LogFieldElements, len(elements)))
	}

	f.elements = elements
	if src.Meta.Completion != nil {
		f.completionOpts = f.completionOpts.Merge(src.Meta.Completion)
	}
	return f, nil
}

// spawn creates a sub-document bound to the same collaborators
func (f *Fragment) spawn(elements []Element) *Fragment {
	return &Fragment{
		elements:       elements,
		completer:      f.completer,
		completionOpts: f.completionOpts,
		hooks:          f.hooks,
		budget:         f.budget,
		concurrency:    f.concurrency,
		depth:          f.depth + 1,
		logger:         f.logger,
	}
}

// Elements returns the current element sequence. Callers must not modify it.
func (f *Fragment) Elements() []Element {
	return f.elements
}

// Len returns the number of elements
func (f *Fragment) Len() int { return len(f.elements) }

// Depth returns the nesting depth (0 for a top-level document)
func (f *Fragment) Depth() int { return f.depth }

// CompletionService returns the bound completion service
func (f *Fragment) CompletionService() CompletionService { return f.completer }

// String linearizes the document. Resolved directives contribute their
// generated output at their position; pending ones contribute nothing.
// A non-empty Prompt, explicit or grafted, is followed by "\n" unless its
// content already ends with one.
func (f *Fragment) String() string {
	return RenderElements(f.elements)
}

// EstimateTokens estimates the token count of the linearized document
func (f *Fragment) EstimateTokens() *TokenEstimate {
	return EstimateTokens(f.String())
}

// Pending returns the directives still in ResolveStateUnresolved, in order
func (f *Fragment) Pending() []*ResolveElement {
	var out []*ResolveElement
	for _, el := range f.elements {
		if r, ok := el.(*ResolveElement); ok && r.State == ResolveStateUnresolved {
			out = append(out, r)
		}
	}
	return out
}

// Resolve resolves the document's pending directives.
//
// The worklist is taken before any work starts, so elements created during
// the pass are not processed by it. Each directive is resolved by a
// sub-document that is itself fully resolved and submitted. Completion
// errors are returned unchanged.
func (f *Fragment) Resolve(ctx context.Context, opts *ResolveOptions) error {
	if opts == nil {
		opts = DefaultResolveOptions()
	}

	pending := f.Pending()
	concurrency := opts.Concurrency
	if concurrency == 0 {
		concurrency = f.concurrency
	}

	f.logger.Debug(LogMsgResolveStart,
		zap.Int(LogFieldDepth, f.depth),
		zap.Int(LogFieldPending, len(pending)),
		zap.Int(LogFieldConcurrency, concurrency))

	switch {
	case opts.HaltAfterFirstComplete:
		if len(pending) > 0 {
			if err := f.resolveElement(ctx, pending[0]); err != nil {
				return err
			}
			if len(pending) > 1 {
				f.logger.Debug(LogMsgResolveHalted, zap.Int(LogFieldPending, len(pending)-1))
			}
		}
	case concurrency > 1 && len(pending) > 1:
		if err := f.resolveConcurrent(ctx, pending, concurrency); err != nil {
			return err
		}
	default:
		for _, el := range pending {
			if err := f.resolveElement(ctx, el); err != nil {
				return err
			}
		}
	}

	f.logger.Debug(LogMsgResolveEnd, zap.Int(LogFieldDepth, f.depth))

	if opts.SubmitResultForCompletion {
		if _, err := f.SubmitAndAppend(ctx, opts.NewElementName); err != nil {
			return err
		}
	}
	return nil
}

// ResolveNext resolves exactly one pending directive without submitting.
// It reports whether a directive was resolved.
func (f *Fragment) ResolveNext(ctx context.Context) (bool, error) {
	if len(f.Pending()) == 0 {
		return false, nil
	}
	if err := f.Resolve(ctx, &ResolveOptions{HaltAfterFirstComplete: true}); err != nil {
		return false, err
	}
	return true, nil
}

// ResolveAndSubmit resolves every pending directive, submits the document
// and returns the appended generated element.
func (f *Fragment) ResolveAndSubmit(ctx context.Context, newElementName string) (*TextElement, error) {
	err := f.Resolve(ctx, &ResolveOptions{
		SubmitResultForCompletion: true,
		NewElementName:            newElementName,
	})
	if err != nil {
		return nil, err
	}
	return f.LastGenerated(), nil
}

// SubmitAndAppend sends the linearized document to the completion service
// and appends the result as a generated TextElement labelled newElementName.
func (f *Fragment) SubmitAndAppend(ctx context.Context, newElementName string) (*TextElement, error) {
	if f.completer == nil {
		return nil, NewNoCompletionServiceError()
	}

	text := f.String()
	if err := f.budget.check(text); err != nil {
		return nil, err
	}

	data := submitHookData(f.depth, text)
	if err := f.hooks.Run(ctx, HookBeforeSubmit, data); err != nil {
		return nil, err
	}

	f.logger.Debug(LogMsgSubmitStart,
		zap.Int(LogFieldDepth, f.depth),
		zap.Int(LogFieldLength, len(text)))

	result, err := f.completer.Complete(ctx, text, f.completionOpts)
	_ = f.hooks.Run(ctx, HookAfterSubmit, data.finish(result, err))
	if err != nil {
		return nil, err
	}

	el := NewGeneratedTextElement(newElementName, result)
	f.elements = append(f.elements, el)

	f.logger.Debug(LogMsgSubmitEnd,
		zap.Int(LogFieldDepth, f.depth),
		zap.Int(LogFieldLength, len(result)))
	return el, nil
}

// LastGenerated returns the most recently appended generated TextElement, or nil
func (f *Fragment) LastGenerated() *TextElement {
	for i := len(f.elements) - 1; i >= 0; i-- {
		if t, ok := f.elements[i].(*TextElement); ok && t.IsGenerated {
			return t
		}
	}
	return nil
}

// LastGeneratedText returns the content of LastGenerated, or ""
func (f *Fragment) LastGeneratedText() string {
	if el := f.LastGenerated(); el != nil {
		return el.Content
	}
	return ""
}

// Fold replaces every resolved directive with a generated TextElement
// holding its output and returns how many were folded. A folded document
// renders identically but can no longer be re-resolved.
func (f *Fragment) Fold() int {
	folded := 0
	for i, el := range f.elements {
		r, ok := el.(*ResolveElement)
		if !ok || !r.IsResolved() {
			continue
		}
		f.elements[i] = NewGeneratedTextElement(r.ID, r.GeneratedOutput)
		folded++
	}
	if folded > 0 {
		f.logger.Debug(LogMsgFolded, zap.Int(LogFieldFolded, folded))
	}
	return folded
}

func (f *Fragment) indexOf(target *ResolveElement) int {
	for i, el := range f.elements {
		if r, ok := el.(*ResolveElement); ok && r == target {
			return i
		}
	}
	return -1
}

// resolveElement walks one directive through Unresolved -> Resolving -> Resolved
func (f *Fragment) resolveElement(ctx context.Context, el *ResolveElement) error {
	index := f.indexOf(el)
	data := resolveHookData(f.depth, index, el)
	if err := f.hooks.Run(ctx, HookBeforeResolve, data); err != nil {
		return err
	}

	f.logger.Debug(LogMsgElementResolving,
		zap.Int(LogFieldDepth, f.depth),
		zap.Int(LogFieldIndex, index),
		zap.String(LogFieldElementID, el.ID))

	el.State = ResolveStateResolving
	output, err := f.runSubFragment(ctx, el)
	if err != nil {
		_ = f.hooks.Run(ctx, HookAfterResolve, data.finish("", err))
		return err
	}

	f.writeBack(el, index, output)
	_ = f.hooks.Run(ctx, HookAfterResolve, data.finish(output, nil))
	return nil
}

// runSubFragment builds and fully resolves the sub-document for el
func (f *Fragment) runSubFragment(ctx context.Context, el *ResolveElement) (string, error) {
	child, err := BuildSubFragment(f, el)
	if err != nil {
		return "", err
	}
	return child.resolveAsChild(ctx, el.ID)
}

func (f *Fragment) resolveAsChild(ctx context.Context, label string) (string, error) {
	generated, err := f.ResolveAndSubmit(ctx, label)
	if err != nil {
		return "", err
	}
	return generated.Content, nil
}

func (f *Fragment) writeBack(el *ResolveElement, index int, output string) {
	el.GeneratedOutput = output
	el.State = ResolveStateResolved
	f.logger.Debug(LogMsgElementResolved,
		zap.Int(LogFieldDepth, f.depth),
		zap.Int(LogFieldIndex, index),
		zap.Int(LogFieldLength, len(output)))
}

// resolveConcurrent resolves sibling directives in parallel. Every
// sub-document is built before any result is written back, so each sees
// the parent as it was when the pass started. Write-back happens on the
// calling goroutine, in document order, after all workers finished.
func (f *Fragment) resolveConcurrent(ctx context.Context, pending []*ResolveElement, limit int) error {
	indices := make([]int, len(pending))
	hookData := make([]*HookData, len(pending))
	for i, el := range pending {
		indices[i] = f.indexOf(el)
		hookData[i] = resolveHookData(f.depth, indices[i], el)
		if err := f.hooks.Run(ctx, HookBeforeResolve, hookData[i]); err != nil {
			return err
		}
	}

	for _, el := range pending {
		el.State = ResolveStateResolving
	}

	children := make([]*Fragment, len(pending))
	for i, el := range pending {
		child, err := BuildSubFragment(f, el)
		if err != nil {
			return err
		}
		children[i] = child
	}

	outputs := make([]string, len(pending))
	errs := make([]error, len(pending))
	done := make([]bool, len(pending))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, child := range children {
		g.Go(func() error {
			out, err := child.resolveAsChild(gctx, pending[i].ID)
			if err != nil {
				errs[i] = err
				return err
			}
			outputs[i], done[i] = out, true
			return nil
		})
	}
	waitErr := g.Wait()

	for i, el := range pending {
		if !done[i] {
			_ = f.hooks.Run(ctx, HookAfterResolve, hookData[i].finish("", errs[i]))
			continue
		}
		f.writeBack(el, indices[i], outputs[i])
		_ = f.hooks.Run(ctx, HookAfterResolve, hookData[i].finish(outputs[i], nil))
	}
	return waitErr
}
