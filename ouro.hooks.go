package ouro

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// HookPoint names a step of the resolution lifecycle.
type HookPoint string

const (
	// HookBeforeResolve runs before a directive's sub-document is built.
	HookBeforeResolve HookPoint = "before_resolve"

	// HookAfterResolve runs once a directive finished, successfully or not.
	HookAfterResolve HookPoint = "after_resolve"

	// HookBeforeSubmit runs before a document is sent for completion.
	HookBeforeSubmit HookPoint = "before_submit"

	// HookAfterSubmit runs once the completion call returned.
	HookAfterSubmit HookPoint = "after_submit"
)

// IsBefore reports whether an error from a hook at p aborts the step.
func (p HookPoint) IsBefore() bool {
	return p == HookBeforeResolve || p == HookBeforeSubmit
}

// Hook observes or vetoes a lifecycle step. Only errors returned at a
// before point have an effect.
type Hook func(ctx context.Context, point HookPoint, data *HookData) error

// HookData describes the step a hook is called for. The same value is
// passed to the before and after hooks of one step, so hooks can hand
// values forward with Set and Get.
type HookData struct {
	// Depth is 0 for the top-level document.
	Depth int

	// Index and Element locate the directive; -1 and nil for submit steps.
	Index   int
	Element *ResolveElement

	// Text is the serialized document being submitted (submit steps).
	Text string

	// Result and Error are the outcome, set for after hooks.
	Result string
	Error  error

	values map[string]any
}

func resolveHookData(depth, index int, el *ResolveElement) *HookData {
	return &HookData{Depth: depth, Index: index, Element: el}
}

func submitHookData(depth int, text string) *HookData {
	return &HookData{Depth: depth, Index: -1, Text: text}
}

func (d *HookData) finish(result string, err error) *HookData {
	d.Result, d.Error = result, err
	return d
}

// ElementID returns the id of the directive, or "" for submit steps.
func (d *HookData) ElementID() string {
	if d.Element == nil {
		return ""
	}
	return d.Element.ID
}

// Set stores a value for later hooks of the same step.
func (d *HookData) Set(key string, value any) {
	if d.values == nil {
		d.values = make(map[string]any)
	}
	d.values[key] = value
}

// Get returns a value stored with Set.
func (d *HookData) Get(key string) (any, bool) {
	v, ok := d.values[key]
	return v, ok
}

// HookRegistry holds hooks by point. A document and every sub-document
// spawned from it share one registry; a nil registry runs nothing.
type HookRegistry struct {
	mu    sync.RWMutex
	hooks map[HookPoint][]Hook
}

// NewHookRegistry creates an empty registry.
func NewHookRegistry() *HookRegistry {
	return &HookRegistry{hooks: make(map[HookPoint][]Hook)}
}

// Register adds hook at each of points, after any hooks already there.
func (r *HookRegistry) Register(hook Hook, points ...HookPoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range points {
		r.hooks[p] = append(r.hooks[p], hook)
	}
}

// Reset drops the hooks at points, or every hook when none are given.
func (r *HookRegistry) Reset(points ...HookPoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(points) == 0 {
		r.hooks = make(map[HookPoint][]Hook)
		return
	}
	for _, p := range points {
		delete(r.hooks, p)
	}
}

// Len returns how many hooks are registered at point.
func (r *HookRegistry) Len(point HookPoint) int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.hooks[point])
}

// Run calls the hooks at point in registration order. At a before point
// the first error stops the run and is returned as a *HookError; at an
// after point errors are dropped.
func (r *HookRegistry) Run(ctx context.Context, point HookPoint, data *HookData) error {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	hooks := r.hooks[point]
	r.mu.RUnlock()

	for _, hook := range hooks {
		err := hook(ctx, point, data)
		if err != nil && point.IsBefore() {
			return &HookError{Point: point, ElementID: data.ElementID(), Cause: err}
		}
	}
	return nil
}

// LoggingHook logs every step it is registered for at debug level.
func LoggingHook(logger *zap.Logger) Hook {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, point HookPoint, data *HookData) error {
		fields := []zap.Field{
			zap.String(LogFieldHookPoint, string(point)),
			zap.Int(LogFieldDepth, data.Depth),
		}
		if data.Element != nil {
			fields = append(fields, zap.Int(LogFieldIndex, data.Index), zap.String(LogFieldElementID, data.Element.ID))
		}
		if data.Text != "" {
			fields = append(fields, zap.Int(LogFieldLength, len(data.Text)))
		}
		if data.Error != nil {
			fields = append(fields, zap.Error(data.Error))
		}
		logger.Debug(LogMsgHookStep, fields...)
		return nil
	}
}

const hookStartKey = "ouro.hook.start"

// TimingHook returns a hook that stamps the start of each step at its
// before point, and a function reporting the time since that stamp.
func TimingHook() (Hook, func(*HookData) time.Duration) {
	hook := func(ctx context.Context, point HookPoint, data *HookData) error {
		if point.IsBefore() {
			data.Set(hookStartKey, time.Now())
		}
		return nil
	}

	elapsed := func(data *HookData) time.Duration {
		v, ok := data.Get(hookStartKey)
		if !ok {
			return 0
		}
		start, ok := v.(time.Time)
		if !ok {
			return 0
		}
		return time.Since(start)
	}
	return hook, elapsed
}

// HookError is returned when a before hook vetoes a step.
type HookError struct {
	Point     HookPoint
	ElementID string
	Cause     error
}

func (e *HookError) Error() string {
	if e.ElementID != "" {
		return fmt.Sprintf(FmtHookErrorElement, ErrMsgHookFailed, e.Point, e.ElementID, e.Cause)
	}
	return fmt.Sprintf(FmtHookError, ErrMsgHookFailed, e.Point, e.Cause)
}

func (e *HookError) Unwrap() error {
	return e.Cause
}
