// Package detect synthesizes passive trigger events from free-text input.
//
// Detection is advisory. The detector never changes the conversation mode and never
// mutates the context: it proposes events for the dispatcher and returns the
// iteration-count increments as action records for the caller to apply.
package detect

import (
	"fmt"
	"regexp"

	"github.com/aretw0/apc/pkg/domain"
)

// DefaultRethinkPatterns signal dissatisfaction with the current design.
var DefaultRethinkPatterns = []string{
	`flow.*(wrong|off|bad)`,
	`rethink.*(ux|design|flow)`,
	`doesn['’]t (make sense|feel right)`,
	`designed.*(wrong|incorrectly)`,
	// Vietnamese
	`flow.*(sai|lỗi)`,
	`thiết kế.*(lại|sai)`,
	`không.*(hợp lý|đúng)`,
}

// DefaultIterationPatterns signal exploratory rework.
var DefaultIterationPatterns = []string{
	`try (another|different)`,
	`what if`,
	`iterate`,
	`rework`,
	`still not (sure|right)`,
	// Vietnamese
	`thử (cách khác|lại)`,
	`nếu như`,
	`chưa (ổn|đúng)`,
}

// Detector classifies input against two pattern sets.
type Detector struct {
	rethink   []*regexp.Regexp
	iteration []*regexp.Regexp
}

type options struct {
	rethink   []string
	iteration []string
	replace   bool
}

// Option configures a Detector.
type Option func(*options)

// WithRethinkPatterns adds rethink patterns to the set.
func WithRethinkPatterns(patterns ...string) Option {
	return func(o *options) {
		o.rethink = append(o.rethink, patterns...)
	}
}

// WithIterationPatterns adds iteration patterns to the set.
func WithIterationPatterns(patterns ...string) Option {
	return func(o *options) {
		o.iteration = append(o.iteration, patterns...)
	}
}

// WithoutDefaults drops the built-in patterns so only the configured ones apply.
func WithoutDefaults() Option {
	return func(o *options) {
		o.replace = true
	}
}

// New compiles a detector. Patterns are matched case-insensitively.
func New(opts ...Option) (*Detector, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	rethink, iteration := o.rethink, o.iteration
	if !o.replace {
		rethink = append(append([]string{}, DefaultRethinkPatterns...), rethink...)
		iteration = append(append([]string{}, DefaultIterationPatterns...), iteration...)
	}

	d := &Detector{}
	var err error
	if d.rethink, err = compile("rethink", rethink); err != nil {
		return nil, err
	}
	if d.iteration, err = compile("iteration", iteration); err != nil {
		return nil, err
	}
	return d, nil
}

var defaultDetector = func() *Detector {
	d, err := New()
	if err != nil {
		panic(err)
	}
	return d
}()

// Default returns the detector built from the built-in patterns.
func Default() *Detector {
	return defaultDetector
}

func compile(set string, patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s pattern %q: %w", set, p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// Detection is the outcome of classifying one input.
type Detection struct {
	// Events are the synthesized events, rethink first.
	Events []domain.Event `json:"events,omitempty"`

	// Actions must be applied by the caller (iteration increments).
	Actions []domain.Action `json:"actions,omitempty"`

	Rethink   bool `json:"rethink"`
	Iteration bool `json:"iteration"`
}

// Detect classifies text for the context's active topic.
//
// A rethink match proposes a rethink event and consults no counter.
// An iteration match requests an increment and, when the incremented count
// reaches the sensitivity threshold, proposes an iteration-threshold event.
func (d *Detector) Detect(c *domain.Context, text string) Detection {
	var out Detection
	topic := c.ActiveTopic()

	if matchAny(d.rethink, text) {
		out.Rethink = true
		out.Events = append(out.Events, domain.Event{
			Type:    domain.EventRethinkDetected,
			Payload: &domain.Payload{TopicID: topic},
		})
	}

	if matchAny(d.iteration, text) {
		out.Iteration = true
		out.Actions = append(out.Actions, domain.IncrementIterations(topic))
		if c.Iterations[topic]+1 >= c.IterationThreshold() {
			out.Events = append(out.Events, domain.Event{
				Type:    domain.EventIterationThreshold,
				Payload: &domain.Payload{TopicID: topic},
			})
		}
	}
	return out
}

func matchAny(set []*regexp.Regexp, text string) bool {
	for _, re := range set {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// CheckpointBoundary proposes a checkpoint-boundary event after an artifact was produced.
// Nothing is proposed outside INLINE or while the micro cooldown runs.
func CheckpointBoundary(c *domain.Context, artifact domain.ArtifactType) (domain.Event, bool) {
	if c.Mode != domain.ModeInline {
		return domain.Event{}, false
	}
	topic := c.ActiveTopic()
	if c.InCooldown(domain.CooldownMicro, topic) {
		return domain.Event{}, false
	}
	return domain.Event{
		Type:    domain.EventCheckpointBoundary,
		Payload: &domain.Payload{TopicID: topic, ArtifactType: artifact},
	}, true
}
