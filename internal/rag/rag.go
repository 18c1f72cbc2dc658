// Package rag classifies compliance records as red, amber or green.
//
// Classification is pure: the same subject and the same clock reading always
// produce the same Status, and the subject is never modified. Every Kind has a
// rule for every reachable state, so Classify never fails.
package rag

import (
	"fmt"
	"time"
)

// Status is a RAG classification.
type Status string

const (
	Green Status = "green"
	Amber Status = "amber"
	Red   Status = "red"
)

// Label returns the display label for a status.
func (s Status) Label() string {
	switch s {
	case Amber:
		return "Due Soon"
	case Red:
		return "Overdue"
	default:
		return "OK"
	}
}

// Kind selects the rule set applied to a Subject.
type Kind string

const (
	KindTraining    Kind = "training"
	KindRisk        Kind = "risk"
	KindDocument    Kind = "document"
	KindCalibration Kind = "calibration"
)

var validKinds = map[Kind]bool{
	KindTraining:    true,
	KindRisk:        true,
	KindDocument:    true,
	KindCalibration: true,
}

// ParseKind validates an external kind value.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !validKinds[k] {
		return "", fmt.Errorf("unknown subject kind: %q", s)
	}
	return k, nil
}

// Training record statuses recognised by the training rule.
const (
	TrainingNotStarted = "NOT_STARTED"
	TrainingInProgress = "IN_PROGRESS"
	TrainingComplete   = "COMPLETE"
	TrainingExpired    = "EXPIRED"
)

// Risk score cut points on the 1-25 likelihood x severity scale.
const (
	RiskRedScore   = 16
	RiskAmberScore = 6
)

// Subject is the classification view of a record. Only the fields relevant to
// its Kind are consulted.
type Subject struct {
	Status      string
	DueDate     *time.Time
	NextReview  *time.Time
	PerformedOn *time.Time
	Score       *int
}

// Config holds the day thresholds for date-driven rules.
type Config struct {
	AmberThresholdDays int `json:"amberThresholdDays" yaml:"amber_threshold_days"`
	RedThresholdDays   int `json:"redThresholdDays" yaml:"red_threshold_days"`
}

// DefaultConfig returns the stock thresholds: amber inside 30 days, red once past.
func DefaultConfig() Config {
	return Config{AmberThresholdDays: 30, RedThresholdDays: 0}
}

// Validate rejects threshold pairs that would make amber unreachable.
func (c Config) Validate() error {
	if c.AmberThresholdDays < c.RedThresholdDays {
		return fmt.Errorf("amber threshold (%d days) must not be below red threshold (%d days)",
			c.AmberThresholdDays, c.RedThresholdDays)
	}
	return nil
}

// Classifier applies the rules with an injected clock.
type Classifier struct {
	cfg   Config
	clock func() time.Time
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithClock sets the time source used by Classify.
func WithClock(clock func() time.Time) Option {
	return func(c *Classifier) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// New constructs a Classifier. The config must already be valid.
func New(cfg Config, opts ...Option) *Classifier {
	c := &Classifier{cfg: cfg, clock: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the thresholds in use.
func (c *Classifier) Config() Config {
	return c.cfg
}

// Classify evaluates subject against the rule set for kind at the clock's current time.
func (c *Classifier) Classify(kind Kind, subject Subject) Status {
	return c.ClassifyAt(c.clock(), kind, subject)
}

// ClassifyAt evaluates subject at an explicit instant.
func (c *Classifier) ClassifyAt(now time.Time, kind Kind, subject Subject) Status {
	switch kind {
	case KindTraining:
		return c.training(now, subject)
	case KindRisk:
		return risk(subject.Score)
	case KindDocument:
		return c.dated(now, subject.NextReview)
	case KindCalibration:
		if subject.PerformedOn != nil {
			return Green
		}
		return c.dated(now, subject.DueDate)
	default:
		return Green
	}
}

// training applies the threshold rule to incomplete records with a due date and
// also to COMPLETE records that carry one.
func (c *Classifier) training(now time.Time, s Subject) Status {
	switch s.Status {
	case TrainingExpired:
		return Red
	case TrainingNotStarted, TrainingInProgress, TrainingComplete:
		return c.dated(now, s.DueDate)
	default:
		return Green
	}
}

func (c *Classifier) dated(now time.Time, target *time.Time) Status {
	if target == nil {
		return Green
	}
	days := DaysUntil(now, *target)
	switch {
	case days < c.cfg.RedThresholdDays:
		return Red
	case days < c.cfg.AmberThresholdDays:
		return Amber
	default:
		return Green
	}
}

func risk(score *int) Status {
	if score == nil {
		return Green
	}
	switch {
	case *score >= RiskRedScore:
		return Red
	case *score >= RiskAmberScore:
		return Amber
	default:
		return Green
	}
}
