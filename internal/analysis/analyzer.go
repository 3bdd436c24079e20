// Package analysis scores a research document with a cheap triage pass and,
// when the triage score is high enough, a second pass on a stronger model.
package analysis

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"ResearchAssistant/internal/domain"
	"ResearchAssistant/internal/ports"
)

// DefaultEscalationThreshold is the triage score at which the deep pass runs.
const DefaultEscalationThreshold = 5

// Request is everything one analysis needs.
type Request struct {
	Ticker   string
	Company  string
	Document string
	Rules    domain.RuleSet
	Settings domain.GlobalSettings
}

func (r Request) company() string {
	if strings.TrimSpace(r.Company) == "" {
		return r.Ticker
	}
	return r.Company
}

// Options tunes an Analyzer.
type Options struct {
	EscalationThreshold int
	Logger              *slog.Logger
}

// Analyzer runs the two-pass significance protocol.
type Analyzer struct {
	models     ports.ModelClient
	escalation int
	logger     *slog.Logger
}

// NewAnalyzer wires a model client; zero options fall back to defaults.
func NewAnalyzer(models ports.ModelClient, opts Options) *Analyzer {
	if opts.EscalationThreshold <= 0 {
		opts.EscalationThreshold = DefaultEscalationThreshold
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Analyzer{models: models, escalation: opts.EscalationThreshold, logger: opts.Logger}
}

// EscalationThreshold reports the configured deep-pass cutoff.
func (a *Analyzer) EscalationThreshold() int { return a.escalation }

type state int

const (
	stateInitial state = iota
	stateDeep
	stateDone
)

type passFailure struct {
	tag domain.FailureTag
	err error
	raw string
}

// Analyze never returns a Go error: failures are reported on the Analysis.
func (a *Analyzer) Analyze(ctx context.Context, req Request) domain.Analysis {
	result := domain.Analysis{Ticker: req.Ticker, Company: req.company()}
	settings := withDefaults(req.Settings)

	var initial, final *domain.Verdict
	for st := stateInitial; st != stateDone; {
		switch st {
		case stateInitial:
			verdict, failure := a.runPass(ctx, domain.PassInitial, settings.CheapModel, triagePrompt(req), req.Ticker)
			if failure != nil {
				result.Failure = failure.tag
				result.Error = failure.err.Error()
				result.RawResponse = failure.raw
				return result
			}
			verdict.Tier = domain.TierCheap
			initial, final = verdict, verdict
			st = a.next(verdict)
			if st == stateDeep {
				a.logger.Info("escalating to deep analysis", "ticker", req.Ticker, "score", verdict.Score, "threshold", a.escalation)
			}

		case stateDeep:
			verdict, failure := a.runPass(ctx, domain.PassDeep, settings.StrongModel, deepPrompt(req, initial), req.Ticker)
			if failure != nil {
				a.logger.Warn("deep analysis failed, keeping initial verdict",
					"ticker", req.Ticker, "model", settings.StrongModel, "failure", failure.tag, "error", failure.err)
			} else {
				verdict.Tier = domain.TierStrong
				verdict.Initial = initial
				final = verdict
			}
			st = stateDone
		}
	}

	final.ShouldAlert = final.Score >= settings.SignificanceThreshold
	result.Success = true
	result.Verdict = final
	return result
}

func (a *Analyzer) next(initial *domain.Verdict) state {
	if initial.Score >= a.escalation {
		return stateDeep
	}
	return stateDone
}

func (a *Analyzer) runPass(ctx context.Context, pass domain.Pass, model, prompt, ticker string) (*domain.Verdict, *passFailure) {
	if a.models == nil {
		return nil, &passFailure{tag: domain.FailureMissingCredential, err: domain.ErrMissingCredential}
	}
	if err := a.models.Ready(model); err != nil {
		tag := domain.FailureTransport
		if errors.Is(err, domain.ErrConfig) {
			tag = domain.FailureMissingCredential
		}
		return nil, &passFailure{tag: tag, err: err}
	}

	started := time.Now()
	text, err := a.models.Complete(ctx, model, prompt)
	if err != nil {
		return nil, &passFailure{tag: domain.FailureTransport, err: err}
	}

	verdict, err := parseVerdict(text, pass)
	if err != nil {
		return nil, &passFailure{tag: domain.FailureParse, err: err, raw: text}
	}
	verdict.Model = model

	a.logger.Debug("analysis pass complete",
		"ticker", ticker, "pass", pass, "model", model, "score", verdict.Score, "duration", time.Since(started))
	return verdict, nil
}

func withDefaults(s domain.GlobalSettings) domain.GlobalSettings {
	d := domain.DefaultGlobalSettings()
	if s.SignificanceThreshold == 0 {
		s.SignificanceThreshold = d.SignificanceThreshold
	}
	if s.CheapModel == "" {
		s.CheapModel = d.CheapModel
	}
	if s.StrongModel == "" {
		s.StrongModel = d.StrongModel
	}
	return s
}
