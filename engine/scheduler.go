package engine

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ficheapp/fiche/components"
	"github.com/ficheapp/fiche/ofgl"
	"github.com/ficheapp/fiche/profile"
)

// SectionResult is the outcome of one (section, subject) job.
type SectionResult struct {
	Section  string
	Subject  string
	Resolved int
	Unknown  int
	Usage    components.ApiUsage
	Err      error
}

// Report summarizes one resolution run. Its return is the completion signal:
// every job has finished, every field of the template is in a defined state.
type Report struct {
	RunID    string
	Sections []SectionResult
	Usage    components.ApiUsage
}

// Resolve fills the whole template in place. Sections have disjoint data
// dependencies, so (section, subject) pairs run concurrently under the worker
// limit; within a job fields resolve in declared order. A failing job is
// recorded in its SectionResult and never stops the others.
func (e *Engine) Resolve(ctx context.Context, tpl *profile.Template, bindings Bindings, dataset ofgl.Dataset) (*Report, error) {
	report := &Report{RunID: uuid.NewString()}
	for _, section := range tpl.Sections {
		for _, subject := range section.Subjects {
			report.Sections = append(report.Sections, SectionResult{
				Section: section.Name,
				Subject: subject.Key,
			})
		}
	}

	g := new(errgroup.Group)
	g.SetLimit(e.workers)
	i := 0
	for _, section := range tpl.Sections {
		for _, subject := range section.Subjects {
			res := &report.Sections[i]
			i++
			sectionName := section.Name
			subj := subject
			g.Go(func() error {
				if err := e.resolveSubject(ctx, sectionName, subj, bindings, dataset, res); err != nil {
					res.Err = err
					e.logger.Error("section job failed",
						zap.String("run", report.RunID),
						zap.String("section", sectionName),
						zap.String("subject", subj.Key),
						zap.Error(err),
					)
					return nil
				}
				e.logger.Info("section resolved",
					zap.String("run", report.RunID),
					zap.String("section", sectionName),
					zap.String("subject", subj.Key),
					zap.Int("resolved", res.Resolved),
					zap.Int("unknown", res.Unknown),
				)
				return nil
			})
		}
	}
	_ = g.Wait()

	for i := range report.Sections {
		report.Usage.Merge(&report.Sections[i].Usage)
	}
	e.logger.Info("run finished",
		zap.String("run", report.RunID),
		zap.Int("jobs", len(report.Sections)),
		zap.Int("input_tokens", report.Usage.InputTokens),
		zap.Int("output_tokens", report.Usage.OutputTokens),
	)
	return report, ctx.Err()
}
