package publish

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/ogulcanaydogan/ai-buzz-tools/pkg/wordpress"
)

// CategorySpec describes a category and the posts that belong in it.
type CategorySpec struct {
	Name        string
	Slug        string
	Description string
	Posts       []string
}

// DeveloperTools is the category the developer guides are filed under.
var DeveloperTools = CategorySpec{
	Name: "AI Developer Tools",
	Slug: "ai-developer-tools",
	Description: "Free tools and guides for developers working with AI APIs. " +
		"Compare pricing, check status, decode errors, and troubleshoot common issues.",
	Posts: []string{
		"ai-openai-429-errors",
		"ai-openai-rate-limits",
		"ai-openai-vs-anthropic-pricing",
	},
}

// Step outcomes reported by SetupCategory.
const (
	StepDone     = "done"
	StepExists   = "exists"
	StepDryRun   = "dry-run"
	StepMissing  = "missing"
	StepNotEmpty = "not-empty"
	StepFailed   = "failed"
)

// Step is one action taken, or planned, by SetupCategory.
type Step struct {
	Action  string
	Target  string
	Outcome string
	Err     error
}

// CategorySetup is the result of SetupCategory.
type CategorySetup struct {
	CategoryID int
	Steps      []Step
}

// SetupCategory creates the category, files the listed posts under it
// alone, and deletes the cleanup categories that have no posts. With
// dryRun nothing is written.
func (p *Publisher) SetupCategory(ctx context.Context, spec CategorySpec, cleanup []string, dryRun bool) (*CategorySetup, error) {
	res := &CategorySetup{}

	existing, err := p.wp.CategoryBySlug(ctx, spec.Slug)
	switch {
	case err == nil:
		res.CategoryID = existing.ID
		res.Steps = append(res.Steps, Step{Action: "create category", Target: spec.Name, Outcome: StepExists})
	case !errors.Is(err, wordpress.ErrNotFound):
		return nil, err
	case dryRun:
		res.Steps = append(res.Steps, Step{Action: "create category", Target: spec.Name, Outcome: StepDryRun})
	default:
		id, err := p.wp.EnsureCategory(ctx, spec.Name, spec.Slug, spec.Description, 0)
		if err != nil {
			return nil, fmt.Errorf("create category: %w", err)
		}
		res.CategoryID = id
		res.Steps = append(res.Steps, Step{Action: "create category", Target: spec.Name, Outcome: StepDone})
	}

	for _, slug := range spec.Posts {
		res.Steps = append(res.Steps, p.assign(ctx, slug, res.CategoryID, dryRun))
	}
	for _, slug := range cleanup {
		res.Steps = append(res.Steps, p.cleanup(ctx, slug, dryRun))
	}
	return res, nil
}

func (p *Publisher) assign(ctx context.Context, slug string, categoryID int, dryRun bool) Step {
	step := Step{Action: "assign post", Target: slug}
	post, err := p.wp.PostBySlug(ctx, slug)
	if err != nil {
		step.Outcome, step.Err = StepMissing, err
		if !errors.Is(err, wordpress.ErrNotFound) {
			step.Outcome = StepFailed
		}
		return step
	}
	switch {
	case categoryID != 0 && slices.Contains(post.Categories, categoryID):
		step.Outcome = StepExists
	case dryRun || categoryID == 0:
		step.Outcome = StepDryRun
	default:
		if _, err := p.wp.UpdatePost(ctx, post.ID, wordpress.PostInput{Categories: []int{categoryID}}); err != nil {
			step.Outcome, step.Err = StepFailed, err
			return step
		}
		step.Outcome = StepDone
	}
	return step
}

func (p *Publisher) cleanup(ctx context.Context, slug string, dryRun bool) Step {
	step := Step{Action: "delete category", Target: slug}
	cat, err := p.wp.CategoryBySlug(ctx, slug)
	switch {
	case errors.Is(err, wordpress.ErrNotFound):
		step.Outcome = StepMissing
		return step
	case err != nil:
		step.Outcome, step.Err = StepFailed, err
		return step
	case cat.Count > 0:
		step.Outcome = StepNotEmpty
		step.Err = fmt.Errorf("category has %d posts", cat.Count)
		return step
	case dryRun:
		step.Outcome = StepDryRun
		return step
	}
	if err := p.wp.DeleteCategory(ctx, cat.ID); err != nil {
		step.Outcome, step.Err = StepFailed, err
		return step
	}
	step.Outcome = StepDone
	return step
}

// Categories lists the post categories of the site.
func (p *Publisher) Categories(ctx context.Context) ([]wordpress.Category, error) {
	return p.wp.ListCategories(ctx)
}
