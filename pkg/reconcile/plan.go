package reconcile

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Plan is an ordered, idempotent action sequence, plus the per-package
// problems and advisory warnings reconciliation produced alongside it.
type Plan struct {
	ID        string    `yaml:"id"`
	CreatedAt time.Time `yaml:"created_at"`
	Actions   []Action  `yaml:"actions"`

	// Problems are reconciliation failures that excluded one package's
	// actions each. A plan with problems can still be applied; the
	// affected packages are simply not in it.
	Problems []*ReconciliationError `yaml:"-"`

	// Warnings are advisory, like a nonfree package with no nonfree
	// repository listed.
	Warnings []string `yaml:"warnings,omitempty"`
}

func newPlan() *Plan {
	return &Plan{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
	}
}

// Empty reports whether the plan changes nothing.
func (p *Plan) Empty() bool { return len(p.Actions) == 0 }

// Summary renders the per-kind action counts for display.
func (p *Plan) Summary() string {
	counts := make(map[ActionKind]int)
	for _, a := range p.Actions {
		counts[a.Kind]++
	}
	if len(p.Actions) == 0 {
		return "no changes"
	}
	parts := make([]string, 0, 6)
	for _, kind := range []ActionKind{
		ActionAddRepo, ActionInstall, ActionConfigure,
		ActionRemove, ActionEnableService, ActionDisableService,
	} {
		if n := counts[kind]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, kind))
		}
	}
	return strings.Join(parts, ", ")
}

// RenderYAML serializes the plan for dry-run display and run records.
func (p *Plan) RenderYAML() ([]byte, error) {
	type planDoc struct {
		Plan     *Plan    `yaml:"plan"`
		Problems []string `yaml:"problems,omitempty"`
	}
	doc := planDoc{Plan: p}
	for _, problem := range p.Problems {
		doc.Problems = append(doc.Problems, problem.Error())
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to render plan: %w", err)
	}
	return out, nil
}
