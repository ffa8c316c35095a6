package vanilla

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-reform/pkg/render"
)

var (
	labelPolicyOnce sync.Once
	labelPolicy     *bluemonday.Policy
)

// LabelPolicy allows inline emphasis in labels and strips everything else.
func LabelPolicy() *bluemonday.Policy {
	labelPolicyOnce.Do(func() {
		policy := bluemonday.NewPolicy()
		policy.AllowElements("b", "strong", "i", "em", "u", "small", "code", "sub", "sup", "br")
		labelPolicy = policy
	})
	return labelPolicy
}

// sanitizeControl returns a copy with label and choice text passed through
// policy. The result is trusted markup in the templates.
func sanitizeControl(control render.Control, policy *bluemonday.Policy) render.Control {
	control.Label = policy.Sanitize(control.Label)
	if len(control.Choices) > 0 {
		choices := make([]render.Choice, len(control.Choices))
		for i, choice := range control.Choices {
			choice.Label = policy.Sanitize(choice.Label)
			choices[i] = choice
		}
		control.Choices = choices
	}
	return control
}
