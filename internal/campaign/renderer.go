package campaign

import (
	"fmt"

	"github.com/osteele/liquid"

	"github.com/amorlink/engage/internal/domain"
)

// Template is one campaign's content definition. Required lists the
// bindings that must be present and non-empty before rendering; a
// recipient missing one is skipped, not failed.
type Template struct {
	Subject  string
	HTML     string
	Text     string
	Required []string
}

// Renderer renders campaign templates with Liquid. Safe for concurrent use.
type Renderer struct {
	engine *liquid.Engine
}

// NewRenderer creates a renderer with the platform's custom filters.
func NewRenderer() *Renderer {
	engine := liquid.NewEngine()

	// Default value filter: {{ first_name | default: "daar" }}
	engine.RegisterFilter("default", func(value interface{}, defaultVal string) interface{} {
		if value == nil {
			return defaultVal
		}
		s := fmt.Sprintf("%v", value)
		if s == "" || s == "<nil>" {
			return defaultVal
		}
		return value
	})

	return &Renderer{engine: engine}
}

// Render produces the message for one recipient. Rendering is
// deterministic: same template and bindings, same output.
func (rd *Renderer) Render(tpl Template, category domain.CampaignCategory, r domain.Recipient) (domain.Message, error) {
	if r.Email == "" {
		return domain.Message{}, fmt.Errorf("%w: email", ErrMissingBinding)
	}
	for _, key := range tpl.Required {
		v, ok := r.Bindings[key]
		if !ok || v == nil || fmt.Sprintf("%v", v) == "" {
			return domain.Message{}, fmt.Errorf("%w: %s", ErrMissingBinding, key)
		}
	}

	bindings := make(map[string]interface{}, len(r.Bindings)+1)
	for k, v := range r.Bindings {
		bindings[k] = v
	}
	bindings["email"] = r.Email

	subject, err := rd.engine.ParseAndRenderString(tpl.Subject, bindings)
	if err != nil {
		return domain.Message{}, fmt.Errorf("render subject: %w", err)
	}
	html, err := rd.engine.ParseAndRenderString(tpl.HTML, bindings)
	if err != nil {
		return domain.Message{}, fmt.Errorf("render html body: %w", err)
	}
	text, err := rd.engine.ParseAndRenderString(tpl.Text, bindings)
	if err != nil {
		return domain.Message{}, fmt.Errorf("render text body: %w", err)
	}

	return domain.Message{
		To:       r.Email,
		Subject:  subject,
		HTMLBody: html,
		TextBody: text,
		Category: category,
	}, nil
}
