package email

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/osteele/liquid"
)

const (
	defaultSubjectTemplate = `[Simulation] {{ template_name }}`
	defaultBodyTemplate    = `Hello {{ employee_name }}, this is a controlled phishing simulation preview for campaign {{ campaign_name }}.`
	defaultHTMLTemplate    = `<p>Hello {{ employee_name | escape }},</p>
<p>Please review the attached {{ template_name | escape }} notice before the end of the day.</p>
<p><a href="{{ click_url }}">Open document</a></p>
<p style="font-size:11px;color:#888">Suspicious? <a href="{{ report_url }}">Report this message</a>. [{{ badge }}]</p>`
)

// Content is a rendered email.
type Content struct {
	Subject string
	Text    string
	HTML    string
}

// Vars are the template bindings available to simulation templates.
type Vars struct {
	EmployeeName string
	CampaignName string
	TemplateName string
	ClickURL     string
	ReportURL    string
	Badge        string
}

func (v Vars) bindings() map[string]any {
	return map[string]any{
		"employee_name": v.EmployeeName,
		"campaign_name": v.CampaignName,
		"template_name": v.TemplateName,
		"click_url":     v.ClickURL,
		"report_url":    v.ReportURL,
		"badge":         v.Badge,
	}
}

// Renderer renders simulation emails from Liquid templates. Parsed templates
// are cached by source text.
type Renderer struct {
	engine  *liquid.Engine
	subject string
	text    string
	html    string
	cache   sync.Map // source -> *liquid.Template
}

func NewRenderer() *Renderer {
	return &Renderer{
		engine:  liquid.NewEngine(),
		subject: defaultSubjectTemplate,
		text:    defaultBodyTemplate,
		html:    defaultHTMLTemplate,
	}
}

// Render renders subject, plain-text and HTML parts.
func (r *Renderer) Render(v Vars) (Content, error) {
	b := v.bindings()
	subject, err := r.render(r.subject, b)
	if err != nil {
		return Content{}, fmt.Errorf("render subject: %w", err)
	}
	text, err := r.render(r.text, b)
	if err != nil {
		return Content{}, fmt.Errorf("render text body: %w", err)
	}
	html, err := r.render(r.html, b)
	if err != nil {
		return Content{}, fmt.Errorf("render html body: %w", err)
	}
	return Content{Subject: strings.TrimSpace(subject), Text: text, HTML: html}, nil
}

func (r *Renderer) render(src string, b map[string]any) (string, error) {
	tpl, err := r.parse(src)
	if err != nil {
		return "", err
	}
	out, serr := tpl.RenderString(b)
	if serr != nil {
		return "", serr
	}
	return out, nil
}

func (r *Renderer) parse(src string) (*liquid.Template, error) {
	if cached, ok := r.cache.Load(src); ok {
		return cached.(*liquid.Template), nil
	}
	tpl, err := r.engine.ParseString(src)
	if err != nil {
		return nil, err
	}
	r.cache.Store(src, tpl)
	return tpl, nil
}

// TrackingURL builds a link carrying the recipient's tracking token.
func TrackingURL(baseURL, path, token string) string {
	return baseURL + path + "?" + url.Values{"trackingToken": {token}}.Encode()
}
