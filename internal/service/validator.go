package service

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/velora/messaging-services/msggateway/internal/model"
)

const maxTemplateButtons = 3

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

type Issue struct {
	Field    string
	Message  string
	Severity Severity
}

type ValidationResult struct {
	Issues []Issue
}

// IsValid is true iff no error-severity issue was raised; warnings never
// block a send.
func (r ValidationResult) IsValid() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return false
		}
	}
	return true
}

func (r ValidationResult) Errors() []Issue {
	var errs []Issue
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			errs = append(errs, issue)
		}
	}
	return errs
}

// SendValidator runs the pre-flight structural checks on a send before any
// network call. Pure: no database, no network, no side effects.
type SendValidator interface {
	Validate(plan model.SendPlan, recipient model.RecipientPlan, envelope model.TemplateEnvelope) ValidationResult
}

type sendValidator struct{}

func NewSendValidator() SendValidator {
	return &sendValidator{}
}

var e164Shape = regexp.MustCompile(`^\+?[1-9]\d{6,14}$`)

func (v *sendValidator) Validate(plan model.SendPlan, recipient model.RecipientPlan,
	envelope model.TemplateEnvelope) ValidationResult {

	var issues []Issue

	addIssue := func(field, message string, severity Severity) {
		issues = append(issues, Issue{Field: field, Message: message, Severity: severity})
	}

	if plan.TenantID == 0 {
		addIssue("plan.tenant_id", "tenant id is required", SeverityError)
	}
	if strings.TrimSpace(plan.TemplateName) == "" {
		addIssue("plan.template_name", "template name is required", SeverityError)
	}
	if strings.TrimSpace(plan.SenderID) == "" {
		addIssue("plan.sender_id", "sender identifier is required", SeverityError)
	}
	if len(plan.Buttons) > maxTemplateButtons {
		addIssue("plan.buttons", "at most 3 buttons are allowed", SeverityError)
	}

	if envelope.HeaderKind.IsMedia() {
		if !isAbsoluteMediaURL(envelope.HeaderURL) {
			addIssue("header.url", "media header requires an absolute http(s), tel: or wa: URL", SeverityError)
		}
	}

	if envelope.HeaderKind == model.HeaderKindText && len(envelope.HeaderParams) == 0 {
		addIssue("header.params", "text header declared but no header parameters supplied", SeverityWarning)
	}

	destination := strings.TrimSpace(recipient.Destination)
	if destination == "" {
		addIssue("recipient.destination", "destination address is required", SeverityError)
	} else if !e164Shape.MatchString(destination) {
		addIssue("recipient.destination", "destination does not look like an E.164 number", SeverityWarning)
	}

	if strings.TrimSpace(recipient.IdempotencyKey) == "" {
		addIssue("recipient.idempotency_key", "missing idempotency key, retries may duplicate this send", SeverityWarning)
	}

	return ValidationResult{Issues: issues}
}

func isAbsoluteMediaURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}

	if strings.HasPrefix(raw, "tel:") || strings.HasPrefix(raw, "wa:") {
		return len(raw) > 4
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}

	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}
