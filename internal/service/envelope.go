package service

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/velora/messaging-services/msggateway/internal/model"
	"go.uber.org/zap"
)

// EnvelopeBuilder resolves a (plan, recipient) pair into the provider-neutral
// template envelope. Malformed parameter JSON degrades to empty collections:
// a broken envelope is the validator's problem, not a pipeline crash.
type EnvelopeBuilder interface {
	Build(plan model.SendPlan, recipient model.RecipientPlan) model.TemplateEnvelope
}

type envelopeBuilder struct {
	logger *zap.Logger
}

func NewEnvelopeBuilder(logger *zap.Logger) EnvelopeBuilder {
	return &envelopeBuilder{logger: logger}
}

var (
	legacyHeaderParamKey = regexp.MustCompile(`^headerpara(\d+)$`)
	legacyButtonParamKey = regexp.MustCompile(`^buttonpara(\d+)$`)
)

func (b *envelopeBuilder) Build(plan model.SendPlan, recipient model.RecipientPlan) model.TemplateEnvelope {
	bodyParams := b.decodeBodyParams(recipient)
	extra := b.decodeExtraParams(recipient)

	return model.TemplateEnvelope{
		HeaderKind:   plan.HeaderKind,
		HeaderURL:    plan.HeaderURL,
		HeaderParams: extractHeaderParams(extra),
		BodyParams:   bodyParams,
		Buttons:      plan.Buttons,
		ButtonParams: extra,
	}
}

func (b *envelopeBuilder) decodeBodyParams(recipient model.RecipientPlan) []string {
	if strings.TrimSpace(recipient.BodyParamsJSON) == "" {
		return []string{}
	}

	var params []string
	if err := json.Unmarshal([]byte(recipient.BodyParamsJSON), &params); err != nil {
		b.logger.Warn("Malformed body parameter payload, degrading to empty",
			zap.Int64("recipientID", recipient.RecipientID),
			zap.Error(err))
		return []string{}
	}

	return params
}

// decodeExtraParams resolves the loosely-typed per-recipient payload at the
// boundary. Two shapes are accepted: a flat ordered array (legacy button-only
// convention, item n is button n's URL parameter) and a key-value map whose
// legacy key spellings are canonicalized immediately.
func (b *envelopeBuilder) decodeExtraParams(recipient model.RecipientPlan) map[string]string {
	raw := strings.TrimSpace(recipient.ExtraJSON)
	if raw == "" {
		return map[string]string{}
	}

	var ordered []string
	if err := json.Unmarshal([]byte(raw), &ordered); err == nil {
		params := make(map[string]string, len(ordered))
		for i, value := range ordered {
			params[fmt.Sprintf("button%d.url_param", i+1)] = value
		}
		return params
	}

	var keyed map[string]string
	if err := json.Unmarshal([]byte(raw), &keyed); err != nil {
		b.logger.Warn("Malformed extra parameter payload, degrading to empty",
			zap.Int64("recipientID", recipient.RecipientID),
			zap.Error(err))
		return map[string]string{}
	}

	params := make(map[string]string, len(keyed))
	for key, value := range keyed {
		params[canonicalParamKey(key)] = value
	}

	return params
}

func canonicalParamKey(key string) string {
	if m := legacyHeaderParamKey.FindStringSubmatch(key); m != nil {
		return "header.text_param" + m[1]
	}
	if m := legacyButtonParamKey.FindStringSubmatch(key); m != nil {
		return "button" + m[1] + ".url_param"
	}
	return key
}

// extractHeaderParams collects header.text_param1..N in index order, stopping
// at the first gap.
func extractHeaderParams(params map[string]string) []string {
	headerParams := []string{}
	for i := 1; ; i++ {
		value, ok := params[fmt.Sprintf("header.text_param%d", i)]
		if !ok {
			break
		}
		headerParams = append(headerParams, value)
	}

	return headerParams
}
