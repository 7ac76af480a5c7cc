package service

import (
	"github.com/velora/messaging-services/msggateway/internal/model"
	"github.com/velora/messaging-services/msggateway/pkg/waprovider"
)

// SendCommand is one message instance to push through the pipeline. Plan and
// Recipient arrive pre-built from the campaign or chat-reply collaborator;
// RenderedBody is the human-readable text recorded on the audit row.
type SendCommand struct {
	Plan         model.SendPlan
	Recipient    model.RecipientPlan
	CampaignID   *int64
	FlowID       *int64
	RenderedBody string
	TemplateID   string
}

type SendMessageResponse struct {
	MessageLogID string
	Result       waprovider.SendResult
	Warnings     []Issue
	Duplicate    bool
}
