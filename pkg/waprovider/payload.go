package waprovider

import "encoding/json"

// Wire structs for the WhatsApp-style message API. These carry only fields
// the provider accepts; the neutral Component/Parameter discriminators are
// mapped here and go no further.

type messageRequest struct {
	MessagingProduct string          `json:"messaging_product,omitempty"`
	RecipientType    string          `json:"recipient_type,omitempty"`
	To               string          `json:"to"`
	Type             string          `json:"type"`
	Text             *textBody       `json:"text,omitempty"`
	Template         *templateBody   `json:"template,omitempty"`
	Interactive      json.RawMessage `json:"interactive,omitempty"`
}

type textBody struct {
	Body string `json:"body"`
}

type templateBody struct {
	Name       string          `json:"name"`
	Language   languageBody    `json:"language"`
	Components []componentBody `json:"components,omitempty"`
}

type languageBody struct {
	Code string `json:"code"`
}

type componentBody struct {
	Type       string          `json:"type"`
	SubType    string          `json:"sub_type,omitempty"`
	Index      *int            `json:"index,omitempty"`
	Parameters []parameterBody `json:"parameters,omitempty"`
}

type parameterBody struct {
	Type     string     `json:"type"`
	Text     string     `json:"text,omitempty"`
	Image    *mediaBody `json:"image,omitempty"`
	Video    *mediaBody `json:"video,omitempty"`
	Document *mediaBody `json:"document,omitempty"`
	Payload  string     `json:"payload,omitempty"`
}

type mediaBody struct {
	Link string `json:"link"`
}

func toWireComponents(components []Component) []componentBody {
	if len(components) == 0 {
		return nil
	}

	wire := make([]componentBody, 0, len(components))
	for _, c := range components {
		wc := componentBody{Type: c.Kind}
		if c.Kind == "button" {
			wc.SubType = c.ButtonSubType
			index := c.ButtonIndex
			wc.Index = &index
		}
		for _, p := range c.Parameters {
			wc.Parameters = append(wc.Parameters, toWireParameter(p))
		}
		wire = append(wire, wc)
	}

	return wire
}

func toWireParameter(p Parameter) parameterBody {
	switch p.Kind {
	case "image":
		return parameterBody{Type: "image", Image: &mediaBody{Link: p.MediaURL}}
	case "video":
		return parameterBody{Type: "video", Video: &mediaBody{Link: p.MediaURL}}
	case "document":
		return parameterBody{Type: "document", Document: &mediaBody{Link: p.MediaURL}}
	case "payload":
		return parameterBody{Type: "payload", Payload: p.Payload}
	default:
		return parameterBody{Type: "text", Text: p.Text}
	}
}
