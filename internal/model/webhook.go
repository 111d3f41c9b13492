package model

import "encoding/json"

// Webhook payload as delivered by the Business Platform. Only the first
// message of the first change of the first entry is ever processed.
type WebhookPayload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string      `json:"field"`
	Value ChangeValue `json:"value"`
}

type ChangeValue struct {
	Metadata Metadata          `json:"metadata"`
	Messages []InboundMessage  `json:"messages"`
	Statuses []json.RawMessage `json:"statuses"`
}

type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

type InboundMessage struct {
	ID          string       `json:"id"`
	From        string       `json:"from"`
	Timestamp   string       `json:"timestamp"`
	Type        string       `json:"type"`
	Text        *TextBody    `json:"text,omitempty"`
	Image       *MediaRef    `json:"image,omitempty"`
	Document    *MediaRef    `json:"document,omitempty"`
	Audio       *MediaRef    `json:"audio,omitempty"`
	Video       *MediaRef    `json:"video,omitempty"`
	Profile     *Profile     `json:"profile,omitempty"`
	Interactive *Interactive `json:"interactive,omitempty"`
}

type TextBody struct {
	Body string `json:"body"`
}

type MediaRef struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type,omitempty"`
	Filename string `json:"filename,omitempty"`
	Caption  string `json:"caption,omitempty"`
}

type Profile struct {
	Name string `json:"name"`
}

type Interactive struct {
	Type        string `json:"type"`
	ButtonReply *struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"button_reply,omitempty"`
	ListReply *struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"list_reply,omitempty"`
}

// FirstMessage returns the single message the relay processes from a
// payload, or nil when the payload carries none (status updates, empty
// entries).
func (p *WebhookPayload) FirstMessage() (*InboundMessage, string) {
	if len(p.Entry) == 0 || len(p.Entry[0].Changes) == 0 {
		return nil, ""
	}
	v := p.Entry[0].Changes[0].Value
	if len(v.Messages) == 0 {
		return nil, v.Metadata.PhoneNumberID
	}
	return &v.Messages[0], v.Metadata.PhoneNumberID
}

// MediaAttachment returns the forwardable media reference carried by the
// message, if any. Video is deliberately excluded.
func (m *InboundMessage) MediaAttachment() (Kind, *MediaRef) {
	switch {
	case m.Image != nil:
		return KindImage, m.Image
	case m.Document != nil:
		return KindDocument, m.Document
	case m.Audio != nil:
		return KindAudio, m.Audio
	}
	return "", nil
}

// BodyText extracts the displayable text of the message, empty for
// media-only content.
func (m *InboundMessage) BodyText() string {
	if m.Text != nil {
		return m.Text.Body
	}
	if m.Interactive != nil {
		if m.Interactive.ButtonReply != nil {
			return m.Interactive.ButtonReply.Title
		}
		if m.Interactive.ListReply != nil {
			return m.Interactive.ListReply.Title
		}
	}
	return ""
}
