package model

import "time"

type Kind string

const (
	KindText     Kind = "text"
	KindImage    Kind = "image"
	KindDocument Kind = "document"
	KindAudio    Kind = "audio"
)

// Content is one outbound message body. The retry queue stores it verbatim
// and never inspects it beyond serialization.
type Content struct {
	Kind    Kind   `json:"kind"`
	Text    string `json:"text,omitempty"`
	MediaID string `json:"mediaId,omitempty"`
}

func TextContent(body string) Content {
	return Content{Kind: KindText, Text: body}
}

func MediaContent(kind Kind, mediaID, caption string) Content {
	return Content{Kind: kind, MediaID: mediaID, Text: caption}
}

// RetryItem is one pending redelivery, persisted until it succeeds or
// exhausts its attempts.
type RetryItem struct {
	ID            string    `json:"id"`
	Destination   string    `json:"destination"`
	PhoneNumberID string    `json:"phoneNumberId"`
	Content       Content   `json:"content"`
	Attempts      int       `json:"attempts"`
	LastAttemptAt time.Time `json:"lastAttemptAt"`
}

// DeliveryResult reports one send attempt. Failures are reported here, not
// raised: a zero StatusCode with Success=false means the transport itself
// failed before a status was received.
type DeliveryResult struct {
	Success    bool
	StatusCode int
	MessageID  string
	Body       string
}
