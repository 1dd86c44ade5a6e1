package models

// ClipboardPayload is what the browser hands over on paste. Either field may
// be empty.
type ClipboardPayload struct {
	PlainText string `json:"plain_text,omitempty"`
	HTML      string `json:"html,omitempty"`
}

// HasHTML reports whether rich content is available.
func (p ClipboardPayload) HasHTML() bool {
	return p.HTML != ""
}
