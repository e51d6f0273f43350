package types

// PiiType classifies a detected personal data span.
type PiiType string

const (
	PiiEmail         PiiType = "EMAIL"
	PiiPhone         PiiType = "PHONE"
	PiiStreetAddress PiiType = "STREET_ADDRESS"
	PiiBirthDate     PiiType = "BIRTH_DATE"
	PiiPersonalID    PiiType = "PERSONAL_ID"
)

// PiiRedactionEntry maps a placeholder such as [PII_EMAIL_1] back to the original value.
type PiiRedactionEntry struct {
	Placeholder string  `json:"placeholder"`
	Original    string  `json:"original"`
	Type        PiiType `json:"type"`
}

// PiiPreviewItem describes a redaction without exposing the raw value.
type PiiPreviewItem struct {
	Type        PiiType `json:"type"`
	Placeholder string  `json:"placeholder"`
	Masked      string  `json:"masked"`
}
