package domain

// Member is the user who invoked a command (value object)
type Member struct {
	UserID string
	Name   string

	// Mention is the platform markup that pings the user,
	// e.g. "<@123>" on Discord or an <at> tag on Feishu
	Mention string
}

// FormatMention returns the mention markup, falling back to the display name
func (m *Member) FormatMention() string {
	if m.Mention != "" {
		return m.Mention
	}
	if m.Name != "" {
		return m.Name
	}
	return m.UserID
}
