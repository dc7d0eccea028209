package domain

// CampaignCategory tags every outgoing email with the campaign family it
// belongs to. The frequency guard keys its cooldowns on this value.
type CampaignCategory string

const (
	CategoryBirthday     CampaignCategory = "birthday"
	CategoryWinback      CampaignCategory = "winback"
	CategoryReengagement CampaignCategory = "reengagement"
	CategoryDigest       CampaignCategory = "digest"
	CategorySeasonal     CampaignCategory = "seasonal"
	CategoryMilestone    CampaignCategory = "milestone"
)

// AllCategories lists every mail-sending campaign category. The A/B
// evaluation job is not listed: it evaluates experiments, it does not mail.
func AllCategories() []CampaignCategory {
	return []CampaignCategory{
		CategoryBirthday,
		CategoryWinback,
		CategoryReengagement,
		CategoryDigest,
		CategorySeasonal,
		CategoryMilestone,
	}
}

// Recipient is one selected target of a campaign run, carrying the
// personalization bindings the campaign's templates render with.
type Recipient struct {
	UserID   string         `json:"user_id"`
	Email    string         `json:"email"`
	Bindings map[string]any `json:"bindings,omitempty"`
}

// Message is a fully rendered email, ready for the transport.
type Message struct {
	To       string           `json:"to"`
	Subject  string           `json:"subject"`
	HTMLBody string           `json:"html_body"`
	TextBody string           `json:"text_body"`
	Category CampaignCategory `json:"category"`
}
