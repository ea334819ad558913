package chain

// TextTier is the model class for plain text completions.
type TextTier string

const (
	TextTierDavinci TextTier = "davinci"
)

// ChatTier is the model class for chat completions.
type ChatTier string

const (
	ChatTierBaseline ChatTier = "baseline"
	ChatTierPremium  ChatTier = "premium"
)

// SelectTier downgrades the premium tier to baseline when the user is not entitled to it.
func SelectTier(requested ChatTier, entitled bool) ChatTier {
	if requested == ChatTierPremium && !entitled {
		return ChatTierBaseline
	}
	return requested
}
