package usecase

// MessageConfig holds every user-facing string.
// Templates use fmt verbs; the comment on each field lists its arguments.
type MessageConfig struct {
	InvalidFormat  string
	DelayTooLong   string
	DownloadFailed string
	MissingImage   string
	Unexpected     string
	Scheduled      string // %s: delay as typed

	AnnounceWithName string // %s: mention, %s: delay
	AnnounceNoName   string // %s: delay
	ReactionSummary  string // %s: tally, e.g. "2×🎉, 1×👍"

	TestMessage string
	TestSent    string
	TestFailed  string

	Help             string
	HelpReactionsOn  string
	HelpReactionsOff string
}

// DefaultMessageConfig contains the built-in strings
var DefaultMessageConfig = MessageConfig{
	InvalidFormat:  "Invalid time format. Use formats like '10 minutes', '2 hours', etc.",
	DelayTooLong:   "Sorry, maximum delay is 24 hours.",
	DownloadFailed: "Failed to download the image.",
	MissingImage:   "Please attach an image to the /expire command.",
	Unexpected:     "Something went wrong. Please try again.",
	Scheduled:      "Your image will be deleted in %s!",

	AnnounceWithName: "🧹 An image uploaded by %s was deleted after %s.",
	AnnounceNoName:   "🧹 An image was deleted after %s.",
	ReactionSummary:  " Reactions: %s",

	TestMessage: "This is a test message and will auto-delete in 10 seconds.",
	TestSent:    "Test message sent — it will delete soon!",
	TestFailed:  "Failed to send or delete message.",

	Help: "**Peek-a-bot Usage Instructions**\n\n" +
		"- **/expire** — Upload an image you want to delete after a certain amount of time.\n" +
		"  - **Image**: Upload your picture 📷\n" +
		"  - **Delay**: How long to wait before deleting, as one number and one unit " +
		"(e.g., '45 seconds', '10 minutes', '2 hours'; maximum 24 hours)\n" +
		"  - **Show Name**: Choose if you want your username shown in the deletion message (default: yes)\n" +
		"  - **Caption**: (Optional) Add a short message under your image\n" +
		"  - **Spoiler**: (Optional) Blur image behind spoiler until clicked\n" +
		"- **/testdelete** — Post a test message that deletes itself after 10 seconds.\n\n",
	HelpReactionsOn: "❗ **Note**: Deleting an image also removes its reactions, " +
		"but the deletion message lists how many of each reaction it got.",
	HelpReactionsOff: "❗ **Note**: Deleting an image also removes any reactions attached to it.",
}
