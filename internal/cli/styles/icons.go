package styles

// Nerd Font icons (requires a Nerd Font to display correctly)
const (
	IconVersion   = "" // tag
	IconGitBranch = "" // git branch
	IconCalendar  = "" // calendar
	IconGo        = "" // go gopher
	IconGithub    = "" // github

	// Doctor / diagnostics
	IconDoctor  = "" // stethoscope
	IconCheck   = "" // check
	IconX       = "" // x
	IconWarning = "" // warning

	// Playback / storage
	IconPlay     = "" // play
	IconDatabase = "" // database
	IconFolder   = "" // folder
)
