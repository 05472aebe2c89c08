package filesystem

const (
	// TemporaryNamePrefix is the file name prefix used for all temporary
	// files and directories created by Pushwork. Scanning does not filter on
	// this prefix: a temporary file is created beside its target, so one stays
	// out of the document tree only when its target lies inside the control
	// directory, which scanning skips.
	TemporaryNamePrefix = ".pushwork-temporary-"
)
