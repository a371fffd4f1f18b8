package utils

import "github.com/schollz/progressbar/v3"

// Standard progress bar descriptions
const (
	DescBooks     = "Backing up books"
	DescDocuments = "Backing up documents"
	DescResources = "Mirroring resources"
	DescArchiving = "Archiving runs"
)

// NewProgressBar creates a consistently styled progress bar. Use -1 for
// unknown totals, which switches to spinner mode.
func NewProgressBar(total int, description string) *progressbar.ProgressBar {
	opts := []progressbar.Option{
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
	}

	if total < 0 {
		// Unknown total: use spinner mode
		opts = append(opts,
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetRenderBlankState(true),
		)
	} else {
		// Known total: show iterations/second
		opts = append(opts,
			progressbar.OptionShowIts(),
		)
	}

	return progressbar.NewOptions(total, opts...)
}
