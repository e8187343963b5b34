package ui

import (
	"prochub/internal/update"
)

// confirmRequestMsg asks the app to show an update dialog.
type confirmRequestMsg struct {
	dialog update.ConfirmDialog
}

// noticeMsg asks the app to show a toast.
type noticeMsg struct {
	kind update.NoticeKind
	text string
}

// localVersionMsg carries the resolved local version for the header.
type localVersionMsg struct {
	version string
	err     error
}

// checkFinishedMsg is sent when a manual check returns.
type checkFinishedMsg struct {
	offered bool
}

// toastTickMsg drives the toast countdown.
type toastTickMsg struct{}

// ConfirmAnsweredMsg is sent when the update dialog is answered.
type ConfirmAnsweredMsg struct {
	Accepted bool
}
