package update

import (
	appErrors "prochub/internal/errors"
)

// Unknown is the version reported when none can be determined.
const Unknown = "unknown"

// VersionInfo describes the latest published build.
type VersionInfo struct {
	Version string `json:"version"`
	URL     string `json:"url,omitempty"`
	// Notes holds optional markdown release notes.
	Notes string `json:"notes,omitempty"`
}

// State is the outcome class of a check.
type State int

const (
	// StateUpToDate means the remote version equals the local one.
	StateUpToDate State = iota
	// StateUpdateAvailable means the remote version differs from the local one.
	StateUpdateAvailable
	// StateFailed means the check could not complete.
	StateFailed
)

// String returns the string representation of a State.
func (s State) String() string {
	switch s {
	case StateUpToDate:
		return "up_to_date"
	case StateUpdateAvailable:
		return "update_available"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Verdict is the result of one check.
type Verdict struct {
	State State
	// Local is the cached local version; empty when it could not be resolved.
	Local string
	// Info is the normalized remote metadata. Zero when the check failed
	// before it was fetched.
	Info VersionInfo
	Err  error
}

// UpToDate builds an up-to-date verdict.
func UpToDate(local string, info VersionInfo) Verdict {
	return Verdict{State: StateUpToDate, Local: local, Info: info}
}

// UpdateAvailable builds an update-available verdict.
func UpdateAvailable(local string, info VersionInfo) Verdict {
	return Verdict{State: StateUpdateAvailable, Local: local, Info: info}
}

// CheckFailed builds a failed verdict.
func CheckFailed(err error) Verdict {
	return Verdict{State: StateFailed, Err: err}
}

// Kind returns the failure code for failed verdicts and "" otherwise.
func (v Verdict) Kind() appErrors.Code {
	if v.State != StateFailed {
		return ""
	}
	return appErrors.CodeOf(v.Err)
}

// Actionable reports whether the verdict carries a location the user can open.
func (v Verdict) Actionable() bool {
	return v.State == StateUpdateAvailable && v.Info.URL != ""
}
