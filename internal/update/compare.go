package update

// Compare returns UpToDate when remote.Version equals local and
// UpdateAvailable otherwise. The comparison is exact text: a local build that
// is newer than the published one still counts as "update available".
func Compare(local string, remote VersionInfo) Verdict {
	if remote.Version == local {
		return UpToDate(local, remote)
	}
	return UpdateAvailable(local, remote)
}
