package provenance

const (
	defaultLongCommitHashConstant  = "0000000000000000000000000000000000000000"
	defaultShortCommitHashConstant = "0000000"
	defaultCommitDateConstant      = "1970-01-01 00:00:00 +0000"
	defaultBranchNameConstant      = "unknown"
)

const (
	workTreeStatusCleanStringConstant   = "clean"
	workTreeStatusDirtyStringConstant   = "dirty"
	workTreeStatusUnknownStringConstant = "unknown"
)

// WorkTreeStatus enumerates the possible cleanliness states of a working tree.
type WorkTreeStatus string

// Supported working tree states.
const (
	WorkTreeStatusClean   WorkTreeStatus = WorkTreeStatus(workTreeStatusCleanStringConstant)
	WorkTreeStatusDirty   WorkTreeStatus = WorkTreeStatus(workTreeStatusDirtyStringConstant)
	WorkTreeStatusUnknown WorkTreeStatus = WorkTreeStatus(workTreeStatusUnknownStringConstant)
)

// RepoStatus is an immutable snapshot of repository provenance captured at build time.
//
// Every field always holds a value; defaults substitute for data that could
// not be resolved. The short hash default keeps the historical seven-zero
// format even though resolved hashes are abbreviated to nine characters.
type RepoStatus struct {
	Version         string
	LongCommitHash  string
	ShortCommitHash string
	CommitDate      string
	WorkTreeStatus  WorkTreeStatus
	Branch          string
}

// NewDefaultRepoStatus builds a RepoStatus carrying the externally supplied version and default values everywhere else.
func NewDefaultRepoStatus(version string) RepoStatus {
	return RepoStatus{
		Version:         version,
		LongCommitHash:  defaultLongCommitHashConstant,
		ShortCommitHash: defaultShortCommitHashConstant,
		CommitDate:      defaultCommitDateConstant,
		WorkTreeStatus:  WorkTreeStatusUnknown,
		Branch:          defaultBranchNameConstant,
	}
}
