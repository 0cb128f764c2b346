package syncengine

// SyncMode controls whether the freshness check may short-circuit a task.
type SyncMode int

const (
	// ModeNormal skips the upstream call when the cache is fresh.
	ModeNormal SyncMode = iota
	// ModeForce always calls upstream, bypassing the freshness check.
	ModeForce
)

func (m SyncMode) String() string {
	if m == ModeForce {
		return "force"
	}
	return "normal"
}
