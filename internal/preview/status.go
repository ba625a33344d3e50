package preview

import "sync"

// BuildStatus tracks the outcome of the most recent build for the server.
type BuildStatus struct {
	mu           sync.RWMutex
	lastError    error
	hasGoodBuild bool // true if at least one successful build exists
}

// SetError records a failed build.
func (bs *BuildStatus) SetError(err error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = err
}

// SetSuccess records a successful build.
func (bs *BuildStatus) SetSuccess() {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = nil
	bs.hasGoodBuild = true
}

// Record calls SetError or SetSuccess depending on err.
func (bs *BuildStatus) Record(err error) {
	if err != nil {
		bs.SetError(err)
		return
	}
	bs.SetSuccess()
}

// Get returns the last build error, if any, and whether any build has succeeded.
func (bs *BuildStatus) Get() (lastErr error, hasGoodBuild bool) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.lastError, bs.hasGoodBuild
}
