package chemenv

// Observer receives progress callbacks at well-defined checkpoints. The
// engine never blocks on an observer; implementations must be fast and
// safe for concurrent SiteDone calls.
type Observer interface {
	// GridStart fires once before any site is processed.
	GridStart(runID string, numSites int)
	// SiteDone fires after each site completes, with its error if any.
	SiteDone(runID string, siteIndex int, err error)
	// GridEnd fires once after every site has completed.
	GridEnd(runID string, failed int)
}

// NopObserver ignores all callbacks.
type NopObserver struct{}

func (NopObserver) GridStart(string, int)       {}
func (NopObserver) SiteDone(string, int, error) {}
func (NopObserver) GridEnd(string, int)         {}
