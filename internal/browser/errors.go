package browser

import "fmt"

// Launch stages reported by LaunchError.
const (
	StageEngine  = "engine"
	StageBrowser = "browser"
	StageContext = "context"
	StagePage    = "page"
	StageTarget  = "target"
)

// LaunchError reports that a session could not be acquired. It is fatal
// for the run and never retried.
type LaunchError struct {
	Stage string
	Err   error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch failed at %s: %v", e.Stage, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }
