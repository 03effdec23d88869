package hints

import (
	"fmt"
	"time"

	"github.com/noooah2000/solve-next/internal/attempts"
)

// ErrHintNotReady reports an escalation request that arrived before its
// gate opened. The session is left unchanged.
type ErrHintNotReady struct {
	Tier      attempts.HintTier
	Remaining time.Duration
	Reason    string
}

func (e *ErrHintNotReady) Error() string {
	if e.Remaining > 0 {
		return fmt.Sprintf("%s hint not ready: %s (try again in %s)",
			e.Tier, e.Reason, e.Remaining.Round(time.Second))
	}
	return fmt.Sprintf("%s hint not ready: %s", e.Tier, e.Reason)
}

// ErrHintGenerationFailed reports that the hint generator failed. The
// requested tier remains locked; the caller may retry explicitly.
type ErrHintGenerationFailed struct {
	Tier attempts.HintTier
	Err  error
}

func (e *ErrHintGenerationFailed) Error() string {
	return fmt.Sprintf("generating %s hint: %v", e.Tier, e.Err)
}

func (e *ErrHintGenerationFailed) Unwrap() error { return e.Err }
