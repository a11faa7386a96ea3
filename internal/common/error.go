package common

import "fmt"

var (
	ErrSourceNotFound      = fmt.Errorf("source file not found")
	ErrJobNotFound         = fmt.Errorf("job not found")
	ErrBatchAlreadyRunning = fmt.Errorf("batch run has already started")
	ErrInvalidFingerprint  = fmt.Errorf("invalid fingerprint")
	ErrInvalidSegment      = fmt.Errorf("invalid segment bounds")
)
