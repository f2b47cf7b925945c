package main

import (
	"time"

	"github.com/rxtech-lab/argo-intraday/internal/status"
)

// StatusMsg carries a freshly read status record.
type StatusMsg struct {
	Record status.Record
}

// StatusErrorMsg indicates the status could not be read.
type StatusErrorMsg struct {
	Err error
}

// TickMsg triggers the next refresh.
type TickMsg time.Time
