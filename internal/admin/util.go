package admin

import (
	"time"

	"github.com/authcore-dev/authd/internal/idgen"
)

func newEventID() (string, error) {
	return idgen.New("evt", 16)
}

func nowUnixFloat() float64 {
	return float64(time.Now().UTC().UnixNano()) / float64(time.Second)
}

// parseOptionalRFC3339 parses a nullable RFC3339 timestamp string. A
// nil input means expire immediately at the next verify: it yields the
// current time, so the outgoing secret no longer counts as active.
func parseOptionalRFC3339(s *string) (*time.Time, bool) {
	if s == nil {
		now := time.Now().UTC()
		return &now, true
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, false
	}
	return &t, true
}
