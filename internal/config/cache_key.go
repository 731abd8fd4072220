package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// SessionCountersKey returns the hash key holding a session's live logistics
// counters (fields: checked_in, scripts_submitted).
func (r *CacheKeyStruct) SessionCountersKey(sessionID string) string {
	return fmt.Sprintf("session:%s:counters", sessionID)
}

// SessionPendingCheckinsKey returns the set of student IDs whose check-in is
// queued but not yet flushed to PostgreSQL. Guards against double-enqueueing
// while the write is in flight.
func (r *CacheKeyStruct) SessionPendingCheckinsKey(sessionID string) string {
	return fmt.Sprintf("session:%s:pending_checkins", sessionID)
}

// SessionMonitorChannel returns the Redis PubSub channel name for a session's
// live monitor feed.
func (r *CacheKeyStruct) SessionMonitorChannel(sessionID string) string {
	return fmt.Sprintf("session:%s:monitor", sessionID)
}

var CacheKey = NewCacheKeyStruct()
