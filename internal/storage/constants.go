package db

import "time"

// Action log action types.
const (
	ActionPublish     = "publish"
	ActionPublishEdit = "publish_edit"
	ActionReply       = "reply"
	ActionJoin        = "join"
	ActionJoinPublic  = "join_public"
	ActionBroadcast   = "broadcast"
)

// Action log statuses.
const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// Database connection constants
const (
	// ConnectionRetrySleep is the sleep duration between connection retries
	ConnectionRetrySleep = 2 * time.Second
	// maxConnectionRetries is the number of retries for initial connection
	maxConnectionRetries = 10
)

// Database pool default constants
const (
	defaultMaxConns          int32         = 10
	defaultMinConns          int32         = 2
	defaultMaxConnIdleTime   time.Duration = 30 * time.Minute
	defaultMaxConnLifetime   time.Duration = time.Hour
	defaultHealthCheckPeriod time.Duration = time.Minute
)
