package models

import "time"

// ConnectionTTL is how long a connection record lives before DynamoDB may evict it
const ConnectionTTL = 24 * time.Hour

// ConnectionRecord represents an active WebSocket connection
type ConnectionRecord struct {
	ID  string `json:"id" dynamodbav:"id"`
	TTL int64  `json:"ttl" dynamodbav:"ttl"` // DynamoDB TTL for auto-cleanup
}

// NewConnectionRecord creates a record for connectionID expiring ConnectionTTL after now
func NewConnectionRecord(connectionID string, now time.Time) ConnectionRecord {
	return ConnectionRecord{
		ID:  connectionID,
		TTL: now.Add(ConnectionTTL).Unix(),
	}
}

// Expired reports whether the record's TTL has passed at now
func (r ConnectionRecord) Expired(now time.Time) bool {
	return r.TTL <= now.Unix()
}
