package filestore

import "time"

// FileEntry is the metadata record for one stored file. Bytes
// are fetched on demand from Path; the entry holds only metadata in memory.
type FileEntry struct {
	Hash        string `json:"hash"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Path        string `json:"path"`
}

// RecoverEntry is a pending recover task: a hash the monitor
// told this node to pull, with a last_checked timestamp supporting the
// 5-minute cool-down and a count of prior failed attempts.
type RecoverEntry struct {
	Hash        string    `json:"hash"`
	LastChecked time.Time `json:"last_checked"`
	Attempt     int       `json:"attempt"`
}

// recoverCooldown is the fixed interval required between retries of the
// same recover entry.
const recoverCooldown = 5 * time.Minute

// eligibleImmediately is used when a ping response hands us a hash to
// recover: it sets last_checked to epoch 1970-01-01T00:01:01Z so the entry
// is immediately eligible on the first recover iteration.
var eligibleImmediately = time.Unix(61, 0).UTC()

// NewRecoverEntry builds a RecoverEntry eligible for immediate recovery, as
// produced by a successful ping response.
func NewRecoverEntry(hash string) RecoverEntry {
	return RecoverEntry{Hash: hash, LastChecked: eligibleImmediately}
}

// waitedEnough reports whether the cool-down since LastChecked has elapsed.
func (e RecoverEntry) waitedEnough(now time.Time) bool {
	return now.Sub(e.LastChecked) > recoverCooldown
}
