package logger

// Standard field keys for structured logging.
// Use these keys consistently across log statements so aggregated logs can
// be queried by hash, monitor, or loop name regardless of which component
// emitted the line.
const (
	// ========================================================================
	// Identity & correlation
	// ========================================================================
	KeyFingerprint = "fingerprint" // this node's identity
	KeyRequestID   = "request_id"  // per-HTTP-request correlation id

	// ========================================================================
	// Inventory
	// ========================================================================
	KeyHash        = "hash"         // content hash, primary key of the inventory
	KeyFilename    = "filename"     // original upload filename
	KeyContentType = "content_type" // MIME type of a stored file
	KeySize        = "size"         // byte size of a file or payload

	// ========================================================================
	// Peers
	// ========================================================================
	KeyMonitorAddr = "monitor_addr" // address of a monitor being contacted
	KeyNodeAddr    = "node_addr"    // address of a peer node being contacted
	KeyRegion      = "region"       // region/bound tag of a monitor

	// ========================================================================
	// Loops & background work
	// ========================================================================
	KeyLoop     = "loop"     // ping, recover, distribute, http
	KeyQueue    = "queue"    // to_recover, to_distribute
	KeyAttempt  = "attempt"  // retry attempt counter
	KeyDuration = "duration" // operation duration

	// ========================================================================
	// Outcome
	// ========================================================================
	KeyStatus = "status" // http status code or outcome label
	KeyError  = "error"  // error message
)
