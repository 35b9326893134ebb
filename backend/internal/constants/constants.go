package constants

// API constants
const (
	// APIVersionPrefix is the path prefix of every part endpoint
	APIVersionPrefix = "/v1"
	// PartsPath is the collection path under APIVersionPrefix
	PartsPath = "/parts"
)

// Query parameters
const (
	QueryFilter = "filter"
	QueryAction = "action"
)

// Result descriptions returned in the response envelope
const (
	DescListed    = "Fetched all parts successfully"
	DescCreated   = "New part created successfully"
	DescFound     = "Found part in parts list"
	DescDeleted   = "Deleted part from list"
	DescUpdated   = "Part children updated successfully"
	DescContained = "Fetched containing assemblies successfully"
)

// Persistence constants
const (
	// SnapshotBucket is the key the graph snapshot is stored under in the
	// bucket tables of the SQL stores
	SnapshotBucket = "parts"
	// SaveTimeoutSeconds bounds one snapshot save
	SaveTimeoutSeconds = 30
)
