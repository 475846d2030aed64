package vectordb

import "time"

// Config controls Qdrant client behavior
type Config struct {
	Enabled bool
	Host    string
	Port    int
	// DocumentChunks is the collection holding tenant document chunks
	DocumentChunks string
	// Search params
	TopK      int
	Threshold float64
	Timeout   time.Duration
}
