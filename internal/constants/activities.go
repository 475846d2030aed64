package constants

// Activity names used for workflow registration and execution.
// Using constants eliminates magic strings and ensures consistency.
const (
	// Routing
	RouteQueryActivity = "RouteQuery"

	// Workers
	GenerateChartActivity     = "GenerateChart"
	RetrieveDocumentsActivity = "RetrieveDocuments"

	// Synthesis
	SynthesizeAnswerActivity = "SynthesizeAnswer"

	// Streaming
	EmitRunUpdateActivity = "EmitRunUpdate"
)
