package constants

// Source names the component that appended an interaction record.
type Source string

// Stable values (store these exact strings in the interaction log).
const (
	SourceClassifier      Source = "classifier"
	SourceEmailHandler    Source = "email_handler"
	SourceJSONHandler     Source = "json_handler"
	SourceDocumentHandler Source = "document_handler"
	SourceDispatcher      Source = "dispatcher"
)

// Record intents written by handlers alongside (or instead of) a classified intent.
const (
	RecordIntentError           = "Error"
	RecordIntentUnhandled       = "Unhandled"
	RecordIntentProcessedJSON   = "Processed JSON"
	RecordIntentProcessedPDF    = "Processed PDF"
	RecordIntentExtractionError = "Extraction Error"
	RecordIntentNoText          = "No Text"
)

// Result status values carried under the "status" key of an extraction result.
const (
	StatusError = "error"
)
