package draft

// DraftOutput carries the form after an operation.
type DraftOutput struct {
	Body Draft
}

// EntryAppendOutput for POST /draft/sections/{section}/entries (201 Created)
type EntryAppendOutput struct {
	Location string `header:"Location" doc:"URL of the draft"`
	Body     Draft
}

// DraftSubmitOutput for POST /draft/submit
type DraftSubmitOutput struct {
	Body Submission
}
