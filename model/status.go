package model

// SubmissionStatus is the moderation state of a submitted record. Rejection
// deletes the pending row, so no stored record is ever rejected.
type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "pending"
	StatusApproved SubmissionStatus = "approved"
)
