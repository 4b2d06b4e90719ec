package constants

// ResultStatus is the outcome recorded for one document in a batch run.
type ResultStatus string

const (
	StatusOK          ResultStatus = "OK"          // text extracted and analyzed
	StatusNoText      ResultStatus = "NO_TEXT"     // extraction produced nothing
	StatusUnsupported ResultStatus = "UNSUPPORTED" // rejected before extraction
	StatusFailed      ResultStatus = "FAILED"      // unexpected failure
)
