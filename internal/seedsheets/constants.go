package seedsheets

import "time"

// HTTP status code constants.
const (
	StatusOK       = 200
	StatusCreated  = 201
	StatusAccepted = 202
)

// Sheet format names accepted by the generator.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// Job polling constants.
const (
	PollInterval         = 500 * time.Millisecond
	PercentageMultiplier = 100
)
