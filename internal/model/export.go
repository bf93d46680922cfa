package model

import "time"

// Export is the audit record of a generated report. Only metadata is stored;
// downloads regenerate the document from the saved date range.
type Export struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"-"`
	Filename  string    `json:"filename"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Kind      string    `json:"exportType"`
	FileSize  int       `json:"fileSize"`
	CreatedAt time.Time `json:"createdAt"`
}

// Export kinds.
const ExportKindFinances = "finances"
