// Package export renders client booking history as xlsx workbooks.
package export

import (
	"fmt"
	"io"

	"notaryportal/internal/booking"
	"notaryportal/internal/models"
)

// ContentType is the MIME type of the workbooks written here.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const historySheet = "History"

var historyColumns = []string{"ID", "Date", "Time", "Service", "Urgency", "Status", "Rating", "Feedback"}

// WriteHistory writes jobs to w as a single-sheet workbook with a bold
// header row and one row per job.
func WriteHistory(w io.Writer, jobs []models.Job) error {
	sw := NewSheetWriter()
	defer sw.Close()

	if err := sw.AddSheet(historySheet); err != nil {
		return err
	}
	if err := sw.WriteHeader(historyColumns); err != nil {
		return err
	}
	for _, j := range jobs {
		var rating any
		if j.ClientRating > 0 {
			rating = j.ClientRating
		}
		row := []any{
			j.ID.String(),
			j.Date,
			j.Time,
			j.Service,
			j.Urgency,
			booking.StatusText(j.Status),
			rating,
			j.ClientFeedback,
		}
		if err := sw.WriteRow(row); err != nil {
			return fmt.Errorf("write job %s: %w", j.ID, err)
		}
	}
	if err := sw.Save(w); err != nil {
		return fmt.Errorf("save history workbook: %w", err)
	}
	return nil
}

// HistoryFilename names the download for a client.
func HistoryFilename(clientID, date string) string {
	return fmt.Sprintf("notary-history-%s-%s.xlsx", clientID, date)
}
