package anonymize

import (
	"encoding/csv"
	"fmt"
	"io"
)

// MapRow ties a student's real identity to the pseudonym their data is
// published under. Rows only exist inside an explicit administrator export.
type MapRow struct {
	RealName    string
	RealID      string
	RealEmail   string
	AnonymousID string
}

var csvHeader = []string{"real_name", "real_id", "real_email", "anonymous_id"}

// WriteCSV writes the de-anonymization map in the fixed four-column layout
// administrators expect.
func WriteCSV(w io.Writer, rows []MapRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.RealName, r.RealID, r.RealEmail, r.AnonymousID}); err != nil {
			return fmt.Errorf("writing row for %s: %w", r.RealID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
