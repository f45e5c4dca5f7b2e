package analysis

import "gastruloid/internal/models"

// Table is the exported form of a run's results: the header followed by one row
// per set and a trailing average row.
type Table struct {
	Profile string             `json:"profile"`
	Header  []string           `json:"header"`
	Rows    []TableRow         `json:"rows"`
	Maxima  map[string]float64 `json:"maxima"`
}

// TableRow holds one labelled row of channel profiles
type TableRow struct {
	Label  string    `json:"label"`
	Status string    `json:"status,omitempty"`
	Reason string    `json:"reason,omitempty"`
	Dapi   []float64 `json:"dapi"`
	Red    []float64 `json:"red"`
	Green  []float64 `json:"green"`
	Cyan   []float64 `json:"cyan"`
}

// ExportTable converts results into their exported form
func ExportTable(profileName string, results *models.Results) *Table {
	t := &Table{
		Profile: profileName,
		Header:  models.Header,
		Maxima:  map[string]float64{},
	}

	for i, row := range results.Rows() {
		r := TableRow{
			Label: row.Label,
			Dapi:  row.Profiles[models.Dapi],
			Red:   row.Profiles[models.Red],
			Green: row.Profiles[models.Green],
			Cyan:  row.Profiles[models.Cyan],
		}
		if i < len(results.Sets) {
			r.Status = results.Sets[i].Status.String()
			r.Reason = results.Sets[i].Reason
		}
		t.Rows = append(t.Rows, r)
	}

	for _, c := range models.Channels {
		t.Maxima[c.String()] = results.Maxima[c]
	}
	return t
}
