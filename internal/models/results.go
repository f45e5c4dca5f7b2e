package models

import "gonum.org/v1/gonum/mat"

// ProfileLength is the number of samples every intensity profile is resampled to
const ProfileLength = 10000

// IntensityProfile is the summed intensity along the anterior-posterior axis,
// resampled to ProfileLength samples.
type IntensityProfile []float64

// NewZeroProfile returns an all-zero profile of ProfileLength samples
func NewZeroProfile() IntensityProfile {
	return make(IntensityProfile, ProfileLength)
}

// IsZero reports whether every sample is zero
func (p IntensityProfile) IsZero() bool {
	for _, v := range p {
		if v != 0 {
			return false
		}
	}
	return true
}

// ChannelProfiles holds one profile per channel role, indexed by Channel
type ChannelProfiles [NumChannels]IntensityProfile

// ZeroProfiles returns four all-zero profiles
func ZeroProfiles() ChannelProfiles {
	var p ChannelProfiles
	for i := range p {
		p[i] = NewZeroProfile()
	}
	return p
}

// SetStatus tags the outcome of processing one image set
type SetStatus int

const (
	// StatusSuccess means the set was segmented and quantified
	StatusSuccess SetStatus = iota
	// StatusDegraded means segmentation failed and the set carries zero profiles
	StatusDegraded
)

func (s SetStatus) String() string {
	if s == StatusDegraded {
		return "degraded"
	}
	return "success"
}

// SetResult is the outcome of processing one image set
type SetResult struct {
	Index    int
	Name     string
	Status   SetStatus
	Reason   string
	Profiles ChannelProfiles
}

// Success builds a result for a set that was fully quantified
func Success(index int, name string, profiles ChannelProfiles) SetResult {
	return SetResult{Index: index, Name: name, Status: StatusSuccess, Profiles: profiles}
}

// Degraded builds a zero-profile result for a set that could not be segmented
func Degraded(index int, name string, reason string) SetResult {
	return SetResult{Index: index, Name: name, Status: StatusDegraded, Reason: reason, Profiles: ZeroProfiles()}
}

// Header is the column header of the results table
var Header = []string{"Image Set", "DAPI", "Red", "Green", "Cyan"}

// AverageRowName labels the trailing row holding the cross-set mean profiles
const AverageRowName = "average"

// Results is the table produced by a run: one record per set, the per-channel
// matrices (rows follow set order) and the cross-set average.
type Results struct {
	Sets []SetResult

	// Matrices holds one (sets x ProfileLength) matrix per channel. They are nil
	// when the run contains no sets.
	Matrices [NumChannels]*mat.Dense

	// Average is the column-wise mean of each normalized matrix
	Average ChannelProfiles

	// Maxima holds the per-channel global maximum used as normalization divisor
	Maxima [NumChannels]float64
}

// ResultsRow is one labelled row of the results table
type ResultsRow struct {
	Label    string
	Profiles ChannelProfiles
}

// Rows returns the set rows followed by the average row. Together with Header the
// table always has len(Sets)+2 rows.
func (r *Results) Rows() []ResultsRow {
	rows := make([]ResultsRow, 0, len(r.Sets)+1)
	for _, s := range r.Sets {
		rows = append(rows, ResultsRow{Label: s.Name, Profiles: s.Profiles})
	}
	rows = append(rows, ResultsRow{Label: AverageRowName, Profiles: r.Average})
	return rows
}

// NumSets returns the number of processed sets
func (r *Results) NumSets() int {
	return len(r.Sets)
}

// DegradedSets returns the names of sets that fell back to zero profiles
func (r *Results) DegradedSets() []string {
	var names []string
	for _, s := range r.Sets {
		if s.Status == StatusDegraded {
			names = append(names, s.Name)
		}
	}
	return names
}
