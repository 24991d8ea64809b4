package analysis

// RowAnalysisResult holds the statistics of one data row of a table.
type RowAnalysisResult struct {
	Index   int    // row index in the table
	RowID   string // e.g. "r0 c3 run1 O2A"
	Row     int
	Column  int
	Run     int
	Channel string

	NumValid   int // non-NaN samples
	NumMissing int // NaN samples

	Mean   float64
	StdDev float64 // population standard deviation
	Min    float64
	Max    float64
	Range  float64
}

// RankedRowInfo is used for ranking rows by different criteria.
type RankedRowInfo struct {
	RowID   string
	Channel string
	Value   float64
}

// ChannelSummary aggregates all rows of one channel.
type ChannelSummary struct {
	Channel    string
	Rows       int
	MeanOfMean float64
	MeanStdDev float64
	Missing    int
}

// AnalysisResults holds all results from the analysis.
type AnalysisResults struct {
	Results         []RowAnalysisResult
	Channels        []ChannelSummary
	RankedByRange   []RankedRowInfo // Sorted by range, descending
	RankedByMissing []RankedRowInfo // Rows with NaN samples, most first
	AnalysisErrors  []string
}

func NewAnalysisResults() *AnalysisResults {
	return &AnalysisResults{
		Results:         make([]RowAnalysisResult, 0),
		Channels:        make([]ChannelSummary, 0),
		RankedByRange:   make([]RankedRowInfo, 0),
		RankedByMissing: make([]RankedRowInfo, 0),
		AnalysisErrors:  make([]string, 0),
	}
}

// ChannelPair links the amplitude and phase rows of one harmonic at one
// pixel and run.
type ChannelPair struct {
	Row, Column, Run int
	Harmonic         int
	AmplitudeIndex   int
	PhaseIndex       int
}
