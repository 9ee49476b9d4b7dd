package analytics

// Cost band keys, as stored in snapshots and exported sheets.
const (
	BandBudget    = "0-10k"
	BandStandard  = "10k-50k"
	BandPremium   = "50k-100k"
	BandHighValue = "100k+"
)

// CostBands counts records per cost band. Band edges are inclusive on the
// upper side; negative costs land in the budget band.
type CostBands struct {
	Budget    int `json:"0-10k"`
	Standard  int `json:"10k-50k"`
	Premium   int `json:"50k-100k"`
	HighValue int `json:"100k+"`
}

// Add counts one record with the given cost.
func (b *CostBands) Add(cost float64) {
	switch {
	case cost <= 10000:
		b.Budget++
	case cost <= 50000:
		b.Standard++
	case cost <= 100000:
		b.Premium++
	default:
		b.HighValue++
	}
}

// Total is the number of records counted across all bands.
func (b CostBands) Total() int {
	return b.Budget + b.Standard + b.Premium + b.HighValue
}

// Band is one labelled entry of the distribution.
type Band struct {
	Key   string
	Label string
	Range string
	Count int
}

// Bands returns the four bands in ascending cost order.
func (b CostBands) Bands() []Band {
	return []Band{
		{Key: BandBudget, Label: "Budget", Range: "Rs.0-10k", Count: b.Budget},
		{Key: BandStandard, Label: "Standard", Range: "Rs.10k-50k", Count: b.Standard},
		{Key: BandPremium, Label: "Premium", Range: "Rs.50k-100k", Count: b.Premium},
		{Key: BandHighValue, Label: "High-Value", Range: "Rs.100k+", Count: b.HighValue},
	}
}

// Map returns the counts keyed by band key.
func (b CostBands) Map() map[string]int {
	return map[string]int{
		BandBudget:    b.Budget,
		BandStandard:  b.Standard,
		BandPremium:   b.Premium,
		BandHighValue: b.HighValue,
	}
}
