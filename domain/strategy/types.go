// Package strategy defines the structured output of strategy synthesis.
// A WinningStrategy is a read-only snapshot: consumers project it, never edit it.
package strategy

import "campaignintel/domain/core"

// Status classifies a constituency from our party's position.
type Status string

const (
	StatusHeld         Status = "HELD"
	StatusWinnable     Status = "WINNABLE"
	StatusBattleground Status = "BATTLEGROUND"
	StatusDifficult    Status = "DIFFICULT"
)

// Level is a coarse three-step rating used by risks and conversion paths.
type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

// VoteBankBreakdown holds three disjoint voter pools. Together they are a
// subset of the electorate, not a partition of it.
type VoteBankBreakdown struct {
	TotalVoters int `json:"total_voters"`
	Committed   int `json:"committed"`
	Swing       int `json:"swing"`
	Convertible int `json:"convertible"`
}

// Sum is committed + swing + convertible.
func (v VoteBankBreakdown) Sum() int {
	return v.Committed + v.Swing + v.Convertible
}

// Unallocated is the electorate outside all three pools.
func (v VoteBankBreakdown) Unallocated() int {
	return v.TotalVoters - v.Sum()
}

// VoterSegment is one addressable slice of the electorate.
type VoterSegment struct {
	Rule                 string   `json:"rule"`
	Name                 string   `json:"name"`
	Size                 int      `json:"size"`
	Alignment            string   `json:"alignment"`
	ConversionLikelihood float64  `json:"conversion_likelihood"`
	KeyIssues            []string `json:"key_issues"`
	Approach             string   `json:"approach"`
}

// ExpectedConversions is size weighted by conversion likelihood.
func (s VoterSegment) ExpectedConversions() float64 {
	return float64(s.Size) * s.ConversionLikelihood / 100
}

// BoothPlan is the polling-booth coverage of the ground operation.
type BoothPlan struct {
	Total    int    `json:"total"`
	Weak     int    `json:"weak"`
	Adequate int    `json:"adequate"`
	Basis    string `json:"basis"`
}

// Workforce sizes the volunteer structure.
type Workforce struct {
	PerBooth      int     `json:"per_booth"`
	Multiplier    float64 `json:"multiplier"`
	BoothWorkers  int     `json:"booth_workers"`
	PageInCharges int     `json:"page_in_charges"`
	Total         int     `json:"total"`
}

// BudgetLine is one category of the campaign budget.
type BudgetLine struct {
	Category string `json:"category"`
	Percent  int    `json:"percent"`
	Amount   int64  `json:"amount"`
}

// Budget is the campaign spend estimate, in whole currency units.
type Budget struct {
	PerVoterRate float64      `json:"per_voter_rate"`
	Total        int64        `json:"total"`
	BandLow      int64        `json:"band_low"`
	BandHigh     int64        `json:"band_high"`
	Band         string       `json:"band"`
	Allocation   []BudgetLine `json:"allocation"`
}

// GroundPlan is the ground-operations sizing.
type GroundPlan struct {
	Booths    BoothPlan `json:"booths"`
	Workforce Workforce `json:"workforce"`
	Budget    Budget    `json:"budget"`
}

// ConversionPath projects moving one segment from current to target support.
type ConversionPath struct {
	Segment      string `json:"segment"`
	CurrentVotes int    `json:"current_votes"`
	TargetVotes  int    `json:"target_votes"`
	Strategy     string `json:"strategy"`
	Confidence   Level  `json:"confidence"`
}

// Risk is one entry of the risk register.
type Risk struct {
	Threat      string `json:"threat"`
	Probability Level  `json:"probability"`
	Impact      Level  `json:"impact"`
	Mitigation  string `json:"mitigation"`
}

// Phase is one block of the campaign timeline.
type Phase struct {
	Name       string   `json:"name"`
	StartWeek  int      `json:"start_week"`
	EndWeek    int      `json:"end_week"`
	Objective  string   `json:"objective"`
	Activities []string `json:"activities"`
}

// Narrative is the lead campaign theme.
type Narrative string

const (
	NarrativeChange      Narrative = "change"
	NarrativeDevelopment Narrative = "development"
)

// WinningStrategy is the terminal artifact of synthesis.
type WinningStrategy struct {
	ConstituencyID core.ConstituencyID `json:"constituency_id"`
	Name           string              `json:"name"`
	District       string              `json:"district"`
	Region         string              `json:"region"`

	Status         Status  `json:"status"`
	PriorityScore  int     `json:"priority_score"`
	PriorityTier   int     `json:"priority_tier"`
	WinProbability float64 `json:"win_probability"`
	SwingNeeded    float64 `json:"swing_needed"`

	VoteBank        VoteBankBreakdown `json:"vote_bank"`
	Segments        []VoterSegment    `json:"segments"`
	GroundPlan      GroundPlan        `json:"ground_plan"`
	ConversionPaths []ConversionPath  `json:"conversion_paths"`
	Risks           []Risk            `json:"risks"`
	Phases          []Phase           `json:"phases"`

	LeadNarrative   Narrative `json:"lead_narrative"`
	KeyMessages     []string  `json:"key_messages"`
	EstimatedFields []string  `json:"estimated_fields,omitempty"`
	Summary         string    `json:"summary"`
}

// Fingerprint hashes the snapshot; identical syntheses share a fingerprint.
func (w *WinningStrategy) Fingerprint() (core.Hash, error) {
	return core.Fingerprint(w)
}

// Clone returns a deep copy so callers can hand out snapshots without sharing
// slices. Nil slices stay nil.
func (w *WinningStrategy) Clone() *WinningStrategy {
	c := *w
	if w.Segments != nil {
		c.Segments = make([]VoterSegment, len(w.Segments))
		for i, s := range w.Segments {
			s.KeyIssues = cloneStrings(s.KeyIssues)
			c.Segments[i] = s
		}
	}
	if w.Phases != nil {
		c.Phases = make([]Phase, len(w.Phases))
		for i, p := range w.Phases {
			p.Activities = cloneStrings(p.Activities)
			c.Phases[i] = p
		}
	}
	if w.GroundPlan.Budget.Allocation != nil {
		c.GroundPlan.Budget.Allocation = append([]BudgetLine{}, w.GroundPlan.Budget.Allocation...)
	}
	if w.ConversionPaths != nil {
		c.ConversionPaths = append([]ConversionPath{}, w.ConversionPaths...)
	}
	if w.Risks != nil {
		c.Risks = append([]Risk{}, w.Risks...)
	}
	c.KeyMessages = cloneStrings(w.KeyMessages)
	c.EstimatedFields = cloneStrings(w.EstimatedFields)
	return &c
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string{}, s...)
}
