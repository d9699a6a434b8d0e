package excel

// RawRowData represents a row of raw sheet data keyed by normalized header
type RawRowData map[string]string

// SheetData represents a complete constituency sheet
type SheetData struct {
	Headers []string     // Normalized column headers
	Rows    []RawRowData // Data rows, blank rows dropped
}

// Column names understood by RecordsFromSheet. Demographic columns use a
// group prefix followed by the category, e.g. "caste_obc" or "age_18-35".
const (
	ColID                   = "id"
	ColName                 = "name"
	ColDistrict             = "district"
	ColRegion               = "region"
	ColTotalVoters          = "total_voters"
	ColClassification       = "classification"
	ColOurParty             = "our_party"
	ColOurPosition          = "our_position"
	ColOurVoteShare         = "our_vote_share"
	ColYear                 = "year"
	ColWinningParty         = "winning_party"
	ColRunnerUpParty        = "runner_up_party"
	ColWinnerVoteShare      = "winner_vote_share"
	ColRunnerUpVoteShare    = "runner_up_vote_share"
	ColMarginPercent        = "margin_percent"
	ColTurnout              = "turnout"
	ColAntiIncumbency       = "anti_incumbency"
	ColPolicyImpact         = "policy_impact"
	ColWelfareDependency    = "welfare_dependency"
	ColUnemployment         = "unemployment"
	ColCorruptionPerception = "corruption_perception"
	ColNamedIncumbent       = "named_incumbent"
	ColCapitalDistrict      = "capital_district"

	PrefixReligion = "religion_"
	PrefixCaste    = "caste_"
	PrefixAge      = "age_"
	PrefixGender   = "gender_"
)
