package synthesis

import (
	"fmt"
	"os"

	"campaignintel/domain/core"

	"gopkg.in/yaml.v3"
)

// Weights gathers every tunable constant of the engine. The engine reads it and
// never writes it, so one Weights value may back any number of concurrent runs.
type Weights struct {
	VoteBank   VoteBankWeights   `yaml:"vote_bank"`
	Scoring    ScoringWeights    `yaml:"scoring"`
	WinProb    WinProbWeights    `yaml:"win_probability"`
	Segments   SegmentThresholds `yaml:"segments"`
	Ground     GroundWeights     `yaml:"ground"`
	Budget     BudgetWeights     `yaml:"budget"`
	Conversion ConversionWeights `yaml:"conversion"`
}

// VoteBankWeights drive the vote-bank decomposition.
type VoteBankWeights struct {
	RetentionRate  float64 `yaml:"retention_rate"`
	SwingPoolShare float64 `yaml:"swing_pool_share"`
}

// ScoringWeights drive the priority score and tiering.
type ScoringWeights struct {
	WinnableBonus        float64 `yaml:"winnable_bonus"`
	BattlegroundBonus    float64 `yaml:"battleground_bonus"`
	HeldBonus            float64 `yaml:"held_bonus"`
	DifficultBonus       float64 `yaml:"difficult_bonus"`
	SwingPenalty         float64 `yaml:"swing_penalty"`
	AntiIncumbencyWeight float64 `yaml:"anti_incumbency_weight"`
	PolicyHighBonus      float64 `yaml:"policy_high_bonus"`
	PolicyMediumBonus    float64 `yaml:"policy_medium_bonus"`
	NamedIncumbentBonus  float64 `yaml:"named_incumbent_bonus"`
	CapitalDistrictBonus float64 `yaml:"capital_district_bonus"`

	// Tier thresholds on the integer score; tier 1 is the most urgent.
	Tier1Min int `yaml:"tier1_min"`
	Tier2Min int `yaml:"tier2_min"`
	Tier3Min int `yaml:"tier3_min"`
}

// WinProbWeights drive the win-probability formula and status thresholds.
type WinProbWeights struct {
	HeldBase            float64 `yaml:"held_base"`
	HeldMarginCap       float64 `yaml:"held_margin_cap"`
	ChallengerCeiling   float64 `yaml:"challenger_ceiling"`
	SwingScale          float64 `yaml:"swing_scale"`
	AntiIncumbencyPivot float64 `yaml:"anti_incumbency_pivot"`
	AntiIncumbencyLift  float64 `yaml:"anti_incumbency_lift"`
	Floor               float64 `yaml:"floor"`
	Ceiling             float64 `yaml:"ceiling"`

	// Status is WINNABLE when probability > WinnableAbove, BATTLEGROUND when
	// > BattlegroundAbove. Both comparisons are strict.
	WinnableAbove     float64 `yaml:"winnable_above"`
	BattlegroundAbove float64 `yaml:"battleground_above"`
}

// SegmentThresholds gate the segment rules that depend on a level, not presence.
type SegmentThresholds struct {
	YouthPercent         float64 `yaml:"youth_percent"`
	WomenPercent         float64 `yaml:"women_percent"`
	WelfareDependency    float64 `yaml:"welfare_dependency"`
	Unemployment         float64 `yaml:"unemployment"`
	AntiIncumbency       float64 `yaml:"anti_incumbency"`
	UrbanMiddleClass     float64 `yaml:"urban_middle_class_percent"`
	SemiUrbanMiddleClass float64 `yaml:"semi_urban_middle_class_percent"`
	RuralFarmHouseholds  float64 `yaml:"rural_farm_households_percent"`
}

// GroundWeights size booths and the workforce.
type GroundWeights struct {
	VotersPerBooth         int     `yaml:"voters_per_booth"`
	WorkersPerBooth        int     `yaml:"workers_per_booth"`
	BattlegroundMultiplier float64 `yaml:"battleground_multiplier"`
	VotersPerPage          int     `yaml:"voters_per_page"`
	WeakBoothShare         float64 `yaml:"weak_booth_share"`
	ProxyParityShare       float64 `yaml:"proxy_parity_share"`
	ProxyWeakMin           float64 `yaml:"proxy_weak_min"`
	ProxyWeakMax           float64 `yaml:"proxy_weak_max"`
}

// BudgetCategory is one spend bucket; all percents must total 100.
type BudgetCategory struct {
	Name    string `yaml:"name"`
	Percent int    `yaml:"percent"`
}

// BudgetWeights price the campaign. RatePerVoter is indexed by tier-1.
type BudgetWeights struct {
	RatePerVoter []float64        `yaml:"rate_per_voter"`
	BandSpread   float64          `yaml:"band_spread"`
	Categories   []BudgetCategory `yaml:"categories"`
}

// ConversionWeights shape conversion paths and narrative choice.
type ConversionWeights struct {
	Ceiling          float64 `yaml:"ceiling"`
	MaxPaths         int     `yaml:"max_paths"`
	ChangeNarrative  float64 `yaml:"change_narrative_above"`
	HighConfidence   float64 `yaml:"high_confidence_min"`
	MediumConfidence float64 `yaml:"medium_confidence_min"`
}

// DefaultWeights returns the calibrated production constants.
func DefaultWeights() Weights {
	return Weights{
		VoteBank: VoteBankWeights{
			RetentionRate:  0.75,
			SwingPoolShare: 0.15,
		},
		Scoring: ScoringWeights{
			WinnableBonus:        100,
			BattlegroundBonus:    80,
			HeldBonus:            60,
			DifficultBonus:       20,
			SwingPenalty:         2,
			AntiIncumbencyWeight: 0.5,
			PolicyHighBonus:      20,
			PolicyMediumBonus:    10,
			NamedIncumbentBonus:  15,
			CapitalDistrictBonus: 10,
			Tier1Min:             120,
			Tier2Min:             90,
			Tier3Min:             60,
		},
		WinProb: WinProbWeights{
			HeldBase:            75,
			HeldMarginCap:       20,
			ChallengerCeiling:   70,
			SwingScale:          5,
			AntiIncumbencyPivot: 50,
			AntiIncumbencyLift:  0.2,
			Floor:               2,
			Ceiling:             95,
			WinnableAbove:       65,
			BattlegroundAbove:   35,
		},
		Segments: SegmentThresholds{
			YouthPercent:         30,
			WomenPercent:         48,
			WelfareDependency:    60,
			Unemployment:         60,
			AntiIncumbency:       60,
			UrbanMiddleClass:     30,
			SemiUrbanMiddleClass: 20,
			RuralFarmHouseholds:  45,
		},
		Ground: GroundWeights{
			VotersPerBooth:         1000,
			WorkersPerBooth:        10,
			BattlegroundMultiplier: 1.5,
			VotersPerPage:          30,
			WeakBoothShare:         35,
			ProxyParityShare:       50,
			ProxyWeakMin:           0.1,
			ProxyWeakMax:           0.9,
		},
		Budget: BudgetWeights{
			RatePerVoter: []float64{60, 45, 30, 20},
			BandSpread:   0.10,
			Categories: []BudgetCategory{
				{Name: "digital", Percent: 25},
				{Name: "ground", Percent: 30},
				{Name: "events", Percent: 20},
				{Name: "materials", Percent: 15},
				{Name: "personnel", Percent: 10},
			},
		},
		Conversion: ConversionWeights{
			Ceiling:          0.5,
			MaxPaths:         5,
			ChangeNarrative:  60,
			HighConfidence:   50,
			MediumConfidence: 35,
		},
	}
}

// Validate rejects weight sets that would break an engine invariant.
func (w Weights) Validate() error {
	vb := w.VoteBank
	if vb.RetentionRate <= 0 || vb.RetentionRate > 1 {
		return fmt.Errorf("%w: retention_rate %.2f outside (0,1]", core.ErrInvalidWeights, vb.RetentionRate)
	}
	if vb.SwingPoolShare < 0 || vb.RetentionRate+vb.SwingPoolShare > 1 {
		return fmt.Errorf("%w: retention_rate + swing_pool_share must not exceed 1", core.ErrInvalidWeights)
	}
	wp := w.WinProb
	if !(0 < wp.BattlegroundAbove && wp.BattlegroundAbove < wp.WinnableAbove && wp.WinnableAbove < 100) {
		return fmt.Errorf("%w: status thresholds must satisfy 0 < battleground < winnable < 100", core.ErrInvalidWeights)
	}
	if wp.SwingScale <= 0 || wp.Floor < 0 || wp.Ceiling > 100 || wp.Floor >= wp.Ceiling {
		return fmt.Errorf("%w: win probability bounds", core.ErrInvalidWeights)
	}
	sc := w.Scoring
	if !(sc.Tier1Min > sc.Tier2Min && sc.Tier2Min > sc.Tier3Min) {
		return fmt.Errorf("%w: tier thresholds must be strictly decreasing", core.ErrInvalidWeights)
	}
	g := w.Ground
	if g.VotersPerBooth <= 0 || g.WorkersPerBooth <= 0 || g.VotersPerPage <= 0 {
		return fmt.Errorf("%w: ground sizing constants must be positive", core.ErrInvalidWeights)
	}
	if g.ProxyParityShare <= 0 || g.ProxyWeakMin < 0 || g.ProxyWeakMax > 1 || g.ProxyWeakMin > g.ProxyWeakMax {
		return fmt.Errorf("%w: booth proxy bounds", core.ErrInvalidWeights)
	}
	if len(w.Budget.RatePerVoter) != 4 {
		return fmt.Errorf("%w: rate_per_voter needs one rate per tier (4), got %d", core.ErrInvalidWeights, len(w.Budget.RatePerVoter))
	}
	for i, r := range w.Budget.RatePerVoter {
		if r <= 0 {
			return fmt.Errorf("%w: rate_per_voter[%d] must be positive", core.ErrInvalidWeights, i)
		}
	}
	total := 0
	for _, c := range w.Budget.Categories {
		if c.Percent < 0 {
			return fmt.Errorf("%w: budget category %s is negative", core.ErrInvalidWeights, c.Name)
		}
		total += c.Percent
	}
	if total != 100 {
		return fmt.Errorf("%w: budget categories sum to %d, want 100", core.ErrInvalidWeights, total)
	}
	if w.Conversion.Ceiling < 0 || w.Conversion.Ceiling > 1 || w.Conversion.MaxPaths < 0 {
		return fmt.Errorf("%w: conversion ceiling must be in [0,1]", core.ErrInvalidWeights)
	}
	return nil
}

// LoadWeightsFile overlays a YAML file onto DefaultWeights. Keys absent from
// the file keep their default; lists present in the file replace the default.
func LoadWeightsFile(path string) (Weights, error) {
	w := DefaultWeights()
	raw, err := os.ReadFile(path)
	if err != nil {
		return w, fmt.Errorf("read weights file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return w, fmt.Errorf("parse weights file %s: %w", path, err)
	}
	if err := w.Validate(); err != nil {
		return w, err
	}
	return w, nil
}
