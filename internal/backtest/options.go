package backtest

import (
	"fmt"

	"FactorBench/internal/config"
	"FactorBench/internal/portfolio"
	"FactorBench/internal/strategy"
)

// Turnover basis values for cost attribution.
const (
	BasisSub       = "sub"
	BasisEffective = "effective"
)

// OnlineParams configures the online allocator.
type OnlineParams struct {
	Budget       float64
	Eta          float64
	Tau          float64
	WarmupSplits int
	ResumeFrom   string // optional allocator_state.json to start from
}

// Options is everything the runner needs, decoupled from the config file layout.
type Options struct {
	Factors   []string
	Normalize strategy.NormalizeParams

	LabelDelay     int
	LabelHorizon   int
	LabelWinsorize float64

	TrainYears  int
	TestMonths  int
	EmbargoDays int
	MinSplits   int

	Method strategy.Method
	Online OnlineParams

	Portfolio     portfolio.Params
	CostBps       []float64
	TurnoverBasis string
}

// OptionsFromConfig maps a validated config onto runner options.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	method, err := strategy.ParseMethod(cfg.Combination.Method)
	if err != nil {
		return Options{}, err
	}
	basis := cfg.Costs.TurnoverBasis
	if basis != BasisSub && basis != BasisEffective {
		return Options{}, fmt.Errorf("unknown turnover basis %q", basis)
	}
	return Options{
		Factors: cfg.Factors.Enabled,
		Normalize: strategy.NormalizeParams{
			EWMAlpha:     cfg.Transforms.TimeSeries.EWMAlpha,
			WinsorizePct: cfg.Factors.WinsorizePct,
			Scale:        cfg.Transforms.CrossSection,
		},
		LabelDelay:     cfg.Label.DelayDays,
		LabelHorizon:   cfg.Label.HorizonDays,
		LabelWinsorize: cfg.Label.WinsorizePct,
		TrainYears:     cfg.Validation.TrainYears,
		TestMonths:     cfg.Validation.TestMonths,
		EmbargoDays:    cfg.Validation.EmbargoDays,
		MinSplits:      cfg.Validation.MinSplits,
		Method:         method,
		Online: OnlineParams{
			Budget:       cfg.Combination.Online.L1Budget,
			Eta:          cfg.Combination.Online.Eta,
			Tau:          cfg.Combination.Online.Tau,
			WarmupSplits: cfg.Combination.Online.WarmupSplits,
			ResumeFrom:   cfg.Combination.Online.ResumeFrom,
		},
		Portfolio: portfolio.Params{
			LongQuantile:  cfg.Portfolio.LongQuantile,
			ShortQuantile: cfg.Portfolio.ShortQuantile,
			GrossExposure: cfg.Portfolio.GrossExposure,
			MaxAbsWeight:  cfg.Portfolio.MaxAbsWeight,
			MinNames:      cfg.Portfolio.MinNames,
		},
		CostBps:       cfg.Costs.BpsList,
		TurnoverBasis: basis,
	}, nil
}
