package preset

import "fmt"

// Profile fixes every parameter of one calibration preset: the closed-loop
// sweep shape and the open-loop phase timing.
type Profile struct {
	Closed ClosedProfile `mapstructure:"closed"`
	Open   OpenProfile   `mapstructure:"open"`
}

type ClosedProfile struct {
	Concurrencies []int `mapstructure:"concurrencies"`
	TotalPerC     int   `mapstructure:"total_per_c"`
	Warmup        int   `mapstructure:"warmup"`
	Repeat        int   `mapstructure:"repeat"`
}

type OpenProfile struct {
	DurationSec float64 `mapstructure:"duration"`
	WarmupSec   float64 `mapstructure:"warmup_sec"`
}

// Override is a partial profile from external configuration. Nil fields keep
// the profile default; only explicitly provided values replace it.
type Override struct {
	Closed *ClosedOverride `mapstructure:"closed"`
	Open   *OpenOverride   `mapstructure:"open"`
}

type ClosedOverride struct {
	Concurrencies []int `mapstructure:"concurrencies"`
	TotalPerC     *int  `mapstructure:"total_per_c"`
	Warmup        *int  `mapstructure:"warmup"`
	Repeat        *int  `mapstructure:"repeat"`
}

type OpenOverride struct {
	DurationSec *float64 `mapstructure:"duration"`
	WarmupSec   *float64 `mapstructure:"warmup_sec"`
}

// Names lists the built-in profiles.
func Names() []string { return []string{"smoke", "standard", "stress"} }

func defaults(name string) (Profile, error) {
	switch name {
	case "smoke":
		return Profile{
			Closed: ClosedProfile{
				Concurrencies: []int{1, 10, 50, 100},
				TotalPerC:     1000,
				Warmup:        200,
				Repeat:        2,
			},
			Open: OpenProfile{DurationSec: 8, WarmupSec: 3},
		}, nil
	case "standard":
		return Profile{
			Closed: ClosedProfile{
				Concurrencies: []int{1, 2, 5, 10, 20, 50, 100, 200, 400},
				TotalPerC:     5000,
				Warmup:        1000,
				Repeat:        3,
			},
			Open: OpenProfile{DurationSec: 15, WarmupSec: 5},
		}, nil
	case "stress":
		return Profile{
			Closed: ClosedProfile{
				Concurrencies: []int{100, 200, 400, 800, 1200},
				TotalPerC:     15000,
				Warmup:        2000,
				Repeat:        3,
			},
			Open: OpenProfile{DurationSec: 25, WarmupSec: 8},
		}, nil
	}
	return Profile{}, fmt.Errorf("unknown preset profile %q", name)
}

// Resolve returns the named profile with any external override applied on
// top of its defaults.
func Resolve(name string, overrides map[string]Override) (Profile, error) {
	prof, err := defaults(name)
	if err != nil {
		return Profile{}, err
	}
	ov, ok := overrides[name]
	if !ok {
		return prof, nil
	}

	if c := ov.Closed; c != nil {
		if len(c.Concurrencies) > 0 {
			prof.Closed.Concurrencies = c.Concurrencies
		}
		if c.TotalPerC != nil {
			prof.Closed.TotalPerC = *c.TotalPerC
		}
		if c.Warmup != nil {
			prof.Closed.Warmup = *c.Warmup
		}
		if c.Repeat != nil {
			prof.Closed.Repeat = *c.Repeat
		}
	}
	if o := ov.Open; o != nil {
		if o.DurationSec != nil {
			prof.Open.DurationSec = *o.DurationSec
		}
		if o.WarmupSec != nil {
			prof.Open.WarmupSec = *o.WarmupSec
		}
	}
	return prof, nil
}
