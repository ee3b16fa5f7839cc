package engine

import "time"

// Tunables holds every empirical constant of the pipeline. The defaults are
// the values that survived field tuning; none of them is universal (the
// clearance margin in particular is a property of the subject's collision
// capsule), so everything here is injectable.
type Tunables struct {
	// Capsule dimensions used for overlap volume tests.
	CapsuleRadius     float64 `mapstructure:"capsule_radius" yaml:"capsule_radius"`
	CapsuleHalfHeight float64 `mapstructure:"capsule_half_height" yaml:"capsule_half_height"`

	// ClearanceMargin is how far above a surface hit the subject is
	// placed. Tuned up from 0.1 after subjects kept spawning with their
	// feet inside the floor; must track controller height.
	ClearanceMargin float64 `mapstructure:"clearance_margin" yaml:"clearance_margin"`

	// Ray probe: cast starts RayProbeHeight above the candidate and
	// travels at most RayMaxDistance down.
	RayProbeHeight float64 `mapstructure:"ray_probe_height" yaml:"ray_probe_height"`
	RayMaxDistance float64 `mapstructure:"ray_max_distance" yaml:"ray_max_distance"`

	// NavSampleRadius bounds the navigable-surface sample search.
	NavSampleRadius float64 `mapstructure:"nav_sample_radius" yaml:"nav_sample_radius"`

	// Iterative raise search.
	RaiseStep float64 `mapstructure:"raise_step" yaml:"raise_step"`
	MaxRaise  float64 `mapstructure:"max_raise" yaml:"max_raise"`

	// Context load phase.
	ReadyThreshold      float64       `mapstructure:"ready_threshold" yaml:"ready_threshold"`
	LoadSoftTimeout     time.Duration `mapstructure:"load_soft_timeout" yaml:"load_soft_timeout"`
	ActivateHardTimeout time.Duration `mapstructure:"activate_hard_timeout" yaml:"activate_hard_timeout"`

	// AnchorWait bounds how long target resolution retries a named anchor
	// lookup; objects may activate after the context reports loaded.
	AnchorWait time.Duration `mapstructure:"anchor_wait" yaml:"anchor_wait"`

	// Placement executor.
	MaxAttempts        int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	SettleSteps        int           `mapstructure:"settle_steps" yaml:"settle_steps"`
	ControllerNudge    float64       `mapstructure:"controller_nudge" yaml:"controller_nudge"`
	PlacementTolerance float64       `mapstructure:"placement_tolerance" yaml:"placement_tolerance"`
	MonitorWindow      time.Duration `mapstructure:"monitor_window" yaml:"monitor_window"`

	// Compatibility shim: intentionally cheaper budgets than the primary
	// overlap search, plus a radial component the primary path lacks.
	ShimRaiseStep      float64 `mapstructure:"shim_raise_step" yaml:"shim_raise_step"`
	ShimMaxSteps       int     `mapstructure:"shim_max_steps" yaml:"shim_max_steps"`
	ShimRadialStep     float64 `mapstructure:"shim_radial_step" yaml:"shim_radial_step"`
	ShimRadialRings    int     `mapstructure:"shim_radial_rings" yaml:"shim_radial_rings"`
	ShimSettleSteps    int     `mapstructure:"shim_settle_steps" yaml:"shim_settle_steps"`
	ShimSuccessEpsilon float64 `mapstructure:"shim_success_epsilon" yaml:"shim_success_epsilon"`
}

// DefaultTunables returns the field-tuned defaults.
func DefaultTunables() Tunables {
	return Tunables{
		CapsuleRadius:     0.35,
		CapsuleHalfHeight: 0.9,
		ClearanceMargin:   1.0,

		RayProbeHeight: 2.0,
		RayMaxDistance: 50.0,

		NavSampleRadius: 4.0,

		RaiseStep: 0.5,
		MaxRaise:  10.0,

		ReadyThreshold:      0.9,
		LoadSoftTimeout:     60 * time.Second,
		ActivateHardTimeout: 12 * time.Second,

		AnchorWait: 5 * time.Second,

		MaxAttempts:        4,
		SettleSteps:        3,
		ControllerNudge:    0.25,
		PlacementTolerance: 0.6,
		MonitorWindow:      800 * time.Millisecond,

		ShimRaiseStep:      0.5,
		ShimMaxSteps:       6,
		ShimRadialStep:     0.75,
		ShimRadialRings:    2,
		ShimSettleSteps:    2,
		ShimSuccessEpsilon: 0.05,
	}
}

// normalized returns t with zero-valued fields replaced by defaults, so a
// partially populated config file still yields a working pipeline.
func (t Tunables) normalized() Tunables {
	def := DefaultTunables()
	if t.CapsuleRadius <= 0 {
		t.CapsuleRadius = def.CapsuleRadius
	}
	if t.CapsuleHalfHeight <= 0 {
		t.CapsuleHalfHeight = def.CapsuleHalfHeight
	}
	if t.ClearanceMargin <= 0 {
		t.ClearanceMargin = def.ClearanceMargin
	}
	if t.RayProbeHeight <= 0 {
		t.RayProbeHeight = def.RayProbeHeight
	}
	if t.RayMaxDistance <= 0 {
		t.RayMaxDistance = def.RayMaxDistance
	}
	if t.NavSampleRadius <= 0 {
		t.NavSampleRadius = def.NavSampleRadius
	}
	if t.RaiseStep <= 0 {
		t.RaiseStep = def.RaiseStep
	}
	if t.MaxRaise <= 0 {
		t.MaxRaise = def.MaxRaise
	}
	if t.ReadyThreshold <= 0 || t.ReadyThreshold > 1 {
		t.ReadyThreshold = def.ReadyThreshold
	}
	if t.LoadSoftTimeout <= 0 {
		t.LoadSoftTimeout = def.LoadSoftTimeout
	}
	if t.ActivateHardTimeout <= 0 {
		t.ActivateHardTimeout = def.ActivateHardTimeout
	}
	if t.AnchorWait <= 0 {
		t.AnchorWait = def.AnchorWait
	}
	if t.MaxAttempts <= 0 {
		t.MaxAttempts = def.MaxAttempts
	}
	if t.SettleSteps <= 0 {
		t.SettleSteps = def.SettleSteps
	}
	if t.ControllerNudge <= 0 {
		t.ControllerNudge = def.ControllerNudge
	}
	if t.PlacementTolerance <= 0 {
		t.PlacementTolerance = def.PlacementTolerance
	}
	if t.MonitorWindow <= 0 {
		t.MonitorWindow = def.MonitorWindow
	}
	if t.ShimRaiseStep <= 0 {
		t.ShimRaiseStep = def.ShimRaiseStep
	}
	if t.ShimMaxSteps <= 0 {
		t.ShimMaxSteps = def.ShimMaxSteps
	}
	if t.ShimRadialStep <= 0 {
		t.ShimRadialStep = def.ShimRadialStep
	}
	if t.ShimRadialRings <= 0 {
		t.ShimRadialRings = def.ShimRadialRings
	}
	if t.ShimSettleSteps <= 0 {
		t.ShimSettleSteps = def.ShimSettleSteps
	}
	if t.ShimSuccessEpsilon <= 0 {
		t.ShimSuccessEpsilon = def.ShimSuccessEpsilon
	}
	return t
}
