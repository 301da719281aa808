package catalog

// Direction describes how a structural factor moves a risk's probability.
type Direction string

const (
	// Exposure: a higher factor value increases the risk's probability.
	Exposure Direction = "exposure"
	// Protective: a higher factor value decreases the risk's probability.
	Protective Direction = "protective"
)

// Sign returns +1 for exposure and -1 for protective.
func (d Direction) Sign() float64 {
	if d == Protective {
		return -1
	}
	return 1
}

// GoalDirection describes which way a goal's value improves.
type GoalDirection string

const (
	LowerIsBetter  GoalDirection = "lower_is_better"
	HigherIsBetter GoalDirection = "higher_is_better"
)

// Tier is the magnitude class of a sensitivity. The log-odds constant each
// tier maps to is calibration data supplied with the catalog, not code.
type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// TierTable maps each sensitivity tier to its log-odds shift per unit of
// factor deviation. Constants must be positive and strictly ordered
// low < medium < high.
type TierTable struct {
	Low    float64 `yaml:"low"`
	Medium float64 `yaml:"medium"`
	High   float64 `yaml:"high"`
}

// Constant returns the shift constant for a tier.
func (t TierTable) Constant(tier Tier) float64 {
	switch tier {
	case TierLow:
		return t.Low
	case TierMedium:
		return t.Medium
	default:
		return t.High
	}
}

// Triple is a three-point estimate. For probabilities all values lie in the
// open interval (0,1); for impacts the sign is fixed by the goal's direction.
// Always ordered Low <= Likely <= High.
type Triple struct {
	Low    float64 `yaml:"low" json:"low"`
	Likely float64 `yaml:"likely" json:"likely"`
	High   float64 `yaml:"high" json:"high"`
}

// PertMean collapses the triple to a single value, weighting the most
// likely estimate: (low + 4*likely + high) / 6.
func (t Triple) PertMean() float64 {
	return (t.Low + 4*t.Likely + t.High) / 6
}

func (t Triple) ordered() bool {
	return t.Low <= t.Likely && t.Likely <= t.High
}

// Factor is one structural axis scenarios are scored on, valued 1..5
// (1 = weakest, 5 = strongest along the factor's semantic axis).
type Factor struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Scenario is a competing project structure, defined entirely by its
// factor vector.
type Scenario struct {
	ID      string         `yaml:"id" json:"id"`
	Name    string         `yaml:"name" json:"name"`
	Factors map[string]int `yaml:"factors" json:"factors"`
}

// Factor returns the scenario's value for a factor. The catalog validator
// guarantees every factor is present, so a missing key never occurs on a
// validated catalog.
func (s *Scenario) Factor(id string) int {
	return s.Factors[id]
}

// Sensitivity links a risk to one factor with a direction and magnitude tier.
type Sensitivity struct {
	Factor    string    `yaml:"factor" json:"factor"`
	Direction Direction `yaml:"direction" json:"direction"`
	Tier      Tier      `yaml:"tier" json:"tier"`
	Rationale string    `yaml:"rationale,omitempty" json:"rationale,omitempty"`
}

// Gate restricts a risk to scenarios whose factor value falls inside
// [Min, Max]. Multiple gates on one risk are conjunctive.
type Gate struct {
	Factor string `yaml:"factor" json:"factor"`
	Min    int    `yaml:"min" json:"min"`
	Max    int    `yaml:"max" json:"max"`
}

// Impact is a risk's three-point damage estimate against one goal.
// Impacts only ever worsen goals: positive values for lower-is-better
// goals, negative for higher-is-better ones.
type Impact struct {
	Goal      string `yaml:"goal" json:"goal"`
	Magnitude Triple `yaml:"magnitude" json:"magnitude"`
}

// Risk is a discrete uncertain event with a base probability estimate,
// factor sensitivities, optional gates, and goal impacts.
type Risk struct {
	ID            string        `yaml:"id" json:"id"`
	Name          string        `yaml:"name" json:"name"`
	Category      string        `yaml:"category,omitempty" json:"category,omitempty"`
	BaseProb      Triple        `yaml:"base_probability" json:"base_probability"`
	Sensitivities []Sensitivity `yaml:"sensitivities,omitempty" json:"sensitivities,omitempty"`
	Gates         []Gate        `yaml:"gates,omitempty" json:"gates,omitempty"`
	Impacts       []Impact      `yaml:"impacts" json:"impacts"`
}

// Impact returns the risk's impact entry for a goal, or nil.
func (r *Risk) Impact(goalID string) *Impact {
	for i := range r.Impacts {
		if r.Impacts[i].Goal == goalID {
			return &r.Impacts[i]
		}
	}
	return nil
}

// BaselineTerm is one linear term of a factor-dependent baseline.
type BaselineTerm struct {
	Factor      string  `yaml:"factor" json:"factor"`
	Coefficient float64 `yaml:"coefficient" json:"coefficient"`
}

// Baseline is a goal's starting value per scenario: a constant plus an
// optional linear function of factor values.
type Baseline struct {
	Constant float64        `yaml:"constant" json:"constant"`
	Terms    []BaselineTerm `yaml:"terms,omitempty" json:"terms,omitempty"`
}

// Eval computes the baseline for a scenario's factor vector.
func (b Baseline) Eval(s *Scenario) float64 {
	v := b.Constant
	for _, t := range b.Terms {
		v += t.Coefficient * float64(s.Factor(t.Factor))
	}
	return v
}

// Goal is an outcome dimension scenarios are ranked against.
type Goal struct {
	ID        string        `yaml:"id" json:"id"`
	Name      string        `yaml:"name" json:"name"`
	Unit      string        `yaml:"unit,omitempty" json:"unit,omitempty"`
	Direction GoalDirection `yaml:"direction" json:"direction"`
	Baseline  Baseline      `yaml:"baseline" json:"baseline"`
}

// Orientation returns +1 for higher-is-better goals and -1 for
// lower-is-better ones, so oriented scores always read "higher = better".
func (g *Goal) Orientation() float64 {
	if g.Direction == LowerIsBetter {
		return -1
	}
	return 1
}

// WeightProfile is a named point on the goal simplex: a non-negative weight
// per goal, summing to 1. Authored profiles are normalized at load.
type WeightProfile struct {
	Name    string             `yaml:"name" json:"name"`
	Weights map[string]float64 `yaml:"weights" json:"weights"`
}

// Catalog is the full static configuration the engine runs on. It is
// immutable after Load; a catalog change means loading a new Catalog and
// rebuilding the engine (and with it the calibration artifact).
type Catalog struct {
	Factors   []Factor        `yaml:"factors"`
	Scenarios []Scenario      `yaml:"scenarios"`
	Risks     []Risk          `yaml:"risks"`
	Goals     []Goal          `yaml:"goals"`
	Tiers     TierTable       `yaml:"tier_constants"`
	Profiles  []WeightProfile `yaml:"weight_profiles,omitempty"`

	factorIndex   map[string]*Factor
	scenarioIndex map[string]*Scenario
	riskIndex     map[string]*Risk
	goalIndex     map[string]*Goal
	profileIndex  map[string]*WeightProfile
}

func (c *Catalog) buildIndexes() {
	c.factorIndex = make(map[string]*Factor, len(c.Factors))
	for i := range c.Factors {
		c.factorIndex[c.Factors[i].ID] = &c.Factors[i]
	}
	c.scenarioIndex = make(map[string]*Scenario, len(c.Scenarios))
	for i := range c.Scenarios {
		c.scenarioIndex[c.Scenarios[i].ID] = &c.Scenarios[i]
	}
	c.riskIndex = make(map[string]*Risk, len(c.Risks))
	for i := range c.Risks {
		c.riskIndex[c.Risks[i].ID] = &c.Risks[i]
	}
	c.goalIndex = make(map[string]*Goal, len(c.Goals))
	for i := range c.Goals {
		c.goalIndex[c.Goals[i].ID] = &c.Goals[i]
	}
	c.profileIndex = make(map[string]*WeightProfile, len(c.Profiles))
	for i := range c.Profiles {
		c.profileIndex[c.Profiles[i].Name] = &c.Profiles[i]
	}
}

// Scenario looks up a scenario by ID, nil if absent.
func (c *Catalog) Scenario(id string) *Scenario { return c.scenarioIndex[id] }

// Risk looks up a risk by ID, nil if absent.
func (c *Catalog) Risk(id string) *Risk { return c.riskIndex[id] }

// Goal looks up a goal by ID, nil if absent.
func (c *Catalog) Goal(id string) *Goal { return c.goalIndex[id] }

// HasFactor reports whether a factor ID is defined.
func (c *Catalog) HasFactor(id string) bool {
	_, ok := c.factorIndex[id]
	return ok
}

// Profile looks up a named weight profile, nil if absent.
func (c *Catalog) Profile(name string) *WeightProfile { return c.profileIndex[name] }
