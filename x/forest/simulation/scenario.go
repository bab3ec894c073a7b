package simulation

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/firebond/firebond/x/forest/types"
)

// Step actions understood by the runner.
const (
	ActionFund         = "fund"
	ActionCreatePool   = "create_pool"
	ActionBuyAndStake  = "buy_and_stake"
	ActionClaim        = "claim"
	ActionEarlyUnstake = "early_unstake"
	ActionRegisterFire = "register_fire"
	ActionAdvance      = "advance"
)

// Scenario is a scripted sequence of forest operations. Accounts are named;
// the runner derives a stable address for every name it sees.
type Scenario struct {
	Name   string        `yaml:"name" json:"name"`
	Params *types.Params `yaml:"params,omitempty" json:"params,omitempty"`
	Steps  []Step        `yaml:"steps" json:"steps"`
}

// Step is a single scenario action. Fields not used by an action are ignored.
//
// Expect is empty or "ok" when the step must succeed; any other value is a
// substring the step's error must contain.
type Step struct {
	Action string `yaml:"action" json:"action"`

	Account string `yaml:"account,omitempty" json:"account,omitempty"`
	Coins   string `yaml:"coins,omitempty" json:"coins,omitempty"`

	ForestID     string `yaml:"forest_id,omitempty" json:"forest_id,omitempty"`
	PeriodLength uint64 `yaml:"period_length,omitempty" json:"period_length,omitempty"`
	MinStake     uint64 `yaml:"min_stake,omitempty" json:"min_stake,omitempty"`

	Pool    string `yaml:"pool,omitempty" json:"pool,omitempty"`
	Amount  uint64 `yaml:"amount,omitempty" json:"amount,omitempty"`
	Payment string `yaml:"payment,omitempty" json:"payment,omitempty"`

	Stake     string `yaml:"stake,omitempty" json:"stake,omitempty"`
	Signature string `yaml:"signature,omitempty" json:"signature,omitempty"`

	Blocks uint64 `yaml:"blocks,omitempty" json:"blocks,omitempty"`

	Expect string `yaml:"expect,omitempty" json:"expect,omitempty"`
}

// ParseScenario decodes a YAML (or JSON) scenario document.
func ParseScenario(data []byte) (Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return Scenario{}, fmt.Errorf("parse scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return Scenario{}, err
	}
	return sc, nil
}

// LoadScenario reads and decodes a scenario file.
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// Validate checks that every step names a known action and carries the fields
// that action needs.
func (sc Scenario) Validate() error {
	if len(sc.Steps) == 0 {
		return fmt.Errorf("scenario %q has no steps", sc.Name)
	}
	if sc.Params != nil {
		if err := sc.Params.Validate(); err != nil {
			return fmt.Errorf("scenario params: %w", err)
		}
	}
	for i, step := range sc.Steps {
		if err := step.validate(); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, step.Action, err)
		}
	}
	return nil
}

func (s Step) validate() error {
	require := func(field, value string) error {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}

	switch s.Action {
	case ActionFund:
		if err := require("account", s.Account); err != nil {
			return err
		}
		return require("coins", s.Coins)
	case ActionCreatePool:
		if err := require("account", s.Account); err != nil {
			return err
		}
		return require("forest_id", s.ForestID)
	case ActionBuyAndStake:
		if err := require("account", s.Account); err != nil {
			return err
		}
		if err := require("pool", s.Pool); err != nil {
			return err
		}
		if s.Amount == 0 {
			return fmt.Errorf("amount must be positive")
		}
		return nil
	case ActionClaim, ActionEarlyUnstake:
		if err := require("account", s.Account); err != nil {
			return err
		}
		return require("stake", s.Stake)
	case ActionRegisterFire:
		if err := require("account", s.Account); err != nil {
			return err
		}
		return require("pool", s.Pool)
	case ActionAdvance:
		if s.Blocks == 0 {
			return fmt.Errorf("blocks must be positive")
		}
		return nil
	default:
		return fmt.Errorf("unknown action %q", s.Action)
	}
}

func (s Step) expectsSuccess() bool {
	e := strings.TrimSpace(s.Expect)
	return e == "" || strings.EqualFold(e, "ok")
}
