package simulation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	storemetrics "cosmossdk.io/store/metrics"
	"cosmossdk.io/store/rootmulti"
	storetypes "cosmossdk.io/store/types"
	"github.com/cometbft/cometbft/crypto/tmhash"
	tmproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/runtime"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/firebond/firebond/x/forest/keeper"
	"github.com/firebond/firebond/x/forest/types"
)

const (
	// ChainID is the chain id of the in-memory simulation context.
	ChainID = "firebond-sim-1"

	bankStoreKey = "simbank"
	blockTime    = 6 * time.Second
)

var genesisTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// Report is the outcome of a scenario run.
type Report struct {
	Scenario         string                `json:"scenario"`
	Passed           bool                  `json:"passed"`
	Steps            []StepResult          `json:"steps"`
	BlockHeight      int64                 `json:"block_height"`
	Epoch            uint64                `json:"epoch"`
	Economics        *types.TokenEconomics `json:"economics,omitempty"`
	CurrentPrice     sdkmath.Int           `json:"current_price"`
	RewardRate       uint64                `json:"reward_rate"`
	Pools            []types.StakingPool   `json:"pools"`
	Stakes           []types.StakeToken    `json:"stakes"`
	Coverage         []types.PoolCoverage  `json:"coverage"`
	Balances         []AccountBalance      `json:"balances"`
	BrokenInvariants []string              `json:"broken_invariants,omitempty"`
	Params           types.Params          `json:"params"`
	Accounts         map[string]string     `json:"accounts"`
}

// StepResult records what a single step did.
type StepResult struct {
	Index   int           `json:"index"`
	Action  string        `json:"action"`
	Account string        `json:"account,omitempty"`
	Passed  bool          `json:"passed"`
	Error   string        `json:"error,omitempty"`
	Result  interface{}   `json:"result,omitempty"`
	Events  []EventRecord `json:"events,omitempty"`
}

// EventRecord is a flattened sdk.Event.
type EventRecord struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

// AccountBalance is the final balance of a named account.
type AccountBalance struct {
	Account string   `json:"account"`
	Address string   `json:"address"`
	Balance sdk.Coin `json:"balance"`
}

// Runner executes scenarios against a fresh in-memory chain state.
type Runner struct {
	logger  log.Logger
	metrics *keeper.Metrics
	params  *types.Params
}

// NewRunner creates a scenario runner. A nil logger discards output.
func NewRunner(logger log.Logger) *Runner {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Runner{logger: logger}
}

// WithMetrics records keeper metrics for every scenario the runner executes.
func (r *Runner) WithMetrics(metrics *keeper.Metrics) *Runner {
	r.metrics = metrics
	return r
}

// WithParams overrides the params of every scenario, including those that set
// their own.
func (r *Runner) WithParams(params types.Params) *Runner {
	r.params = &params
	return r
}

// Env is an initialized forest keeper over an in-memory store.
type Env struct {
	Ctx    sdk.Context
	Keeper keeper.Keeper
	Bank   *Bank

	accounts map[string]sdk.AccAddress
}

// NewEnv mounts fresh forest and bank stores and runs InitGenesis with params.
func NewEnv(logger log.Logger, params types.Params, metrics *keeper.Metrics) (*Env, error) {
	gs := types.DefaultGenesis()
	gs.Params = params
	return NewEnvFromGenesis(logger, gs, metrics)
}

// NewEnvFromGenesis mounts fresh forest and bank stores and runs InitGenesis
// with gs. Balances backing the genesis pools and treasury are not minted.
func NewEnvFromGenesis(logger log.Logger, gs *types.GenesisState, metrics *keeper.Metrics) (*Env, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}

	forestKey := storetypes.NewKVStoreKey(types.StoreKey)
	bankKey := storetypes.NewKVStoreKey(bankStoreKey)

	cms := rootmulti.NewStore(dbm.NewMemDB(), log.NewNopLogger(), storemetrics.NoOpMetrics{})
	cms.MountStoreWithDB(forestKey, storetypes.StoreTypeIAVL, nil)
	cms.MountStoreWithDB(bankKey, storetypes.StoreTypeIAVL, nil)
	if err := cms.LoadLatestVersion(); err != nil {
		return nil, fmt.Errorf("load simulation store: %w", err)
	}

	header := tmproto.Header{
		ChainID: ChainID,
		Height:  1,
		Time:    genesisTime,
	}
	ctx := sdk.NewContext(cms, header, false, logger)

	bank := NewBank(runtime.NewKVStoreService(bankKey))
	k := keeper.NewKeeper(runtime.NewKVStoreService(forestKey), bank)
	k.SetMetrics(metrics)

	if err := k.InitGenesis(ctx, gs); err != nil {
		return nil, err
	}

	return &Env{
		Ctx:      ctx,
		Keeper:   k,
		Bank:     bank,
		accounts: make(map[string]sdk.AccAddress),
	}, nil
}

// Account returns the stable address for a named account.
func (e *Env) Account(name string) sdk.AccAddress {
	if addr, ok := e.accounts[name]; ok {
		return addr
	}
	addr := AccountAddress(name)
	e.accounts[name] = addr
	return addr
}

// Advance moves the chain forward by blocks.
func (e *Env) Advance(blocks uint64) {
	height := e.Ctx.BlockHeight() + int64(blocks)
	e.Ctx = e.Ctx.
		WithBlockHeight(height).
		WithBlockTime(genesisTime.Add(time.Duration(height-1) * blockTime))
}

// AccountAddress derives the simulation address for a named account.
func AccountAddress(name string) sdk.AccAddress {
	return sdk.AccAddress(tmhash.SumTruncated([]byte("firebond/account/" + name)))
}

// Run executes every step of sc in order. Step failures are recorded in the
// report; only environment setup failures are returned as errors.
func (r *Runner) Run(sc Scenario) (*Report, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	params := types.DefaultParams()
	if sc.Params != nil {
		params = *sc.Params
	}
	if r.params != nil {
		params = *r.params
	}

	env, err := NewEnv(r.logger, params, r.metrics)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Scenario: sc.Name,
		Passed:   true,
		Params:   params,
	}
	for i, step := range sc.Steps {
		res := r.runStep(env, i, step)
		if !res.Passed {
			report.Passed = false
		}
		report.Steps = append(report.Steps, res)
	}

	if err := r.summarize(env, report); err != nil {
		return nil, err
	}
	if len(report.BrokenInvariants) > 0 {
		report.Passed = false
	}
	return report, nil
}

func (r *Runner) runStep(env *Env, index int, step Step) StepResult {
	env.Ctx = env.Ctx.WithEventManager(sdk.NewEventManager())

	result, err := r.execute(env, step)

	res := StepResult{
		Index:   index,
		Action:  step.Action,
		Account: step.Account,
		Result:  result,
		Events:  flattenEvents(env.Ctx.EventManager().Events()),
	}
	if err != nil {
		res.Error = err.Error()
		res.Result = nil
	}

	switch {
	case step.expectsSuccess():
		res.Passed = err == nil
	default:
		res.Passed = err != nil && strings.Contains(err.Error(), step.Expect)
	}

	r.logger.Debug("scenario step",
		"index", index,
		"action", step.Action,
		"passed", res.Passed,
		"err", res.Error,
	)
	if !res.Passed {
		r.logger.Info("scenario step did not match expectation",
			"index", index,
			"action", step.Action,
			"expect", step.Expect,
			"err", res.Error,
		)
	}
	return res
}

func (r *Runner) execute(env *Env, step Step) (interface{}, error) {
	ctx := env.Ctx
	k := env.Keeper

	switch step.Action {
	case ActionFund:
		coins, err := sdk.ParseCoinsNormalized(step.Coins)
		if err != nil {
			return nil, fmt.Errorf("parse coins: %w", err)
		}
		addr := env.Account(step.Account)
		if err := env.Bank.Mint(ctx, addr, coins); err != nil {
			return nil, err
		}
		return coins.String(), nil

	case ActionCreatePool:
		return k.CreatePool(ctx, types.MsgCreatePool{
			Creator:        env.Account(step.Account).String(),
			ForestID:       step.ForestID,
			PeriodLength:   step.PeriodLength,
			MinStakeAmount: step.MinStake,
		})

	case ActionBuyAndStake:
		payment, err := r.payment(ctx, k, step)
		if err != nil {
			return nil, err
		}
		return k.BuyAndStake(ctx, types.MsgBuyAndStake{
			Buyer:   env.Account(step.Account).String(),
			PoolID:  step.Pool,
			Payment: payment,
			Amount:  step.Amount,
		})

	case ActionClaim:
		payout, err := k.ClaimRewards(ctx, types.MsgClaimRewards{
			Caller:  env.Account(step.Account).String(),
			StakeID: step.Stake,
		})
		if err != nil {
			return nil, err
		}
		return map[string]string{"payout": payout.String()}, nil

	case ActionEarlyUnstake:
		payout, err := k.EarlyUnstake(ctx, types.MsgEarlyUnstake{
			Caller:  env.Account(step.Account).String(),
			StakeID: step.Stake,
		})
		if err != nil {
			return nil, err
		}
		return map[string]string{"payout": payout.String()}, nil

	case ActionRegisterFire:
		signature := step.Signature
		if signature == "" {
			signature = "fire:" + step.Pool
		}
		return k.RegisterForestFire(ctx, types.MsgRegisterForestFire{
			Caller:    env.Account(step.Account).String(),
			PoolID:    step.Pool,
			Signature: []byte(signature),
		})

	case ActionAdvance:
		env.Advance(step.Blocks)
		epoch, err := k.CurrentEpoch(env.Ctx)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"block_height": env.Ctx.BlockHeight(),
			"epoch":        epoch,
		}, nil
	}
	return nil, fmt.Errorf("unknown action %q", step.Action)
}

// payment parses the step's explicit payment or, when none is given, pays the
// quoted cost exactly.
func (r *Runner) payment(ctx context.Context, k keeper.Keeper, step Step) (sdk.Coin, error) {
	if step.Payment != "" {
		coin, err := sdk.ParseCoinNormalized(step.Payment)
		if err != nil {
			return sdk.Coin{}, fmt.Errorf("parse payment: %w", err)
		}
		return coin, nil
	}
	params, err := k.GetParams(ctx)
	if err != nil {
		return sdk.Coin{}, err
	}
	price, err := k.CurrentPrice(ctx)
	if err != nil {
		return sdk.Coin{}, err
	}
	cost, err := types.NewSafeMath().SafeMul(price, sdkmath.NewIntFromUint64(step.Amount))
	if err != nil {
		return sdk.Coin{}, err
	}
	return sdk.NewCoin(params.Denom, cost), nil
}

func (r *Runner) summarize(env *Env, report *Report) error {
	ctx := env.Ctx
	k := env.Keeper

	report.BlockHeight = ctx.BlockHeight()
	epoch, err := k.CurrentEpoch(ctx)
	if err != nil {
		return err
	}
	report.Epoch = epoch

	if report.Economics, err = k.GetEconomics(ctx); err != nil {
		return err
	}
	if report.CurrentPrice, err = report.Economics.CalculateCurrentPrice(); err != nil {
		return err
	}
	if report.RewardRate, err = report.Economics.CalculateRewardRate(); err != nil {
		return err
	}
	if report.Pools, err = k.ListPools(ctx); err != nil {
		return err
	}
	if report.Stakes, err = k.ListStakes(ctx); err != nil {
		return err
	}
	if report.Coverage, err = k.PoolCoverage(ctx); err != nil {
		return err
	}

	names := make([]string, 0, len(env.accounts))
	for name := range env.accounts {
		names = append(names, name)
	}
	sort.Strings(names)

	report.Accounts = make(map[string]string, len(names))
	for _, name := range names {
		addr := env.accounts[name]
		report.Accounts[name] = addr.String()
		report.Balances = append(report.Balances, AccountBalance{
			Account: name,
			Address: addr.String(),
			Balance: env.Bank.GetBalance(ctx, addr, report.Params.Denom),
		})
	}
	for _, module := range []string{types.ModuleName, types.TreasuryModuleName} {
		addr := ModuleAddress(module)
		report.Balances = append(report.Balances, AccountBalance{
			Account: "module:" + module,
			Address: addr.String(),
			Balance: env.Bank.GetBalance(ctx, addr, report.Params.Denom),
		})
	}

	report.BrokenInvariants = k.CheckInvariants(ctx)
	return nil
}

func flattenEvents(events sdk.Events) []EventRecord {
	if len(events) == 0 {
		return nil
	}
	out := make([]EventRecord, 0, len(events))
	for _, ev := range events {
		attrs := make(map[string]string, len(ev.Attributes))
		for _, attr := range ev.Attributes {
			attrs[attr.Key] = attr.Value
		}
		out = append(out, EventRecord{Type: ev.Type, Attributes: attrs})
	}
	return out
}
