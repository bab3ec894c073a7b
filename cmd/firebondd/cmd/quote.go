package cmd

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/firebond/firebond/x/forest/simulation"
	"github.com/firebond/firebond/x/forest/types"
)

const quoteAccount = "quoter"

// QuoteResponse is the output of the quote command.
type QuoteResponse struct {
	Supply       sdkmath.Int      `json:"supply"`
	CurrentPrice sdkmath.Int      `json:"current_price"`
	RewardRate   uint64           `json:"reward_rate"`
	PeriodEnd    uint64           `json:"period_end"`
	Quote        types.StakeQuote `json:"quote"`
}

func quoteCommand() *cobra.Command {
	var (
		supply       string
		periodLength uint64
		pretty       bool
	)

	cmd := &cobra.Command{
		Use:   "quote [amount]",
		Short: "Quote the cost, protocol fee and projected reward of buying tokens",
		Long: `Quote a buy-and-stake of [amount] tokens against a fresh pool.

The economics start at --supply tokens already issued. The projected reward
uses the reward rate after the purchase and assumes the stake is claimed at
the end of the staking period.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := cast.ToUint64E(args[0])
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[0], err)
			}
			if amount == 0 {
				return fmt.Errorf("amount must be positive")
			}
			issued, ok := sdkmath.NewIntFromString(supply)
			if !ok || issued.IsNegative() {
				return fmt.Errorf("invalid --supply %q", supply)
			}

			params, err := loadParams(cmd)
			if err != nil {
				return err
			}
			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}

			econ := types.NewTokenEconomics(params)
			econ.TotalSupply = issued
			gs := types.DefaultGenesis()
			gs.Params = params
			gs.Economics = &econ

			env, err := simulation.NewEnvFromGenesis(logger, gs, nil)
			if err != nil {
				return err
			}
			pool, err := env.Keeper.CreatePool(env.Ctx, types.MsgCreatePool{
				Creator:        env.Account(quoteAccount).String(),
				ForestID:       "quote",
				PeriodLength:   periodLength,
				MinStakeAmount: 1,
			})
			if err != nil {
				return err
			}

			quote, err := env.Keeper.QuoteStake(env.Ctx, pool.ID, amount)
			if err != nil {
				return err
			}
			price, err := env.Keeper.CurrentPrice(env.Ctx)
			if err != nil {
				return err
			}
			rate, err := env.Keeper.RewardRate(env.Ctx)
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), QuoteResponse{
				Supply:       issued,
				CurrentPrice: price,
				RewardRate:   rate,
				PeriodEnd:    pool.PeriodEnd,
				Quote:        *quote,
			}, pretty)
		},
	}

	cmd.Flags().StringVar(&supply, "supply", "0", "Tokens already issued before the purchase")
	cmd.Flags().Uint64Var(&periodLength, "period", 0, "Staking period length of the quoted pool, in epochs")
	cmd.Flags().BoolVar(&pretty, flagPretty, true, "Pretty-print JSON output")
	return cmd
}
