package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firebond/firebond/x/forest/types"
)

// ParamsResponse describes resolved params and the economics they start from.
type ParamsResponse struct {
	Params          types.Params `json:"params"`
	StartingPrice   string       `json:"starting_price"`
	StartingRate    uint64       `json:"starting_reward_rate"`
	FullUtilization uint64       `json:"full_utilization_supply"`
}

func paramsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params",
		Short: "Inspect and validate forest module params",
	}
	cmd.AddCommand(paramsShowCommand(), paramsValidateCommand())
	return cmd
}

func paramsShowCommand() *cobra.Command {
	var pretty bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved params as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := loadParams(cmd)
			if err != nil {
				return err
			}

			econ := types.NewTokenEconomics(params)
			price, err := econ.CalculateCurrentPrice()
			if err != nil {
				return err
			}
			rate, err := econ.CalculateRewardRate()
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), ParamsResponse{
				Params:          params,
				StartingPrice:   price.String(),
				StartingRate:    rate,
				FullUtilization: types.FullUtilizationSupply,
			}, pretty)
		},
	}

	cmd.Flags().BoolVar(&pretty, flagPretty, true, "Pretty-print JSON output")
	return cmd
}

func paramsValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the params file and environment overrides",
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := loadParams(cmd)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "params ok: denom=%s base_price=%d fee_divisor=%d\n",
				params.Denom, params.BasePrice, params.ProtocolFeeDivisor)
			return err
		},
	}
}
