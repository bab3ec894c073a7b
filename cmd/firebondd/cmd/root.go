package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"cosmossdk.io/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/firebond/firebond/x/forest/types"
)

const (
	flagParamsFile = "params-file"
	flagLogLevel   = "log-level"
	flagLogFormat  = "log-format"
	flagPretty     = "pretty"

	envPrefix = "FIREBOND"
)

// NewRootCmd creates the root command for firebondd
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "firebondd",
		Short: "FireBond - staking economics for forest fire conservation",
		Long: `FireBond prices conservation tokens on a linear bonding curve and stakes them
into per-forest pools. Stakers earn a supply-dependent reward at the end of
the staking period; a verified forest fire deactivates a pool for good.

firebondd runs the forest module against an in-memory chain so that prices,
quotes and whole staking scenarios can be checked offline.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String(flagParamsFile, "", "Path to a YAML, JSON or TOML params file (defaults apply when empty)")
	rootCmd.PersistentFlags().String(flagLogLevel, "info", "Log level (e.g. info, debug, or forest:debug,*:error)")
	rootCmd.PersistentFlags().String(flagLogFormat, "plain", "Log format: plain | json")

	rootCmd.AddCommand(
		quoteCommand(),
		simulateCommand(),
		paramsCommand(),
	)
	return rootCmd
}

// loadParams resolves module params from defaults, the --params-file and
// FIREBOND_* environment variables, in increasing precedence.
func loadParams(cmd *cobra.Command) (types.Params, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	defaults := types.DefaultParams()
	v.SetDefault("denom", defaults.Denom)
	v.SetDefault("base_price", defaults.BasePrice)
	v.SetDefault("price_multiplier", defaults.PriceMultiplier)
	v.SetDefault("max_reward_rate", defaults.MaxRewardRate)
	v.SetDefault("min_reward_rate", defaults.MinRewardRate)
	v.SetDefault("protocol_fee_divisor", defaults.ProtocolFeeDivisor)
	v.SetDefault("early_unstake_fee", defaults.EarlyUnstakeFee)
	v.SetDefault("blocks_per_epoch", defaults.BlocksPerEpoch)

	path, err := cmd.Flags().GetString(flagParamsFile)
	if err != nil {
		return types.Params{}, err
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return types.Params{}, fmt.Errorf("read params file: %w", err)
		}
	}

	var params types.Params
	if err := v.Unmarshal(&params); err != nil {
		return types.Params{}, fmt.Errorf("failed to decode params: %w", err)
	}
	if err := params.Validate(); err != nil {
		return types.Params{}, fmt.Errorf("%w: %s", types.ErrInvalidParams, err)
	}
	return params, nil
}

// newLogger builds the command logger on stderr from the log flags.
func newLogger(cmd *cobra.Command) (log.Logger, error) {
	level, err := cmd.Flags().GetString(flagLogLevel)
	if err != nil {
		return nil, err
	}
	format, err := cmd.Flags().GetString(flagLogFormat)
	if err != nil {
		return nil, err
	}

	filter, err := log.ParseLogLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", flagLogLevel, err)
	}

	opts := []log.Option{log.FilterOption(filter)}
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "plain":
	case "json":
		opts = append(opts, log.OutputJSONOption())
	default:
		return nil, fmt.Errorf("--%s must be one of plain, json", flagLogFormat)
	}
	return log.NewLogger(cmd.ErrOrStderr(), opts...).With("module", types.ModuleName), nil
}

func writeJSON(w io.Writer, v interface{}, pretty bool) error {
	var (
		out []byte
		err error
	)
	if pretty {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}

	_, err = w.Write(append(out, '\n'))
	return err
}
