package main

import (
	"crypto/ed25519"
	"encoding/json"
	"os"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/code-payments/distributor-client/pkg/allocation"
	"github.com/code-payments/distributor-client/pkg/distributor"
)

type distributorStatsOutput struct {
	Distributor        string `json:"distributor"`
	TotalClaimed       string `json:"totalClaimed"`
	RemainingClaimable string `json:"remainingClaimable"`
	TotalUsers         uint64 `json:"totalUsers"`
	TotalUsersClaimed  uint64 `json:"totalUsersClaimed"`
}

type fleetStatsOutput struct {
	Claimed          string `json:"claimed"`
	Unclaimed        string `json:"unclaimed"`
	WalletsClaimed   uint64 `json:"walletsClaimed"`
	WalletsUnclaimed uint64 `json:"walletsUnclaimed"`
}

func (e *environment) distributorStatsCommand() *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "get-distributor-stats",
		Short: "Print the claim progress of one distributor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := parseKey("distributor", address)
			if err != nil {
				return err
			}

			reader, _, err := e.reader()
			if err != nil {
				return err
			}

			d, err := reader.FetchOne(cmd.Context(), key)
			if err != nil {
				return err
			}

			stats := distributor.StatsFor(key, d)
			return e.printJSON(distributorStatsOutput{
				Distributor:        base58.Encode(stats.Address),
				TotalClaimed:       allocation.FormatAmount(stats.TotalClaimed, displayDecimals),
				RemainingClaimable: allocation.FormatAmount(stats.RemainingClaimable, displayDecimals),
				TotalUsers:         stats.TotalEligible,
				TotalUsersClaimed:  stats.TotalClaimedCount,
			})
		},
	}

	cmd.Flags().StringVar(&address, "distributor", "", "distributor address")
	_ = cmd.MarkFlagRequired("distributor")
	flagAliases(cmd, map[string]string{"distributor-address": "distributor"})

	return cmd
}

func (e *environment) fleetStatsCommand() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "get-all-distributors-stats-from-distributor-file",
		Short: "Print the combined claim progress of the distributors listed in a JSON file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			addresses, err := readAddressFile(path)
			if err != nil {
				return err
			}

			reader, _, err := e.reader()
			if err != nil {
				return err
			}

			results, err := reader.FetchMany(cmd.Context(), addresses...)
			if err != nil {
				return err
			}

			fleet, err := distributor.Aggregate(results)
			if err != nil {
				return err
			}

			return e.printJSON(fleetStatsOutput{
				Claimed:          allocation.FormatAmount(fleet.TotalClaimed, displayDecimals),
				Unclaimed:        allocation.FormatAmount(fleet.RemainingClaimable, displayDecimals),
				WalletsClaimed:   fleet.TotalClaimedCount,
				WalletsUnclaimed: fleet.UnclaimedCount(),
			})
		},
	}

	cmd.Flags().StringVar(&path, "file", "", "JSON array of distributor addresses")
	_ = cmd.MarkFlagRequired("file")
	flagAliases(cmd, map[string]string{"distributors-file": "file"})

	return cmd
}

// readAddressFile reads a JSON array of base58 addresses.
func readAddressFile(path string) ([]ed25519.PublicKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	var encoded []string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return nil, errors.Wrapf(err, "%s: expected a JSON array of addresses", path)
	}

	addresses := make([]ed25519.PublicKey, len(encoded))
	for i, value := range encoded {
		key, err := parseKey("file", value)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: entry %d", path, i)
		}
		addresses[i] = key
	}
	return addresses, nil
}

func (e *environment) printJSON(v interface{}) error {
	encoder := json.NewEncoder(e.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
