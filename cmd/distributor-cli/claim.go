package main

import (
	"crypto/ed25519"
	"encoding/json"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/code-payments/distributor-client/pkg/allocation"
	"github.com/code-payments/distributor-client/pkg/allocation/api"
	"github.com/code-payments/distributor-client/pkg/distributor"
	"github.com/code-payments/distributor-client/pkg/solana"
	"github.com/code-payments/distributor-client/pkg/solana/token"
)

const (
	modeSimulate = "simulate"
	modeExecute  = "execute"
)

type simulationOutput struct {
	Slot          uint64      `json:"slot"`
	Err           interface{} `json:"err"`
	Logs          []string    `json:"logs"`
	UnitsConsumed uint64      `json:"unitsConsumed"`
}

func (e *environment) claimCommand() *cobra.Command {
	var (
		mode       string
		multiplier string
	)

	cmd := &cobra.Command{
		Use:   "claim",
		Short: "Claim the allocation of the keypair, as served by the allocation API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if mode != modeSimulate && mode != modeExecute {
				return errors.Errorf("invalid --mode %q: expected %s or %s", mode, modeSimulate, modeExecute)
			}

			// The priority fee only applies to executed claims.
			var feeMultiplier decimal.Decimal
			if mode == modeExecute {
				feeMultiplier = decimal.NewFromInt(1)
				if len(multiplier) > 0 {
					parsed, err := decimal.NewFromString(multiplier)
					if err != nil {
						return errors.Wrapf(err, "invalid --priority-fee-multiplier %q", multiplier)
					}
					feeMultiplier = parsed
				}
			}

			claimant, err := e.cfg.LoadAdminKeypair()
			if err != nil {
				return err
			}
			owner := claimant.Public().(ed25519.PublicKey)

			apiClient, err := e.apiClient()
			if err != nil {
				return err
			}

			record, err := apiClient.GetAllocation(ctx, owner)
			if err == api.ErrNoAllocation {
				return errors.Errorf("User %s had no allocation", base58.Encode(owner))
			} else if err != nil {
				return err
			}

			reader, client, err := e.reader()
			if err != nil {
				return err
			}
			builder := distributor.NewClaimBuilder(client, reader)

			plan, err := builder.Build(ctx, distributor.ClaimRequest{
				Distributor:           record.MerkleTree,
				Claimant:              claimant,
				Amount:                record.Amount,
				Proof:                 record.Proof,
				PriorityFeeMultiplier: feeMultiplier,
			})
			if err != nil {
				return err
			}

			if mode == modeSimulate {
				simulation, err := builder.Simulate(ctx, plan)
				if err != nil {
					return err
				}
				return e.printSimulation(simulation)
			}

			e.printf("Sending.\n")
			sig, err := builder.Execute(ctx, plan)
			if err != nil {
				return err
			}
			e.printf("Signature %s\n", sig.String())

			balance, err := token.NewClient(client, plan.Distributor.Mint).GetAssociatedBalance(owner, solana.CommitmentConfirmed)
			if err != nil {
				return errors.Wrap(err, "failed to get token balance")
			}
			e.printf("Token balance %s\n", allocation.FormatAmount(balance, displayDecimals))

			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", modeSimulate, "simulate prints the inspector link and simulation, execute sends the claim")
	cmd.Flags().StringVar(&multiplier, "priority-fee-multiplier", "", "multiplier of the base priority fee (execute only, defaults to 1)")

	return cmd
}

func (e *environment) printSimulation(simulation *distributor.Simulation) error {
	e.printf("Tx in B64 %s\n", distributor.InspectorURL(simulation.Transaction))

	output := simulationOutput{
		Slot:          simulation.Result.Slot,
		Logs:          simulation.Result.Logs,
		UnitsConsumed: simulation.Result.UnitsConsumed,
	}
	if simulation.Result.Err != nil {
		raw, err := simulation.Result.Err.JSONString()
		if err != nil {
			output.Err = simulation.Result.Err.Error()
		} else {
			output.Err = json.RawMessage(raw)
		}
	}

	e.printf("Simulate Response ")
	if err := e.printJSON(output); err != nil {
		return err
	}
	e.printf("\n")

	if simulation.Result.Err != nil {
		return errors.Wrap(simulation.Result.Err, "simulation failed")
	}
	return nil
}
