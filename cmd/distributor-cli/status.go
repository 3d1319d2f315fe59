package main

import (
	"context"
	"crypto/ed25519"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/code-payments/distributor-client/pkg/allocation"
	"github.com/code-payments/distributor-client/pkg/allocation/api"
	"github.com/code-payments/distributor-client/pkg/distributor"
	"github.com/code-payments/distributor-client/pkg/reconcile"
	"github.com/code-payments/distributor-client/pkg/retry"
	"github.com/code-payments/distributor-client/pkg/retry/backoff"
)

func (e *environment) userClaimedCommand() *cobra.Command {
	var claimantFlag, distributorFlag string

	cmd := &cobra.Command{
		Use:   "get-user-claimed",
		Short: "Print whether a claimant has claimed from a distributor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			claimant, err := parseKey("claimant", claimantFlag)
			if err != nil {
				return err
			}
			address, err := parseKey("distributor", distributorFlag)
			if err != nil {
				return err
			}

			reader, _, err := e.reader()
			if err != nil {
				return err
			}

			claimed, err := reader.HasClaimed(cmd.Context(), claimant, address)
			if err != nil {
				return err
			}
			e.printf("%t\n", claimed)
			return nil
		},
	}

	cmd.Flags().StringVar(&claimantFlag, "claimant", "", "claimant address")
	cmd.Flags().StringVar(&distributorFlag, "distributor", "", "distributor address")
	_ = cmd.MarkFlagRequired("claimant")
	_ = cmd.MarkFlagRequired("distributor")
	flagAliases(cmd, map[string]string{
		"user-address":        "claimant",
		"distributor-address": "distributor",
	})

	return cmd
}

func (e *environment) isClaimableCommand() *cobra.Command {
	var distributorFlag string

	cmd := &cobra.Command{
		Use:   "is-claimable",
		Short: "Print whether a distributor's enable slot has passed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			address, err := parseKey("distributor", distributorFlag)
			if err != nil {
				return err
			}

			reader, _, err := e.reader()
			if err != nil {
				return err
			}

			claimable, err := reader.IsClaimable(cmd.Context(), address)
			if err != nil {
				return err
			}
			e.printf("%t\n", claimable)
			return nil
		},
	}

	cmd.Flags().StringVar(&distributorFlag, "distributor", "", "distributor address")
	_ = cmd.MarkFlagRequired("distributor")
	flagAliases(cmd, map[string]string{"distributor-address": "distributor"})

	return cmd
}

func (e *environment) claimStatusCommand() *cobra.Command {
	var addressFlag, fileFlag string

	cmd := &cobra.Command{
		Use:   "check-user-claim-status",
		Short: "Print the allocation and claim status of one or more users",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var users []ed25519.PublicKey
			switch {
			case len(fileFlag) > 0:
				addresses, err := readAddressFile(fileFlag)
				if err != nil {
					return err
				}
				users = addresses
			case len(addressFlag) > 0:
				user, err := parseKey("address", addressFlag)
				if err != nil {
					return err
				}
				users = append(users, user)
			default:
				return errors.New("one of --address or --file is required")
			}

			apiClient, err := e.apiClient()
			if err != nil {
				return err
			}

			reader, _, err := e.reader()
			if err != nil {
				return err
			}

			for _, user := range users {
				if err := e.printClaimStatus(cmd.Context(), apiClient, reader, user); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addressFlag, "address", "", "user address")
	cmd.Flags().StringVar(&fileFlag, "file", "", "JSON array of user addresses")
	flagAliases(cmd, map[string]string{
		"user-address":      "address",
		"user-address-file": "file",
		"api-url-base":      "api-url",
	})

	return cmd
}

func (e *environment) printClaimStatus(ctx context.Context, source reconcile.AllocationSource, reader *distributor.Reader, user ed25519.PublicKey) error {
	var record *allocation.Record
	_, err := retry.Retry(
		func() error {
			var err error
			record, err = source.GetAllocation(ctx, user)
			return err
		},
		retry.NonRetriableErrors(api.ErrNoAllocation),
		retry.Context(ctx),
		retry.Limit(reconcile.DefaultAttempts),
		retry.Backoff(backoff.Constant(reconcile.DefaultRetryDelay), time.Minute),
	)
	if err == api.ErrNoAllocation {
		e.printf("User %s had no allocation\n", base58.Encode(user))
		return nil
	} else if err != nil {
		return err
	}

	claimed, err := reader.HasClaimed(ctx, user, record.MerkleTree)
	if err != nil {
		return err
	}

	amount := allocation.FormatAmount(record.Amount, displayDecimals)
	if claimed {
		e.printf("User %s has already claimed his allocation: %s\n", base58.Encode(user), amount)
	} else {
		e.printf("User %s has not claimed his allocation: %s\n", base58.Encode(user), amount)
	}
	return nil
}
