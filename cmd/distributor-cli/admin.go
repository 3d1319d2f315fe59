package main

import (
	"crypto/ed25519"
	"sort"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/code-payments/distributor-client/pkg/allocation"
	"github.com/code-payments/distributor-client/pkg/distributor"
)

type adminFlags struct {
	base        string
	mint        string
	treePath    string
	fromVersion uint64
	toVersion   uint64
	messageOnly bool
	priorityFee uint64
}

func (f *adminFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.base, "base", "", "base key the distributors were created with")
	cmd.Flags().StringVar(&f.mint, "mint", "", "token mint of the distributors")
	cmd.Flags().StringVar(&f.treePath, "merkle-tree-path", "", "directory of merkle tree files; selects their versions")
	cmd.Flags().Uint64Var(&f.fromVersion, "from-version", 0, "first version to update")
	cmd.Flags().Uint64Var(&f.toVersion, "to-version", 0, "last version to update")
	cmd.Flags().BoolVar(&f.messageOnly, "bs58", false, "print the base58 message for a multisig instead of sending")
	cmd.Flags().Uint64Var(&f.priorityFee, "priority-fee", 0, "compute unit price in micro-lamports")
	_ = cmd.MarkFlagRequired("base")
	_ = cmd.MarkFlagRequired("mint")
}

func (f *adminFlags) target(cmd *cobra.Command) (distributor.Target, error) {
	base, err := parseKey("base", f.base)
	if err != nil {
		return distributor.Target{}, err
	}
	mint, err := parseKey("mint", f.mint)
	if err != nil {
		return distributor.Target{}, err
	}

	target := distributor.Target{Base: base, Mint: mint}

	hasRange := cmd.Flags().Changed("from-version") || cmd.Flags().Changed("to-version")
	switch {
	case len(f.treePath) > 0 && hasRange:
		return target, errors.New("--merkle-tree-path and --from-version/--to-version are exclusive")
	case len(f.treePath) > 0:
		index, err := allocation.ReadTreeDirectory(f.treePath)
		if err != nil {
			return target, err
		}
		for _, tree := range index.Trees() {
			target.Versions = append(target.Versions, tree.Version)
		}
		sort.Slice(target.Versions, func(i, j int) bool {
			return target.Versions[i] < target.Versions[j]
		})
	case hasRange:
		versions, err := distributor.VersionRange(f.fromVersion, f.toVersion)
		if err != nil {
			return target, err
		}
		target.Versions = versions
	default:
		return target, errors.New("one of --merkle-tree-path or --from-version/--to-version is required")
	}

	return target, nil
}

func (f *adminFlags) options() distributor.UpdateOptions {
	return distributor.UpdateOptions{
		ComputeUnitPrice: f.priorityFee,
		MessageOnly:      f.messageOnly,
	}
}

func (e *environment) adminCommands() []*cobra.Command {
	return []*cobra.Command{
		e.adminCommand(
			"set-admin",
			"Transfer the admin of the selected distributors",
			func(cmd *cobra.Command) func() (distributor.Change, error) {
				var newAdmin string
				cmd.Flags().StringVar(&newAdmin, "new-admin", "", "new admin address")
				_ = cmd.MarkFlagRequired("new-admin")
				return func() (distributor.Change, error) {
					key, err := parseKey("new-admin", newAdmin)
					if err != nil {
						return nil, err
					}
					return distributor.SetAdmin{NewAdmin: key}, nil
				}
			},
		),
		e.adminCommand(
			"set-clawback-receiver",
			"Point clawbacks of the selected distributors at a receiver's token account",
			func(cmd *cobra.Command) func() (distributor.Change, error) {
				var receiver string
				cmd.Flags().StringVar(&receiver, "receiver", "", "wallet receiving clawed back tokens")
				_ = cmd.MarkFlagRequired("receiver")
				return func() (distributor.Change, error) {
					key, err := parseKey("receiver", receiver)
					if err != nil {
						return nil, err
					}
					mint, _ := cmd.Flags().GetString("mint")
					mintKey, err := parseKey("mint", mint)
					if err != nil {
						return nil, err
					}
					return distributor.NewSetClawbackReceiver(key, mintKey)
				}
			},
		),
		e.adminCommand(
			"set-clawback-start-ts",
			"Set the clawback start timestamp of the selected distributors",
			func(cmd *cobra.Command) func() (distributor.Change, error) {
				var ts int64
				cmd.Flags().Int64Var(&ts, "clawback-start-ts", 0, "unix timestamp after which clawback is allowed")
				_ = cmd.MarkFlagRequired("clawback-start-ts")
				return func() (distributor.Change, error) {
					return distributor.SetClawbackStartTs{ClawbackStartTs: ts}, nil
				}
			},
		),
		e.adminCommand(
			"set-enable-slot",
			"Set the slot from which the selected distributors accept claims",
			func(cmd *cobra.Command) func() (distributor.Change, error) {
				var slot uint64
				cmd.Flags().Uint64Var(&slot, "slot", 0, "enable slot")
				_ = cmd.MarkFlagRequired("slot")
				return func() (distributor.Change, error) {
					return distributor.SetEnableSlot{EnableSlot: slot}, nil
				}
			},
		),
	}
}

// adminCommand builds one updater command. change registers the command's own
// flags and returns a constructor for the change, run after parsing.
func (e *environment) adminCommand(use, short string, change func(*cobra.Command) func() (distributor.Change, error)) *cobra.Command {
	var flags adminFlags

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
	}
	flags.register(cmd)
	newChange := change(cmd)

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		c, err := newChange()
		if err != nil {
			return err
		}

		target, err := flags.target(cmd)
		if err != nil {
			return err
		}

		var signer ed25519.PrivateKey
		if !flags.messageOnly {
			signer, err = e.cfg.LoadAdminKeypair()
			if err != nil {
				return err
			}
		}

		reader, client, err := e.reader()
		if err != nil {
			return err
		}

		admin := distributor.NewAdmin(client, reader, signer, e.adminTuning...)
		results, err := admin.Update(cmd.Context(), target, c, flags.options())
		for _, result := range results {
			e.printf("%s\n", result.String())
		}
		return err
	}

	return cmd
}
