package main

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	xrate "golang.org/x/time/rate"

	"github.com/code-payments/distributor-client/pkg/allocation/api"
	"github.com/code-payments/distributor-client/pkg/config"
	"github.com/code-payments/distributor-client/pkg/distributor"
	"github.com/code-payments/distributor-client/pkg/metrics"
	"github.com/code-payments/distributor-client/pkg/rate"
	"github.com/code-payments/distributor-client/pkg/reconcile"
	"github.com/code-payments/distributor-client/pkg/solana"
)

const (
	displayDecimals = 6

	newRelicShutdownTimeout = 10 * time.Second
)

func main() {
	env := newEnvironment(os.Stdout, os.Stderr)
	if err := env.execute(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "\n\nDistributor CLI exited with error:\n\n %v\n", err)
		os.Exit(1)
	}
}

// environment holds what a single invocation needs. It is built once per
// run and handed to every command.
type environment struct {
	out    io.Writer
	logOut io.Writer

	newLedger func(endpoint string) solana.Client

	engineTuning []reconcile.Option
	adminTuning  []distributor.AdminOption

	cfg      *config.Config
	newRelic *newrelic.Application
	finish   func(err error)
}

func newEnvironment(out, logOut io.Writer) *environment {
	return &environment{
		out:       out,
		logOut:    logOut,
		newLedger: solana.New,
		finish:    func(error) {},
	}
}

func (e *environment) execute(ctx context.Context, args []string) error {
	root := e.rootCommand()
	root.SetArgs(args)
	root.SetOut(e.out)

	err := root.ExecuteContext(ctx)

	e.finish(err)
	if e.newRelic != nil {
		e.newRelic.Shutdown(newRelicShutdownTimeout)
	}
	return err
}

func (e *environment) rootCommand() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "distributor-cli",
		Short:         "CLI to interact with the MerkleDistributor program",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.setup(cmd, envFile)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&envFile, "env-file", ".env", "optional .env file")
	flags.String("rpc", "", "Solana RPC endpoint or devnet, testnet, mainnet-beta (env RPC)")
	flags.String("keypair", "", "keypair file (env ADMIN)")
	flags.String("program-id", "", "distributor program id (env PROGRAM_ID)")
	flags.String("api-url", "", "allocation API base url (env API_URL)")
	flags.String("log-level", "", "log level (env LOG_LEVEL)")
	flags.String("log-format", "", "text or json (env LOG_FORMAT)")

	root.AddCommand(
		e.distributorStatsCommand(),
		e.fleetStatsCommand(),
		e.claimCommand(),
		e.userClaimedCommand(),
		e.isClaimableCommand(),
		e.claimStatusCommand(),
		e.auditCommand(),
	)
	root.AddCommand(e.adminCommands()...)

	return root
}

func (e *environment) setup(cmd *cobra.Command, envFile string) error {
	cfg, err := config.Load(envFile, cmd.Flags())
	if err != nil {
		return err
	}
	e.cfg = cfg

	app, err := metrics.NewApplication(cfg.NewRelicAppName, cfg.NewRelicLicenseKey)
	if err != nil {
		return err
	}
	e.newRelic = app

	e.configureLogger()

	ctx, finish := metrics.StartTransaction(cmd.Context(), app, cmd.Name())
	cmd.SetContext(ctx)
	e.finish = finish

	return nil
}

func (e *environment) configureLogger() {
	var formatter logrus.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	if e.cfg.LogFormat == "json" {
		formatter = &logrus.JSONFormatter{}
	}

	if e.newRelic != nil {
		logrus.SetFormatter(metrics.NewLogFormatter(e.newRelic, formatter))
	} else {
		logrus.SetFormatter(formatter)
	}

	level, err := logrus.ParseLevel(strings.ToLower(e.cfg.LogLevel))
	if err != nil {
		logrus.StandardLogger().WithField("log_level", e.cfg.LogLevel).Warn("unknown log level, ignoring")
	} else {
		logrus.SetLevel(level)
	}

	logrus.SetOutput(e.logOut)
}

func (e *environment) ledger() (solana.Client, error) {
	if err := e.cfg.RequireRPC(); err != nil {
		return nil, err
	}
	return e.newLedger(solana.ResolveEndpoint(e.cfg.RPC)), nil
}

func (e *environment) reader() (*distributor.Reader, solana.Client, error) {
	client, err := e.ledger()
	if err != nil {
		return nil, nil, err
	}

	program, err := e.cfg.Program()
	if err != nil {
		return nil, nil, errors.Wrap(err, "invalid program id")
	}

	return distributor.NewReader(client, program), client, nil
}

func (e *environment) apiClient() (*api.Client, error) {
	if len(e.cfg.APIURL) == 0 {
		return nil, errors.New("api url is required (--api-url or API_URL)")
	}

	var opts []api.Option
	if e.cfg.APIRateLimit > 0 {
		opts = append(opts, api.WithRateLimiter(rate.NewLocalRateLimiter(xrate.Limit(e.cfg.APIRateLimit))))
	}
	return api.NewClient(e.cfg.APIURL, opts...)
}

func (e *environment) printf(format string, args ...interface{}) {
	fmt.Fprintf(e.out, format, args...)
}

// flagAliases accepts legacy flag names.
func flagAliases(cmd *cobra.Command, aliases map[string]string) {
	cmd.Flags().SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		if alias, ok := aliases[name]; ok {
			name = alias
		}
		return pflag.NormalizedName(name)
	})
}

func parseKey(name, value string) (ed25519.PublicKey, error) {
	key, err := solana.ParsePublicKey(value)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid --%s %q", name, value)
	}
	return key, nil
}
