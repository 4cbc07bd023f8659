package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"lotterypool/config"
	"lotterypool/database"
	"lotterypool/domain/entities"

	log "github.com/sirupsen/logrus"
	"gopkg.in/urfave/cli.v1"
)

var callerFlag = cli.StringFlag{
	Name:   "caller",
	Usage:  "address the operation is performed as",
	EnvVar: "LOTTERY_CALLER",
}

// NewApp builds the lotterypool command line
func NewApp() *cli.App {
	app := cli.NewApp()
	app.Name = "lotterypool"
	app.Usage = "shared-pot lottery with administrator controlled draws"
	app.Commands = []cli.Command{
		{
			Name:   "serve",
			Usage:  "run the HTTP API and the draw scheduler",
			Action: serveAction,
		},
		{
			Name:  "migrate",
			Usage: "manage the database schema",
			Subcommands: []cli.Command{
				{Name: "up", Usage: "apply pending migrations", Action: migrateUpAction},
				{Name: "down", Usage: "roll back [steps] migrations", ArgsUsage: "[steps]", Action: migrateDownAction},
				{Name: "status", Usage: "show the schema version", Action: migrateStatusAction},
			},
		},
		{
			Name:   "deploy",
			Usage:  "create a pool administered by --caller",
			Flags:  []cli.Flag{callerFlag},
			Action: withRuntime(deployAction),
		},
		{
			Name:      "open-account",
			Usage:     "open a ledger account funded with the starting balance",
			ArgsUsage: "<address>",
			Action:    withRuntime(openAccountAction),
		},
		{
			Name:      "set-accepts-payments",
			Usage:     "toggle whether payouts to --caller succeed",
			ArgsUsage: "<true|false>",
			Flags:     []cli.Flag{callerFlag},
			Action:    withRuntime(setAcceptsPaymentsAction),
		},
		{
			Name:      "balance",
			Usage:     "show an account",
			ArgsUsage: "<address>",
			Action:    withRuntime(balanceAction),
		},
		{
			Name:      "pool",
			Usage:     "show a pool",
			ArgsUsage: "<pool-id>",
			Action:    withRuntime(poolAction),
		},
		{
			Name:      "enter",
			Usage:     "stake coins into a pool as --caller",
			ArgsUsage: "<pool-id> <stake>",
			Flags:     []cli.Flag{callerFlag},
			Action:    withRuntime(enterAction),
		},
		{
			Name:      "players",
			Usage:     "list pool participants in entry order",
			ArgsUsage: "<pool-id>",
			Action:    withRuntime(playersAction),
		},
		{
			Name:      "pick-winner",
			Usage:     "draw a winner as --caller and pay out the pool",
			ArgsUsage: "<pool-id>",
			Flags:     []cli.Flag{callerFlag},
			Action:    withRuntime(pickWinnerAction),
		},
	}
	return app
}

func serveAction(c *cli.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	return Run(ctx)
}

func migrateUpAction(c *cli.Context) error {
	return database.MigrateUp(config.Get().GetDatabaseURL())
}

func migrateDownAction(c *cli.Context) error {
	steps := 1
	if c.NArg() > 0 {
		n, err := strconv.Atoi(c.Args().First())
		if err != nil {
			return fmt.Errorf("invalid steps value %q: %w", c.Args().First(), err)
		}
		steps = n
	}
	return database.MigrateDown(config.Get().GetDatabaseURL(), steps)
}

func migrateStatusAction(c *cli.Context) error {
	status, err := database.MigrateStatus(config.Get().GetDatabaseURL())
	if err != nil {
		return err
	}
	if !status.Applied {
		fmt.Println("No migrations applied")
		return nil
	}
	fmt.Printf("Version: %d, dirty: %t\n", status.Version, status.Dirty)
	return nil
}

type runtimeAction func(ctx context.Context, c *cli.Context, rt *runtime) error

// withRuntime connects to the configured backends for a single command.
// Winner announcements are left to the server.
func withRuntime(action runtimeAction) func(*cli.Context) error {
	return func(c *cli.Context) error {
		ctx := context.Background()
		cfg := config.Get()
		cfg.ConfigureLogging()

		rt, err := newRuntime(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer rt.Close()

		return action(ctx, c, rt)
	}
}

func callerFrom(c *cli.Context) (entities.Address, error) {
	raw := c.String(callerFlag.Name)
	if raw == "" {
		return "", fmt.Errorf("--%s is required", callerFlag.Name)
	}
	return entities.ParseAddress(raw)
}

func addressArg(c *cli.Context, index int) (entities.Address, error) {
	if c.NArg() <= index {
		return "", fmt.Errorf("missing address argument")
	}
	return entities.ParseAddress(c.Args().Get(index))
}

func poolIDArg(c *cli.Context) (int64, error) {
	if c.NArg() < 1 {
		return 0, fmt.Errorf("missing pool id argument")
	}
	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid pool id %q: %w", c.Args().First(), err)
	}
	return id, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func deployAction(ctx context.Context, c *cli.Context, rt *runtime) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	pool, err := rt.handler.CreatePool(ctx, caller)
	if err != nil {
		return err
	}
	return printJSON(pool)
}

func openAccountAction(ctx context.Context, c *cli.Context, rt *runtime) error {
	addr, err := addressArg(c, 0)
	if err != nil {
		return err
	}
	account, err := rt.handler.OpenAccount(ctx, addr)
	if err != nil {
		return err
	}
	return printJSON(account)
}

func setAcceptsPaymentsAction(ctx context.Context, c *cli.Context, rt *runtime) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	if c.NArg() < 1 {
		return fmt.Errorf("missing true|false argument")
	}
	accepts, err := strconv.ParseBool(c.Args().First())
	if err != nil {
		return fmt.Errorf("invalid value %q: %w", c.Args().First(), err)
	}
	account, err := rt.handler.SetAcceptsPayments(ctx, caller, accepts)
	if err != nil {
		return err
	}
	return printJSON(account)
}

func balanceAction(ctx context.Context, c *cli.Context, rt *runtime) error {
	addr, err := addressArg(c, 0)
	if err != nil {
		return err
	}
	account, err := rt.handler.GetAccount(ctx, addr)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", account.Address, account.Balance)
	return nil
}

func poolAction(ctx context.Context, c *cli.Context, rt *runtime) error {
	poolID, err := poolIDArg(c)
	if err != nil {
		return err
	}
	pool, err := rt.handler.GetPool(ctx, poolID)
	if err != nil {
		return err
	}
	return printJSON(pool)
}

func enterAction(ctx context.Context, c *cli.Context, rt *runtime) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	poolID, err := poolIDArg(c)
	if err != nil {
		return err
	}
	if c.NArg() < 2 {
		return fmt.Errorf("missing stake argument")
	}
	stake, err := entities.ParseAmount(c.Args().Get(1))
	if err != nil {
		return err
	}
	entry, err := rt.handler.Enter(ctx, poolID, caller, stake)
	if err != nil {
		return err
	}
	fmt.Printf("%s entered pool #%d with %s (position %d)\n", caller, poolID, stake, entry.Position)
	return nil
}

func playersAction(ctx context.Context, c *cli.Context, rt *runtime) error {
	poolID, err := poolIDArg(c)
	if err != nil {
		return err
	}
	players, err := rt.handler.GetPlayers(ctx, poolID)
	if err != nil {
		return err
	}
	for _, p := range players {
		fmt.Println(p)
	}
	return nil
}

func pickWinnerAction(ctx context.Context, c *cli.Context, rt *runtime) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	poolID, err := poolIDArg(c)
	if err != nil {
		return err
	}
	result, err := rt.handler.PickWinner(ctx, poolID, caller)
	if err != nil {
		return err
	}
	fmt.Printf("Winner of pool #%d: %s (%s coins from %d players)\n", poolID, result.Winner, result.Amount, len(result.Participants))
	return nil
}
