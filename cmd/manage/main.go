// Command manage runs maintenance tasks against the configured database.
//
// Usage:
//
//	manage [-config path] <command> [flags]
//
// Commands:
//
//	purge-expired-demo-users          delete demo users past their expiry
//	purge-restaurant-demo [-dry-run]  delete demo orders, carts, menu items and categories
//	create-test-users [-reset] [-password P] [-no-print]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"restaurant-api/config"
	"restaurant-api/demo"
	"restaurant-api/seed"

	"gorm.io/gorm"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}
	if err := run(context.Background(), *configPath, flag.Arg(0), flag.Args()[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "manage:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: manage [-config path] <purge-expired-demo-users|purge-restaurant-demo|create-test-users> [flags]")
}

func run(ctx context.Context, configPath, command string, args []string, out io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	config.Settings = cfg

	db, err := config.InitDB(cfg.Database)
	if err != nil {
		return err
	}
	return runCommand(ctx, db, command, args, out)
}

func runCommand(ctx context.Context, db *gorm.DB, command string, args []string, out io.Writer) error {
	switch command {
	case "purge-expired-demo-users":
		n, err := demo.PurgeExpiredUsers(ctx, db, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted expired demo users: %d\n", n)
		return nil

	case "purge-restaurant-demo":
		fs := flag.NewFlagSet(command, flag.ContinueOnError)
		dryRun := fs.Bool("dry-run", false, "show counts only")
		if err := fs.Parse(args); err != nil {
			return err
		}
		_, err := demo.PurgeRestaurantData(ctx, db, *dryRun, out)
		return err

	case "create-test-users":
		fs := flag.NewFlagSet(command, flag.ContinueOnError)
		reset := fs.Bool("reset", false, "reset passwords (and demo flags) for existing test users")
		password := fs.String("password", "", "use a single password for all test users")
		noPrint := fs.Bool("no-print", false, "do not print credentials")
		if err := fs.Parse(args); err != nil {
			return err
		}
		creds, err := seed.CreateTestUsers(ctx, db, seed.Options{Reset: *reset, Password: *password})
		if err != nil {
			return err
		}
		if *noPrint {
			fmt.Fprintln(out, "Test users created/updated.")
			return nil
		}
		fmt.Fprintln(out, "Created/updated test users:")
		fmt.Fprintln(out)
		seed.PrintTable(out, creds)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Use these credentials to obtain JWTs at:")
		fmt.Fprintln(out, "    POST /api/v1/auth/jwt/create")
		return nil
	}
	return fmt.Errorf("unknown command %q", command)
}
