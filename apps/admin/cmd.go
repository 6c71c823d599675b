package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  createdb - create the database and app user if missing")
	fmt.Println("  migrate COMMAND [ARGS...] - run a goose migration command")
	fmt.Println("  seedsession -email EMAIL -role ROLE [-name NAME] - seed the session slot")
	fmt.Println("  showsession - print the persisted session record")
	fmt.Println("  clearsession - empty the session slot")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		printUsage()
		return errHelp
	}

	seedCmd := flag.NewFlagSet("seedsession", flag.ExitOnError)
	seedEmail := seedCmd.String("email", "", "The account's email address. The password will be prompted next.")
	seedRole := seedCmd.String("role", "", "Either 'student' or 'educator'.")
	seedName := seedCmd.String("name", "", "Optional display name; defaults to the email's local part.")

	switch args[1] {
	case "createdb":
		return cli.createDB()
	case "migrate":
		if len(args) < 3 {
			printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "seedsession":
		if err := seedCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *seedEmail == "" || *seedRole == "" {
			seedCmd.Usage()
			return errHelp
		}
		fmt.Print("Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			seedCmd.Usage()
			return errHelp
		}
		return cli.seedSession(*seedEmail, *seedName, *seedRole, string(pwd))
	case "showsession":
		return cli.showSession()
	case "clearsession":
		return cli.clearSession()
	default:
		printUsage()
		return errHelp
	}
}
