package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/instacad/backoffice/core/user"
	"github.com/instacad/backoffice/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db     *database.DB
	usrSvc *user.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS...]                                - run a goose migration command (up, down, status, ...)")
	fmt.Println("  addstaff -mobile MOBILE -name NAME [-email EMAIL] [-role ROLE] - add or update a back-office account")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addStaffCmd := flag.NewFlagSet("addstaff", flag.ExitOnError)
	addStaffMobile := addStaffCmd.String("mobile", "", "The account's mobile number. The password will be prompted next.")
	addStaffName := addStaffCmd.String("name", "", "The account holder's full name.")
	addStaffEmail := addStaffCmd.String("email", "", "The account's email address.")
	addStaffRole := addStaffCmd.String("role", user.RoleAccountant, "The account's role: admin or accountant.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "addstaff":
		if err := addStaffCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addStaffMobile == "" || *addStaffName == "" {
			addStaffCmd.Usage()
			return errHelp
		}
		fmt.Print("Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			addStaffCmd.Usage()
			return errHelp
		}
		return cli.addStaff(*addStaffName, *addStaffMobile, *addStaffEmail, *addStaffRole, string(pwd))
	default:
		cli.printUsage()
		return errHelp
	}
}
