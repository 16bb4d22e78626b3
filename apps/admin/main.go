package main

import (
	"log"
	"os"

	"github.com/instacad/backoffice/core"
	"github.com/instacad/backoffice/core/user"
	"github.com/instacad/backoffice/storage/database"
	"github.com/instacad/backoffice/storage/database/sqlxrepos"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up DB
	errAndDie(database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	validate, translator := core.NewValidator()
	user.RegisterValidators(validate, translator)

	// start CLI
	cli := commandLine{
		db:     db,
		usrSvc: user.NewService(db, sqlxrepos.NewUserRepository(db), validate),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
