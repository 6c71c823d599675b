package main

import (
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/studai/backend/core"
	"github.com/studai/backend/core/session"
	"github.com/studai/backend/storage/database"
	"github.com/studai/backend/storage/sessionstore"
)

var logger *log.Logger

type commandLine struct {
	conf  *core.Config
	db    *sqlx.DB
	store session.Store
}

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// set up DB
	db, err := database.Open(core.Conf)
	errAndDie(err)
	defer db.Close()

	// start CLI
	cli := commandLine{
		conf:  core.Conf,
		db:    db,
		store: sessionstore.NewPGStore(db),
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
