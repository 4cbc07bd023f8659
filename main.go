package main

import (
	"os"

	"lotterypool/cmd"

	log "github.com/sirupsen/logrus"
)

func main() {
	if err := cmd.NewApp().Run(os.Args); err != nil {
		log.WithError(err).Fatal("lotterypool failed")
	}
}
