// Package main is the mechsim command.
package main

import (
	"os"

	_ "github.com/team302/mechcore/components/actuator/register"

	"github.com/team302/mechcore/cli"
	"github.com/team302/mechcore/logging"
)

func main() {
	if err := cli.NewApp(os.Stdout, nil).Run(os.Args); err != nil {
		logging.NewLogger("mechsim").Error(err)
		os.Exit(1)
	}
}
