// Package cli contains the mechsim command line tool.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"

	"github.com/team302/mechcore/logging"
)

// Flags.
const (
	flagConfig      = "config"
	flagDebug       = "debug"
	flagDuration    = "duration"
	flagMetricsAddr = "metrics-addr"
	flagRealtime    = "realtime"
)

// NewApp returns the mechsim app writing its reports to out. If logger is nil the app logs to
// stdout at info, or debug with --debug.
func NewApp(out io.Writer, logger logging.Logger) *cli.App {
	a := &simApp{out: out, logger: logger}
	configFlag := &cli.StringFlag{
		Name:     flagConfig,
		Aliases:  []string{"c"},
		Usage:    "load the robot description from `FILE`",
		Required: true,
	}
	return &cli.App{
		Name:            "mechsim",
		Usage:           "validate robot descriptions and run mechanism state machines against simulated hardware",
		HideHelpCommand: true,
		Writer:          out,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: a.before,
		Commands: []*cli.Command{
			{
				Name:   "validate",
				Usage:  "check a robot description and report every problem in it",
				Flags:  []cli.Flag{configFlag},
				Action: a.validateAction,
			},
			{
				Name:      "states",
				Usage:     "list the states and configuration keys of a mechanism type",
				ArgsUsage: "<climber|intake_left|intake_right>",
				Action:    a.statesAction,
			},
			{
				Name:  "run",
				Usage: "run the control loop against simulated actuators, replaying the description's input script",
				Flags: []cli.Flag{
					configFlag,
					&cli.DurationFlag{
						Name:  flagDuration,
						Usage: "how much robot time to simulate",
						Value: defaultDuration,
					},
					&cli.BoolFlag{
						Name:  flagRealtime,
						Usage: "run on the wall clock instead of stepping as fast as possible",
					},
					&cli.StringFlag{
						Name:  flagMetricsAddr,
						Usage: "serve telemetry as prometheus metrics on `ADDR` while running",
					},
				},
				Action: a.runAction,
			},
		},
	}
}
