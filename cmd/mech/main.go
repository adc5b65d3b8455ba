package main

import (
	"os"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Run  RunCommand  `command:"run" description:"Run the control loop with a live joint chart"`
	Info InfoCommand `command:"info" description:"Show the joints and transmissions of a robot description"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "mech - mechanism model runner for hobby robot arms"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}
