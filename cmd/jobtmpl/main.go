package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path"

	subchoices "github.com/opst/jobtemplate/cmd/jobtmpl/subcommands/choices"
	"github.com/opst/jobtemplate/cmd/jobtmpl/subcommands/common"
	"github.com/opst/jobtemplate/cmd/jobtmpl/subcommands/logger"
	subreq "github.com/opst/jobtemplate/cmd/jobtmpl/subcommands/request"
	subslots "github.com/opst/jobtemplate/cmd/jobtmpl/subcommands/slots"
	subtype "github.com/opst/jobtemplate/cmd/jobtmpl/subcommands/typeinfo"
	subver "github.com/opst/jobtemplate/cmd/jobtmpl/subcommands/version"
	"github.com/opst/jobtemplate/pkg/utils/try"
	"github.com/youta-t/flarc"
)

func main() {
	name := path.Base(os.Args[0])
	logger := logger.Default()
	logger.SetPrefix(fmt.Sprintf("[%s] ", name))

	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, os.Kill,
	)
	defer cancel()

	cf := try.To(common.Flags(".")).OrFatal(logger)
	typ := try.To(subtype.New()).OrFatal(logger)
	slots := try.To(subslots.New()).OrFatal(logger)
	choices := try.To(subchoices.New()).OrFatal(logger)
	request := try.To(subreq.New()).OrFatal(logger)
	version := try.To(subver.New()).OrFatal(logger)

	jobtmpl := try.To(
		flarc.NewCommandGroup(
			"Job template commandline interface",
			cf,
			flarc.WithSubcommand("type", typ),
			flarc.WithSubcommand("slots", slots),
			flarc.WithSubcommand("choices", choices),
			flarc.WithSubcommand("request", request),
			flarc.WithSubcommand("version", version),
		),
	).OrFatal(logger)

	os.Exit(flarc.Run(ctx, jobtmpl, flarc.WithHelp(true)))
}
