package common

import (
	"log"

	"github.com/opst/jobtemplate/cmd/jobtmpl/env"
	"github.com/opst/jobtemplate/pkg/slots"
)

// Resolver returns a resolver in the context of jobenv, which logs warnings to logger.
func Resolver(logger *log.Logger, jobEnv env.JobEnv) *slots.Resolver {
	return slots.NewResolver(jobEnv.Context(), slots.WithLogger(logger))
}
