package executors

import (
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/rodrigooliver/interflow-sub001/pkg/store"
)

// Executor previews and persists installment plans.
type Executor struct {
	logger *log.Logger
	store  store.Store
	// Out receives the Plan preview. Defaults to stdout.
	Out io.Writer
}

func New(logger *log.Logger, st store.Store) *Executor {
	return &Executor{
		logger: logger,
		store:  st,
		Out:    os.Stdout,
	}
}
