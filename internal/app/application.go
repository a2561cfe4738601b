package app

import (
	"fmt"

	"github.com/R3E-Network/gameoflife/internal/app/domain/board"
	"github.com/R3E-Network/gameoflife/internal/app/engine"
	boardsvc "github.com/R3E-Network/gameoflife/internal/app/services/boards"
	"github.com/R3E-Network/gameoflife/internal/app/storage"
	"github.com/R3E-Network/gameoflife/internal/app/storage/memory"
	"github.com/R3E-Network/gameoflife/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Boards storage.BoardStore
}

// Options carries the game policy handed to the engine and board service.
type Options struct {
	Window               board.Window
	Workers              int
	StatesIncrementLimit int
}

// DefaultOptions uses the Moore neighbourhood and the default ceiling.
func DefaultOptions() Options {
	return Options{
		Window:               board.DefaultWindow(),
		StatesIncrementLimit: boardsvc.DefaultStatesIncrementLimit,
	}
}

// Application ties domain services together.
type Application struct {
	log *logger.Logger

	Engine *engine.Engine
	Boards *boardsvc.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, opts Options, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}
	if stores.Boards == nil {
		stores.Boards = memory.New()
	}
	if err := opts.Window.Validate(); err != nil {
		return nil, fmt.Errorf("neighbour window: %w", err)
	}
	if opts.StatesIncrementLimit <= 0 {
		return nil, fmt.Errorf("states increment limit must be positive, got %d", opts.StatesIncrementLimit)
	}

	eng := engine.New(opts.Window, engine.WithWorkers(opts.Workers))
	boards := boardsvc.New(stores.Boards, eng, boardsvc.Config{StatesIncrementLimit: opts.StatesIncrementLimit}, log.Named("boards"))

	log.WithFields(map[string]interface{}{
		"neighbours":             eng.Neighbors(),
		"states_increment_limit": opts.StatesIncrementLimit,
	}).Info("application initialised")

	return &Application{
		log:    log,
		Engine: eng,
		Boards: boards,
	}, nil
}
