package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/R3E-Network/gameoflife/internal/cli"
	"github.com/R3E-Network/gameoflife/internal/client"
	"github.com/R3E-Network/gameoflife/pkg/api"
)

const usage = `usage: lifectl [-server URL] <command> [args]

commands:
  new -file pattern.txt | new -width W -height H [-density D] [-seed S]
  get ID
  next ID
  increment ID N
  final ID
  end ID
  watch ID N [-delay 200ms] [-progress]
  completion bash|zsh|fish
`

func main() {
	server := flag.String("server", envOr("GOL_SERVER_URL", "http://localhost:8080"), "game server base URL")
	timeout := flag.Duration("timeout", 30*time.Second, "request timeout")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	c, err := client.New(client.Config{BaseURL: *server, Timeout: *timeout})
	if err != nil {
		log.Fatalf("configure client: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, c, flag.Arg(0), flag.Args()[1:], os.Stdout); err != nil {
		cli.Error(os.Stderr, fmt.Sprintf("%s: %v", flag.Arg(0), err))
		os.Exit(1)
	}
}

func run(ctx context.Context, c *client.Client, cmd string, args []string, out io.Writer) error {
	switch cmd {
	case "completion":
		if len(args) != 1 {
			return fmt.Errorf("expected a shell name")
		}
		return cli.WriteCompletion(out, args[0])
	case "new":
		return newGame(ctx, c, args, out)
	case "get", "next", "final", "end":
		if len(args) != 1 {
			return fmt.Errorf("expected a board id")
		}
		id := args[0]
		var (
			b   api.BoardModelResponse
			err error
		)
		spin := cli.NewSpinner(os.Stderr, "waiting for "+cmd)
		spin.Start()
		defer spin.Stop()
		switch cmd {
		case "get":
			b, err = c.Get(ctx, id)
		case "next":
			b, err = c.Next(ctx, id)
		case "final":
			b, err = c.Final(ctx, id)
		case "end":
			n, endErr := c.End(ctx, id)
			spin.Stop()
			if endErr != nil {
				return endErr
			}
			cli.Success(out, fmt.Sprintf("deleted %d board(s)", n))
			return nil
		}
		spin.Stop()
		if err != nil {
			return err
		}
		printBoard(out, b)
		return nil
	case "increment":
		id, n, err := idAndCount(args)
		if err != nil {
			return err
		}
		spin := cli.NewSpinner(os.Stderr, "advancing")
		spin.Start()
		b, err := c.Increment(ctx, id, n)
		spin.Stop()
		if err != nil {
			return err
		}
		printBoard(out, b)
		return nil
	case "watch":
		return watch(ctx, c, args, out)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func newGame(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("new", flag.ContinueOnError)
	file := fs.String("file", "", "pattern file of '#'/'O' and '.' rows")
	width := fs.Int("width", 0, "random board width")
	height := fs.Int("height", 0, "random board height")
	density := fs.Float64("density", 0.3, "probability a random cell is alive")
	seed := fs.Int64("seed", time.Now().UnixNano(), "random seed")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		cells []api.BoardCellModel
		err   error
	)
	switch {
	case *file != "":
		f, openErr := os.Open(*file)
		if openErr != nil {
			return openErr
		}
		defer f.Close()
		cells, err = client.ParsePattern(f)
	case *width > 0 || *height > 0:
		cells, err = client.Random(*width, *height, *density, rand.New(rand.NewSource(*seed)))
	default:
		return fmt.Errorf("either -file or -width/-height is required")
	}
	if err != nil {
		return err
	}

	b, err := c.NewGame(ctx, cells)
	if err != nil {
		return err
	}
	printBoard(out, b)
	return nil
}

func watch(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	delay := fs.Duration("delay", 200*time.Millisecond, "pause between frames")
	progress := fs.Bool("progress", false, "show a progress bar instead of drawing each frame")
	if len(args) > 2 {
		if err := fs.Parse(args[2:]); err != nil {
			return err
		}
		args = args[:2]
	}
	id, n, err := idAndCount(args)
	if err != nil {
		return err
	}

	if *progress {
		bar := cli.NewProgressBar(out, n, "generations")
		var last api.BoardModelResponse
		warnings, err := c.Watch(ctx, id, n, func(b api.BoardModelResponse) error {
			last = b
			bar.Increment()
			return nil
		})
		bar.Finish()
		if last.ID != "" {
			printBoard(out, last)
		}
		printWarnings(out, warnings)
		return err
	}

	generation := 0
	warnings, err := c.Watch(ctx, id, n, func(b api.BoardModelResponse) error {
		generation++
		fmt.Fprintf(out, "\033[H\033[2Jgeneration %d\n", generation)
		printBoard(out, b)
		if *delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(*delay):
			}
		}
		return nil
	})
	printWarnings(out, warnings)
	return err
}

func idAndCount(args []string) (string, int, error) {
	if len(args) != 2 {
		return "", 0, fmt.Errorf("expected a board id and a generation count")
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return "", 0, fmt.Errorf("generation count %q is not an integer", args[1])
	}
	return args[0], n, nil
}

func printBoard(out io.Writer, b api.BoardModelResponse) {
	parent := "-"
	if b.ParentID != nil {
		parent = *b.ParentID
	}
	fmt.Fprintf(out, "id: %s\nparent: %s\n", b.ID, parent)
	fmt.Fprint(out, client.Render(b.Cells))
	printWarnings(out, b.Errors)
}

func printWarnings(out io.Writer, warnings []api.ErrorModel) {
	for _, w := range warnings {
		cli.Warning(out, fmt.Sprintf("%s: %s", w.Code, w.Message))
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
