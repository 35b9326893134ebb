package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"go.uber.org/zap"

	"bom-server/backend/internal/client"
	"bom-server/backend/internal/models"
	"bom-server/backend/pkg/config"
	"bom-server/backend/pkg/logger"
)

const usage = `usage: bom-client [-server URL] <command> [args]

commands:
  index                              show the server's API summary
  list [filter]                      list parts (all, top_level, assembly, subassembly, component, orphan)
  create <name>                      create a part
  get <id>                           show one part
  delete <id>                        delete a part
  children <id> [filter]             list immediate children (all, top_level, component)
  update <id> <action> <child>...    add, remove or replace children
  contained <id>                     list assemblies containing a part
  descendants <id> [filter]          list every part below a part
`

// errUsage marks a malformed command line
var errUsage = errors.New("invalid arguments")

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	flags := flag.NewFlagSet("bom-client", flag.ExitOnError)
	flags.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	server := flags.String("server", cfg.ServerURL, "bom server base URL")
	verbose := flags.Bool("v", false, "log requests")
	_ = flags.Parse(os.Args[1:])

	level := "error"
	if *verbose {
		level = "debug"
	}
	log, err := logger.New(cfg.Env, level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := client.New(*server, log)
	if err := run(ctx, c, flags.Args(), os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		log.Debug("Command failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// run executes one command and prints its result to out
func run(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, args := args[0], args[1:]

	var (
		parts []models.PartView
		part  models.PartView
		err   error
	)
	switch cmd {
	case "index":
		if len(args) != 0 {
			return errUsage
		}
		text, err := c.Index(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(out, text)
		return err
	case "list":
		if len(args) > 1 {
			return errUsage
		}
		parts, err = c.ListParts(ctx, optional(args, 0))
	case "create":
		if len(args) != 1 {
			return errUsage
		}
		part, err = c.CreatePart(ctx, args[0])
		parts = []models.PartView{part}
	case "get":
		if len(args) != 1 {
			return errUsage
		}
		part, err = c.GetPart(ctx, args[0])
		parts = []models.PartView{part}
	case "delete":
		if len(args) != 1 {
			return errUsage
		}
		part, err = c.DeletePart(ctx, args[0])
		parts = []models.PartView{part}
	case "children":
		if len(args) < 1 || len(args) > 2 {
			return errUsage
		}
		parts, err = c.GetChildren(ctx, args[0], optional(args, 1))
	case "update":
		if len(args) < 2 {
			return errUsage
		}
		part, err = c.UpdateChildren(ctx, args[0], args[1], args[2:])
		parts = []models.PartView{part}
	case "contained":
		if len(args) != 1 {
			return errUsage
		}
		parts, err = c.Contained(ctx, args[0])
	case "descendants":
		if len(args) < 1 || len(args) > 2 {
			return errUsage
		}
		parts, err = c.Descendants(ctx, args[0], optional(args, 1))
	default:
		return errUsage
	}
	if err != nil {
		return err
	}
	return printParts(out, parts)
}

func optional(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

// printParts writes parts as an aligned table
func printParts(out io.Writer, parts []models.PartView) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPARENTS\tCHILDREN")
	for _, p := range parts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Name, joinIDs(p.Parents), joinIDs(p.Children))
	}
	return tw.Flush()
}

func joinIDs(ids []string) string {
	if len(ids) == 0 {
		return "-"
	}
	return strings.Join(ids, ",")
}
