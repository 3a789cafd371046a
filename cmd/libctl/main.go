// Command libctl manages the libraries of a media server from the terminal.
// Reads go through the query cache; writes go through the library
// orchestrator and invalidate what they change.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/unkn0wn-root/querycache/bytefmt"
	"github.com/unkn0wn-root/querycache/config"
	"github.com/unkn0wn-root/querycache/httpapi"
	"github.com/unkn0wn-root/querycache/library"
	zapadapter "github.com/unkn0wn-root/querycache/log/zap"
)

const usage = `usage: libctl [-config path] <command> [args]

commands:
  libraries                   list libraries
  library <id>                show one library
  series <id> [page]          list a page of a library's series
  stats                       show library totals
  tags                        list the tag catalog
  jobs                        list job reports
  logs                        show the server log file
  clear-logs                  truncate the server log file
  scan <id>                   start a library scan
  delete <id>                 delete a library
  create-tags <label>...      create tags
  edit-tags <id> <label>...   replace a library's tags
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("libctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := fs.String("config", "", "path to libctl.yaml")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	zl, err := newLogger(cfg.Logger, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer func() { _ = zl.Sync() }()

	st, err := newCache(ctx, cfg.Cache, zl, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "cache:", err)
		return 1
	}
	defer func() {
		if err := st.Close(context.WithoutCancel(ctx)); err != nil {
			zl.Warn("cache close", zap.Error(err))
		}
	}()

	api, err := httpapi.NewClient(httpapi.Config{
		BaseURL:    cfg.Server.URL,
		Token:      cfg.Server.Token,
		Timeout:    cfg.Server.Timeout,
		RatePerSec: cfg.Server.RatePerSec,
		Burst:      cfg.Server.Burst,
		Logger:     zapadapter.New(zl, "httpapi"),
	})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	q, err := library.NewQueries(api, st.cache, library.QueriesOptions{Codec: cfg.Cache.Codec, MaxDecode: cfg.Cache.MaxDecode})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	o := library.NewOrchestrator(api, st.cache, library.OrchestratorOptions{
		AcceptStatus:  library.StatusRange{Min: cfg.Save.AcceptStatusMin, Max: cfg.Save.AcceptStatusMax},
		UseTagCatalog: cfg.Save.UseTagCatalog,
		Queries:       q,
		Logger:        zapadapter.New(zl, "library"),
	})

	cmd := &commands{q: q, o: o, out: stdout}
	if err := cmd.dispatch(ctx, fs.Arg(0), fs.Args()[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fs.Usage()
			return 2
		}
		fmt.Fprintln(stderr, "libctl:", err)
		return 1
	}
	return 0
}

var errUsage = errors.New("usage")

type commands struct {
	q   *library.Queries
	o   *library.Orchestrator
	out io.Writer
}

func (c *commands) dispatch(ctx context.Context, name string, args []string) error {
	switch name {
	case "libraries":
		return c.libraries(ctx)
	case "library":
		if len(args) != 1 {
			return errUsage
		}
		return c.library(ctx, args[0])
	case "series":
		if len(args) < 1 || len(args) > 2 {
			return errUsage
		}
		page := 0
		if len(args) == 2 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 0 {
				return fmt.Errorf("invalid page %q", args[1])
			}
			page = n
		}
		return c.series(ctx, args[0], page)
	case "stats":
		return c.stats(ctx)
	case "tags":
		return c.tags(ctx)
	case "jobs":
		return c.jobs(ctx)
	case "logs":
		return c.logs(ctx)
	case "clear-logs":
		return c.o.ClearLogs(ctx)
	case "scan":
		if len(args) != 1 {
			return errUsage
		}
		return c.o.Scan(ctx, args[0])
	case "delete":
		if len(args) != 1 {
			return errUsage
		}
		return c.o.Delete(ctx, args[0])
	case "create-tags":
		if len(args) == 0 {
			return errUsage
		}
		tags, err := c.o.CreateTags(ctx, args)
		if err != nil {
			return err
		}
		return c.printTags(tags)
	case "edit-tags":
		if len(args) < 1 {
			return errUsage
		}
		return c.editTags(ctx, args[0], args[1:])
	default:
		return errUsage
	}
}

func (c *commands) table() *tabwriter.Writer {
	return tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
}

func (c *commands) libraries(ctx context.Context) error {
	libs, err := c.q.Libraries(ctx)
	if err != nil {
		return err
	}
	tw := c.table()
	fmt.Fprintln(tw, "ID\tNAME\tPATH\tTAGS\tUPDATED")
	for _, l := range libs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", l.ID, l.Name, l.Path, tagNames(l.TagList()), updated(l))
	}
	return tw.Flush()
}

func (c *commands) library(ctx context.Context, id string) error {
	l, err := c.q.Library(ctx, id)
	if err != nil {
		return err
	}
	tw := c.table()
	fmt.Fprintf(tw, "id\t%s\n", l.ID)
	fmt.Fprintf(tw, "name\t%s\n", l.Name)
	fmt.Fprintf(tw, "path\t%s\n", l.Path)
	if l.Description != nil {
		fmt.Fprintf(tw, "description\t%s\n", *l.Description)
	}
	fmt.Fprintf(tw, "pattern\t%s\n", l.LibraryOptions.LibraryPattern)
	fmt.Fprintf(tw, "tags\t%s\n", tagNames(l.TagList()))
	fmt.Fprintf(tw, "updated\t%s\n", updated(l))
	return tw.Flush()
}

func (c *commands) series(ctx context.Context, id string, page int) error {
	p, err := c.q.Series(ctx, id, page)
	if err != nil {
		return err
	}
	tw := c.table()
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tMEDIA")
	for _, s := range p.Data {
		media := "-"
		if s.MediaCount != nil {
			media = humanize.Comma(*s.MediaCount)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.ID, s.Name, s.Status, media)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if p.Info != nil {
		fmt.Fprintf(c.out, "page %d of %d\n", p.Info.CurrentPage+1, p.Info.TotalPages)
	}
	return nil
}

func (c *commands) stats(ctx context.Context) error {
	s, err := c.q.Stats(ctx)
	if err != nil {
		return err
	}
	tw := c.table()
	fmt.Fprintf(tw, "books\t%s\n", humanize.Comma(int64(s.BookCount)))
	fmt.Fprintf(tw, "series\t%s\n", humanize.Comma(int64(s.SeriesCount)))
	fmt.Fprintf(tw, "size\t%s\n", byteSize(s.TotalBytes))
	return tw.Flush()
}

func (c *commands) tags(ctx context.Context) error {
	tags, err := c.q.AllTags(ctx)
	if err != nil {
		return err
	}
	return c.printTags(tags)
}

func (c *commands) printTags(tags []library.Tag) error {
	tw := c.table()
	fmt.Fprintln(tw, "ID\tNAME")
	for _, t := range tags {
		fmt.Fprintf(tw, "%s\t%s\n", t.ID, t.Name)
	}
	return tw.Flush()
}

func (c *commands) jobs(ctx context.Context) error {
	reports, err := c.q.JobReports(ctx)
	if err != nil {
		return err
	}
	tw := c.table()
	fmt.Fprintln(tw, "KIND\tSTATUS\tTASKS\tELAPSED")
	for _, r := range reports {
		tasks := "-"
		if r.TaskCount != nil {
			done := 0
			if r.CompletedTaskCount != nil {
				done = *r.CompletedTaskCount
			}
			tasks = fmt.Sprintf("%d/%d", done, *r.TaskCount)
		}
		elapsed := "-"
		if r.SecondsElapsed != nil {
			elapsed = humanize.Comma(int64(*r.SecondsElapsed)) + "s"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Kind, r.Status, tasks, elapsed)
	}
	return tw.Flush()
}

func (c *commands) logs(ctx context.Context) error {
	m, err := c.q.LogFileMeta(ctx)
	if err != nil {
		return err
	}
	tw := c.table()
	fmt.Fprintf(tw, "path\t%s\n", m.Path)
	fmt.Fprintf(tw, "size\t%s\n", byteSize(m.Size))
	fmt.Fprintf(tw, "modified\t%s\n", m.Modified)
	return tw.Flush()
}

func (c *commands) editTags(ctx context.Context, id string, labels []string) error {
	l, err := c.q.Library(ctx, id)
	if err != nil {
		return err
	}
	saved, err := c.o.Save(ctx, library.Edit{
		Library:     l,
		Name:        l.Name,
		Path:        l.Path,
		Description: l.Description,
		Tags:        labels,
		Authorized:  true,
	})
	if err != nil {
		var se *library.SaveError
		if errors.As(err, &se) && len(se.CreatedTags) > 0 {
			fmt.Fprintf(c.out, "created before failure: %s\n", tagNames(se.CreatedTags))
		}
		return err
	}
	fmt.Fprintf(c.out, "%s: %s\n", saved.Name, tagNames(saved.TagList()))
	return nil
}

func tagNames(tags []library.Tag) string {
	if len(tags) == 0 {
		return "-"
	}
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return strings.Join(names, ", ")
}

func updated(l library.Library) string {
	if l.UpdatedAt.IsZero() {
		return "-"
	}
	return humanize.Time(l.UpdatedAt)
}

func byteSize(n uint64) string {
	s, ok := bytefmt.FormatBytes(bytefmt.Uint(n))
	if !ok {
		return "-"
	}
	return s
}
