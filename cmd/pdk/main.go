// pdk: CLI for the PageDeck signage playlist editor.
// Every mutating command loads the host snapshot, applies one store
// operation and pushes the committed configuration back to the host.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/pagedeck/pdk/internal/assets"
	"github.com/pagedeck/pdk/internal/bridge"
	"github.com/pagedeck/pdk/internal/config"
	"github.com/pagedeck/pdk/internal/db"
	"github.com/pagedeck/pdk/internal/host"
	"github.com/pagedeck/pdk/internal/picker"
	"github.com/pagedeck/pdk/internal/playlist"
	"github.com/pagedeck/pdk/internal/schedule"
	"github.com/pagedeck/pdk/internal/store"
)

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "pdk: "+format+"\n", args...)
	os.Exit(1)
}

func openHost(ctx context.Context, cfg *config.Config) (host.Host, func(), error) {
	var key []byte
	if cfg.EncryptKey != "" {
		var err error
		key, err = host.ParseKey(cfg.EncryptKey)
		if err != nil {
			return nil, nil, err
		}
	}
	switch cfg.Host {
	case "folder":
		return host.NewFolderHost(cfg.FolderDir, key), func() {}, nil
	case "sqlite":
		conn, err := db.Open(cfg.DbPath)
		if err != nil {
			return nil, nil, err
		}
		return host.NewSQLiteHost(conn, key), func() { conn.Close() }, nil
	case "s3":
		h, err := host.NewS3Host(ctx, host.S3Config{
			Bucket:       cfg.S3.Bucket,
			Prefix:       cfg.S3.Prefix,
			Region:       cfg.S3.Region,
			Endpoint:     cfg.S3.Endpoint,
			PathStyle:    cfg.S3.PathStyle,
			AccessKey:    cfg.S3.AccessKey,
			SecretKey:    cfg.S3.SecretKey,
			SessionToken: cfg.S3.SessionToken,
		}, key)
		if err != nil {
			return nil, nil, err
		}
		return h, func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown host backend %q", cfg.Host)
}

// session is one editing session: store bootstrapped from the host with the
// push bridge attached.
type session struct {
	cfg     *config.Config
	host    host.Host
	store   *store.Store
	bridge  *bridge.Bridge
	cleanup func()
}

func openSession(ctx context.Context) *session {
	cfg, err := config.Load()
	if err != nil {
		fatal("config: %v", err)
	}
	h, cleanup, err := openHost(ctx, cfg)
	if err != nil {
		fatal("host: %v", err)
	}
	st := store.New()
	b := bridge.New(h, st, os.Stderr)
	if err := b.Bootstrap(ctx); err != nil {
		cleanup()
		if errors.Is(err, host.ErrNoSnapshot) {
			fatal("host has no configuration yet, run 'pdk init' or 'pdk-seed'")
		}
		fatal("bootstrap: %v", err)
	}
	return &session{cfg: cfg, host: h, store: st, bridge: b, cleanup: cleanup}
}

func (s *session) close() {
	s.cleanup()
}

func pageIndex(arg string) int {
	n, err := strconv.Atoi(arg)
	if err != nil {
		fatal("bad page index %q", arg)
	}
	return n
}

// parseValue maps CLI strings onto option values: booleans and integers
// when they parse, strings otherwise.
func parseValue(s string) any {
	if s == "true" {
		return true
	}
	if s == "false" {
		return false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return s
}

func cmdInit(ctx context.Context) {
	cfg, err := config.Load()
	if err != nil {
		fatal("config: %v", err)
	}
	h, cleanup, err := openHost(ctx, cfg)
	if err != nil {
		fatal("host: %v", err)
	}
	defer cleanup()
	if _, err := h.Snapshot(ctx); err == nil {
		fatal("host already has a configuration")
	} else if !errors.Is(err, host.ErrNoSnapshot) {
		fatal("host: %v", err)
	}
	if err := h.PushConfig(ctx, playlist.NewConfig()); err != nil {
		fatal("init: %v", err)
	}
	fmt.Println("Empty configuration written to host.")
}

func cmdStatus(ctx context.Context) {
	s := openSession(ctx)
	defer s.close()
	cfg := s.store.Config()
	fmt.Printf("pdk status\n")
	fmt.Printf("  host:     %s\n", s.cfg.Host)
	fmt.Printf("  pages:    %d\n", len(cfg.Pages))
	fmt.Printf("  assets:   %d\n", s.store.Catalog().Len())
	fmt.Printf("  language: %s\n", cfg.Language())
	if cfg.TimeFmt() != "" {
		fmt.Printf("  time_fmt: %s\n", cfg.TimeFmt())
	}
	fmt.Printf("  audio:    %v\n", cfg.Audio())
	if sh, ok := s.host.(*host.SQLiteHost); ok {
		if n, err := sh.RevisionCount(ctx); err == nil {
			fmt.Printf("  revisions: %d\n", n)
		}
	}
}

func cmdPages(ctx context.Context) {
	s := openSession(ctx)
	defer s.close()
	cfg := s.store.Config()
	catalog := s.store.Catalog()

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"#", "Media", "Layout", "Duration", "Hours off", "Trigger"})
	for i, p := range cfg.Pages {
		media := p.Media
		if a, ok := catalog.Resolve(p.Media); ok {
			media = a.Filename
		}
		off := 0
		for h := 0; h < schedule.WeekHours; h++ {
			if !p.Schedule.Effective(h) {
				off++
			}
		}
		trigger := ""
		if p.Interaction != nil {
			trigger = p.Interaction.Key
		}
		t.AppendRow(table.Row{i, media, p.Layout, p.Duration, off, trigger})
	}
	t.Render()
}

func cmdAssets(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("assets", flag.ExitOnError)
	sortBy := fs.String("sort", "filename", "sort order: filename|age")
	types := fs.String("type", "", "comma-separated filetype allow-list")
	fs.Parse(args)

	s := openSession(ctx)
	defer s.close()

	order := assets.SortFilename
	if *sortBy == "age" {
		order = assets.SortAge
	}
	var allowed []string
	if *types != "" {
		allowed = strings.Split(*types, ",")
	}
	list := s.store.Catalog().List(allowed, order)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"ID", "Type", "Filename", "Uploaded"})
	for _, a := range list {
		uploaded := ""
		if a.Uploaded > 0 {
			uploaded = time.Unix(a.Uploaded, 0).UTC().Format("2006-01-02 15:04")
		}
		t.AppendRow(table.Row{a.ID, a.Filetype, a.Filename, uploaded})
	}
	t.Render()
}

func cmdAdd(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	after := fs.Int("after", -1, "insert after this page (-1 = front)")
	fs.Parse(args)

	s := openSession(ctx)
	defer s.close()
	if err := s.store.InsertPage(*after); err != nil {
		fatal("add: %v", err)
	}
	fmt.Printf("Page inserted, %d pages total.\n", s.store.PageCount())
}

func cmdPick(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("pick", flag.ExitOnError)
	after := fs.Int("after", -1, "insert after this page (-1 = front)")
	multi := fs.Bool("multi", false, "allow selecting several assets")
	types := fs.String("type", "image,video", "comma-separated filetype allow-list")
	fs.Parse(args)

	if !picker.StdinIsTerminal() {
		fatal("pick: stdin is not a terminal")
	}
	s := openSession(ctx)
	defer s.close()

	p := picker.NewTerminal(os.Stdin, os.Stdout)
	sel, err := p.Pick(ctx, s.store.Catalog(), picker.Options{
		AllowedFiletypes: strings.Split(*types, ","),
		MultiSelect:      *multi,
	})
	if err != nil {
		fatal("pick: %v", err)
	}
	if sel == nil {
		fmt.Println("Cancelled.")
		return
	}
	if err := s.store.InsertPages(*after, sel.IDs); err != nil {
		fatal("pick: %v", err)
	}
	fmt.Printf("%d page(s) inserted, %d pages total.\n", len(sel.IDs), s.store.PageCount())
}

func cmdMedia(ctx context.Context, args []string) {
	if len(args) < 1 {
		fatal("usage: pdk media <page> [asset-id]")
	}
	index := pageIndex(args[0])
	s := openSession(ctx)
	defer s.close()

	if len(args) >= 2 {
		if err := s.store.SetMedia(index, args[1]); err != nil {
			fatal("media: %v", err)
		}
		return
	}

	if !picker.StdinIsTerminal() {
		fatal("media: stdin is not a terminal")
	}
	cfg := s.store.Config()
	if index < 0 || index >= len(cfg.Pages) {
		fatal("media: page index %d out of range", index)
	}
	p := picker.NewTerminal(os.Stdin, os.Stdout)
	sel, err := p.Pick(ctx, s.store.Catalog(), picker.Options{
		SelectedID:       cfg.Pages[index].Media,
		AllowedFiletypes: []string{"image", "video"},
	})
	if err != nil {
		fatal("media: %v", err)
	}
	if sel == nil || len(sel.IDs) == 0 {
		fmt.Println("Cancelled.")
		return
	}
	if err := s.store.SetMedia(index, sel.IDs[0]); err != nil {
		fatal("media: %v", err)
	}
}

func cmdRemove(ctx context.Context, args []string) {
	if len(args) < 1 {
		fatal("usage: pdk remove <page>")
	}
	s := openSession(ctx)
	defer s.close()
	if err := s.store.RemovePage(pageIndex(args[0])); err != nil {
		fatal("remove: %v", err)
	}
	fmt.Printf("Page removed, %d pages total.\n", s.store.PageCount())
}

func cmdLayout(ctx context.Context, args []string) {
	if len(args) < 2 {
		fatal("usage: pdk layout <page> <fullscreen|text-left|text-right>")
	}
	s := openSession(ctx)
	defer s.close()
	if err := s.store.SetLayout(pageIndex(args[0]), playlist.Layout(args[1])); err != nil {
		fatal("layout: %v", err)
	}
}

func cmdDuration(ctx context.Context, args []string) {
	if len(args) < 2 {
		fatal("usage: pdk duration <page> <auto|seconds>")
	}
	d := playlist.Duration(args[1])
	if !d.Valid() {
		fatal("duration: %q is not auto or a positive number of seconds", args[1])
	}
	s := openSession(ctx)
	defer s.close()
	if err := s.store.SetDuration(pageIndex(args[0]), d); err != nil {
		fatal("duration: %v", err)
	}
}

func cmdOption(ctx context.Context, args []string) {
	if len(args) < 2 {
		fatal("usage: pdk option <key> <value>")
	}
	s := openSession(ctx)
	defer s.close()
	if err := s.store.SetOption(args[0], parseValue(args[1])); err != nil {
		fatal("option: %v", err)
	}
}

func cmdPageConfig(ctx context.Context, args []string) {
	if len(args) < 3 {
		fatal("usage: pdk pageconfig <page> <key> <value>")
	}
	s := openSession(ctx)
	defer s.close()
	if err := s.store.SetPageConfig(pageIndex(args[0]), args[1], parseValue(args[2])); err != nil {
		fatal("pageconfig: %v", err)
	}
}

func printWeek(sched schedule.Schedule) {
	fmt.Println("           0    4     8     12    16    20   23")
	for _, day := range sched.Week() {
		var b strings.Builder
		for _, h := range day.Hours {
			if h.On {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		fmt.Printf("%-10s %s\n", day.Name[:3], b.String())
	}
}

func cmdSchedule(ctx context.Context, args []string) {
	if len(args) < 1 {
		fatal("usage: pdk schedule <page> [hour <0-167> on|off | day <0-6>]")
	}
	index := pageIndex(args[0])
	s := openSession(ctx)
	defer s.close()

	if len(args) == 1 {
		cfg := s.store.Config()
		if index < 0 || index >= len(cfg.Pages) {
			fatal("schedule: page index %d out of range", index)
		}
		printWeek(cfg.Pages[index].Schedule)
		return
	}

	switch args[1] {
	case "hour":
		if len(args) < 4 || (args[3] != "on" && args[3] != "off") {
			fatal("usage: pdk schedule <page> hour <0-167> on|off")
		}
		hour, err := strconv.Atoi(args[2])
		if err != nil {
			fatal("schedule: bad hour %q", args[2])
		}
		if err := s.store.SetScheduleHour(index, hour, args[3] == "on"); err != nil {
			fatal("schedule: %v", err)
		}
	case "day":
		if len(args) < 3 {
			fatal("usage: pdk schedule <page> day <0-6>")
		}
		day, err := strconv.Atoi(args[2])
		if err != nil {
			fatal("schedule: bad day %q", args[2])
		}
		if err := s.store.ToggleDay(index, day); err != nil {
			fatal("schedule: %v", err)
		}
	default:
		fatal("schedule: unknown subcommand %q", args[1])
	}
	printWeek(s.store.Config().Pages[index].Schedule)
}

func cmdInteraction(ctx context.Context, args []string) {
	if len(args) >= 2 && args[1] == "clear" {
		s := openSession(ctx)
		defer s.close()
		if err := s.store.SetInteraction(pageIndex(args[0]), nil); err != nil {
			fatal("interaction: %v", err)
		}
		return
	}

	fs := flag.NewFlagSet("interaction", flag.ExitOnError)
	key := fs.String("key", "", "trigger key (single character or named key)")
	title := fs.String("title", "", "trigger title")
	duration := fs.String("duration", "auto", "auto|forever")
	if len(args) < 1 {
		fatal("usage: pdk interaction <page> [-key k] [-title t] [-duration auto|forever] | <page> clear")
	}
	fs.Parse(args[1:])
	if *duration != "auto" && *duration != "forever" {
		fatal("interaction: duration must be auto or forever")
	}

	s := openSession(ctx)
	defer s.close()
	in := &playlist.Interaction{Key: *key, Title: *title, Duration: *duration}
	if err := s.store.SetInteraction(pageIndex(args[0]), in); err != nil {
		fatal("interaction: %v", err)
	}
}

func cmdWatch(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	interval := fs.Duration("interval", 5*time.Second, "catalog poll interval")
	fs.Parse(args)

	s := openSession(ctx)
	defer s.close()
	fmt.Printf("Watching catalog (%s interval), Ctrl-C to stop.\n", *interval)
	if err := s.bridge.WatchCatalog(ctx, *interval); err != nil && !errors.Is(err, context.Canceled) {
		fatal("watch: %v", err)
	}
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("pdk: PageDeck - signage playlist editor")
		fmt.Println("Usage: pdk <status|pages|assets|init|add|pick|media|remove|layout|duration|option|pageconfig|schedule|interaction|watch>")
		os.Exit(0)
	}
	ctx := context.Background()
	switch os.Args[1] {
	case "status":
		cmdStatus(ctx)
	case "pages":
		cmdPages(ctx)
	case "assets":
		cmdAssets(ctx, os.Args[2:])
	case "init":
		cmdInit(ctx)
	case "add":
		cmdAdd(ctx, os.Args[2:])
	case "pick":
		cmdPick(ctx, os.Args[2:])
	case "media":
		cmdMedia(ctx, os.Args[2:])
	case "remove":
		cmdRemove(ctx, os.Args[2:])
	case "layout":
		cmdLayout(ctx, os.Args[2:])
	case "duration":
		cmdDuration(ctx, os.Args[2:])
	case "option":
		cmdOption(ctx, os.Args[2:])
	case "pageconfig":
		cmdPageConfig(ctx, os.Args[2:])
	case "schedule":
		cmdSchedule(ctx, os.Args[2:])
	case "interaction":
		cmdInteraction(ctx, os.Args[2:])
	case "watch":
		cmdWatch(ctx, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "pdk: unknown command %q\n", os.Args[1])
		os.Exit(1)
	}
}
