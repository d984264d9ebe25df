package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"elmbackup/internal/archive"
	"elmbackup/internal/config"
	"elmbackup/internal/driver"
	"elmbackup/internal/journal"
	"elmbackup/internal/logging"
	"elmbackup/internal/manifest"
	"elmbackup/internal/model"
	"elmbackup/internal/plan"
	"elmbackup/internal/remote"
	"elmbackup/internal/tui"
	"elmbackup/internal/web"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"github.com/tcnksm/go-latest"
)

// Release location checked by --update. Overridable at link time.
var (
	releaseOwner = "elmbackup"
	releaseRepo  = "elmbackup"
)

// exitInterrupted follows the shell convention for SIGINT.
const exitInterrupted = 130

// run collects the resolved command line.
type run struct {
	folder       string
	manifestPath string
	start        model.Position
	startGiven   bool

	cfg *config.Config
	log *slog.Logger
}

func checkUpdate(currentVer string) {
	githubTag := &latest.GithubTag{
		Owner:      releaseOwner,
		Repository: releaseRepo,
	}

	res, err := latest.Check(githubTag, currentVer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not check for updates: %v\n", err)
		return
	}

	if res.Outdated {
		fmt.Printf("A new version is available: %s (you have %s)\n", res.Current, currentVer)
	} else {
		fmt.Printf("You are using the latest version: %s\n", currentVer)
	}
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "Usage: elmbackup [options] [backup_folder] [manifest.csv] [start_position]\n\n")
	fmt.Fprintf(w, "elmbackup archives every path listed in a manifest to the Elm bucket,\n")
	fmt.Fprintf(w, "one elm_archive transfer at a time.\n\n")
	fmt.Fprintf(w, "  backup_folder   bucket folder (default backup-Q<quarter>-<year>, calendar\n")
	fmt.Fprintf(w, "                  quarters: Jan-Mar is Q1. Older releases named March Q2.)\n")
	fmt.Fprintf(w, "  manifest.csv    path list (default %s)\n", manifest.DefaultFile)
	fmt.Fprintf(w, "  start_position  row to start from; R.I resumes at path I of row R\n\n")
	fmt.Fprintf(w, "Options:\n")
	fmt.Fprint(w, pflag.CommandLine.FlagUsages())
	fmt.Fprintf(w, "\nExamples:\n")
	fmt.Fprintf(w, "  elmbackup                                   # Back up everything in %s\n", manifest.DefaultFile)
	fmt.Fprintf(w, "  elmbackup backup-Q4-2026 paths.csv 3.4      # Resume at path 4 of row 3\n")
	fmt.Fprintf(w, "  elmbackup --resume backup-Q4-2026           # Resume from the journal\n")
	fmt.Fprintf(w, "  elmbackup --plan -v                         # Show what would run\n")
}

func main() {
	pflag.Usage = func() { usage(os.Stderr) }

	globalsFlag := pflag.StringP("globals", "g", "", "Settings file (default: ./globals.sh, then next to the executable)")
	dryRunFlag := pflag.BoolP("dry-run", "n", false, "Print transfer commands without running them")
	planFlag := pflag.BoolP("plan", "p", false, "Print the plan report and exit")
	outputFlag := pflag.StringP("output", "o", "", "Save the plan report to a file (with --plan)")
	jsonFlag := pflag.BoolP("json", "j", false, "Print the plan as JSON and exit")
	tuiFlag := pflag.BoolP("tui", "t", false, "Browse the plan interactively")
	webFlag := pflag.BoolP("web", "w", false, "Serve plan and journal on http://localhost:<port>")
	portFlag := pflag.Int("port", 8080, "Port for --web")
	statusFlag := pflag.BoolP("status", "s", false, "Summarize the journal for the backup folder")
	remoteFlag := pflag.BoolP("remote", "R", false, "List objects already archived under the backup folder")
	resumeFlag := pflag.BoolP("resume", "r", false, "Start after the path where the latest run of the backup folder stopped")
	journalFlag := pflag.String("journal", "", "Journal database (default elmbackup.db, empty string disables)")
	verboseFlag := pflag.BoolP("verbose", "v", false, "Include full commands in the plan report")
	versionFlag := pflag.BoolP("version", "V", false, "Print version information")
	updateFlag := pflag.BoolP("update", "u", false, "Check for a newer release")
	helpFlag := pflag.BoolP("help", "h", false, "Show this help message")
	pflag.Parse()

	if *helpFlag {
		pflag.Usage()
		return
	}
	if *versionFlag {
		fmt.Printf("elmbackup version %s\n", model.Version)
		return
	}
	if *updateFlag {
		checkUpdate(model.Version)
		return
	}

	r, err := resolve(pflag.Args(), *globalsFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v. Quitting.\n", err)
		os.Exit(1)
	}
	if pflag.Lookup("journal").Changed {
		r.cfg.Journal = *journalFlag
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *statusFlag:
		err = r.status(ctx)
	case *remoteFlag:
		err = r.remote(ctx)
	case *planFlag:
		err = r.report(*outputFlag, *verboseFlag)
	case *jsonFlag:
		err = r.json()
	case *tuiFlag:
		err = r.tui()
	case *webFlag:
		err = r.web(ctx, *portFlag)
	default:
		err = r.backup(ctx, *resumeFlag, *dryRunFlag)
	}

	if errors.Is(err, driver.ErrInterrupted) {
		os.Exit(exitInterrupted)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// resolve reads the positional arguments and loads configuration.
func resolve(args []string, globals string) (*run, error) {
	if len(args) > 3 {
		return nil, fmt.Errorf("too many arguments: %v", args[3:])
	}
	r := &run{
		folder:       config.DefaultFolder(time.Now()),
		manifestPath: manifest.DefaultFile,
	}
	if len(args) > 0 && args[0] != "" {
		r.folder = args[0]
	}
	if len(args) > 1 && args[1] != "" {
		r.manifestPath = args[1]
	}
	if len(args) > 2 {
		start, err := model.ParsePosition(args[2])
		if err != nil {
			return nil, err
		}
		r.start, r.startGiven = start, true
	}

	cfg, err := config.Load(globals)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	r.cfg, r.log = cfg, log
	return r, nil
}

func (r *run) planner() *plan.Planner {
	return &plan.Planner{
		Folder:    r.folder,
		Bucket:    r.cfg.Bucket,
		Partition: r.cfg.Partition,
		Program:   r.cfg.ArchiveBin,
	}
}

// loadPlan reads the manifest and plans it from the start position.
func (r *run) loadPlan() (model.Plan, error) {
	if err := r.cfg.Validate(); err != nil {
		return model.Plan{}, err
	}
	m, err := manifest.Load(r.manifestPath)
	if err != nil {
		return model.Plan{}, err
	}
	return r.planner().Build(m, r.start), nil
}

func (r *run) openJournal(ctx context.Context) (*journal.Store, error) {
	if r.cfg.Journal == "" {
		return nil, nil
	}
	return journal.Open(ctx, model.ExpandHome(r.cfg.Journal))
}

func (r *run) backup(ctx context.Context, resume, dryRun bool) error {
	if err := r.cfg.Validate(); err != nil {
		return err
	}
	m, err := manifest.Load(r.manifestPath)
	if err != nil {
		return err
	}

	store, err := r.openJournal(ctx)
	if err != nil {
		r.log.Warn("journal unavailable, continuing without it", "path", r.cfg.Journal, "error", err)
		store = nil
	}
	if store != nil {
		defer store.Close()
	}

	var res resumer
	if store != nil {
		res = store
	}
	start, err := r.startPosition(ctx, res, resume)
	if err != nil {
		return err
	}
	if resume && !r.startGiven {
		fmt.Printf("Resuming %s from position %s\n", r.folder, start)
	}

	cfg := driver.Config{
		Planner: r.planner(),
		Runner:  archive.NewRunner(),
		Out:     os.Stdout,
		Logger:  r.log,
		DryRun:  dryRun,
	}
	if store != nil {
		cfg.Journal = store
	}

	r.log.Info("backup started", "folder", r.folder, "manifest", r.manifestPath, "rows", m.Len(), "start", start.String())
	sum, err := driver.New(cfg).Run(ctx, m, start)
	printSummary(os.Stdout, sum, dryRun)
	if errors.Is(err, driver.ErrInterrupted) {
		fmt.Printf("\nInterrupted. Resume with:\n  elmbackup %s %s %s\n", r.folder, r.manifestPath, sum.Next)
	}
	return err
}

// resumer finds where the latest run of a backup folder stopped.
type resumer interface {
	NextPosition(ctx context.Context, folder string) (model.Position, bool, error)
}

// startPosition picks where a run begins. An explicit start position always
// wins; otherwise --resume continues after the latest journaled item, and a
// folder with an empty journal starts from the top.
func (r *run) startPosition(ctx context.Context, res resumer, resume bool) (model.Position, error) {
	if r.startGiven || !resume {
		return r.start, nil
	}
	if res == nil {
		return model.Position{}, errors.New("--resume needs the journal")
	}
	next, ok, err := res.NextPosition(ctx, r.folder)
	if err != nil {
		return model.Position{}, fmt.Errorf("read resume position: %w", err)
	}
	if !ok {
		return model.Position{}, nil
	}
	return next, nil
}

func printSummary(w io.Writer, sum model.Summary, dryRun bool) {
	fmt.Fprintln(w)
	if dryRun {
		fmt.Fprintf(w, "Dry run: %d rows, %d transfers planned, %d skipped\n", sum.Rows, sum.Planned, sum.SkippedTotal())
		return
	}
	fmt.Fprintf(w, "Done: %d/%d rows, %d archived, %d failed, %d skipped\n",
		sum.Rows, sum.TotalRows, sum.Archived, sum.Failed, sum.SkippedTotal())
	if sum.Archived+sum.Failed+sum.SkippedTotal() > 0 {
		fmt.Fprintf(w, "Last path handled: %s\n", sum.Last)
	}
}

func (r *run) report(outputFile string, verbose bool) error {
	pl, err := r.loadPlan()
	if err != nil {
		return err
	}
	report := plan.GenerateReport(pl, verbose)
	if outputFile == "" {
		fmt.Print(report)
		return nil
	}
	if err := os.WriteFile(outputFile, []byte(report), 0o644); err != nil {
		return fmt.Errorf("write report to %s: %w", outputFile, err)
	}
	fmt.Printf("Report saved to %s\n", outputFile)
	return nil
}

func (r *run) json() error {
	pl, err := r.loadPlan()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(pl)
}

func (r *run) tui() error {
	m := tui.InitialModel(r.loadPlan)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (r *run) web(ctx context.Context, port int) error {
	store, err := r.openJournal(ctx)
	if err != nil {
		return err
	}
	var reader web.JournalReader
	if store != nil {
		defer store.Close()
		reader = store
	}
	srv := web.NewServer(r.folder, r.loadPlan, reader, r.log)
	return srv.ListenAndServe(ctx, fmt.Sprintf("localhost:%d", port))
}

func (r *run) status(ctx context.Context) error {
	store, err := r.openJournal(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("journal is disabled")
	}
	defer store.Close()

	sum, err := store.Summarize(ctx, r.folder)
	if err != nil {
		return err
	}
	fmt.Printf("Backup folder: %s\n", sum.Folder)
	if !sum.HasLast {
		fmt.Println("Nothing journaled yet.")
		return nil
	}
	fmt.Printf("Archived: %d\nFailed:   %d\nSkipped:  %d\n", sum.Archived, sum.Failed, sum.Skipped)
	fmt.Printf("Last:     %s (%s)\n", sum.Last, sum.UpdatedAt.Local().Format(time.DateTime))
	fmt.Printf("Resume:   elmbackup --resume %s\n", sum.Folder)
	return nil
}

func (r *run) remote(ctx context.Context) error {
	client, err := remote.NewClient(r.cfg.Remote)
	if err != nil {
		return err
	}
	inv, err := remote.NewInventory(client, r.cfg.Bucket)
	if err != nil {
		return err
	}
	objects, err := inv.List(ctx, r.folder)
	if err != nil {
		return err
	}
	for _, o := range objects {
		fmt.Printf("%s  %10s  %s\n", o.LastModified.Local().Format(time.DateTime), remote.FormatSize(o.Size), o.Key)
	}
	fmt.Printf("%d objects, %s\n", len(objects), remote.FormatSize(remote.TotalSize(objects)))
	return nil
}
