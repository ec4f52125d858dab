package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/admuter/admuter/internal/config"
	"github.com/admuter/admuter/internal/daemon"
	"github.com/admuter/admuter/internal/database"
	"github.com/admuter/admuter/internal/logging"
	"github.com/admuter/admuter/internal/muter"
	"github.com/admuter/admuter/internal/reporter"
	"github.com/admuter/admuter/internal/service"
	"github.com/admuter/admuter/internal/tracker"
	"github.com/admuter/admuter/internal/web"
	"github.com/admuter/admuter/pkg/detector"
)

var (
	version = "0.1.0"
	commit  = "unknown"
	date    = "unknown"
)

const appName = "admuter"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "run":
		runForeground(args)
	case "start":
		startDaemon(args, false)
	case "serve":
		startDaemon(args, true)
	case "stop":
		stopDaemon()
	case "status":
		showStatus()
	case "history":
		showHistory(args)
	case "clear":
		clearHistory()
	case "service":
		controlService(args)
	case "version":
		fmt.Printf("%s version %s\n", appName, version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`admuter - Mutes Spotify while it plays advertisements

Usage:
  admuter <command> [options]

Commands:
  run                    Run in the foreground (Ctrl-C to stop)
  start                  Start the background daemon
  serve                  Start the background daemon with the status web API
  stop                   Stop the background daemon
  status                 Show daemon status and the current player title
  history [period]       Show playback history report (period: day, week, month)
  clear                  Clear the playback history
  service <action>       Manage the system service (install, uninstall, start, stop, restart, run)
  version                Show version information
  help                   Show this help message

Options (run, start, serve):
  --interval duration    Poll interval (default 1s)
  --retries int          Mute attempts per poll (default 5)
  --retry-delay duration Wait between mute attempts (default 200ms)
  --history              Record playback history
  --log-level string     Log level (debug, info, warn, error)

Examples:
  admuter run
  admuter start --interval 500ms
  admuter serve --history
  admuter history week --json
  admuter stop

Environment Variables:
  ADMUTER_POLL_INTERVAL      Poll interval (100ms-60s)
  ADMUTER_MUTE_RETRIES       Mute attempts per poll (1-50)
  ADMUTER_MUTE_RETRY_DELAY   Wait between mute attempts (0-5s)
  ADMUTER_HISTORY            Record playback history (true/false)
  ADMUTER_HISTORY_PATH       History database path
  ADMUTER_PID_FILE           PID file path
  ADMUTER_LOG_LEVEL          Log level
  ADMUTER_LOG_FILE           Log file path
  ADMUTER_WEB_HOST           Web API host
  ADMUTER_WEB_PORT           Web API port

Version: %s
`, version)
}

// loadConfig reads the environment, then applies command line overrides.
func loadConfig(name string, args []string, extra func(fs *pflag.FlagSet)) (*config.Config, []string) {
	cfg, err := config.New()
	if err != nil {
		logrus.Fatalf("Invalid environment: %v", err)
	}

	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	interval := fs.Duration("interval", cfg.Tracker.PollInterval, "poll interval")
	retries := fs.Int("retries", cfg.Mute.Retries, "mute attempts per poll")
	retryDelay := fs.Duration("retry-delay", cfg.Mute.RetryDelay, "wait between mute attempts")
	history := fs.Bool("history", cfg.History.Enabled, "record playback history")
	logLevel := fs.String("log-level", cfg.Log.Level, "log level")
	if extra != nil {
		extra(fs)
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		logrus.Fatalf("Invalid arguments: %v", err)
	}

	if fs.Changed("interval") {
		if err := cfg.SetPollInterval(*interval); err != nil {
			logrus.Fatalf("Invalid --interval: %v", err)
		}
	}
	if fs.Changed("retries") {
		if err := cfg.SetRetries(*retries); err != nil {
			logrus.Fatalf("Invalid --retries: %v", err)
		}
	}
	if fs.Changed("retry-delay") {
		if err := cfg.SetRetryDelay(*retryDelay); err != nil {
			logrus.Fatalf("Invalid --retry-delay: %v", err)
		}
	}
	cfg.History.Enabled = *history
	cfg.Log.Level = *logLevel

	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	return cfg, fs.Args()
}

func setupLogging(cfg *config.Config) io.Closer {
	closer, err := logging.Setup(cfg.Log)
	if err != nil {
		logrus.Fatalf("Failed to set up logging: %v", err)
	}
	return closer
}

// openHistory returns a nil repository when history is disabled.
func openHistory(cfg *config.Config) (*database.DB, *database.Repository, error) {
	if !cfg.History.Enabled {
		return nil, nil, nil
	}

	db, err := database.Connect(cfg.History.Path)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Initialize(); err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, database.NewRepository(db), nil
}

// runLoop runs the ad muter, and the web API when withWeb is set, until ctx is done.
func runLoop(ctx context.Context, cfg *config.Config, withWeb bool) error {
	db, repo, err := openHistory(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to open history")
	}
	if db != nil {
		defer db.Close()
	}

	resolver, err := detector.NewResolver()
	if err != nil {
		return errors.Wrap(err, "failed to initialize window title resolver")
	}
	defer resolver.Close()

	controller, err := detector.NewController()
	if err != nil {
		return errors.Wrap(err, "failed to initialize audio controller")
	}
	defer controller.Close()

	logrus.WithFields(logrus.Fields{
		"display":    detector.DetectDisplayServer(),
		"resolver":   resolver.Name(),
		"controller": controller.Name(),
	}).Info("Platform adapters initialized")
	logrus.Debugf("Configuration:\n%s", cfg.String())

	trackerSvc := tracker.NewService(cfg, repo, detector.TargetProcess(), resolver, controller)

	var webServer *web.Server
	if withWeb {
		webServer = web.NewServer(cfg, trackerSvc, repo)
		if err := webServer.Listen(); err != nil {
			return err
		}
		go func() {
			if err := webServer.Start(); err != nil {
				logrus.WithError(err).Error("Web server error")
			}
		}()
		logrus.Infof("Web API available at: http://%s", webServer.GetAddress())
	}

	err = trackerSvc.Start(ctx)

	if webServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := webServer.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Error("Error shutting down web server")
		}
	}

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runForeground(args []string) {
	cfg, _ := loadConfig("run", args, nil)
	defer setupLogging(cfg).Close()

	ctx, cancel := signalContext()
	defer cancel()

	if err := runLoop(ctx, cfg, false); err != nil {
		logrus.Fatalf("Ad muter error: %v", err)
	}
}

func startDaemon(args []string, withWeb bool) {
	name := "start"
	if withWeb {
		name = "serve"
	}
	cfg, _ := loadConfig(name, args, nil)

	dm := daemon.New(cfg.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		logrus.Fatalf("Failed to check daemon status: %v", err)
	}
	if running && !daemon.IsChild() {
		logrus.Fatalf("Daemon is already running (PID: %d)", pid)
	}

	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(os.TempDir(), appName+".log")
	}

	if !daemon.IsChild() {
		// Parent process - re-exec and exit
		childPID, err := daemon.Daemonize()
		if err != nil {
			logrus.Fatalf("Failed to start daemon: %v", err)
		}
		fmt.Printf("Daemon started successfully (PID: %d)\n", childPID)
		if withWeb {
			fmt.Printf("Web API available at: http://%s:%d\n", cfg.Web.Host, cfg.Web.Port)
		}
		fmt.Printf("Logs: %s\n", cfg.Log.File)
		return
	}

	// Child process - run the daemon
	cfg.Log.Stderr = false
	defer setupLogging(cfg).Close()

	if err := dm.WritePID(); err != nil {
		logrus.Fatalf("Failed to write PID file: %v", err)
	}
	defer dm.RemovePID()

	ctx, cancel := signalContext()
	defer cancel()

	logrus.Infof("Starting %s daemon...", appName)
	if err := runLoop(ctx, cfg, withWeb); err != nil {
		logrus.Errorf("Daemon error: %v", err)
		return
	}
	logrus.Info("Daemon stopped successfully")
}

func stopDaemon() {
	cfg, _ := loadConfig("stop", nil, nil)
	dm := daemon.New(cfg.Daemon.PIDFile)

	running, pid, err := dm.IsRunning()
	if err != nil {
		logrus.Fatalf("Failed to check daemon status: %v", err)
	}

	if !running {
		fmt.Println("Daemon is not running")
		return
	}

	fmt.Printf("Stopping daemon (PID: %d)...\n", pid)
	if err := dm.Stop(); err != nil {
		logrus.Fatalf("Failed to stop daemon: %v", err)
	}

	fmt.Println("Daemon stopped successfully")
}

func showStatus() {
	cfg, _ := loadConfig("status", nil, nil)
	dm := daemon.New(cfg.Daemon.PIDFile)

	running, pid, err := dm.IsRunning()
	if err != nil {
		logrus.Fatalf("Failed to check daemon status: %v", err)
	}

	if !running {
		fmt.Println("Status: Not running")
		// Still show the current title even when not running
	} else {
		fmt.Printf("Status: Running (PID: %d)\n", pid)
		fmt.Printf("Poll Interval: %v\n", cfg.Tracker.PollInterval)
	}

	resolver, err := detector.NewResolver()
	if err != nil {
		fmt.Printf("\nCould not read window titles: %v\n", err)
		return
	}
	defer resolver.Close()

	process := detector.TargetProcess()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	title, ok, err := resolver.ResolveTitle(ctx, process)
	fmt.Printf("\nPlayer (%s via %s):\n", process, resolver.Name())
	switch {
	case err != nil:
		fmt.Printf("  Error: %v\n", err)
	case !ok:
		fmt.Println("  Window: not found")
	default:
		fmt.Printf("  Title: %s\n", title)
		fmt.Printf("  Advertisement: %v\n", muter.IsAdvertisement(title, ok))
	}
}

func showHistory(args []string) {
	var jsonOutput bool
	cfg, rest := loadConfig("history", args, func(fs *pflag.FlagSet) {
		fs.BoolVar(&jsonOutput, "json", false, "output JSON")
	})
	cfg.History.Enabled = true

	periodType := "day"
	if len(rest) > 0 {
		periodType = rest[0]
	}

	db, repo, err := openHistory(cfg)
	if err != nil {
		logrus.Fatalf("Failed to open history: %v", err)
	}
	defer db.Close()

	rep := reporter.New(repo)
	report, err := rep.GenerateReport(periodType)
	if err != nil {
		logrus.Fatalf("Failed to generate report: %v", err)
	}

	if jsonOutput {
		jsonStr, err := rep.FormatReportJSON(report)
		if err != nil {
			logrus.Fatalf("Failed to format JSON: %v", err)
		}
		fmt.Println(jsonStr)
	} else {
		fmt.Println(rep.FormatReportText(report))
	}
}

func clearHistory() {
	cfg, _ := loadConfig("clear", nil, nil)
	cfg.History.Enabled = true

	// Prompt for confirmation
	fmt.Print("This will delete all playback history. Are you sure? (yes/no): ")
	var response string
	fmt.Scanln(&response)

	if response != "yes" && response != "y" {
		fmt.Println("Operation cancelled")
		return
	}

	db, repo, err := openHistory(cfg)
	if err != nil {
		logrus.Fatalf("Failed to open history: %v", err)
	}
	defer db.Close()

	if err := repo.Clear(); err != nil {
		logrus.Fatalf("Failed to clear history: %v", err)
	}

	fmt.Println("History cleared successfully")
}

func controlService(args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: admuter service <install|uninstall|start|stop|restart|run>")
		os.Exit(1)
	}
	action := args[0]
	cfg, _ := loadConfig("service", args[1:], nil)

	svc, err := service.New(func(ctx context.Context) error {
		return runLoop(ctx, cfg, false)
	})
	if err != nil {
		logrus.Fatal(err)
	}

	if action != "run" {
		if err := service.Control(svc, action); err != nil {
			logrus.Fatalf("Service command failed: %v", err)
		}
		fmt.Printf("Service %s: ok\n", action)
		return
	}

	defer setupLogging(cfg).Close()
	if !service.Interactive() {
		if err := logging.AttachEventLog(service.Name); err != nil {
			logrus.WithError(err).Warn("Event log unavailable")
		}
	}

	if err := svc.Run(); err != nil {
		logrus.Fatal(err)
	}
}
