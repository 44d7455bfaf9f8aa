// Command intake-station runs an event registration desk: operator login,
// participant registration, identifier lookup and the workflow workers that
// expose the same flows to a Zeebe process.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"regdesk/internal/catalog"
	"regdesk/internal/common/aws"
	"regdesk/internal/common/config"
	"regdesk/internal/common/database"
	"regdesk/internal/common/errors"
	httpclient "regdesk/internal/common/http"
	"regdesk/internal/common/logger"
	"regdesk/internal/common/metrics"
	"regdesk/internal/common/observability"
	"regdesk/internal/gateway"
	"regdesk/internal/notify"
	"regdesk/internal/session"
)

const usage = `usage: intake-station <command> [flags]

commands:
  login      store an operator session for this station
  logout     clear the station session
  register   validate, review and submit one registration
  lookup     check whether an Aadhaar number is registered
  catalog    list districts, blocks and categories
  workers    serve the registration job workers
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		fmt.Print(usage)
		return
	}

	a, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "intake-station: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	switch cmd {
	case "login":
		err = runLogin(ctx, a, args)
	case "logout":
		err = runLogout(ctx, a)
	case "register":
		err = runRegister(ctx, a, args, os.Stdin, os.Stdout)
	case "lookup":
		err = runLookup(ctx, a, args, os.Stdout)
	case "catalog":
		printCatalog(a.catalog, os.Stdout)
	case "workers":
		err = runWorkers(ctx, a)
	default:
		fmt.Fprint(os.Stderr, usage)
		a.Close()
		os.Exit(2)
	}

	if err != nil {
		a.zapLog.Error("command failed", zap.String("command", cmd), zap.Error(err))
		fmt.Fprintln(os.Stderr, a.normalizer.Message(err))
		a.Close()
		os.Exit(1)
	}
}

// app holds the station's shared wiring. The session store and the notifier
// connect to Redis and SNS, so they are built on first use.
type app struct {
	cfg        *config.Config
	zapLog     *zap.Logger
	log        logger.Logger
	obs        *observability.Observability
	catalog    *catalog.Catalog
	normalizer errors.Normalizer
	closed     bool

	connectAttempts int
	sessions        *session.Manager
	redis           *database.RedisClient
	notifier        notify.Notifier
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	return newAppFromConfig(cfg)
}

func newAppFromConfig(cfg *config.Config) (*app, error) {
	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"station": cfg.App.StationID,
	})

	a := &app{
		cfg:             cfg,
		zapLog:          zapLog,
		log:             log,
		normalizer:      cfg.Normalizer(),
		connectAttempts: 5,
	}

	if cfg.Metrics.Enabled {
		obs, err := observability.New(cfg.App.Name)
		if err != nil {
			zapLog.Warn("observability disabled", zap.Error(err))
		} else {
			a.obs = obs
		}
	}

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.catalog = cat
	return a, nil
}

// sessionManager opens the configured session store on first use.
func (a *app) sessionManager(ctx context.Context) (*session.Manager, error) {
	if a.sessions != nil {
		return a.sessions, nil
	}
	store, err := a.sessionStore(ctx)
	if err != nil {
		return nil, err
	}
	a.sessions = session.NewManager(store, a.cfg.App.StationID, a.cfg.Session.TTL(), a.log)
	return a.sessions, nil
}

// notifications builds the notifier chain on first use.
func (a *app) notifications(ctx context.Context) (notify.Notifier, error) {
	if a.notifier != nil {
		return a.notifier, nil
	}
	n, err := a.buildNotifier(ctx)
	if err != nil {
		return nil, err
	}
	a.notifier = n
	return n, nil
}

func (a *app) sessionStore(ctx context.Context) (session.Store, error) {
	if a.cfg.Session.Backend != "redis" {
		return session.NewFileStore(a.cfg.Session.FilePath), nil
	}

	var rc *database.RedisClient
	err := retryWithBackoff(func() error {
		var err error
		rc, err = database.NewRedis(ctx, a.cfg.Database.Redis)
		return err
	}, a.connectAttempts, time.Second, a.zapLog, "Redis connection")
	if err != nil {
		return nil, errors.NewSessionStoreError(err)
	}
	a.redis = rc
	return session.NewRedisStore(rc.Client), nil
}

func (a *app) buildNotifier(ctx context.Context) (notify.Notifier, error) {
	notifiers := []notify.Notifier{notify.NewLogNotifier(a.log)}

	sms := a.cfg.Notifications.SMS
	if sms.Enabled {
		client, err := aws.NewSNSClient(ctx, sms.Region)
		if err != nil {
			return nil, fmt.Errorf("sns client: %w", err)
		}
		n, err := notify.NewSMSNotifier(client, notify.SMSConfig{
			SenderID:    sms.SenderID,
			CountryCode: sms.CountryCode,
		}, a.log)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, n)
	}
	return notify.NewMultiNotifier(a.log, notifiers...), nil
}

// gateway returns a backend client authenticated with the current session.
// Without a session it fails with SESSION_MISSING.
func (a *app) gateway(ctx context.Context) (*gateway.Client, error) {
	sessions, err := a.sessionManager(ctx)
	if err != nil {
		return nil, err
	}
	sess, err := sessions.Current(ctx)
	if err != nil {
		return nil, err
	}
	gw, err := a.newGatewayClient()
	if err != nil {
		return nil, err
	}
	return gw.WithSession(sess), nil
}

// workerGateway returns a backend client that resolves the session on every
// request, so a long-running worker notices logout and expiry. A session must
// exist at startup.
func (a *app) workerGateway(ctx context.Context) (*gateway.Client, error) {
	sessions, err := a.sessionManager(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := sessions.Current(ctx); err != nil {
		return nil, err
	}
	gw, err := a.newGatewayClient()
	if err != nil {
		return nil, err
	}
	return gw.WithSessionSource(sessions), nil
}

func (a *app) newGatewayClient() (*gateway.Client, error) {
	gcfg := gateway.DefaultConfig()
	gcfg.BaseURL = a.cfg.Gateway.BaseURL
	gcfg.Timeout = config.GetDuration(a.cfg.Gateway.Timeout)
	if a.cfg.Gateway.UserAgent != "" {
		gcfg.UserAgent = a.cfg.Gateway.UserAgent
	}

	opts := []httpclient.Option{httpclient.WithObserver(metrics.GatewayObserver{})}
	if a.obs != nil {
		opts = append(opts, httpclient.WithObserver(a.obs))
	}
	return gateway.NewClient(gcfg, a.log, opts...)
}

// recorder returns the OTel recorder or nil when metrics are off.
func (a *app) recorder() observability.OutcomeRecorder {
	if a.obs == nil {
		return nil
	}
	return a.obs
}

func (a *app) Close() {
	if a.closed {
		return
	}
	a.closed = true
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.obs != nil {
		a.obs.Shutdown()
	}
	_ = a.zapLog.Sync()
}

func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}
		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func printCatalog(cat *catalog.Catalog, out io.Writer) {
	fmt.Fprintf(out, "catalogue %s\n\n", cat.Version())
	for _, d := range cat.Districts() {
		fmt.Fprintf(out, "%s\n", d.Name)
		for _, b := range cat.Blocks(d.ID) {
			fmt.Fprintf(out, "  %s\n", b)
		}
	}
	fmt.Fprintln(out, "\ncategories:")
	for _, c := range cat.Categories() {
		fmt.Fprintf(out, "  %s\n", c)
	}
}
