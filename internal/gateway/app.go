package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmarchuk/gatekeep/internal/gateway/config"
	"github.com/dmarchuk/gatekeep/internal/logging"
	"github.com/dmarchuk/gatekeep/internal/rpc"
	"github.com/dmarchuk/gatekeep/internal/token"
)

// verifyOnlyExpiry satisfies the token manager's constructor. The gateway
// only verifies tokens, and verification reads the expiry from the token
// itself; minting stays with the auth service.
const verifyOnlyExpiry = time.Hour

// App assembles the gateway: channels to both internal services, the
// orchestrating service and the HTTP server.
type App struct {
	config *config.Config
	logger logging.Logger
}

func NewApp(c *config.Config) *App {
	return &App{
		config: c,
		logger: logging.NewJSONLogger("gateway"),
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// connect dials a channel and logs instead of failing: the gateway stays up
// when a backend is down, and calls to it fail until it returns.
func (app *App) connect(ctx context.Context, name string, ch *rpc.Channel) {
	if err := ch.Connect(); err != nil {
		app.logger.Error(ctx, "backend unreachable", "backend", name, "error", err)
	}
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	tokens, err := token.NewManager(app.config.SecretKey, verifyOnlyExpiry)
	if err != nil {
		return fmt.Errorf("token manager init error: %w", err)
	}

	userCh := rpc.NewChannel(app.config.UserServiceAddr, app.config.RequestTimeout, app.logger)
	authCh := rpc.NewChannel(app.config.AuthServiceAddr, app.config.RequestTimeout, app.logger)
	app.connect(ctx, "userservice", userCh)
	app.connect(ctx, "authservice", authCh)
	defer userCh.Close()
	defer authCh.Close()

	svc := NewService(NewUserClient(userCh), NewAuthClient(authCh), tokens, app.logger)

	srv := &http.Server{
		Addr:    app.config.Addr,
		Handler: NewRouter(svc, app.logger),
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "stopping http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info(ctx, "http server listening", "addr", app.config.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
