package authservice

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmarchuk/gatekeep/internal/authservice/config"
	"github.com/dmarchuk/gatekeep/internal/logging"
	"github.com/dmarchuk/gatekeep/internal/rpc"
	"github.com/dmarchuk/gatekeep/internal/token"
	"github.com/dmarchuk/gatekeep/internal/translate"
)

// App assembles the auth service: the token manager, the channel to the
// credential store and the command channel server.
type App struct {
	config *config.Config
	logger logging.Logger
}

func NewApp(c *config.Config) *App {
	return &App{
		config: c,
		logger: logging.NewJSONLogger("authservice"),
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

func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	tokens, err := token.NewManager(app.config.SecretKey, app.config.TokenValidityDuration)
	if err != nil {
		return fmt.Errorf("token manager init error: %w", err)
	}

	userCh := rpc.NewChannel(app.config.UserServiceAddr, app.config.RequestTimeout, app.logger)
	if err := userCh.Connect(); err != nil {
		// Token validation still works without the credential store, so
		// the process stays up; credential checks fail until it returns.
		app.logger.Error(ctx, "user service unreachable", "error", err)
	}
	defer userCh.Close()

	svc := NewService(NewUserClient(userCh), tokens, app.logger)

	srv := rpc.NewServer(app.config.Addr, app.logger, func(err error) *rpc.Envelope {
		return translate.ToEnvelope(err, app.logger)
	})
	Register(srv, svc)

	return srv.Run(ctx)
}
