package userservice

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmarchuk/gatekeep/internal/logging"
	"github.com/dmarchuk/gatekeep/internal/password"
	"github.com/dmarchuk/gatekeep/internal/rpc"
	"github.com/dmarchuk/gatekeep/internal/translate"
	"github.com/dmarchuk/gatekeep/internal/userservice/config"
	"github.com/dmarchuk/gatekeep/internal/userservice/repository"
)

// App assembles the user service: storage, the account service and the
// command channel server.
type App struct {
	config *config.Config
	logger logging.Logger
}

func NewApp(c *config.Config) *App {
	return &App{
		config: c,
		logger: logging.NewJSONLogger("userservice"),
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

	repo, err := repository.Open(ctx, app.config.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer repo.Close()

	svc := NewService(repo, password.NewHasher(app.config.BcryptCost), app.logger)

	srv := rpc.NewServer(app.config.Addr, app.logger, func(err error) *rpc.Envelope {
		return translate.ToEnvelope(err, app.logger)
	})
	Register(srv, svc)

	return srv.Run(ctx)
}
