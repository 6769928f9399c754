package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	// driver for migration applying postgres.
	_ "github.com/golang-migrate/migrate/v4/database/postgres" //nolint:revive
	// driver to get migrations from files (*.sql in our case).
	_ "github.com/golang-migrate/migrate/v4/source/file" //nolint:revive
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/jamongadejoa28/sassmall-sub003/internal/config"
	"github.com/jamongadejoa28/sassmall-sub003/internal/events"
	"github.com/jamongadejoa28/sassmall-sub003/internal/metrics"
	"github.com/jamongadejoa28/sassmall-sub003/internal/repository/pgrepo"
	"github.com/jamongadejoa28/sassmall-sub003/internal/repository/repoargs"
	"github.com/jamongadejoa28/sassmall-sub003/internal/service"
	"github.com/jamongadejoa28/sassmall-sub003/internal/transport/api"
	"github.com/jamongadejoa28/sassmall-sub003/internal/transport/collab"
	"github.com/jamongadejoa28/sassmall-sub003/internal/transport/recovery"
	"github.com/jamongadejoa28/sassmall-sub003/internal/transport/tosspay"
	"github.com/jamongadejoa28/sassmall-sub003/pkg/uow"
)

const (
	rabbitExchange        = "order.events"
	shutdownTimeout       = 15 * time.Second
	serverReadTimeout     = 10 * time.Second
	recoveryLimitPerBatch = 50
)

type App struct {
	Config *config.Config
	Logger *logrus.Logger
}

func New(conf *config.Config, l *logrus.Logger) *App {
	return &App{
		Config: conf,
		Logger: l,
	}
}

func (a *App) Run() error {
	notifyCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.Logger.WithFields(logrus.Fields{
		"address": a.Config.RunAddress,
		"broker":  a.Config.Broker,
		"service": a.Config.ServiceName,
	}).Info("starting app")

	conn, connErr := pgrepo.Connect(notifyCtx, a.Config.MigrationsDir, a.Config.DatabaseDSN, a.Logger)
	if connErr != nil {
		return fmt.Errorf("app run: %s", connErr.Error())
	}
	defer conn.Close()

	unitOfWork, uowErr := initUOW(conn)
	if uowErr != nil {
		return fmt.Errorf("app run: %s", uowErr.Error())
	}

	broker, brokerErr := newBroker(a.Config, a.Logger)
	if brokerErr != nil {
		return fmt.Errorf("app run: %s", brokerErr.Error())
	}
	defer func() {
		if err := broker.Close(); err != nil {
			a.Logger.WithError(err).Error("close broker")
		}
	}()

	m := metrics.New()
	retry := events.DefaultRetryConfig()
	retry.MaxAttempts = a.Config.PublishMaxAttempts
	retry.BaseDelay = a.Config.PublishBaseDelay
	publisher := events.NewPublisher(broker, a.Logger).
		SetWorkersCount(a.Config.PublishWorkers).
		SetRetry(retry).
		SetTopicPrefix(a.Config.TopicPrefix).
		SetMetrics(m)

	services, sErr := service.Factory(service.Deps{
		UOW:       unitOfWork,
		Catalog:   collab.NewCatalogClient(a.Config.CatalogURL, a.Config.CollaboratorTimeout),
		Provider:  newPaymentProvider(a.Config),
		Users:     collab.NewAccountClient(a.Config.AccountURL, a.Config.CollaboratorTimeout),
		Notifier:  newNotifier(a.Config),
		Publisher: publisher,
		Locker:    pgrepo.NewAdvisoryLocker(conn, a.Logger),
		Metrics:   m,
		Logger:    a.Logger,

		ServiceName: a.Config.ServiceName,
		Timeouts: service.Timeouts{
			PaymentRequest: a.Config.PaymentRequestTimeout,
			PaymentApprove: a.Config.PaymentApproveTimeout,
			PaymentRefund:  a.Config.PaymentRefundTimeout,
		},
		SagaStaleAfter: a.Config.SagaStaleAfter,
	})
	if sErr != nil {
		return fmt.Errorf("app run: %s", sErr.Error())
	}

	router, routerErr := api.New(api.RouterArgs{
		Logger:         a.Logger,
		OrderService:   services.OrderService,
		PaymentService: services.PaymentService,
		Health:         conn,
		Metrics:        m,
		JWTSecretKey:   []byte(a.Config.JWTSecret),
	})
	if routerErr != nil {
		return fmt.Errorf("app run: %s", routerErr.Error())
	}

	server := &http.Server{
		Addr:              a.Config.RunAddress,
		Handler:           router,
		ReadHeaderTimeout: serverReadTimeout,
	}

	processor := recovery.New(services.SagaService, services.PaymentService, a.Logger).
		SetWorkers(a.Config.RecoveryWorkers).
		SetInterval(a.Config.RecoveryInterval).
		SetLimitPerIteration(recoveryLimitPerBatch).
		SetMetrics(m)

	g, gCtx := errgroup.WithContext(notifyCtx)
	g.Go(func() error {
		publisher.Run(gCtx)
		return nil
	})
	g.Go(func() error {
		processor.Run(gCtx)
		return nil
	})
	if a.Config.DLQReplay {
		replayer := events.NewReplayer(broker, a.Logger).
			SetTopicPrefix(a.Config.TopicPrefix).
			SetMaxReplays(a.Config.DLQMaxReplays).
			SetMetrics(m)
		g.Go(func() error {
			return replayer.Run(gCtx)
		})
	}
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx) //nolint:wrapcheck
	})

	if err := g.Wait(); err != nil {
		return err //nolint:wrapcheck
	}
	return notifyCtx.Err() //nolint:wrapcheck
}

func newBroker(conf *config.Config, l *logrus.Logger) (events.Broker, error) {
	switch conf.Broker {
	case config.BrokerRabbitMQ:
		broker, err := events.DialRabbit(conf.RabbitMQURL, rabbitExchange, l)
		if err != nil {
			return nil, fmt.Errorf("init broker: %s", err.Error())
		}
		return broker, nil
	case config.BrokerKafka:
		return events.NewKafkaBroker(conf.KafkaBrokers, l), nil
	default:
		l.Warn("event broker is disabled, events will be discarded")
		return events.NopBroker{}, nil
	}
}

func newPaymentProvider(conf *config.Config) *tosspay.Client {
	return tosspay.New(tosspay.Options{
		BaseURL:    conf.PaymentProviderURL,
		SecretKey:  conf.PaymentSecretKey,
		SuccessURL: conf.PaymentSuccessURL,
		FailURL:    conf.PaymentFailURL,
	})
}

// newNotifier без адреса сервиса уведомлений уведомления не отправляются.
func newNotifier(conf *config.Config) service.Notifier {
	if conf.NotificationURL == "" {
		return nil
	}
	return collab.NewNotificationClient(conf.NotificationURL, conf.CollaboratorTimeout)
}

func initUOW(conn *pgxpool.Pool) (*uow.UnitOfWork, error) {
	unitOfWork := uow.NewUnitOfWork(conn)

	factories := map[repoargs.RepositoryName]uow.RepositoryFactory{
		repoargs.OrderRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewOrderRepository(dbtx)
		},
		repoargs.PaymentRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewPaymentRepository(dbtx)
		},
		repoargs.CheckoutRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewCheckoutRepository(dbtx)
		},
		repoargs.SagaRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewSagaRepository(dbtx)
		},
	}
	for name, factory := range factories {
		if regErr := unitOfWork.Register(uow.RepositoryName(name), factory); regErr != nil {
			return nil, fmt.Errorf("init UOW: %s", regErr.Error())
		}
	}
	return unitOfWork, nil
}
