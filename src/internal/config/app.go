package config

import (
	"ledger-service/src/internal/delivery/http"
	"ledger-service/src/internal/delivery/http/middleware"
	"ledger-service/src/internal/delivery/http/route"
	"ledger-service/src/internal/gateway/messaging"
	"ledger-service/src/internal/gateway/payment"
	"ledger-service/src/internal/repository"
	"ledger-service/src/internal/risk"
	"ledger-service/src/internal/scheduler"
	"ledger-service/src/internal/usecase"
	"ledger-service/src/pkg/databases/mysql"
	kafkaPkgConfluent "ledger-service/src/pkg/kafka/confluent"
	"ledger-service/src/pkg/log"
	"ledger-service/src/pkg/secure"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

type BootstrapConfig struct {
	DB          mysql.DBInterface
	App         *fiber.App
	Log         log.Log
	Validate    *validator.Validate
	Config      *viper.Viper
	Producer    kafkaPkgConfluent.Producer
	Redis       redis.UniversalClient
	AsynqClient *asynq.Client
	Async       *asynq.ServeMux
}

func Bootstrap(config *BootstrapConfig) *scheduler.LedgerScheduler {
	// setup repositories
	walletRepository := repository.NewWalletRepository(config.DB)
	transactionRepository := repository.NewTransactionRepository(config.DB)
	escrowRepository := repository.NewEscrowRepository(config.DB)
	payoutRepository := repository.NewPayoutRepository(config.DB)
	ledgerProducer := messaging.NewLedgerProducer(config.Producer, config.Log)

	// setup domain services
	scorer := risk.NewScorer(config.Config)
	gateway := payment.NewHTTPGateway(config.Config, config.Log)
	cipher, err := secure.NewCipher(config.Config.GetString("security.encryption_key"))
	if err != nil {
		panic(err)
	}

	// setup use cases
	walletUseCase := usecase.NewWalletUseCase(
		config.Log,
		config.Validate,
		walletRepository,
		config.Config,
	)
	transactionUseCase := usecase.NewTransactionUseCase(
		config.Log,
		config.Validate,
		walletRepository,
		transactionRepository,
		config.Config,
		config.Redis,
		gateway,
		ledgerProducer,
		scorer,
	)
	escrowUseCase := usecase.NewEscrowUseCase(
		config.Log,
		config.Validate,
		walletRepository,
		escrowRepository,
		transactionRepository,
		config.Config,
		ledgerProducer,
	)
	payoutUseCase := usecase.NewPayoutUseCase(
		config.Log,
		config.Validate,
		walletRepository,
		payoutRepository,
		transactionRepository,
		config.Config,
		gateway,
		ledgerProducer,
		scorer,
		cipher,
		config.AsynqClient,
	)

	// setup controllers
	walletController := http.NewWalletController(walletUseCase, config.Log)
	transactionController := http.NewTransactionController(transactionUseCase, config.Log)
	escrowController := http.NewEscrowController(escrowUseCase, config.Log)
	payoutController := http.NewPayoutController(payoutUseCase, config.Log)

	// setup middleware
	authMiddleware := middleware.NewAuth(config.Config, config.Log)
	callbackMiddleware := middleware.NewCallbackAuth(config.Config)

	config.Async.HandleFunc(usecase.TaskPayoutProcess, payoutUseCase.HandleProcessTask)

	routeConfig := route.RouteConfig{
		App:                   config.App,
		WalletController:      walletController,
		TransactionController: transactionController,
		EscrowController:      escrowController,
		PayoutController:      payoutController,
		AuthMiddleware:        authMiddleware,
		CallbackMiddleware:    callbackMiddleware,
		AdminRole:             config.Config.GetString("security.admin_role"),
	}
	routeConfig.Setup()

	return scheduler.NewLedgerScheduler(
		config.Log,
		config.Config,
		config.Redis,
		walletRepository,
		escrowRepository,
		payoutRepository,
		escrowUseCase,
		payoutUseCase,
	)
}
