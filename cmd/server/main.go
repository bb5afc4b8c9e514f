package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/gidipin/authcore/internal/api"
	"github.com/gidipin/authcore/internal/controller"
	"github.com/gidipin/authcore/internal/migrations"
	"github.com/gidipin/authcore/internal/service"
	"github.com/gidipin/authcore/internal/storage/postgres"
	storageredis "github.com/gidipin/authcore/internal/storage/redis"
	"github.com/gidipin/authcore/internal/util"

	_ "github.com/lib/pq"
)

func main() {
	ctx := context.Background()
	logger := util.NewZapLogger()

	db, dbCleanup, err := util.NewDBConnection(logger, util.NewDBConfig())
	if err != nil {
		logger.Fatal(zap.Error(err))
	}
	if err := migrations.Run(db, logger); err != nil {
		logger.Fatal(zap.Error(err))
	}

	redisClient, redisCleanup, err := util.NewRedisClient(logger, util.NewRedisConfig())
	if err != nil {
		logger.Fatal(zap.Error(err))
	}

	apiKeyService := service.NewAPIKeyService(redisClient, logger)
	if err := apiKeyService.SyncAPIKey(ctx); err != nil {
		logger.Fatal(zap.Error(err))
	}

	storage := postgres.NewStorage(db)
	cleanupFuncs := []func(){dbCleanup, redisCleanup}

	tokenCfg := util.NewTokenConfig()
	tokenService := service.NewTokenService(
		tokenCfg,
		storage,
		service.RotateEveryN{N: tokenCfg.RotateEveryN},
		logger,
	)

	deliverer := service.NewHTTPDeliverer(logger, util.GetDeliveryURL())
	cooldownStore := storageredis.NewCooldownStore(redisClient)
	verificationService := service.NewVerificationService(
		storage,
		cooldownStore,
		deliverer,
		util.NewVerificationConfig(),
		logger,
	)

	pinService := service.NewPinService(storage, tokenService, util.NewPinConfig(), logger)

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	go verificationService.RunSweeper(sweepCtx)

	ctrl := controller.NewController(logger, tokenService, verificationService, pinService)

	apiServer := api.NewAPI(ctrl, apiKeyService, util.NewServerConfig(), logger, cleanupFuncs)
	apiServer.Run(ctx)
}
