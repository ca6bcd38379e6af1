package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/consol-protocol/consold/internal/config"
	"github.com/consol-protocol/consold/internal/core/application"
	"github.com/consol-protocol/consold/internal/core/ports"
	"github.com/consol-protocol/consold/internal/infrastructure/accesscontrol"
	"github.com/consol-protocol/consold/internal/infrastructure/consol"
	"github.com/consol-protocol/consold/internal/infrastructure/pool"
	"github.com/consol-protocol/consold/internal/infrastructure/pubsub"
	dbbadger "github.com/consol-protocol/consold/internal/infrastructure/storage/db/badger"
	"github.com/consol-protocol/consold/internal/infrastructure/storage/db/inmemory"
	httpinterface "github.com/consol-protocol/consold/internal/interfaces/http"
)

func main() {
	if err := config.InitConfig(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	repoManager, err := openRepoManager()
	if err != nil {
		log.WithError(err).Fatal("error while opening db")
	}
	defer repoManager.Close()

	vault := consol.NewVault(config.GetString(config.TargetAssetKey))
	bank := consol.NewBank()

	var redemptionPool ports.RedemptionPool
	if receiptAsset := config.GetString(config.ReceiptAssetKey); len(receiptAsset) > 0 {
		redemptionPool = pool.NewService(receiptAsset, nil)
	}

	accessControl := accesscontrol.NewService(map[string][]string{
		ports.RoleQueueAdmin: config.GetStringSlice(config.QueueAdminsKey),
		ports.RoleTreasury:   config.GetStringSlice(config.TreasuryAccountsKey),
	})
	pubsubSvc := pubsub.NewService()

	withdrawalSvc := application.NewWithdrawalService(
		repoManager, vault, redemptionPool, bank, accessControl, pubsubSvc,
	)
	processorSvc := application.NewProcessorService(withdrawalSvc)

	router := chi.NewRouter()
	router.Mount(
		"/v1/queues",
		httpinterface.NewQueueHandler(withdrawalSvc, processorSvc).Router(),
	)
	router.Mount(
		"/v1/webhooks", httpinterface.NewWebhookHandler(pubsubSvc).Router(),
	)

	addr := fmt.Sprintf(":%d", config.GetInt(config.ListeningPortKey))
	server := &http.Server{Addr: addr, Handler: router}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("error while listening on http interface")
		}
	}()

	log.Infof("withdrawal engine interface is listening on %s", addr)
	log.Infof("datadir: %s", config.GetDatadir())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	// nolint: errcheck
	server.Close()
	log.Info("shutting down")
}

func openRepoManager() (ports.RepoManager, error) {
	if config.GetString(config.DBTypeKey) == config.DBInMemory {
		return inmemory.NewRepoManager(), nil
	}
	dbDir := filepath.Join(config.GetDatadir(), config.DbLocation)
	return dbbadger.NewRepoManager(dbDir, nil)
}
