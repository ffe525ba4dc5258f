package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/devricklin/smart-listener/internal/api"
	"github.com/devricklin/smart-listener/internal/biz/usecase"
	"github.com/devricklin/smart-listener/internal/conf"
	"github.com/devricklin/smart-listener/internal/data"
	"github.com/devricklin/smart-listener/internal/infra/feishu"
	"github.com/devricklin/smart-listener/internal/server"
	"github.com/devricklin/smart-listener/internal/service"
)

func main() {
	// Load .env file
	envErr := godotenv.Load()

	// Load configuration
	cfg, err := conf.Load(os.Getenv("LISTENER_CONFIG"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	conf.SetupLogging(cfg.Log)
	if envErr != nil {
		log.Debug().Msg("no .env file found, using environment variables")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Forward bus (optional)
	var bus *data.NATSBus
	if cfg.NATS.URL != "" {
		bus, err = data.NewNATSBus(cfg.NATS.URL, cfg.NATS.ForwardSubject)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to NATS")
		}
		log.Info().Str("url", cfg.NATS.URL).Str("subject", cfg.NATS.ForwardSubject).Msg("forwarding over NATS")
	} else {
		log.Warn().Msg("nats.url is empty, forwarded messages are only logged")
	}

	// Initialize repository layer
	opts := data.Options{
		HistoryCapacity: cfg.HistoryCapacity,
		MaxGroups:       cfg.MaxGroups,
		Providers:       data.NewChatClients(cfg.Providers),
		Bus:             bus,
	}
	if !cfg.Audit.Disabled {
		opts.AuditDBPath = cfg.Audit.DBPath
	}
	repos, err := data.NewRepositories(opts)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create repositories")
	}
	if opts.AuditDBPath != "" {
		log.Info().Str("path", opts.AuditDBPath).Msg("judgment audit log enabled")
	}

	// Initialize usecase and service layer
	classifierUC := usecase.NewClassifierUsecase(repos.Model, cfg.Classifier.ToClassifierConfig())
	gateSvc := service.NewGateService(cfg.ToGateConfig(), repos.History, classifierUC, repos.Reply, repos.Judgment)

	// Bot replies feed back into history
	if bus != nil {
		unsubscribe, err := bus.SubscribeReplies(cfg.NATS.ReplySubject, func(reply data.ReplyEnvelope) {
			if _, err := gateSvc.RecordReply(ctx, reply.GroupID, reply.Text); err != nil {
				log.Warn().Err(err).Str("group", reply.GroupID).Msg("failed to record reply")
			}
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to subscribe to replies")
		}
		defer unsubscribe()
	}

	// Admin API
	apiServer := api.NewServer(gateSvc, repos.Judgment, cfg.API.Addr)
	go func() {
		if err := apiServer.Start(); err != nil {
			log.Error().Err(err).Msg("admin API stopped")
		}
	}()

	// Feishu message source
	var feishuSrv *server.FeishuServer
	if cfg.Feishu.Enabled() {
		feishuClient := feishu.NewClient(cfg.Feishu.AppID, cfg.Feishu.AppSecret)
		feishuSrv = server.NewFeishuServer(feishuClient, feishuClient, gateSvc)
		go func() {
			if err := feishuSrv.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("Feishu connection stopped")
			}
		}()
	} else {
		log.Warn().Msg("feishu.app_id/app_secret not set, only the admin API accepts input")
	}

	log.Info().Str("config", cfg.Path).Msg("smart listener started")

	// SIGHUP reloads the gate config, SIGINT/SIGTERM shut down
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	for sig := range sigCh {
		if sig == syscall.SIGHUP {
			reload(cfg.Path, gateSvc)
			continue
		}
		break
	}

	log.Info().Msg("shutting down")
	cancel()
	if feishuSrv != nil {
		feishuSrv.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := apiServer.Stop(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("admin API shutdown")
	}
	if bus != nil {
		if err := bus.Close(); err != nil {
			log.Warn().Err(err).Msg("NATS drain")
		}
	}
	if err := repos.Close(); err != nil {
		log.Warn().Err(err).Msg("closing repositories")
	}
}

// reload re-reads the config file and applies the gate settings.
// History sizing, providers and transports keep their startup values.
func reload(path string, gateSvc *service.GateService) {
	cfg, err := conf.Load(path)
	if err != nil {
		log.Error().Err(err).Msg("config reload failed, keeping current config")
		return
	}
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("reloaded config invalid, keeping current config")
		return
	}
	gateSvc.UpdateConfig(cfg.ToGateConfig())
}
