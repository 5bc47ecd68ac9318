package app

import (
	"context"
	stdLog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-assistant/library/config"
	"github.com/Astemirdum/library-assistant/library/internal/chatbot"
	"github.com/Astemirdum/library-assistant/library/internal/handler"
	"github.com/Astemirdum/library-assistant/library/internal/repository"
	"github.com/Astemirdum/library-assistant/library/internal/scheduler"
	"github.com/Astemirdum/library-assistant/library/internal/server"
	"github.com/Astemirdum/library-assistant/library/internal/service"
	"github.com/Astemirdum/library-assistant/library/migrations"
	"github.com/Astemirdum/library-assistant/pkg/cache"
	"github.com/Astemirdum/library-assistant/pkg/kafka"
	"github.com/Astemirdum/library-assistant/pkg/logger"
	"github.com/Astemirdum/library-assistant/pkg/ollama"
	"github.com/Astemirdum/library-assistant/pkg/postgres"
	"github.com/Astemirdum/library-assistant/pkg/rag"
)

func Run(cfg *config.Config) {
	log, closeLog, err := logger.NewLogger(cfg.Log, "library")
	if err != nil {
		stdLog.Fatal("NewLogger ", err)
	}
	defer closeLog()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.NewPostgresDB(ctx, &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		log.Fatal("db init", zap.Error(err))
	}
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		log.Fatal("repo", zap.Error(err))
	}

	var producer sarama.SyncProducer
	if len(cfg.Kafka.Addrs) > 0 {
		if producer, err = kafka.NewProducer(cfg.Kafka); err != nil {
			log.Fatal("kafka.NewProducer", zap.Error(err))
		}
	}
	svc := service.NewService(repo, log,
		service.WithPublisher(kafka.NewPublisher(producer, kafka.BorrowTopic)),
		service.WithDefaultBorrower(cfg.DefaultBorrowerID),
	)

	answers, err := cache.New(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("cache.New", zap.Error(err))
	}
	llm := ollama.New(cfg.LLM)
	qa := rag.NewQA(cfg.RAG, llm, llm, answers, log)
	if cfg.RAG.Watch {
		go func() {
			if err := qa.Watch(ctx); err != nil {
				log.Error("faq watch", zap.Error(err))
			}
		}()
	}
	assistant := chatbot.New(llm, svc, qa, log)

	reporter, err := scheduler.NewOverdueReporter(cfg.OverdueSchedule, svc, log)
	if err != nil {
		log.Fatal("scheduler", zap.Error(err))
	}
	reporter.Start()

	h := handler.New(svc, assistant, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ", zap.String("addr", srv.Addr()))
	go func() {
		if err := srv.Run(); err != nil {
			log.Error("server run", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))

	closeCtx, closeCancel := context.WithTimeout(context.Background(), time.Second*5)
	defer closeCancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.DPanic("srv.Stop", zap.Error(err))
	}
	cancel()
	reporter.Stop(closeCtx)
	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Error("producer.Close", zap.Error(err))
		}
	}
	if err := answers.Close(); err != nil {
		log.Error("cache.Close", zap.Error(err))
	}
	db.Close()
	log.Info("Graceful shutdown finished")
}
