package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"github.com/withstudy/tutor/internal/config"
	"github.com/withstudy/tutor/internal/db"
	"github.com/withstudy/tutor/internal/logging"
	"github.com/withstudy/tutor/internal/store/rabbitmq"
	"github.com/withstudy/tutor/internal/usage"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	if cfg.RabbitURL == "" {
		log.Fatal("RABBIT_URL is required for the usage worker")
	}

	gdb, err := db.Open(cfg.DBDSN, log)
	if err != nil {
		log.WithError(err).Fatal("database")
	}
	defer db.Close(gdb)
	if err := db.Migrate(gdb, &usage.Event{}); err != nil {
		log.WithError(err).Fatal("migrate")
	}
	ledger := usage.NewLedger(usage.NewRepo(gdb))

	concurrency := cfg.WorkerConcurrency
	consumer, err := rabbitmq.NewConsumer(cfg.RabbitURL, cfg.RabbitQueue, concurrency)
	if err != nil {
		log.WithError(err).Fatal("rabbit consumer")
	}
	defer consumer.Close()

	msgs, err := consumer.Deliveries()
	if err != nil {
		log.WithError(err).Fatal("consume")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(logrus.Fields{"queue": cfg.RabbitQueue, "concurrency": concurrency}).Info("worker started")

	// worker pool
	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			wlog := log.WithField("worker", workerID)
			for d := range jobs {
				handleDelivery(ctx, wlog, ledger, consumer, d)
			}
		}(i)
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			log.Info("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				log.Error("delivery channel closed")
				close(jobs)
				wg.Wait()
				return
			}
			jobs <- d
		}
	}
}

func handleDelivery(ctx context.Context, log *logrus.Entry, ledger *usage.Ledger, consumer *rabbitmq.Consumer, d amqp.Delivery) {
	e, err := rabbitmq.DecodeTurn(d.Body)
	if err != nil {
		log.WithError(err).WithField("message_id", d.MessageId).Warn("bad usage event")
		_ = d.Nack(false, false)
		return
	}
	elog := log.WithFields(logrus.Fields{
		"event_id":   e.EventID,
		"student_id": e.StudentID,
		"subject":    e.Subject,
		"day":        e.Day,
	})

	start := time.Now()
	inserted, err := ledger.Record(context.WithoutCancel(ctx), e)
	if err != nil {
		requeued, rerr := consumer.Retry(ctx, d)
		elog.WithError(err).WithFields(logrus.Fields{
			"requeued": requeued,
			"cost":     time.Since(start),
		}).Error("record usage event")
		if rerr != nil {
			elog.WithError(rerr).Error("retry usage event")
		}
		return
	}
	if !inserted {
		elog.Debug("duplicate usage event")
	}
	if err := d.Ack(false); err != nil {
		elog.WithError(err).Error("ack failed")
	}
}
