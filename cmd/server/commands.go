package main

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"bookstore_back_end/internal/audit"
	"bookstore_back_end/internal/config"
	"bookstore_back_end/internal/database"
	"bookstore_back_end/internal/events"
	"bookstore_back_end/internal/repository"
	"bookstore_back_end/internal/search"
	"bookstore_back_end/internal/services/catalog"
)

func migrateUp(_ context.Context, rt runtime) error {
	if err := database.MigrateUp(rt.cfg.Postgres.DSN()); err != nil {
		return err
	}
	rt.log.Info("✅ Migrations appliquées")
	return nil
}

func migrateDown(_ context.Context, rt runtime) error {
	if err := database.MigrateDown(rt.cfg.Postgres.DSN()); err != nil {
		return err
	}
	rt.log.Info("✅ Dernière migration annulée")
	return nil
}

// auditConsumer tourne jusqu'à SIGINT/SIGTERM. Kafka et ScyllaDB sont requis.
func auditConsumer(ctx context.Context, rt runtime) error {
	cfg, log := rt.cfg, rt.log
	if len(cfg.Kafka.Brokers) == 0 || len(cfg.Scylla.Hosts) == 0 {
		return errors.New("audit-consumer requires KAFKA_BROKERS and SCYLLA_HOSTS")
	}

	session, err := database.ConnectScylla(cfg.Scylla)
	if err != nil {
		return err
	}
	defer session.Close()

	store := audit.NewStore(session)
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	codec, err := events.NewCodec()
	if err != nil {
		return err
	}
	consumer := events.NewConsumer(cfg.Kafka, codec, log)
	defer consumer.Close()

	log.Info("🎧 Consommateur d'audit démarré",
		zap.String("topic", cfg.Kafka.OrderTopic),
		zap.String("group", cfg.Kafka.ConsumerGroup))

	return consumer.Run(ctx, func(ctx context.Context, r events.Record) error {
		if err := store.Record(ctx, r.AuditEntry()); err != nil {
			return err
		}
		log.Debug("audit enregistré", zap.String("order_id", r.OrderID), zap.String("type", string(r.Type)))
		return nil
	})
}

// expireDiscounts est prévu pour un cron : les remises expirées sont aussi
// purgées à la demande par l'API.
func expireDiscounts(ctx context.Context, rt runtime) error {
	db, err := database.ConnectPostgres(ctx, rt.cfg.Postgres)
	if err != nil {
		return err
	}
	defer db.Close()

	index, err := searchIndex(rt.cfg.Elastic, rt.log)
	if err != nil {
		return err
	}

	svc := catalog.NewService(repository.NewBookRepository(db), nil, nil, index, nil, rt.log)
	n, err := svc.ExpireDiscounts(ctx)
	if err != nil {
		return err
	}
	rt.log.Info("✅ Remises expirées traitées", zap.Int("count", n))
	return nil
}

// searchIndex retourne nil sans ELASTIC_URL.
func searchIndex(cfg config.ElasticConfig, log *zap.Logger) (catalog.SearchIndex, error) {
	if cfg.URL == "" {
		log.Warn("⚠️ ELASTIC_URL absent, index de recherche non mis à jour")
		return nil, nil
	}
	es, err := database.ConnectElastic(cfg)
	if err != nil {
		return nil, err
	}
	return search.NewBookIndex(es, cfg.Index), nil
}
