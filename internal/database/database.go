package database

import (
	"context"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gocql/gocql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"bookstore_back_end/internal/config"
)

// Connections regroupe les clients partagés. Elastic et Scylla sont nil
// quand leur configuration est absente.
type Connections struct {
	Postgres *sqlx.DB
	Redis    *redis.Client
	Elastic  *elasticsearch.Client
	MinIO    *minio.Client
	Scylla   *gocql.Session
}

// Connect ouvre toutes les connexions. Postgres, Redis et MinIO sont obligatoires.
func Connect(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Connections, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	conns := &Connections{}
	var err error

	// 1. PostgreSQL
	if conns.Postgres, err = ConnectPostgres(ctx, cfg.Postgres); err != nil {
		return nil, err
	}
	log.Info("✅ Connecté à PostgreSQL", zap.String("host", cfg.Postgres.Host))

	// 2. Redis
	if conns.Redis, err = ConnectRedis(ctx, cfg.Redis); err != nil {
		conns.Close()
		return nil, err
	}
	log.Info("✅ Connecté à Redis", zap.String("addr", cfg.Redis.Addr))

	// 3. MinIO
	if conns.MinIO, err = ConnectMinIO(ctx, cfg.MinIO, log); err != nil {
		conns.Close()
		return nil, err
	}
	log.Info("✅ Connecté à MinIO", zap.String("endpoint", cfg.MinIO.Endpoint))

	// 4. Elasticsearch (optionnel)
	if cfg.Elastic.URL != "" {
		if conns.Elastic, err = ConnectElastic(cfg.Elastic); err != nil {
			conns.Close()
			return nil, err
		}
		log.Info("✅ Connecté à Elasticsearch", zap.String("url", cfg.Elastic.URL))
	} else {
		log.Warn("⚠️ ELASTIC_URL absent, recherche désactivée")
	}

	// 5. ScyllaDB (optionnel)
	if len(cfg.Scylla.Hosts) > 0 {
		if conns.Scylla, err = ConnectScylla(cfg.Scylla); err != nil {
			conns.Close()
			return nil, err
		}
		log.Info("✅ Connecté à ScyllaDB", zap.String("keyspace", cfg.Scylla.Keyspace))
	} else {
		log.Warn("⚠️ SCYLLA_HOSTS absent, historique d'audit désactivé")
	}

	return conns, nil
}

func (c *Connections) Close() {
	if c.Postgres != nil {
		_ = c.Postgres.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.Scylla != nil {
		c.Scylla.Close()
	}
}

// =============================================
// POSTGRESQL
// =============================================
func ConnectPostgres(ctx context.Context, cfg config.PostgresConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "ouverture postgres")
	}
	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxConns / 2)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}
	return db, nil
}

// =============================================
// REDIS
// =============================================
func ConnectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}
	return client, nil
}

// =============================================
// ELASTICSEARCH
// =============================================
func ConnectElastic(cfg config.ElasticConfig) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, errors.Wrap(err, "création client elasticsearch")
	}

	res, err := client.Info()
	if err != nil {
		return nil, errors.Wrap(err, "connexion elasticsearch")
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, errors.Errorf("elasticsearch: %s", res.Status())
	}
	return client, nil
}

// =============================================
// MINIO
// =============================================
func ConnectMinIO(ctx context.Context, cfg config.MinIOConfig, log *zap.Logger) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "connexion minio")
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, errors.Wrap(err, "vérification bucket minio")
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrap(err, "création bucket minio")
		}
		log.Info("🪣 Bucket créé", zap.String("bucket", cfg.Bucket))
	}
	return client, nil
}

// =============================================
// SCYLLA DB
// =============================================
func ConnectScylla(cfg config.ScyllaConfig) (*gocql.Session, error) {
	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Keyspace = cfg.Keyspace
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = cfg.Timeout
	cluster.ReconnectInterval = 1 * time.Second
	if cfg.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		}
	}
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, errors.Wrapf(err, "session scylla keyspace %s", cfg.Keyspace)
	}
	return session, nil
}
