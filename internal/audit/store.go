package audit

import (
	"context"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"bookstore_back_end/internal/models"
)

const createTable = `
	CREATE TABLE IF NOT EXISTS audit_log (
		resource    text,
		resource_id text,
		id          timeuuid,
		action      text,
		actor       text,
		detail      text,
		ts          timestamp,
		PRIMARY KEY ((resource, resource_id), id)
	) WITH CLUSTERING ORDER BY (id DESC)`

// Store écrit l'historique des ressources dans ScyllaDB.
type Store struct {
	session *gocql.Session
}

func NewStore(session *gocql.Session) *Store {
	return &Store{session: session}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	return errors.Wrap(s.session.Query(createTable).WithContext(ctx).Exec(), "création table audit_log")
}

func (s *Store) Record(ctx context.Context, e models.AuditEntry) error {
	id := gocql.UUID(e.ID)
	if e.ID == uuid.Nil {
		id = gocql.UUIDFromTime(e.Timestamp)
	}
	err := s.session.Query(`
		INSERT INTO audit_log (resource, resource_id, id, action, actor, detail, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Resource, e.ResourceID, id, e.Action, e.Actor, e.Detail, e.Timestamp,
	).WithContext(ctx).Exec()
	return errors.Wrap(err, "insertion audit_log")
}

// History retourne les entrées d'une ressource, la plus récente en premier.
func (s *Store) History(ctx context.Context, resource, resourceID string) ([]models.AuditEntry, error) {
	iter := s.session.Query(`
		SELECT id, action, actor, detail, ts FROM audit_log
		WHERE resource = ? AND resource_id = ?`, resource, resourceID,
	).WithContext(ctx).Iter()

	var (
		entries []models.AuditEntry
		id      gocql.UUID
		action  string
		actor   string
		detail  string
		ts      time.Time
	)
	for iter.Scan(&id, &action, &actor, &detail, &ts) {
		entries = append(entries, models.AuditEntry{
			ID:         uuid.UUID(id),
			Resource:   resource,
			ResourceID: resourceID,
			Action:     action,
			Actor:      actor,
			Detail:     detail,
			Timestamp:  ts.UTC(),
		})
	}
	if err := iter.Close(); err != nil {
		return nil, errors.Wrap(err, "lecture audit_log")
	}
	if entries == nil {
		entries = []models.AuditEntry{}
	}
	return entries, nil
}
