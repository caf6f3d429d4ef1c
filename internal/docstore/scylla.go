package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gocql/gocql"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Les documents Scylla sont stockés en JSON, une ligne par (collection, id).
// Le champ "id" du document est obligatoire et sert de clé de clustering.
const scyllaSchema = `CREATE TABLE IF NOT EXISTS documents (
	collection text,
	id text,
	body text,
	PRIMARY KEY ((collection), id)
)`

const (
	casMaxRetries = 7
	casBackoff    = 10 * time.Millisecond
)

// ErrWriteConflict signale un document modifié en continu pendant une mise à jour.
var ErrWriteConflict = errors.New("écriture concurrente sur le document")

type ScyllaConfig struct {
	Hosts    []string
	Keyspace string
	Username string
	Password string
	Timeout  time.Duration
	NumConns int
}

// ScyllaStore adapte un keyspace ScyllaDB/Cassandra à l'interface Store.
type ScyllaStore struct {
	session *gocql.Session

	mu     sync.Mutex
	unique map[string]map[string]struct{} // collection → champs uniques
}

func ConnectScylla(cfg ScyllaConfig) (*ScyllaStore, error) {
	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Keyspace = cfg.Keyspace
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = cfg.Timeout
	if cfg.NumConns > 0 {
		cluster.NumConns = cfg.NumConns
	}
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
		return nil, oops.Code("DOCSTORE_SCYLLA_CONNECT").With("keyspace", cfg.Keyspace).Wrap(err)
	}
	if err := session.Query(scyllaSchema).Exec(); err != nil {
		session.Close()
		return nil, oops.Code("DOCSTORE_SCYLLA_SCHEMA").With("keyspace", cfg.Keyspace).Wrap(err)
	}
	return &ScyllaStore{session: session, unique: make(map[string]map[string]struct{})}, nil
}

func (s *ScyllaStore) Collection(name string) Collection {
	return &scyllaCollection{store: s, name: name}
}

func (s *ScyllaStore) Ping(ctx context.Context) error {
	return s.session.Query("SELECT now() FROM system.local").WithContext(ctx).Exec()
}

func (s *ScyllaStore) Close(context.Context) error {
	s.session.Close()
	return nil
}

func (s *ScyllaStore) uniqueFields(collection string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields := make([]string, 0, len(s.unique[collection]))
	for f := range s.unique[collection] {
		fields = append(fields, f)
	}
	return fields
}

type scyllaCollection struct {
	store *ScyllaStore
	name  string
}

func (c *scyllaCollection) FindOne(ctx context.Context, filter Filter) (Document, error) {
	docs, err := c.find(ctx, filter, 1)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}
	return docs[0], nil
}

func (c *scyllaCollection) FindMany(ctx context.Context, filter Filter, limit int64) ([]Document, error) {
	return c.find(ctx, filter, limit)
}

// find lit directement la ligne quand le filtre porte sur l'id, sinon parcourt la partition.
func (c *scyllaCollection) find(ctx context.Context, filter Filter, limit int64) ([]Document, error) {
	if id, ok := filter["id"].(string); ok {
		var body string
		err := c.store.session.Query(`SELECT body FROM documents WHERE collection = ? AND id = ?`, c.name, id).
			WithContext(ctx).Scan(&body)
		if errors.Is(err, gocql.ErrNotFound) {
			return []Document{}, nil
		}
		if err != nil {
			return nil, c.wrap("DOCSTORE_FIND_FAILED", err)
		}
		doc, err := decodeBody(body)
		if err != nil {
			return nil, c.wrap("DOCSTORE_FIND_FAILED", err)
		}
		if !Matches(doc, filter) {
			return []Document{}, nil
		}
		return []Document{doc}, nil
	}

	iter := c.store.session.Query(`SELECT body FROM documents WHERE collection = ?`, c.name).WithContext(ctx).Iter()
	docs := make([]Document, 0)
	var body string
	for iter.Scan(&body) {
		doc, err := decodeBody(body)
		if err != nil {
			_ = iter.Close()
			return nil, c.wrap("DOCSTORE_FIND_FAILED", err)
		}
		if Matches(doc, filter) {
			docs = append(docs, doc)
			if limit > 0 && int64(len(docs)) >= limit {
				break
			}
		}
	}
	if err := iter.Close(); err != nil {
		return nil, c.wrap("DOCSTORE_FIND_FAILED", err)
	}
	return docs, nil
}

func (c *scyllaCollection) InsertOne(ctx context.Context, doc Document) error {
	id, ok := doc["id"].(string)
	if !ok || id == "" {
		return oops.Code("DOCSTORE_MISSING_ID").With("collection", c.name).Errorf("le document n'a pas de champ id")
	}
	if err := c.checkUnique(ctx, doc, id); err != nil {
		return err
	}
	body, err := json.Marshal(clone(doc))
	if err != nil {
		return c.wrap("DOCSTORE_INSERT_FAILED", err)
	}

	applied, err := c.store.session.Query(`INSERT INTO documents (collection, id, body) VALUES (?, ?, ?) IF NOT EXISTS`,
		c.name, id, string(body)).WithContext(ctx).MapScanCAS(map[string]any{})
	if err != nil {
		return c.wrap("DOCSTORE_INSERT_FAILED", err)
	}
	if !applied {
		return oops.Code("DOCSTORE_DUPLICATE_KEY").With("collection", c.name, "field", "id").Wrap(ErrDuplicateKey)
	}
	return nil
}

func (c *scyllaCollection) UpdateOne(ctx context.Context, filter Filter, set Document) (int64, error) {
	current, err := c.FindOne(ctx, filter)
	if errors.Is(err, ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	id, _ := current["id"].(string)

	return compareAndSwap(ctx,
		func(ctx context.Context) (string, bool, error) {
			var body string
			err := c.store.session.Query(`SELECT body FROM documents WHERE collection = ? AND id = ?`, c.name, id).
				WithContext(ctx).Scan(&body)
			if errors.Is(err, gocql.ErrNotFound) {
				return "", false, nil
			}
			if err != nil {
				return "", false, c.wrap("DOCSTORE_UPDATE_FAILED", err)
			}
			return body, true, nil
		},
		func(ctx context.Context, doc Document) (bool, error) {
			if !Matches(doc, filter) {
				return false, nil
			}
			for k, v := range set {
				doc[k] = cloneValue(v)
			}
			return true, c.checkUnique(ctx, doc, id)
		},
		func(ctx context.Context, prev, next string) (bool, error) {
			applied, err := c.store.session.Query(`UPDATE documents SET body = ? WHERE collection = ? AND id = ? IF body = ?`,
				next, c.name, id, prev).WithContext(ctx).MapScanCAS(map[string]any{})
			if err != nil {
				return false, c.wrap("DOCSTORE_UPDATE_FAILED", err)
			}
			return applied, nil
		},
	)
}

// compareAndSwap relit le corps JSON, le modifie avec merge puis l'écrit seulement
// s'il n'a pas changé depuis la lecture. Un conflit relance le cycle, un nombre borné de fois.
// merge renvoie false quand le document ne correspond plus : rien n'est écrit.
func compareAndSwap(
	ctx context.Context,
	read func(ctx context.Context) (body string, found bool, err error),
	merge func(ctx context.Context, doc Document) (bool, error),
	write func(ctx context.Context, prev, next string) (bool, error),
) (int64, error) {
	backoff := retry.WithMaxRetries(casMaxRetries, retry.WithJitter(casBackoff, retry.NewConstant(casBackoff)))
	return retry.DoValue(ctx, backoff, func(ctx context.Context) (int64, error) {
		prev, found, err := read(ctx)
		if err != nil || !found {
			return 0, err
		}
		doc, err := decodeBody(prev)
		if err != nil {
			return 0, err
		}
		ok, err := merge(ctx, doc)
		if err != nil || !ok {
			return 0, err
		}
		next, err := json.Marshal(doc)
		if err != nil {
			return 0, err
		}
		applied, err := write(ctx, prev, string(next))
		if err != nil {
			return 0, err
		}
		if !applied {
			return 0, retry.RetryableError(oops.Code("DOCSTORE_UPDATE_CONFLICT").Wrap(ErrWriteConflict))
		}
		return 1, nil
	})
}

func (c *scyllaCollection) DeleteOne(ctx context.Context, filter Filter) (int64, error) {
	current, err := c.FindOne(ctx, filter)
	if errors.Is(err, ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	id, _ := current["id"].(string)

	applied, err := c.store.session.Query(`DELETE FROM documents WHERE collection = ? AND id = ? IF EXISTS`, c.name, id).
		WithContext(ctx).MapScanCAS(map[string]any{})
	if err != nil {
		return 0, c.wrap("DOCSTORE_DELETE_FAILED", err)
	}
	if !applied {
		return 0, nil
	}
	return 1, nil
}

func (c *scyllaCollection) Count(ctx context.Context, filter Filter) (int64, error) {
	docs, err := c.find(ctx, filter, 0)
	if err != nil {
		return 0, err
	}
	return int64(len(docs)), nil
}

// EnsureUniqueIndex n'a pas d'équivalent natif : l'unicité de "id" vient de la clé primaire,
// celle des autres champs est vérifiée par lecture avant écriture.
func (c *scyllaCollection) EnsureUniqueIndex(_ context.Context, field string) error {
	if field == "id" {
		return nil
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	if c.store.unique[c.name] == nil {
		c.store.unique[c.name] = make(map[string]struct{})
	}
	c.store.unique[c.name][field] = struct{}{}
	return nil
}

func (c *scyllaCollection) checkUnique(ctx context.Context, doc Document, id string) error {
	for _, field := range c.store.uniqueFields(c.name) {
		v, ok := doc[field]
		if !ok {
			continue
		}
		existing, err := c.find(ctx, Filter{field: v}, 0)
		if err != nil {
			return err
		}
		for _, other := range existing {
			if other["id"] != id {
				return oops.Code("DOCSTORE_DUPLICATE_KEY").With("collection", c.name, "field", field).Wrap(ErrDuplicateKey)
			}
		}
	}
	return nil
}

func (c *scyllaCollection) wrap(code string, err error) error {
	return oops.Code(code).With("collection", c.name).Wrap(err)
}

func decodeBody(body string) (Document, error) {
	var doc Document
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("document illisible: %w", err)
	}
	return doc, nil
}
