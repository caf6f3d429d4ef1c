// Package docstore expose une abstraction minimale de base documentaire
// (collections de documents clé/valeur) et ses pilotes Mongo, Scylla et mémoire.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"reflect"

	"github.com/samber/oops"
)

var (
	// ErrNoDocuments est renvoyée par FindOne quand aucun document ne correspond au filtre.
	ErrNoDocuments = errors.New("aucun document trouvé")
	// ErrDuplicateKey est renvoyée quand une écriture viole un index unique.
	ErrDuplicateKey = errors.New("clé dupliquée")
)

// internalIDField est l'identifiant interne du store, jamais exposé aux appelants.
const internalIDField = "_id"

// Document est la représentation faiblement typée d'un enregistrement.
type Document map[string]any

// Filter sélectionne les documents par égalité sur des champs de premier niveau.
type Filter map[string]any

// Collection regroupe les opérations supportées par chaque pilote.
type Collection interface {
	FindOne(ctx context.Context, filter Filter) (Document, error)
	FindMany(ctx context.Context, filter Filter, limit int64) ([]Document, error)
	InsertOne(ctx context.Context, doc Document) error
	// UpdateOne applique set sur le premier document correspondant et renvoie le nombre
	// de documents trouvés (0 ou 1).
	UpdateOne(ctx context.Context, filter Filter, set Document) (int64, error)
	// DeleteOne renvoie le nombre de documents supprimés (0 ou 1).
	DeleteOne(ctx context.Context, filter Filter) (int64, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	EnsureUniqueIndex(ctx context.Context, field string) error
}

type Store interface {
	Collection(name string) Collection
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Decode remplit v à partir d'un document via un aller-retour JSON.
// Les time.Time sont encodés en RFC 3339 avec nanosecondes, sans perte.
func Decode(doc Document, v any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return oops.Code("DOCSTORE_DECODE_FAILED").Wrap(err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return oops.Code("DOCSTORE_DECODE_FAILED").Wrap(err)
	}
	return nil
}

// Matches indique si doc satisfait toutes les égalités du filtre.
func Matches(doc Document, filter Filter) bool {
	for field, want := range filter {
		got, ok := doc[field]
		if !ok || !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, !math.IsNaN(n)
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// clone copie récursivement un document pour qu'aucun appelant ne partage d'état avec le store.
func clone(doc Document) Document {
	if doc == nil {
		return nil
	}
	out := make(Document, len(doc))
	for k, v := range doc {
		if k == internalIDField {
			continue
		}
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Document:
		return clone(t)
	case map[string]any:
		return map[string]any(clone(Document(t)))
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case []Document:
		out := make([]any, len(t))
		for i := range t {
			out[i] = clone(t[i])
		}
		return out
	default:
		return v
	}
}
