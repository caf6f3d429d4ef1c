// Package normalize convertit les documents entre leur forme en mémoire et leur
// forme stockée : le store n'ayant pas de type date, les horodatages y sont du texte.
package normalize

import (
	"time"

	"catalog_back_end/internal/docstore"
)

// TimestampLayout est l'encodage canonique des horodatages stockés (UTC).
const TimestampLayout = time.RFC3339Nano

// TimestampFields liste les champs horodatés des enregistrements du catalogue.
var TimestampFields = []string{"created_at", "updated_at"}

// ToStorage renvoie une copie de doc où chaque horodatage time.Time est encodé en texte UTC.
// Les champs absents ou déjà textuels sont recopiés tels quels.
func ToStorage(doc docstore.Document) docstore.Document {
	if doc == nil {
		return nil
	}
	out := shallowCopy(doc)
	for _, field := range TimestampFields {
		switch v := out[field].(type) {
		case time.Time:
			out[field] = v.UTC().Format(TimestampLayout)
		case *time.Time:
			if v != nil {
				out[field] = v.UTC().Format(TimestampLayout)
			}
		}
	}
	return out
}

// FromStorage est l'inverse de ToStorage : les horodatages textuels redeviennent des time.Time UTC.
// Un texte illisible est laissé tel quel.
func FromStorage(doc docstore.Document) docstore.Document {
	if doc == nil {
		return nil
	}
	out := shallowCopy(doc)
	for _, field := range TimestampFields {
		s, ok := out[field].(string)
		if !ok {
			continue
		}
		if t, err := time.Parse(TimestampLayout, s); err == nil {
			out[field] = t.UTC()
		}
	}
	return out
}

func shallowCopy(doc docstore.Document) docstore.Document {
	out := make(docstore.Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
