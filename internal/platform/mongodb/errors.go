package mongodb

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/phrazzld/taskflow-api/internal/store"
	"go.mongodb.org/mongo-driver/mongo"
)

// dupKeyPattern extracts the key from a duplicate key message,
// e.g. `... index: _id_ dup key: { _id: "0190..." }`.
var dupKeyPattern = regexp.MustCompile(`index: (\S+) dup key: \{ (.*) \}`)

// MapError maps a driver error to an appropriate store error.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}
	if mongo.IsDuplicateKeyError(err) {
		index, key := parseDupKey(err.Error())
		return store.NewDuplicateKeyError(index, key, err)
	}
	return err
}

func parseDupKey(msg string) (string, map[string]string) {
	m := dupKeyPattern.FindStringSubmatch(msg)
	if m == nil {
		return "", nil
	}
	key := map[string]string{}
	for _, pair := range strings.Split(m[2], ", ") {
		field, value, ok := strings.Cut(pair, ": ")
		if !ok {
			continue
		}
		key[field] = strings.Trim(value, `"`)
	}
	return m[1], key
}
