package store

import (
	"encoding/json"
	"fmt"
)

// envelope wraps every stored value with the schema version it was
// written under, so older payloads can be migrated forward on read.
type envelope struct {
	Version int             `json:"version"`
	Value   json.RawMessage `json:"value"`
}

// Migration upgrades a raw payload from version From to From+1.
type Migration struct {
	From  int
	Apply func(raw json.RawMessage) (json.RawMessage, error)
}

// Warning describes a non-fatal storage problem. Reads fall back to a
// default value; writes are reported once and otherwise dropped.
type Warning struct {
	Op      string
	Key     string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("store %s %q: %s", w.Op, w.Key, w.Message)
}

// readValue loads key from kv, migrates the payload to version, and
// decodes it into out. Missing keys leave out untouched and return
// false. Corrupt or unmigratable payloads do the same after reporting
// a warning, so a bad row never takes the application down.
func readValue(kv KV, key string, version int, migrations []Migration, out any, warn func(Warning)) bool {
	raw, ok, err := kv.Get(key)
	if err != nil {
		report(warn, Warning{Op: "read", Key: key, Message: err.Error()})
		return false
	}
	if !ok {
		return false
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		report(warn, Warning{Op: "read", Key: key, Message: "corrupt envelope: " + err.Error()})
		return false
	}
	if env.Version > version {
		report(warn, Warning{Op: "read", Key: key, Message: fmt.Sprintf("version %d is newer than supported %d", env.Version, version)})
		return false
	}

	value := env.Value
	for env.Version < version {
		next, ok := migrateStep(migrations, env.Version, value)
		if !ok {
			report(warn, Warning{Op: "read", Key: key, Message: fmt.Sprintf("no migration from version %d", env.Version)})
			return false
		}
		migrated, err := next(value)
		if err != nil {
			report(warn, Warning{Op: "read", Key: key, Message: fmt.Sprintf("migrate from version %d: %v", env.Version, err)})
			return false
		}
		value = migrated
		env.Version++
	}

	if err := json.Unmarshal(value, out); err != nil {
		report(warn, Warning{Op: "read", Key: key, Message: "corrupt value: " + err.Error()})
		return false
	}
	return true
}

func migrateStep(migrations []Migration, from int, _ json.RawMessage) (func(json.RawMessage) (json.RawMessage, error), bool) {
	for _, m := range migrations {
		if m.From == from {
			return m.Apply, true
		}
	}
	return nil, false
}

// encodeValue wraps value in a current-version envelope.
func encodeValue(version int, value any) ([]byte, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Version: version, Value: raw})
}

func report(warn func(Warning), w Warning) {
	if warn != nil {
		warn(w)
	}
}
