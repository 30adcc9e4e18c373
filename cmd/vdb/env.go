package main

import (
	"os"

	"github.com/custodia-labs/vdb/internal/core/ports/driven"
)

// envOverrides maps config keys to the environment variables that win over them.
var envOverrides = map[string]string{
	"data.dir":          "VDB_DATA_DIR",
	"embedding.api_key": "OPENAI_API_KEY",
}

// envConfigStore reads through to a ConfigStore, letting set environment
// variables override selected keys. Writes go to the wrapped store.
type envConfigStore struct {
	driven.ConfigStore
	lookup func(string) (string, bool)
}

func newEnvConfigStore(store driven.ConfigStore) *envConfigStore {
	return &envConfigStore{ConfigStore: store, lookup: os.LookupEnv}
}

func (s *envConfigStore) env(key string) (string, bool) {
	name, ok := envOverrides[key]
	if !ok {
		return "", false
	}
	val, ok := s.lookup(name)
	if !ok || val == "" {
		return "", false
	}
	return val, true
}

func (s *envConfigStore) Get(key string) (any, bool) {
	if val, ok := s.env(key); ok {
		return val, true
	}
	return s.ConfigStore.Get(key)
}

func (s *envConfigStore) GetString(key string) string {
	if val, ok := s.env(key); ok {
		return val
	}
	return s.ConfigStore.GetString(key)
}
