// Package config loads and builds the options docengine.Doc and the
// storage adapters are constructed with, following the same
// Options-struct-plus-functional-options shape the teacher uses throughout
// crdtstorage.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DocumentOptions configures how a document is constructed by the CLI.
type DocumentOptions struct {
	// ActorID fixes the document's actor id; empty generates one.
	ActorID string `yaml:"actorId"`

	// DeferActorID is loaded from the file, but the CLI does not pass it to
	// docengine: the CLI's document always gets an actor id at Init.
	DeferActorID bool `yaml:"deferActorId"`

	// Freeze marks the document read-only: every change attempted against
	// it is rejected.
	Freeze bool `yaml:"freeze"`

	// Backend names which backend.Backend the CLI wires in: "local" or "".
	Backend string `yaml:"backend"`
}

// DefaultDocumentOptions returns the zero-configuration document setup: a
// generated actor id, no freeze, the in-process reference backend.
func DefaultDocumentOptions() DocumentOptions {
	return DocumentOptions{Backend: "local"}
}

// RedisOptions configures storage.RedisAdapter.
type RedisOptions struct {
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	KeyPrefix string        `yaml:"keyPrefix"`
	DialTimeout time.Duration `yaml:"dialTimeout"`
}

// MongoOptions configures storage.MongoAdapter.
type MongoOptions struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// BadgerOptions configures storage.BadgerAdapter.
type BadgerOptions struct {
	Path string `yaml:"path"`
}

// SQLOptions configures storage.SQLAdapter.
type SQLOptions struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	Table  string `yaml:"table"`
}

// StorageOptions selects and configures one optional persistence adapter.
// Supported Kind values: "memory", "redis", "mongo", "badger", "sql".
type StorageOptions struct {
	Kind   string       `yaml:"kind"`
	Redis  RedisOptions `yaml:"redis"`
	Mongo  MongoOptions `yaml:"mongo"`
	Badger BadgerOptions `yaml:"badger"`
	SQL    SQLOptions   `yaml:"sql"`
}

// DefaultStorageOptions returns the in-memory storage adapter, requiring no
// external service for a zero-configuration run.
func DefaultStorageOptions() StorageOptions {
	return StorageOptions{
		Kind:   "memory",
		Redis:  RedisOptions{Addr: "localhost:6379", KeyPrefix: "luvjson", DialTimeout: 5 * time.Second},
		Mongo:  MongoOptions{URI: "mongodb://localhost:27017", Database: "luvjson", Collection: "documents"},
		Badger: BadgerOptions{Path: "./luvjson-data"},
		SQL:    SQLOptions{Table: "luvjson_changes"},
	}
}

// Config is the top-level configuration document loaded by the CLI.
type Config struct {
	Document DocumentOptions `yaml:"document"`
	Storage  StorageOptions  `yaml:"storage"`
}

// Default returns a Config with every section at its zero-configuration
// default.
func Default() *Config {
	return &Config{
		Document: DefaultDocumentOptions(),
		Storage:  DefaultStorageOptions(),
	}
}

// Option mutates a Config under construction.
type Option func(*Config)

// WithActorID fixes the document actor id.
func WithActorID(id string) Option {
	return func(c *Config) { c.Document.ActorID = id }
}

// WithBackend names the backend.Backend the CLI wires in.
func WithBackend(name string) Option {
	return func(c *Config) { c.Document.Backend = name }
}

// WithStorageKind selects which storage adapter the CLI constructs.
func WithStorageKind(kind string) Option {
	return func(c *Config) { c.Storage.Kind = kind }
}

// New builds a Config from defaults, optionally overridden by opts.
func New(opts ...Option) *Config {
	c := Default()
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load reads a YAML file at path over top of the defaults; a field absent
// from the file keeps its default value.
func Load(path string, opts ...Option) (*Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}
