// Command luvjsonctl is a thin demonstration binary that wires docengine's
// document lifecycle against the in-process reference backend and a
// chosen storage adapter, the way crdtserver/main.go wires the teacher's
// CRDT core against Redis and a libp2p transport: flat main(), explicit
// construction, no framework.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/homveloper/luvjson/backend"
	"github.com/homveloper/luvjson/common"
	"github.com/homveloper/luvjson/config"
	"github.com/homveloper/luvjson/crdtedit"
	"github.com/homveloper/luvjson/crdtpatch"
	"github.com/homveloper/luvjson/docengine"
	"github.com/homveloper/luvjson/monitor"
	"github.com/homveloper/luvjson/storage"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file; defaults are used when empty")
	actorFlag := flag.String("actor", "", "fixes the document actor id; a random one is generated when empty")
	storageFlag := flag.String("storage", "", "overrides the configured storage kind: memory, redis, mongo, badger, sql")
	documentID := flag.String("document", "demo", "document id used for the storage adapter's keys")
	key := flag.String("key", "", "top-level map key to set before printing the document")
	value := flag.String("value", "", "value to set key to")
	addr := flag.String("addr", "", "if set, serves the monitor debug endpoint on this address until interrupted")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := loadConfig(*configPath, *actorFlag, *storageFlag)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	adapter, err := buildStorageAdapter(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("build storage adapter: %v", err)
	}
	defer adapter.Close()

	doc, seqCounter, err := newDocument(cfg, logger, ctx, adapter, *documentID)
	if err != nil {
		log.Fatalf("init document: %v", err)
	}

	if *key != "" {
		if err := applySet(doc, *key, *value); err != nil {
			log.Fatalf("set %s: %v", *key, err)
		}
		logger.Info("change applied", zap.String("key", *key), zap.String("value", *value), zap.Uint64("seq", *seqCounter))
	}

	if err := printDocument(doc, *key); err != nil {
		log.Fatalf("print document: %v", err)
	}

	if err := persistSnapshot(ctx, adapter, *documentID, doc); err != nil {
		log.Fatalf("persist snapshot: %v", err)
	}

	if *addr == "" {
		return
	}

	server := monitor.NewServer(doc, logger)
	logger.Info("serving monitor endpoint", zap.String("addr", *addr))
	if err := server.Start(ctx, *addr); err != nil {
		log.Fatalf("monitor server: %v", err)
	}
}

func loadConfig(path, actor, storageKind string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg = config.Default()
	}
	if err != nil {
		return nil, err
	}
	if actor != "" {
		cfg.Document.ActorID = actor
	}
	if storageKind != "" {
		cfg.Storage.Kind = storageKind
	}
	return cfg, nil
}

// newDocument wires a docengine.Doc to the in-process reference backend and
// registers a patch callback that appends every local change's encoded
// bytes to the storage adapter, tracking its own seq counter since
// PatchCallback is not handed one directly.
func newDocument(cfg *config.Config, logger *zap.Logger, ctx context.Context, adapter storage.Adapter, documentID string) (*docengine.Doc, *uint64, error) {
	seq := new(uint64)

	opts := []docengine.Option{
		docengine.WithBackend(backend.NewLocalBackend()),
		docengine.WithLogger(logger),
		docengine.WithPatchCallback(func(patch *crdtpatch.Patch, before, after interface{}, local bool, encoded crdtpatch.EncodedChange) {
			if !local || encoded == nil {
				return
			}
			*seq++
			if err := adapter.AppendChange(ctx, documentID, *seq, encoded); err != nil {
				logger.Warn("append change", zap.Error(err))
			}
		}),
	}
	if cfg.Document.ActorID != "" {
		opts = append(opts, docengine.WithActorID(common.ActorID(cfg.Document.ActorID)))
	}
	if cfg.Document.Freeze {
		opts = append(opts, docengine.WithFreeze())
	}

	doc, err := docengine.Init(opts...)
	return doc, seq, err
}

func applySet(doc *docengine.Doc, key, value string) error {
	_, err := doc.Change(fmt.Sprintf("set %s", key), func(ctx *crdtedit.Context) error {
		return ctx.SetMapKey(nil, key, value)
	})
	return err
}

func printDocument(doc *docengine.Doc, key string) error {
	root, err := crdtedit.NewQuery(doc.Snapshot()).GetObject(nil)
	if err != nil {
		return err
	}
	fmt.Printf("root: %+v\n", root)

	if key == "" {
		return nil
	}

	v, err := doc.GetByPath([]string{key})
	if err != nil {
		return err
	}
	fmt.Printf("%s = %v\n", key, v.Primitive)

	conflicts, err := doc.GetConflictsByPath([]string{key})
	if err != nil {
		return err
	}
	if len(conflicts) > 1 {
		fmt.Printf("%s has %d conflicting candidates:\n", key, len(conflicts))
		for opID, candidate := range conflicts {
			fmt.Printf("  %v -> %v\n", opID, candidate.Primitive)
		}
	}
	return nil
}

func persistSnapshot(ctx context.Context, adapter storage.Adapter, documentID string, doc *docengine.Doc) error {
	q := crdtedit.NewQuery(doc.Snapshot())
	root, err := q.GetObject(nil)
	if err != nil {
		return err
	}
	data, err := json.Marshal(root)
	if err != nil {
		return err
	}
	return adapter.SaveSnapshot(ctx, documentID, data)
}
