package metadata

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/vision-dao/beacon-deploy/internal/store"
)

// Publisher uploads module payloads and the root metadata document.
type Publisher struct {
	store  store.Store
	logger *slog.Logger
}

// NewPublisher creates a Publisher backed by s. A nil logger discards
// debug output.
func NewPublisher(s store.Store, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Publisher{store: s, logger: logger}
}

// Publish uploads every module's loader and wasm bytes, wraps each pair in
// a per-module DAG node, then uploads the root Idea document referencing
// all module nodes. It returns the root CID.
//
// Module uploads run concurrently with no ordering between them; the root
// document is only uploaded after every module upload has succeeded. The
// first failure cancels the remaining uploads and aborts the publish, so a
// returned root never references missing content. Already-uploaded content
// is not rolled back; the store is append-only and orphans are harmless.
func (p *Publisher) Publish(ctx context.Context, title, description string, modules []Module) (string, error) {
	refs := make([]Link, len(modules))

	g, ctx := errgroup.WithContext(ctx)
	for i, mod := range modules {
		g.Go(func() error {
			cid, err := p.publishModule(ctx, mod)
			if err != nil {
				return err
			}
			refs[i] = Link{CID: cid}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	root, err := p.store.DagPut(ctx, Idea{
		Title:       title,
		Description: description,
		Payload:     refs,
	})
	if err != nil {
		return "", err
	}

	p.logger.Debug("published metadata root", "cid", root, "modules", len(modules))
	return root, nil
}

// publishModule uploads one module's loader and wasm payloads and the DAG
// node tying them together, returning the node's CID.
func (p *Publisher) publishModule(ctx context.Context, mod Module) (string, error) {
	loaderCID, err := p.store.Add(ctx, mod.Loader)
	if err != nil {
		return "", err
	}

	wasmCID, err := p.store.Add(ctx, mod.Wasm)
	if err != nil {
		return "", err
	}

	cid, err := p.store.DagPut(ctx, moduleNode{
		Loader: []Link{{CID: loaderCID}},
		Module: []Link{{CID: wasmCID}},
	})
	if err != nil {
		return "", err
	}

	p.logger.Debug("published module", "name", mod.Name, "cid", cid)
	return cid, nil
}
