package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"favsync/internal/artwork"
	"favsync/internal/catalog"
	"favsync/internal/config"
	"favsync/internal/library"
	"favsync/internal/logging"
	"favsync/internal/plan"
	"favsync/internal/tag"
	"favsync/internal/transcode"
)

// ErrLocked means another run holds the sync root lock.
var ErrLocked = errors.New("sync root is locked by another run")

// Catalog is the remote side of a run.
type Catalog interface {
	ListFavorites(ctx context.Context) ([]catalog.Track, error)
	FetchAudio(ctx context.Context, track catalog.Track) (io.ReadCloser, error)
	FetchArt(ctx context.Context, track catalog.Track) (io.ReadCloser, string, error)
}

// Runner drives one full reconciliation: list, index, plan, execute,
// verify.
type Runner struct {
	cfg    *config.Config
	cat    Catalog
	engine transcode.Engine
	logger *slog.Logger
}

// NewRunner wires a runner from its collaborators.
func NewRunner(cfg *config.Config, cat Catalog, engine transcode.Engine, logger *slog.Logger) *Runner {
	return &Runner{cfg: cfg, cat: cat, engine: engine, logger: logger}
}

// Run converges the sync root to the remote favorite set. The returned
// error is fatal (nothing was deleted or created); per-key failures are
// reported through the summary instead.
func (r *Runner) Run(ctx context.Context, dryRun bool) (*Summary, error) {
	summary := &Summary{RunID: uuid.NewString(), Started: time.Now(), DryRun: dryRun}
	log := logging.WithComponent(r.logger, "run").With(logging.String(logging.FieldRunID, summary.RunID))

	if err := r.cfg.EnsureDirectories(); err != nil {
		return summary, err
	}

	lock := flock.New(filepath.Join(r.cfg.Sync.Dir, library.LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return summary, fmt.Errorf("acquire sync lock: %w", err)
	}
	if !locked {
		return summary, fmt.Errorf("%w (%s)", ErrLocked, library.LockFileName)
	}
	defer func() { _ = lock.Unlock() }()

	// Remote listing and local scan have no dependency on each other.
	var tracks []catalog.Track
	var index map[library.Key]library.Entry
	snapshot, snapCtx := errgroup.WithContext(ctx)
	snapshot.Go(func() error {
		var listErr error
		tracks, listErr = r.cat.ListFavorites(snapCtx)
		return listErr
	})
	snapshot.Go(func() error {
		var scanErr error
		index, scanErr = library.Scan(r.cfg.Sync.Dir, r.logger)
		return scanErr
	})
	// Any failure here is fatal: a partial remote set must never feed
	// deletion planning.
	if err := snapshot.Wait(); err != nil {
		summary.Finished = time.Now()
		return summary, err
	}

	p := plan.Build(tracks, index, r.logger)
	summary.Remote = len(p.Create) + len(p.Unchanged)
	summary.Unchanged = len(p.Unchanged)
	logPlan(log, p, summary.Remote)

	if dryRun {
		summary.Created = len(p.Create)
		summary.Deleted = len(p.Delete)
		summary.Finished = time.Now()
		summary.Converged = len(p.Create) == 0 && len(p.Delete) == 0
		return summary, nil
	}

	failures := &failureLog{}
	workers := r.cfg.EffectiveWorkers()

	r.syncArtwork(ctx, p, workers, failures, log)

	var created, deleted atomic.Int64
	r.executePlan(ctx, p, workers, failures, &created, &deleted, log)

	affected := make(map[string]struct{}, len(p.Delete))
	for key := range p.Delete {
		affected[key.AlbumDir()] = struct{}{}
	}
	pruneEmptyDirs(r.cfg.Sync.Dir, affected, r.logger)

	summary.Created = int(created.Load())
	summary.Deleted = int(deleted.Load())

	if err := ctx.Err(); err != nil {
		summary.Failures = failures.list()
		summary.Finished = time.Now()
		return summary, err
	}

	r.verify(p, failures, log)

	summary.Failures = failures.list()
	summary.Converged = len(summary.Failures) == 0
	summary.Finished = time.Now()
	return summary, nil
}

// syncArtwork ensures covers before materialization so freshly transcoded
// tracks can embed the cover image. Art failures never block tracks.
func (r *Runner) syncArtwork(ctx context.Context, p plan.Plan, workers int, failures *failureLog, log *slog.Logger) {
	if !r.cfg.Artwork.Enabled {
		return
	}
	sync := artwork.New(r.cfg, r.cat, r.logger)
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for dir, track := range p.Albums() {
		if gctx.Err() != nil {
			break
		}
		dir, track := dir, track
		group.Go(func() error {
			if _, err := sync.EnsureCover(gctx, dir, track); err != nil {
				failures.add(library.Key(dir), OpArtwork, err)
				log.Warn("album art sync failed", logging.String(logging.FieldAlbum, dir), logging.Error(err))
			}
			return nil
		})
	}
	_ = group.Wait()
}

// executePlan runs creates and deletes on the bounded worker pool. Keys are
// disjoint by construction, so workers never contend on a target path.
func (r *Runner) executePlan(ctx context.Context, p plan.Plan, workers int, failures *failureLog, created, deleted *atomic.Int64, log *slog.Logger) {
	materializer := NewMaterializer(r.cfg.Sync.Dir, r.cat, r.engine, r.logger)
	deleteLog := logging.WithComponent(r.logger, "cleanup")

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	for _, key := range p.CreateKeys() {
		if gctx.Err() != nil {
			break
		}
		key := key
		track := p.Create[key]
		group.Go(func() error {
			if err := materializer.Materialize(gctx, key, track); err != nil {
				failures.add(key, classifyCreateFailure(err), err)
				log.Warn("materialization failed", logging.String(logging.FieldKey, key.String()), logging.Error(err))
				return nil
			}
			created.Add(1)
			return nil
		})
	}
	for _, key := range p.DeleteKeys() {
		if gctx.Err() != nil {
			break
		}
		key := key
		group.Go(func() error {
			if err := deleteEntry(r.cfg.Sync.Dir, key, deleteLog); err != nil {
				failures.add(key, OpDelete, err)
				log.Warn("deletion failed", logging.String(logging.FieldKey, key.String()), logging.Error(err))
				return nil
			}
			deleted.Add(1)
			return nil
		})
	}
	_ = group.Wait()
}

// verify rescans the sync root and checks the mirror invariant: disk keys
// equal remote keys, modulo actions that already failed and were recorded.
func (r *Runner) verify(p plan.Plan, failures *failureLog, log *slog.Logger) {
	index, err := library.Scan(r.cfg.Sync.Dir, r.logger)
	if err != nil {
		failures.add("", OpVerify, err)
		return
	}
	failed := failures.failedKeys()

	expected := make(map[library.Key]struct{}, len(p.Create)+len(p.Unchanged))
	for key := range p.Create {
		if _, ok := failed[key]; !ok {
			expected[key] = struct{}{}
		}
	}
	for key := range p.Unchanged {
		expected[key] = struct{}{}
	}

	for key := range expected {
		if _, ok := index[key]; !ok {
			failures.add(key, OpVerify, fmt.Errorf("expected file missing after run"))
			log.Warn("verification: expected file missing", logging.String(logging.FieldKey, key.String()))
		}
	}
	for key := range index {
		if _, ok := expected[key]; ok {
			continue
		}
		if _, ok := failed[key]; ok {
			continue
		}
		failures.add(key, OpVerify, fmt.Errorf("unexpected file present after run"))
		log.Warn("verification: unexpected file present", logging.String(logging.FieldKey, key.String()))
	}
}

func classifyCreateFailure(err error) Operation {
	switch {
	case errors.Is(err, transcode.ErrTranscode):
		return OpTranscode
	case errors.Is(err, tag.ErrTag):
		return OpTag
	case errors.Is(err, catalog.ErrNetwork), errors.Is(err, catalog.ErrAuth), errors.Is(err, catalog.ErrNotFound):
		return OpFetch
	default:
		return OpWrite
	}
}

func logPlan(log *slog.Logger, p plan.Plan, remote int) {
	percent := 0.0
	if remote > 0 {
		percent = 100 * float64(len(p.Create)) / float64(remote)
	}
	log.Info(fmt.Sprintf("syncing %d new audio files from %d favorited (%.2f%%)", len(p.Create), remote, percent),
		logging.Int("create", len(p.Create)),
		logging.Int("delete", len(p.Delete)),
		logging.Int("unchanged", len(p.Unchanged)))
}
