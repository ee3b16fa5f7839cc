package engine

import (
	"context"
	"log/slog"
	"strings"

	"github.com/averycross/waygate/pkg/domain"
	"github.com/averycross/waygate/pkg/ports"
)

// spawnAnchorNames is the conventional-name heuristic, checked in order.
// First match wins.
var spawnAnchorNames = []string{
	"SpawnPoint",
	"PlayerSpawnPoint",
	"PlayerSpawn",
	"PlayerStart",
	"SpawnAnchor",
	"StartPoint",
	"EntryPoint",
	"Entrance",
	"Spawn",
}

// uiNameMarkers flag root objects that are overlay machinery rather than
// world geometry; the root fallback skips them.
var uiNameMarkers = []string{
	"ui", "hud", "canvas", "overlay", "menu", "cursor", "eventsystem", "screen",
}

// targetResolver picks the final destination point inside a freshly loaded
// context.
type targetResolver struct {
	stepper ports.Stepper
	tun     Tunables
	logger  *slog.Logger
}

func newTargetResolver(stepper ports.Stepper, tun Tunables, logger *slog.Logger) *targetResolver {
	return &targetResolver{stepper: stepper, tun: tun.normalized(), logger: logger}
}

// resolve applies the priority chain: explicit anchor (with bounded wait),
// coordinate hint, conventional-name heuristic, non-UI root fallback.
// Returns domain.ErrNoTarget when nothing yields a point; the coordinator
// treats that as terminal rather than defaulting to the world origin.
func (r *targetResolver) resolve(ctx context.Context, h ports.ContextHandle, anchorHint string, coordHint *domain.Vec3) (domain.ResolvedTarget, error) {
	// 1. Exact named anchor, retried every tick. Objects can activate
	// after the context reports loaded, so one failed lookup means
	// nothing yet.
	if anchorHint != "" {
		deadline := r.stepper.Now().Add(r.tun.AnchorWait)
		for {
			if p, ok := h.FindAnchor(anchorHint); ok {
				return domain.ResolvedTarget{
					Point:      p,
					Strategy:   domain.TargetAnchor,
					AnchorName: anchorHint,
					Confidence: 1.0,
				}, nil
			}
			if !r.stepper.Now().Before(deadline) {
				r.logger.Warn("anchor never appeared, falling through",
					"anchor", anchorHint, "context", h.Name())
				break
			}
			if err := r.stepper.Tick(ctx); err != nil {
				return domain.ResolvedTarget{}, err
			}
		}
	}

	// 2. Explicit coordinate hint.
	if coordHint != nil {
		return domain.ResolvedTarget{
			Point:      *coordHint,
			Strategy:   domain.TargetCoordinateHint,
			Confidence: 0.9,
		}, nil
	}

	// 3. Conventional spawn-anchor names, anchors first, then root
	// objects by the same names.
	for _, name := range spawnAnchorNames {
		if p, ok := h.FindAnchor(name); ok {
			return domain.ResolvedTarget{
				Point:      p,
				Strategy:   domain.TargetHeuristic,
				AnchorName: name,
				Confidence: 0.6,
			}, nil
		}
	}
	roots := h.Roots()
	for _, name := range spawnAnchorNames {
		for _, obj := range roots {
			if strings.EqualFold(obj.Name, name) {
				return domain.ResolvedTarget{
					Point:      obj.Position,
					Strategy:   domain.TargetHeuristic,
					AnchorName: obj.Name,
					Confidence: 0.6,
				}, nil
			}
		}
	}

	// 4. First top-level object that is not UI machinery.
	for _, obj := range roots {
		if isUIName(obj.Name) {
			continue
		}
		return domain.ResolvedTarget{
			Point:      obj.Position,
			Strategy:   domain.TargetRootFallback,
			AnchorName: obj.Name,
			Confidence: 0.3,
		}, nil
	}

	return domain.ResolvedTarget{}, domain.ErrNoTarget
}

func isUIName(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range uiNameMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
