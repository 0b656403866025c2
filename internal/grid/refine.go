package grid

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pilot-dev/pilot/internal/domain"
	"github.com/pilot-dev/pilot/internal/ports"
)

// ActionType is the input action dispatched at the located point.
type ActionType string

const (
	ActionClick       ActionType = "click"
	ActionDoubleClick ActionType = "double-click"
	ActionRightClick  ActionType = "right-click"
	ActionTypeText    ActionType = "type"
	ActionPressKey    ActionType = "press"
)

// ParseAction validates an action name from user input.
func ParseAction(s string) (ActionType, error) {
	switch a := ActionType(s); a {
	case ActionClick, ActionDoubleClick, ActionRightClick, ActionTypeText, ActionPressKey:
		return a, nil
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// Result reports where the action landed. Verification holds an optional
// post-action screenshot; it is advisory and never asserted against.
type Result struct {
	Point        domain.Point
	Reason       string
	Verification []byte
}

// Refiner runs the two-pass coarse-to-fine search: full-screen grid, planner
// cell selection, crop, finer grid on the crop, second selection, then input
// dispatch at the sub-cell center.
type Refiner struct {
	driver   ports.ScreenDriver
	planner  ports.Planner
	gridSize int
	verify   bool
	log      *zap.Logger
}

func NewRefiner(driver ports.ScreenDriver, planner ports.Planner, gridSize int, verify bool, log *zap.Logger) *Refiner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Refiner{
		driver:   driver,
		planner:  planner,
		gridSize: New(0, 0, gridSize, 0, 0).Size,
		verify:   verify,
		log:      log,
	}
}

// Locate maps a natural-language description to full-screen coordinates.
// A planner refusal surfaces as ports.ErrTargetNotFound so callers can offer
// a rephrase instead of treating it as a driver fault.
func (r *Refiner) Locate(ctx context.Context, description string) (domain.Point, string, error) {
	shot, err := r.driver.CaptureScreen(ctx)
	if err != nil {
		return domain.Point{}, "", fmt.Errorf("capturing screen: %w", err)
	}

	outer := New(shot.Width, shot.Height, r.gridSize, 0, 0)
	cellRect, reason, err := r.selectPass(ctx, shot, outer, description)
	if err != nil {
		return domain.Point{}, "", err
	}
	r.log.Debug("coarse pass selected cell",
		zap.String("target", description),
		zap.Int("x1", cellRect.X1), zap.Int("y1", cellRect.Y1),
		zap.Int("x2", cellRect.X2), zap.Int("y2", cellRect.Y2))

	cropped, err := r.driver.Crop(ctx, shot, cellRect)
	if err != nil {
		return domain.Point{}, "", fmt.Errorf("cropping to cell: %w", err)
	}

	// The crop's top-left corner becomes the sub-grid's offset, so the
	// second pass's bounds land directly in full-screen coordinates.
	inner := New(cellRect.Width(), cellRect.Height(), r.gridSize, cellRect.X1, cellRect.Y1)
	subRect, subReason, err := r.selectPass(ctx, cropped, inner, description)
	if err != nil {
		return domain.Point{}, "", err
	}

	point := subRect.Center()
	if !cellRect.Contains(point) {
		// Bounds math guarantees containment; a miss means the driver
		// cropped a different region than requested.
		r.log.Warn("refined point escaped outer cell",
			zap.Int("x", point.X), zap.Int("y", point.Y))
	}
	if subReason != "" {
		reason = subReason
	}
	return point, reason, nil
}

func (r *Refiner) selectPass(ctx context.Context, img ports.Screenshot, g Grid, description string) (domain.Rect, string, error) {
	annotated, err := r.driver.GridOverlay(ctx, img, g.Size)
	if err != nil {
		return domain.Rect{}, "", fmt.Errorf("drawing grid overlay: %w", err)
	}

	sel, err := r.planner.SelectCell(ctx, annotated.PNG, description)
	if err != nil {
		return domain.Rect{}, "", err
	}

	bounds, err := g.CellBounds(sel.Cell)
	if err != nil {
		return domain.Rect{}, "", fmt.Errorf("planner picked invalid cell: %w", err)
	}
	return bounds, sel.Reason, nil
}

// Act locates the described element and dispatches the requested action at
// its coordinates. For type and press actions the element is clicked first to
// give it focus; data carries the text or key name.
func (r *Refiner) Act(ctx context.Context, description string, action ActionType, data string) (Result, error) {
	point, reason, err := r.Locate(ctx, description)
	if err != nil {
		return Result{}, err
	}

	switch action {
	case ActionClick:
		err = r.driver.Click(ctx, point, "left", 1)
	case ActionDoubleClick:
		err = r.driver.Click(ctx, point, "left", 2)
	case ActionRightClick:
		err = r.driver.Click(ctx, point, "right", 1)
	case ActionTypeText:
		if err = r.driver.Click(ctx, point, "left", 1); err == nil {
			err = r.driver.TypeText(ctx, data)
		}
	case ActionPressKey:
		if err = r.driver.Click(ctx, point, "left", 1); err == nil {
			err = r.driver.PressKey(ctx, data)
		}
	default:
		return Result{}, fmt.Errorf("unknown action %q", action)
	}
	if err != nil {
		return Result{}, fmt.Errorf("dispatching %s at (%d,%d): %w", action, point.X, point.Y, err)
	}

	res := Result{Point: point, Reason: reason}
	if r.verify {
		if after, err := r.driver.CaptureScreen(ctx); err == nil {
			res.Verification = after.PNG
		} else {
			r.log.Debug("post-action screenshot failed", zap.Error(err))
		}
	}
	return res, nil
}
