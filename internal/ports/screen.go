package ports

import (
	"context"

	"github.com/pilot-dev/pilot/internal/domain"
)

// Screenshot is a captured or derived image with its pixel dimensions.
type Screenshot struct {
	PNG    []byte
	Width  int
	Height int
}

// ScreenDriver abstracts the display and input devices. The driver owns the
// physical screen; callers serialize access if multiple runs could collide.
type ScreenDriver interface {
	CaptureScreen(ctx context.Context) (Screenshot, error)

	// GridOverlay draws a numbered gridSize x gridSize grid on the image.
	GridOverlay(ctx context.Context, img Screenshot, gridSize int) (Screenshot, error)

	// Crop extracts the bounded region of the image.
	Crop(ctx context.Context, img Screenshot, bounds domain.Rect) (Screenshot, error)

	Click(ctx context.Context, p domain.Point, button string, clicks int) error
	TypeText(ctx context.Context, text string) error
	PressKey(ctx context.Context, key string) error
}
