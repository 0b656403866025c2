// Package screen talks to the automation driver service over HTTP. The
// service owns the physical display and input devices: screenshot capture,
// grid annotation, cropping, and mouse/keyboard injection.
package screen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	_ "image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pilot-dev/pilot/internal/domain"
	"github.com/pilot-dev/pilot/internal/ports"
)

const DefaultBaseURL = "http://127.0.0.1:8765"

type Driver struct {
	baseURL    string
	httpClient *http.Client
}

func NewDriver(baseURL string) *Driver {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Driver{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (d *Driver) CaptureScreen(ctx context.Context) (ports.Screenshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/screenshot", nil)
	if err != nil {
		return ports.Screenshot{}, err
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return ports.Screenshot{}, fmt.Errorf("capturing screenshot: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ports.Screenshot{}, driverError("screenshot", resp)
	}

	png, err := io.ReadAll(resp.Body)
	if err != nil {
		return ports.Screenshot{}, fmt.Errorf("reading screenshot: %w", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(png))
	if err != nil {
		return ports.Screenshot{}, fmt.Errorf("decoding screenshot dimensions: %w", err)
	}
	return ports.Screenshot{PNG: png, Width: cfg.Width, Height: cfg.Height}, nil
}

type imageRequest struct {
	Image    string `json:"image"`
	GridSize int    `json:"grid_size,omitempty"`
	X1       int    `json:"x1,omitempty"`
	Y1       int    `json:"y1,omitempty"`
	X2       int    `json:"x2,omitempty"`
	Y2       int    `json:"y2,omitempty"`
}

type imageResponse struct {
	Image string `json:"image"`
}

func (d *Driver) GridOverlay(ctx context.Context, img ports.Screenshot, gridSize int) (ports.Screenshot, error) {
	out, err := d.postImage(ctx, "/image/grid", imageRequest{
		Image:    base64.StdEncoding.EncodeToString(img.PNG),
		GridSize: gridSize,
	})
	if err != nil {
		return ports.Screenshot{}, err
	}
	return ports.Screenshot{PNG: out, Width: img.Width, Height: img.Height}, nil
}

func (d *Driver) Crop(ctx context.Context, img ports.Screenshot, bounds domain.Rect) (ports.Screenshot, error) {
	out, err := d.postImage(ctx, "/image/crop", imageRequest{
		Image: base64.StdEncoding.EncodeToString(img.PNG),
		X1:    bounds.X1, Y1: bounds.Y1, X2: bounds.X2, Y2: bounds.Y2,
	})
	if err != nil {
		return ports.Screenshot{}, err
	}
	return ports.Screenshot{PNG: out, Width: bounds.Width(), Height: bounds.Height()}, nil
}

func (d *Driver) postImage(ctx context.Context, path string, reqBody imageRequest) ([]byte, error) {
	var respBody imageResponse
	if err := d.post(ctx, path, reqBody, &respBody); err != nil {
		return nil, err
	}
	png, err := base64.StdEncoding.DecodeString(respBody.Image)
	if err != nil {
		return nil, fmt.Errorf("decoding driver image: %w", err)
	}
	return png, nil
}

func (d *Driver) Click(ctx context.Context, p domain.Point, button string, clicks int) error {
	// The driver's click acts at the current cursor position, so move first.
	if err := d.post(ctx, "/mouse/move", map[string]any{"x": p.X, "y": p.Y}, nil); err != nil {
		return err
	}
	if button == "" {
		button = "left"
	}
	if clicks < 1 {
		clicks = 1
	}
	return d.post(ctx, "/mouse/click", map[string]any{"button": button, "clicks": clicks}, nil)
}

func (d *Driver) TypeText(ctx context.Context, text string) error {
	return d.post(ctx, "/keyboard/type", map[string]any{"text": text}, nil)
}

func (d *Driver) PressKey(ctx context.Context, key string) error {
	return d.post(ctx, "/keyboard/press", map[string]any{"key": key}, nil)
}

func (d *Driver) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("driver %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return driverError(path, resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func driverError(op string, resp *http.Response) error {
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("driver %s: HTTP %d: %s", op, resp.StatusCode, strings.TrimSpace(string(detail)))
}
