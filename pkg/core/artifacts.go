// Package core provides the execution model types shared by the shop-e2e
// harness: errors, statuses, results, artifacts and the automation driver
// contract.
package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Attachment represents a debug artifact captured during a scenario
type Attachment struct {
	Name        string `json:"name"`        // Descriptive name: screenshot, source
	ContentType string `json:"contentType"` // MIME type: image/png, application/xml
	Path        string `json:"path"`        // File path
	Body        []byte `json:"-"`           // In-memory content (not serialized to JSON)
}

// Common attachment names
const (
	AttachmentScreenshot = "screenshot"
	AttachmentSource     = "source"
)

// Common content types
const (
	ContentTypePNG  = "image/png"
	ContentTypeXML  = "application/xml"
	ContentTypeJSON = "application/json"
	ContentTypeText = "text/plain"
)

// ScreenshotDirName is the screenshots folder under the reports directory.
const ScreenshotDirName = "screenshots"

// NewScreenshotAttachment creates a screenshot attachment
func NewScreenshotAttachment(path string, data []byte) Attachment {
	return Attachment{
		Name:        AttachmentScreenshot,
		ContentType: ContentTypePNG,
		Path:        path,
		Body:        data,
	}
}

// NewSourceAttachment creates a page source attachment
func NewSourceAttachment(path string, data []byte) Attachment {
	return Attachment{
		Name:        AttachmentSource,
		ContentType: ContentTypeXML,
		Path:        path,
		Body:        data,
	}
}

// ArtifactConfig controls when artifacts are captured
type ArtifactConfig struct {
	CaptureOnFailure bool `yaml:"captureOnFailure" json:"captureOnFailure"` // Default: true
	CaptureOnSuccess bool `yaml:"captureOnSuccess" json:"captureOnSuccess"` // Default: false
	PageSource       bool `yaml:"pageSource" json:"pageSource"`             // Default: false
}

// DefaultArtifactConfig returns sensible defaults for artifact capture
func DefaultArtifactConfig() ArtifactConfig {
	return ArtifactConfig{
		CaptureOnFailure: true,
		CaptureOnSuccess: false,
		PageSource:       false,
	}
}

// ShouldCapture returns true if artifacts should be captured for the given status
func (c ArtifactConfig) ShouldCapture(status StepStatus) bool {
	switch status {
	case StatusFailed, StatusErrored:
		return c.CaptureOnFailure
	case StatusPassed:
		return c.CaptureOnSuccess
	default:
		return false
	}
}

// ScreenCapturer is anything that can produce a PNG of the current screen.
type ScreenCapturer interface {
	Screenshot() ([]byte, error)
}

// ScreenshotFilename returns "<name>_<timestamp>.png" where the timestamp is
// UTC ISO-8601 with millisecond precision and ':' and '.' replaced by '-'.
func ScreenshotFilename(name string, at time.Time) string {
	ts := at.UTC().Format("2006-01-02T15:04:05.000Z")
	ts = strings.NewReplacer(":", "-", ".", "-").Replace(ts)
	return fmt.Sprintf("%s_%s.png", name, ts)
}

// SaveScreenshot captures the screen and writes it under dir, creating dir if
// needed. Returns the written path.
func SaveScreenshot(c ScreenCapturer, dir, name string, at time.Time) (string, error) {
	data, err := c.Screenshot()
	if err != nil {
		return "", fmt.Errorf("capture screenshot: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create screenshot dir: %w", err)
	}
	path := filepath.Join(dir, ScreenshotFilename(name, at))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write screenshot: %w", err)
	}
	return path, nil
}
