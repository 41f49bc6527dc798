// Package routing decides, per request, whether a file takes the local
// extraction path or the remote OCR path. Decide is a pure function of the
// file category, the requested mode, a content-signal snapshot, and
// credential presence; it performs no I/O.
package routing

import (
	"fmt"

	"github.com/joseph-ayodele/shortcut-bridge/constants"
	"github.com/joseph-ayodele/shortcut-bridge/internal/common"
	"github.com/joseph-ayodele/shortcut-bridge/internal/extract"
)

// Mode is the caller-requested routing mode.
type Mode string

const (
	ModeAuto        Mode = "auto"
	ModeForceRemote Mode = "force_ai"
	ModeForceLocal  Mode = "force_local"
)

// ParseMode normalizes a wire-level ocr_mode value. Empty means auto.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeForceRemote, Mode("force_remote"):
		return ModeForceRemote, nil
	case ModeForceLocal:
		return ModeForceLocal, nil
	default:
		return "", fmt.Errorf("%w: unknown ocr_mode %q", common.ErrInvalidInput, s)
	}
}

// Path is the selected extraction path.
type Path string

const (
	PathRemote Path = "remote"
	PathLocal  Path = "local"
)

// Input is the full signal snapshot Decide operates on.
type Input struct {
	Category       constants.FileCategory // PDF | IMAGE
	Mode           Mode
	Signals        extract.Signals // PDF auto mode only
	HasSignals     bool
	HasCredentials bool
}

// Decision is the routing outcome.
type Decision struct {
	Path     Path
	Reason   string
	Warnings []string // carried into metadata.warnings (image auto fallback)
}

// Decide applies the routing policy. force_remote fails fast with
// ErrMissingCredentials before any network call when no token is configured;
// force_local never needs credentials. In auto mode, PDFs are classified as
// text-native or scan-like from the signal snapshot with a local tie-break,
// and images prefer remote unless credentials are absent, in which case the
// local OCR fallback is recorded as a warning.
func Decide(cfg common.RoutingConfig, in Input) (Decision, error) {
	switch in.Mode {
	case ModeForceRemote:
		if !in.HasCredentials {
			return Decision{}, fmt.Errorf("%w: set MISTRAL_API_KEY before using force_ai", common.ErrMissingCredentials)
		}
		return Decision{Path: PathRemote, Reason: "force_ai"}, nil

	case ModeForceLocal:
		return Decision{Path: PathLocal, Reason: "force_local"}, nil

	case ModeAuto:
		switch in.Category {
		case constants.PDF:
			return decideAutoPDF(cfg, in)
		case constants.IMAGE:
			if in.HasCredentials {
				return Decision{Path: PathRemote, Reason: "auto: image prefers remote OCR"}, nil
			}
			return Decision{
				Path:     PathLocal,
				Reason:   "auto: no remote credentials",
				Warnings: []string{"MISTRAL_API_KEY not configured; fell back to local OCR"},
			}, nil
		default:
			return Decision{}, fmt.Errorf("%w: no routing for category %q", common.ErrUnsupportedFileType, in.Category)
		}

	default:
		return Decision{}, fmt.Errorf("%w: unknown mode %q", common.ErrInvalidInput, in.Mode)
	}
}

func decideAutoPDF(cfg common.RoutingConfig, in Input) (Decision, error) {
	remote := func(reason string) (Decision, error) {
		if !in.HasCredentials {
			return Decision{}, fmt.Errorf("%w: %s but MISTRAL_API_KEY is not configured", common.ErrMissingCredentials, reason)
		}
		return Decision{Path: PathRemote, Reason: reason}, nil
	}

	if !in.HasSignals || in.Signals.PageCount == 0 {
		return remote("auto: PDF has no inspectable pages")
	}
	if tr := in.Signals.TextRatio(); tr < cfg.MinTextRatio {
		return remote(fmt.Sprintf("auto: text ratio %.2f below %.2f", tr, cfg.MinTextRatio))
	}
	if ir := in.Signals.ImageRatio(); ir >= cfg.MaxImageRatio {
		return remote(fmt.Sprintf("auto: image ratio %.2f at or above %.2f", ir, cfg.MaxImageRatio))
	}
	// inconclusive or text-native: local is cheaper and needs no credentials
	return Decision{Path: PathLocal, Reason: "auto: PDF is text-native"}, nil
}
