package routing

import (
	"errors"
	"strings"
	"testing"

	"github.com/joseph-ayodele/shortcut-bridge/constants"
	"github.com/joseph-ayodele/shortcut-bridge/internal/common"
	"github.com/joseph-ayodele/shortcut-bridge/internal/extract"
)

var testCfg = common.RoutingConfig{MinTextRatio: 0.6, MaxImageRatio: 0.4, MinPageTextChars: 50}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeAuto, false},
		{"auto", ModeAuto, false},
		{"force_ai", ModeForceRemote, false},
		{"force_remote", ModeForceRemote, false},
		{"force_local", ModeForceLocal, false},
		{"turbo", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v", tt.in, err)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if err != nil && !errors.Is(err, common.ErrInvalidInput) {
			t.Errorf("ParseMode(%q) error not ErrInvalidInput: %v", tt.in, err)
		}
	}
}

func TestDecideForceModes(t *testing.T) {
	d, err := Decide(testCfg, Input{Category: constants.PDF, Mode: ModeForceRemote, HasCredentials: true})
	if err != nil || d.Path != PathRemote {
		t.Errorf("force_ai with creds: %+v, %v", d, err)
	}

	_, err = Decide(testCfg, Input{Category: constants.PDF, Mode: ModeForceRemote, HasCredentials: false})
	if !errors.Is(err, common.ErrMissingCredentials) {
		t.Errorf("force_ai without creds: want ErrMissingCredentials, got %v", err)
	}

	// force_local never needs credentials and ignores signals entirely
	d, err = Decide(testCfg, Input{Category: constants.PDF, Mode: ModeForceLocal, HasCredentials: false})
	if err != nil || d.Path != PathLocal {
		t.Errorf("force_local: %+v, %v", d, err)
	}
}

func TestDecideAutoPDF(t *testing.T) {
	tests := []struct {
		name    string
		sig     extract.Signals
		creds   bool
		want    Path
		wantErr error
	}{
		{
			name:  "text native stays local",
			sig:   extract.Signals{PageCount: 10, TextPages: 9},
			creds: true,
			want:  PathLocal,
		},
		{
			name:  "low text ratio goes remote",
			sig:   extract.Signals{PageCount: 10, TextPages: 3},
			creds: true,
			want:  PathRemote,
		},
		{
			name:  "image heavy goes remote",
			sig:   extract.Signals{PageCount: 10, TextPages: 8, ImageHeavyPages: 5},
			creds: true,
			want:  PathRemote,
		},
		{
			name:  "boundary text ratio ties local",
			sig:   extract.Signals{PageCount: 10, TextPages: 6},
			creds: true,
			want:  PathLocal,
		},
		{
			name:  "boundary image ratio goes remote",
			sig:   extract.Signals{PageCount: 10, TextPages: 8, ImageHeavyPages: 4},
			creds: true,
			want:  PathRemote,
		},
		{
			name:  "no pages goes remote",
			sig:   extract.Signals{},
			creds: true,
			want:  PathRemote,
		},
		{
			name:    "remote heuristic without creds fails",
			sig:     extract.Signals{PageCount: 10, TextPages: 1},
			creds:   false,
			wantErr: common.ErrMissingCredentials,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Decide(testCfg, Input{
				Category:       constants.PDF,
				Mode:           ModeAuto,
				Signals:        tt.sig,
				HasSignals:     tt.sig.PageCount > 0,
				HasCredentials: tt.creds,
			})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if d.Path != tt.want {
				t.Errorf("path = %q (%s), want %q", d.Path, d.Reason, tt.want)
			}
		})
	}
}

func TestDecideAutoImage(t *testing.T) {
	d, err := Decide(testCfg, Input{Category: constants.IMAGE, Mode: ModeAuto, HasCredentials: true})
	if err != nil || d.Path != PathRemote {
		t.Fatalf("image with creds: %+v, %v", d, err)
	}

	d, err = Decide(testCfg, Input{Category: constants.IMAGE, Mode: ModeAuto, HasCredentials: false})
	if err != nil {
		t.Fatal(err)
	}
	if d.Path != PathLocal {
		t.Errorf("image without creds should fall back local, got %q", d.Path)
	}
	if len(d.Warnings) != 1 || !strings.Contains(d.Warnings[0], "MISTRAL_API_KEY") {
		t.Errorf("fallback warning missing: %v", d.Warnings)
	}
}

func TestDecideDeterministic(t *testing.T) {
	in := Input{
		Category:       constants.PDF,
		Mode:           ModeAuto,
		Signals:        extract.Signals{PageCount: 7, TextPages: 4, ImageHeavyPages: 2},
		HasSignals:     true,
		HasCredentials: true,
	}
	first, err := Decide(testCfg, in)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		d, err := Decide(testCfg, in)
		if err != nil || d.Path != first.Path || d.Reason != first.Reason {
			t.Fatalf("run %d diverged: %+v vs %+v (%v)", i, d, first, err)
		}
	}
}

func TestDecideUnsupportedCategory(t *testing.T) {
	_, err := Decide(testCfg, Input{Category: constants.EXCEL, Mode: ModeAuto, HasCredentials: true})
	if !errors.Is(err, common.ErrUnsupportedFileType) {
		t.Errorf("want ErrUnsupportedFileType, got %v", err)
	}
}
