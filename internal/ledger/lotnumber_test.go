package ledger

import (
	"testing"
	"time"

	"github.com/erazemk/vcledger/internal/model"
)

func TestLotNumber(t *testing.T) {
	date := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		settings model.LotSettings
		model    string
		want     string
		wantErr  bool
	}{
		{"defaults", model.DefaultLotSettings(1, 24), "HA-200", "HA200240201", false},
		{"padding", model.LotSettings{ModelDigits: 8, DateFormat: model.DateFormatYYMMDD}, "x1", "000000X1240201", false},
		{"prefix and long date", model.LotSettings{Prefix: "AC-", ModelDigits: 5, DateFormat: model.DateFormatYYYYMMDD}, "ab 12", "AC-0AB1220240201", false},
		{"day of year", model.LotSettings{ModelDigits: 3, DateFormat: model.DateFormatYYJJJ}, "Z9", "0Z924032", false},
		{"non ascii dropped", model.LotSettings{ModelDigits: 5, DateFormat: model.DateFormatYYMMDD}, "Gel ß7", "0GEL7240201", false},
		{"too long", model.LotSettings{ModelDigits: 3, DateFormat: model.DateFormatYYMMDD}, "ABCD", "", true},
		{"no usable characters", model.DefaultLotSettings(1, 24), "--", "", true},
		{"unknown format", model.LotSettings{ModelDigits: 5, DateFormat: "DDMMYY"}, "A", "", true},
		{"zero width", model.LotSettings{DateFormat: model.DateFormatYYMMDD}, "A", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LotNumber(tt.settings, tt.model, date)
			if tt.wantErr {
				if CodeOf(err) != CodeLotNumberFailed {
					t.Fatalf("expected LOT_NUMBER_GENERATION_FAILED, got %q, %v", got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("LotNumber: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestDefaultExpiry(t *testing.T) {
	tests := []struct {
		mfg    string
		months int
		want   string
	}{
		{"2024-01-15", 24, "2026-01-14"},
		{"2024-03-01", 12, "2025-02-28"},
		{"2023-03-01", 12, "2024-02-29"},
		{"2024-12-01", 1, "2024-12-31"},
	}

	for _, tt := range tests {
		mfg, _ := time.Parse(time.DateOnly, tt.mfg)
		got := DefaultExpiry(mfg, tt.months).Format(time.DateOnly)
		if got != tt.want {
			t.Errorf("DefaultExpiry(%s, %d) = %s, want %s", tt.mfg, tt.months, got, tt.want)
		}
	}
}
