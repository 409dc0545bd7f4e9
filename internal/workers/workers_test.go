package workers

import (
	"os"
	"runtime"
	"testing"
)

func TestCount(t *testing.T) {
	// Save and restore original environment
	originalEnv := os.Getenv("IMAGE_WORKERS")
	defer func() {
		if originalEnv != "" {
			os.Setenv("IMAGE_WORKERS", originalEnv)
		} else {
			os.Unsetenv("IMAGE_WORKERS")
		}
	}()

	os.Unsetenv("IMAGE_WORKERS")

	availableCPU := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		multiplier float64
		limit      int
		minExpect  int
		maxExpect  int
	}{
		{
			name:       "CPU-bound task (1.0x multiplier)",
			multiplier: 1.0,
			limit:      0,
			minExpect:  1,
			maxExpect:  availableCPU,
		},
		{
			name:       "I/O-bound task (2.0x multiplier)",
			multiplier: 2.0,
			limit:      0,
			minExpect:  1,
			maxExpect:  availableCPU * 2,
		},
		{
			name:       "With limit lower than calculated",
			multiplier: 2.0,
			limit:      1,
			minExpect:  1,
			maxExpect:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Count(tt.multiplier, tt.limit)
			if got < tt.minExpect || got > tt.maxExpect {
				t.Errorf("Count(%v, %d) = %d, want between %d and %d",
					tt.multiplier, tt.limit, got, tt.minExpect, tt.maxExpect)
			}
		})
	}
}

func TestCountEnvOverride(t *testing.T) {
	originalEnv := os.Getenv("IMAGE_WORKERS")
	defer func() {
		if originalEnv != "" {
			os.Setenv("IMAGE_WORKERS", originalEnv)
		} else {
			os.Unsetenv("IMAGE_WORKERS")
		}
	}()

	os.Setenv("IMAGE_WORKERS", "3")
	if got := ForCPU(0); got != 3 {
		t.Errorf("ForCPU(0) with IMAGE_WORKERS=3 = %d, want 3", got)
	}

	// Limit still wins over the override
	if got := ForCPU(2); got != 2 {
		t.Errorf("ForCPU(2) with IMAGE_WORKERS=3 = %d, want 2", got)
	}

	// Garbage values fall back to calculation
	os.Setenv("IMAGE_WORKERS", "not-a-number")
	if got := ForCPU(0); got < 1 {
		t.Errorf("ForCPU(0) with invalid override = %d, want >= 1", got)
	}
}
