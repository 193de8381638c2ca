package arrow

import "testing"

func TestSettlementSampler(t *testing.T) {
	var s SettlementSampler

	sampled := []uint64{1, 257, 513}
	for _, i := range sampled {
		if s.OnSettled(i) != Sampled {
			t.Errorf("index %d not sampled", i)
		}
	}

	unsampled := []uint64{2, 255, 256, 258, 512}
	for _, i := range unsampled {
		if s.OnSettled(i) != Unsampled {
			t.Errorf("index %d sampled", i)
		}
	}
}

func TestSettlementSamplerDensity(t *testing.T) {
	var s SettlementSampler
	count := 0
	for i := uint64(1); i <= 1024; i++ {
		if s.OnSettled(i) == Sampled {
			count++
		}
	}
	if count != 4 {
		t.Errorf("sampled %d of 1024, want 4", count)
	}
}
