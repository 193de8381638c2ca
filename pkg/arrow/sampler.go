package arrow

// settlementStride is the sampling stride: the first acknowledgment and
// every 256th thereafter are sampled. Recording every settlement latency
// is too costly at high transfer rates; the stride subsamples while every
// record still reaches the summary statistics downstream.
const settlementStride = 256

// SampleDecision says whether one settlement latency is recorded as a
// sample or merely observed.
type SampleDecision bool

const (
	// Sampled settlements are written with the 'S' prefix.
	Sampled SampleDecision = true
	// Unsampled settlements are written with the 's' prefix.
	Unsampled SampleDecision = false
)

// SettlementSampler decides which acknowledgments are sampled. Active only
// on the sender side with settlement tracking enabled.
type SettlementSampler struct{}

// OnSettled returns the decision for the acknowledgment with the given
// 1-based index: Sampled at positions 1, 257, 513, ….
func (SettlementSampler) OnSettled(ackIndex uint64) SampleDecision {
	if ackIndex%settlementStride == 1 {
		return Sampled
	}
	return Unsampled
}
