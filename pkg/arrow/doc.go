// Package arrow implements the transfer engine at the heart of one
// performance-test arrow: a per-connection protocol driver that sends or
// receives a stream of messages under credit-based flow control and emits
// one timing record per transfer.
//
// # Architecture
//
// The engine is a single-threaded event loop. A transport binding
// (implementing Connector and Link) converts library-specific callbacks
// into Events on one channel; the engine consumes them one at a time and
// drives the fixed state machine
//
//	Idle → Connecting/Listening → Negotiating → Transferring → Draining → Closed
//
// Exactly one connection, one session, and one link exist per engine
// instance. The companion packages advise the pump but never touch
// transport state: flow.Controller paces receiver credit, the
// SettlementSampler decides which settlement latencies are sampled, and
// output.Writer buffers the emitted records.
//
// # Running an arrow
//
//	eng, err := arrow.New(arrow.Config{
//	    Params:    params,
//	    Connector: native.NewConnector(native.Config{}),
//	    Output:    output.NewWriter(os.Stdout),
//	})
//	if err != nil {
//	    // configuration rejected before any socket was opened
//	}
//	err = eng.Run(ctx)
//
// Run returns nil on clean completion (target count reached or duration
// elapsed) and an error for every fault in the taxonomy: unsupported
// modes, connect/listen failures, peer-signaled error conditions, and
// protocol violations.
package arrow
