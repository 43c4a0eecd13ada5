// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package coap

import "expvar"

// endpointMetrics record endpoint activity counters.
type endpointMetrics struct {
	packetRecv    expvar.Int
	packetDropped expvar.Int
	callIn        expvar.Int // number of inbound requests received
	callInErr     expvar.Int // number of inbound requests whose handler failed
	callPending   expvar.Int // outbound calls awaiting a response

	emap *expvar.Map
}

func newEndpointMetrics() *endpointMetrics {
	em := &endpointMetrics{emap: new(expvar.Map)}
	em.emap.Set("packets_received", &em.packetRecv)
	em.emap.Set("packets_dropped", &em.packetDropped)
	em.emap.Set("calls_in", &em.callIn)
	em.emap.Set("calls_in_failed", &em.callInErr)
	em.emap.Set("calls_pending", &em.callPending)
	return em
}
