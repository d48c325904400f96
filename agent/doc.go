// Package agent defines the immutable agent configuration driven by the
// conversation loop.
//
// An Agent bundles three things:
//
//  1. A display name
//  2. System instructions (optionally a text/template rendered against state)
//  3. The tools the model may call
//
// An Agent holds no backend. The model is bound at call time by the provider
// layer, so the same agent can be replayed against any provider.
package agent
