// Package modeladapter defines the model request envelope and the interface
// for invoking a hosted model with it.
//
// It contains:
//   - [Request], the provider-neutral envelope built by pkg/request
//   - [Invoker] and [Response], the one-round-trip invocation contract
//   - [ModelAdapter], an embeddable HTTP base with auth, custom headers and usage tracking
//   - [github.com/NiyiNeo/Pixel.Bedrock/pkg/modeladapter/usage], a thread-safe token usage tracker
//
// This package contains no provider-specific code. Concrete invokers live in
// pkg/providers and import modeladapter.
package modeladapter
