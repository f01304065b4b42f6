// Package providers groups the concrete [modeladapter.Invoker] implementations.
//
// It is organized into sub-packages:
//   - [github.com/NiyiNeo/Pixel.Bedrock/pkg/providers/bedrock] — Amazon Bedrock InvokeModel (default)
//   - [github.com/NiyiNeo/Pixel.Bedrock/pkg/providers/anthropic] — Anthropic Messages API over HTTP
//
// Both accept the same [modeladapter.Request] envelope and return the raw
// response payload; extraction of the completion text happens in pkg/extract.
//
// [modeladapter.Invoker]: https://pkg.go.dev/github.com/NiyiNeo/Pixel.Bedrock/pkg/modeladapter#Invoker
// [modeladapter.Request]: https://pkg.go.dev/github.com/NiyiNeo/Pixel.Bedrock/pkg/modeladapter#Request
package providers
