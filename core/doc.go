// Package core provides the foundational domain types shared by every other
// dreamscape package:
//
//   - Content and its closed set of Parts (text, inline blobs, function calls
//     and function responses) forming one conversation turn
//   - FunctionCall / FunctionResponse, the tool calling protocol values
//   - Capability and CapabilityError, the distinguishable "unsupported
//     capability" failure raised by providers
//
// The package has no I/O and keeps implementation concerns (models, tools,
// persistence) out of scope.
package core
