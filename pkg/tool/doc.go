// Package tool defines tool contracts, the uniform result envelope, and the
// dispatcher that executes registered tools.
//
// Invariants:
// - Tool names are unique and registered once at process start.
// - Arguments are schema-validated before execution.
// - Dispatch never propagates an error or panic; failures are ok:false data.
package tool
