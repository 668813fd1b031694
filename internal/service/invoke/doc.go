// Package invoke runs an artifacts command by delegating to node and the
// provisioned vcpkg-artifacts bundle.
//
// Runner.Run is the entry point: it forwards host arguments, provisions the
// bundle, builds the delegate's command line, waits for the delegate and
// harvests the telemetry it leaves behind.
package invoke
