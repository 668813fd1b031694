// Package artifacts contains the core domain types for provisioning and
// invoking the vcpkg-artifacts bundle.
//
// It defines the bundle channels (Pinned, Latest), the observed
// InstallationState and its staleness rule, the per-run InvocationSpec,
// host-parsed arguments and the error kinds the CLI boundary maps to exit codes.
package artifacts
