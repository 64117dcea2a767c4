package winapi

// PROCESS_ALL_ACCESS is used by internal/jobobject when opening a process
// by pid for job assignment.
const PROCESS_ALL_ACCESS uint32 = 0x1FFFFF //nolint:revive,stylecheck
