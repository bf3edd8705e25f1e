// rezolus-go - high-resolution Linux performance telemetry agent
// SPDX-License-Identifier: Apache-2.0

/*
Package supervisor builds the agent's root suture.Supervisor tree.

# Overview

	Tree ("rezolus-agent")
	├── sampler driver (internal/samplerdrv, added directly via AddService —
	│   it runs its own internal supervisor and per-sampler circuit breaking)
	└── api-layer ("api-layer")
	    └── HTTP server (internal/httpapi, added via AddAPIService)

A panic in the HTTP server does not stop sampling, and vice versa — each
layer restarts independently, pausing for a fixed backoff period after
repeated failures (suture's own FailureThreshold/FailureDecay/FailureBackoff
policy, exposed here as TreeConfig).

# Usage

	logger := slog.Default()
	tree, err := supervisor.NewTree(logger, supervisor.DefaultTreeConfig())
	if err != nil {
	    log.Fatal(err)
	}
	tree.AddService(driver)
	tree.AddAPIService(server)

	ctx := context.Background()
	if err := tree.Serve(ctx); err != nil {
	    log.Printf("supervisor stopped: %v", err)
	}

# Debugging shutdown

	report, err := tree.UnstoppedServiceReport()
	for _, svc := range report {
	    log.Printf("service didn't stop: %v", svc)
	}

MockService (mock_service.go) is a suture.Service test double used by
this package's tests.
*/
package supervisor
