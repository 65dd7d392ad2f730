// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

/*
Package supervisor provides process supervision for crmsync using suture v4.

The tree groups long-running services into three layers so a restart loop in
one does not take the others down:

	RootSupervisor ("crmsync")
	├── DataSupervisor ("data-layer")
	│   ├── SchedulerService (sync.Manager Start/Stop)
	│   └── runstate.Compactor
	├── MessagingSupervisor ("messaging-layer")
	│   └── events.EmbeddedServer (if nats.embedded_server)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Supervisor events (service failures, backoff, restarts) are logged through
sutureslog into the zerolog bridge from the logging package.

Usage:

	tree, err := supervisor.NewSupervisorTree(nil, supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddDataService(services.NewSchedulerService(manager))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return tree.Run(ctx)

Run treats context cancellation as a clean exit and logs any service that
did not stop within the shutdown timeout.
*/
package supervisor
