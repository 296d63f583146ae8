// Package client wires the generation pipeline behind one value. A [Client]
// turns a natural-language task into a validated UI schema: it builds the
// prompt (through the prompt cache when one is configured), drives the
// retry orchestrator against the LLM provider, and records the finished run
// in the history store.
//
// The entry point is [New], which takes an [ai.Provider], the generation
// settings and functional options such as [WithCatalog], [WithCache] and
// [WithHistory]:
//
//	c, err := client.New(provider, cfg,
//	    client.WithCatalog(watcher),
//	    client.WithCache(inmemory.New()),
//	    client.WithTokenBudget(4000),
//	)
//	if err != nil {
//	    return err
//	}
//	result, err := c.GenerateUI(ctx, "a login form with remember-me")
//
// Calls to the provider pass through a middleware chain; see [Middleware]
// and the middleware subpackage.
package client
