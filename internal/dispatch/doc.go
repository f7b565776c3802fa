// Package dispatch runs queued device method invocations on a single
// background worker.
//
// Queue is a priority queue: higher Priority runs first and jobs of equal
// priority run in submission order. Worker pops one job at a time and
// hands it to an Executor, so queued jobs never run concurrently with
// each other. A failing or panicking job is logged and reported through
// the result hook; the worker carries on with the next one. An empty
// queue parks the worker until a job arrives or it is stopped.
//
//	q := dispatch.NewQueue(dispatch.DefaultPriority)
//	w := dispatch.NewWorker(q, house, dispatch.WorkerOptions{
//	    JobTimeout:      cfg.GetJobTimeout(),
//	    DrainOnShutdown: cfg.Queue.DrainOnShutdown,
//	})
//	w.Start(ctx)
//	defer w.Stop(shutdownCtx)
//
// A job timeout is delivered to the Executor as a context deadline. An
// executor that ignores its context still holds the worker until it
// returns.
package dispatch
