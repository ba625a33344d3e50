// Package metrics provides build metrics for the site pipeline.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no nil checks are needed at call sites:
//
//	gen := site.NewGenerator(cfg).WithRecorder(metrics.NewPrometheusRecorder(reg))
//
// The Prometheus implementation registers its collectors on the supplied
// registry. After a build the registry can be exported with WriteTextfile
// (for node_exporter's textfile collector) or served by HTTPHandler from the
// preview server.
package metrics
