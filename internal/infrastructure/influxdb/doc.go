// Package influxdb records controller telemetry in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, batched non-blocking writes and health monitoring. Recorder
// adapts the client to the automation engine:
//
//	reaction    one point per handled trigger: matched, rejected, skipped,
//	            executed and failed event counts plus duration
//	queue_job   one point per queued method invocation: status, queue wait
//	            and run time
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	house, err := automation.NewHouse(repo, automation.Options{
//	    Recorder: influxdb.NewRecorder(client, cfg.House.ID),
//	})
//
// # Error Handling
//
// Writes never return errors; batch failures are delivered to the
// SetOnError callback. Connect and HealthCheck return errors directly.
package influxdb
