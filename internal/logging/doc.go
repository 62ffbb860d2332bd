// Package logging provides structured logging for reploy.
//
// Logs are JSON lines written through log/slog to <state dir>/logs/debug.log
// when logging is enabled in configuration, and discarded otherwise. Child
// loggers carry the active workspace, pipeline, and step so a single run can
// be reconstructed from the file afterwards.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger(filepath.Join(stateDir, "logs"), "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	stepLog := logger.WithWorkspace("develop").WithPipeline("sync").WithStep("fetch")
//	stepLog.Info("step started")
//
// Console output meant for the user is not logged here; the command layer
// prints it directly.
package logging
