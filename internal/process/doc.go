// Package process runs one-shot child processes under a deadline.
//
// A Task is Running until exactly one of three events finishes it: the
// process exits (Completed or Failed), the deadline fires (TimedOut), or the
// caller's context ends (Failed). Timeouts and cancellations kill the whole
// process group and wait for the child to be reaped, so nothing it writes
// can land after the result is published.
//
// Example usage:
//
//	res := process.Run(ctx, process.Config{
//	    Name:     "ffmpeg",
//	    Binary:   "/usr/bin/ffmpeg",
//	    Args:     args,
//	    Deadline: 15 * time.Second,
//	}, logger)
//
//	if res.State == process.StateTimedOut {
//	    // the frame grab took too long
//	}
package process
