// Package process supervises the backend sidecar process.
//
// A Supervisor owns at most one Child at a time:
//   - Start resolves the executable, spawns it with stdout and stderr piped,
//     stores the handle and returns a channel of output Events
//   - Stop takes the handle out of the supervisor and kills the child's
//     process group without waiting for it to exit
//   - Status and Wait observe the most recently started child
//
// The event channel carries one Event per output line, in the order each
// stream produced them, followed by a single EventTerminated once the child
// has exited and both streams are drained. The channel is then closed.
// The channel must be drained: an unread channel eventually blocks the
// child on its next write.
//
// Example usage:
//
//	sup := process.NewSupervisor(&process.Options{Logger: logger})
//	events, _, err := sup.Start(ctx, process.Spec{Name: "backend"})
//	if err != nil {
//	    return err // spawn failures are fatal
//	}
//	go func() {
//	    for ev := range events {
//	        fmt.Println(ev.Kind, ev.Line)
//	    }
//	}()
//	defer sup.Stop()
package process
