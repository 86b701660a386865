// Package notify defines the notification sink boundary of the scheduling
// engine.
//
// Job handlers may return notifications as part of their result. After a
// successful run the queue worker hands the batch to the externally supplied
// Sink. The engine treats delivery as fire-and-forget: sink errors are logged
// by the caller and never affect the execution outcome.
//
// # Usage
//
//	sink := notify.SinkFunc(func(ctx context.Context, ns []notify.Notification, meta notify.Meta) error {
//	    for _, n := range ns {
//	        // deliver n.Message to n.UserID through your transport
//	    }
//	    return nil
//	})
//
// Several channels can be combined with NewMultiSink, which delivers to each
// sink best effort and never returns an error itself.
package notify
