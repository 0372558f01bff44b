// Package stream runs streaming sessions: it opens a request through a
// Transport, reads the response body in fixed-size chunks, extracts each
// complete JSON object with jsonstream and hands it to the caller as soon
// as it is recognized.
//
// Every session ends with exactly one terminal callback. OnComplete fires
// after a normal end of stream, once the decoder and scanner have been
// flushed. OnError fires with a *Failure when the request could not be
// sent, the server answered with a failure status, the body failed, the
// bytes could not be decoded or the context was cancelled.
//
//	c := stream.New(stream.NewHTTPTransport(adapter))
//	out := c.Run(ctx, stream.Request{URL: url, Body: form}, stream.Handlers{
//		OnUnit: func(u jsonstream.Unit) { fmt.Println(u) },
//	})
//	if err := out.Err(); err != nil {
//		log.Fatal(err)
//	}
package stream
