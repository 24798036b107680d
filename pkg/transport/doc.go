// Package transport intercepts outbound HTTP requests in-process.
//
// An Interceptor is an http.RoundTripper that, while handlers are attached,
// turns every round trip into two events:
//
//   - a connection event carrying a Conn and the request descriptor; the
//     handler may call Conn.Bypass to send the request to the real network
//   - a request event carrying the descriptor and a ResponseSink; the
//     handler writes the simulated response and ends the sink
//
// Intercepted requests never open a socket. Bypassed requests, and all
// requests while no handlers are attached, go to the fallback RoundTripper.
//
// # Usage
//
//	it := transport.New(transport.Options{})
//	it.Attach(onConnect, onRequest)
//	defer it.Detach()
//
//	client := &http.Client{Transport: it}
//
// With Options.Global set, Attach also swaps http.DefaultTransport so code
// using http.DefaultClient is intercepted too; Detach restores it.
package transport
