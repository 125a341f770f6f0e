// Package httpclient builds the requests and clients used by HTTP sessions.
//
// All sessions of a run share one [http.Transport] from [NewTransport] so
// connections are pooled, while each session gets its own cookie jar through
// [NewSessionClient]:
//
//	transport := httpclient.NewTransport()
//	defer transport.CloseIdleConnections()
//	client, err := httpclient.NewSessionClient(transport, cfg.Timeout)
//
// [RequestBuilder] produces the GET request for the target page with the
// configured User-Agent and extra headers. [ExtractTitle] pulls the page
// title out of the response body.
package httpclient
